package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/HMPS-2025/homework-service/internal/cache"
	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/repositories"
)

type QuestionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
	helpers      *SharedHelpers
}

func NewQuestionPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager, helpers *SharedHelpers) *QuestionPostgreSQL {
	return &QuestionPostgreSQL{db: db, cacheManager: cacheManager, helpers: helpers}
}

func (r *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *QuestionPostgreSQL) Create(ctx context.Context, question *models.Question) error {
	if err := r.getDB(nil).WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

func (r *QuestionPostgreSQL) CreateBatch(ctx context.Context, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	if err := r.getDB(nil).WithContext(ctx).Create(&questions).Error; err != nil {
		return fmt.Errorf("failed to create questions: %w", err)
	}
	return nil
}

func (r *QuestionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	cacheKey := fmt.Sprintf("id:%d", id)

	err := r.cacheManager.Fast.CacheOrExecute(ctx, cacheKey, &question, cache.FastCacheConfig.TTL, func() (interface{}, error) {
		var q models.Question
		if err := r.getDB(nil).WithContext(ctx).First(&q, id).Error; err != nil {
			return nil, err
		}
		return &q, nil
	})
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *QuestionPostgreSQL) Update(ctx context.Context, question *models.Question) error {
	if err := r.getDB(nil).WithContext(ctx).Save(question).Error; err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	_ = r.cacheManager.Fast.Delete(ctx, fmt.Sprintf("id:%d", question.ID))
	return nil
}

func (r *QuestionPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := r.getDB(nil).WithContext(ctx).Delete(&models.Question{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete question: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	_ = r.cacheManager.Fast.Delete(ctx, fmt.Sprintf("id:%d", id))
	return nil
}

func (r *QuestionPostgreSQL) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	query := r.getDB(nil).WithContext(ctx).Model(&models.Question{})
	query = r.applyFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count questions: %w", err)
	}

	query = r.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var questions []*models.Question
	if err := query.Find(&questions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, total, nil
}

func (r *QuestionPostgreSQL) GetByLesson(ctx context.Context, lessonID uint) ([]*models.Question, error) {
	var questions []*models.Question
	err := r.getDB(nil).WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("created_at ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get questions by lesson: %w", err)
	}
	return questions, nil
}

func (r *QuestionPostgreSQL) applyFilters(query *gorm.DB, filters repositories.QuestionFilters) *gorm.DB {
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.LessonID != nil {
		query = query.Where("lesson_id = ?", *filters.LessonID)
	}
	if filters.Topic != nil {
		query = query.Where("topic = ?", *filters.Topic)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	return query
}
