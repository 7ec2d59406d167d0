package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/HMPS-2025/homework-service/internal/cache"
	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/repositories"
)

type LessonPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
	helpers      *SharedHelpers
}

func NewLessonPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager, helpers *SharedHelpers) *LessonPostgreSQL {
	return &LessonPostgreSQL{db: db, cacheManager: cacheManager, helpers: helpers}
}

func (r *LessonPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *LessonPostgreSQL) Create(ctx context.Context, lesson *models.Lesson) error {
	if err := r.getDB(nil).WithContext(ctx).Create(lesson).Error; err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}
	return nil
}

func (r *LessonPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Lesson, error) {
	var lesson models.Lesson
	cacheKey := fmt.Sprintf("id:%d", id)

	err := r.cacheManager.Lesson.CacheOrExecute(ctx, cacheKey, &lesson, cache.LessonCacheConfig.TTL, func() (interface{}, error) {
		var l models.Lesson
		if err := r.getDB(nil).WithContext(ctx).First(&l, id).Error; err != nil {
			return nil, err
		}
		return &l, nil
	})
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *LessonPostgreSQL) Update(ctx context.Context, lesson *models.Lesson) error {
	if err := r.getDB(nil).WithContext(ctx).Save(lesson).Error; err != nil {
		return fmt.Errorf("failed to update lesson: %w", err)
	}
	_ = r.cacheManager.Lesson.Delete(ctx, fmt.Sprintf("id:%d", lesson.ID))
	return nil
}

func (r *LessonPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := r.getDB(nil).WithContext(ctx).Delete(&models.Lesson{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete lesson: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	_ = r.cacheManager.Lesson.Delete(ctx, fmt.Sprintf("id:%d", id))
	return nil
}

func (r *LessonPostgreSQL) List(ctx context.Context, filters repositories.LessonFilters) ([]*models.Lesson, int64, error) {
	query := r.getDB(nil).WithContext(ctx).Model(&models.Lesson{})
	query = r.applyFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count lessons: %w", err)
	}

	query = r.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var lessons []*models.Lesson
	if err := query.Find(&lessons).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, total, nil
}

func (r *LessonPostgreSQL) GetBySubjectAndGrade(ctx context.Context, subject string, grade int) ([]*models.Lesson, error) {
	var lessons []*models.Lesson
	err := r.getDB(nil).WithContext(ctx).
		Where("subject = ? AND grade = ?", subject, grade).
		Order("created_at DESC").
		Find(&lessons).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get lessons by subject: %w", err)
	}
	return lessons, nil
}

func (r *LessonPostgreSQL) DistinctSubjects(ctx context.Context, grade int) ([]string, error) {
	var subjects []string
	query := r.getDB(nil).WithContext(ctx).
		Model(&models.Lesson{}).
		Distinct("subject")
	if grade > 0 {
		query = query.Where("grade = ?", grade)
	}
	if err := query.Pluck("subject", &subjects).Error; err != nil {
		return nil, fmt.Errorf("failed to get distinct subjects: %w", err)
	}
	return subjects, nil
}

func (r *LessonPostgreSQL) applyFilters(query *gorm.DB, filters repositories.LessonFilters) *gorm.DB {
	if filters.Subject != nil {
		query = query.Where("subject = ?", *filters.Subject)
	}
	if filters.Grade != nil {
		query = query.Where("grade = ?", *filters.Grade)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.Search != nil && *filters.Search != "" {
		like := "%" + *filters.Search + "%"
		query = query.Where("title ILIKE ? OR unit ILIKE ?", like, like)
	}
	return query
}
