package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/HMPS-2025/homework-service/internal/cache"
	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/repositories"
)

type HomeworkPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
	helpers      *SharedHelpers
}

func NewHomeworkPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager, helpers *SharedHelpers) *HomeworkPostgreSQL {
	return &HomeworkPostgreSQL{db: db, cacheManager: cacheManager, helpers: helpers}
}

func (r *HomeworkPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *HomeworkPostgreSQL) Create(ctx context.Context, homework *models.Homework) error {
	if err := r.getDB(nil).WithContext(ctx).Create(homework).Error; err != nil {
		return fmt.Errorf("failed to create homework: %w", err)
	}
	return nil
}

func (r *HomeworkPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Homework, error) {
	var homework models.Homework
	cacheKey := fmt.Sprintf("id:%d", id)

	err := r.cacheManager.Homework.CacheOrExecute(ctx, cacheKey, &homework, cache.HomeworkCacheConfig.TTL, func() (interface{}, error) {
		var h models.Homework
		if err := r.getDB(nil).WithContext(ctx).First(&h, id).Error; err != nil {
			return nil, err
		}
		return &h, nil
	})
	if err != nil {
		return nil, err
	}
	return &homework, nil
}

func (r *HomeworkPostgreSQL) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Homework, error) {
	var homework models.Homework
	err := r.getDB(nil).WithContext(ctx).
		Preload("Lesson").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("homework_questions.question_order ASC")
		}).
		Preload("Questions.Question").
		First(&homework, id).Error
	if err != nil {
		return nil, err
	}
	homework.QuestionCount = len(homework.Questions)
	return &homework, nil
}

func (r *HomeworkPostgreSQL) Update(ctx context.Context, homework *models.Homework) error {
	if err := r.getDB(nil).WithContext(ctx).Save(homework).Error; err != nil {
		return fmt.Errorf("failed to update homework: %w", err)
	}
	_ = r.cacheManager.Homework.Delete(ctx, fmt.Sprintf("id:%d", homework.ID))
	return nil
}

func (r *HomeworkPostgreSQL) UpdateStatus(ctx context.Context, id uint, status models.HomeworkStatus) error {
	result := r.getDB(nil).WithContext(ctx).
		Model(&models.Homework{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update homework status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	_ = r.cacheManager.Homework.Delete(ctx, fmt.Sprintf("id:%d", id))
	return nil
}

func (r *HomeworkPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := r.getDB(nil).WithContext(ctx).Delete(&models.Homework{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete homework: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	_ = r.cacheManager.InvalidateHomework(ctx, id)
	return nil
}

func (r *HomeworkPostgreSQL) List(ctx context.Context, filters repositories.HomeworkFilters) ([]*models.Homework, int64, error) {
	query := r.getDB(nil).WithContext(ctx).Model(&models.Homework{})
	query = r.helpers.ApplyHomeworkFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count homework: %w", err)
	}

	query = r.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var homework []*models.Homework
	if err := query.Find(&homework).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list homework: %w", err)
	}
	return homework, total, nil
}

func (r *HomeworkPostgreSQL) AddQuestions(ctx context.Context, homeworkID uint, questions []models.HomeworkQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	for i := range questions {
		questions[i].HomeworkID = homeworkID
	}
	if err := r.getDB(nil).WithContext(ctx).Create(&questions).Error; err != nil {
		return fmt.Errorf("failed to add homework questions: %w", err)
	}
	_ = r.cacheManager.Homework.Delete(ctx, fmt.Sprintf("id:%d", homeworkID))
	return nil
}

func (r *HomeworkPostgreSQL) RemoveQuestion(ctx context.Context, homeworkID, questionID uint) error {
	result := r.getDB(nil).WithContext(ctx).
		Where("homework_id = ? AND question_id = ?", homeworkID, questionID).
		Delete(&models.HomeworkQuestion{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove homework question: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	_ = r.cacheManager.Homework.Delete(ctx, fmt.Sprintf("id:%d", homeworkID))
	return nil
}

func (r *HomeworkPostgreSQL) GetQuestions(ctx context.Context, homeworkID uint) ([]models.HomeworkQuestion, error) {
	var questions []models.HomeworkQuestion
	err := r.getDB(nil).WithContext(ctx).
		Preload("Question").
		Where("homework_id = ?", homeworkID).
		Order("question_order ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get homework questions: %w", err)
	}
	return questions, nil
}

func (r *HomeworkPostgreSQL) ListActivePastDue(ctx context.Context, cutoff time.Time) ([]*models.Homework, error) {
	var homework []*models.Homework
	err := r.getDB(nil).WithContext(ctx).
		Where("status = ? AND due_date < ?", models.HomeworkActive, cutoff).
		Find(&homework).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list past-due homework: %w", err)
	}
	return homework, nil
}

func (r *HomeworkPostgreSQL) ListScheduledToActivate(ctx context.Context, now time.Time) ([]*models.Homework, error) {
	var homework []*models.Homework
	err := r.getDB(nil).WithContext(ctx).
		Where("status = ? AND assigned_date <= ?", models.HomeworkScheduled, now).
		Find(&homework).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled homework: %w", err)
	}
	return homework, nil
}

func (r *HomeworkPostgreSQL) CountInWeek(ctx context.Context, subject string, grade int, weekStart time.Time) (int64, error) {
	weekEnd := weekStart.AddDate(0, 0, 7)
	var count int64
	err := r.getDB(nil).WithContext(ctx).
		Model(&models.Homework{}).
		Where("subject = ? AND grade = ? AND assigned_date >= ? AND assigned_date < ?",
			subject, grade, weekStart, weekEnd).
		Count(&count).Error
	return count, err
}

func (r *HomeworkPostgreSQL) GetStats(ctx context.Context, homeworkID uint) (*repositories.HomeworkStats, error) {
	stats := &repositories.HomeworkStats{}
	cacheKey := fmt.Sprintf("homework:%d", homeworkID)

	err := r.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		s := &repositories.HomeworkStats{}
		row := r.getDB(nil).WithContext(ctx).
			Model(&models.Submission{}).
			Select(`COUNT(*) as total,
				COUNT(*) FILTER (WHERE status = 'graded') as graded,
				COUNT(*) FILTER (WHERE is_late) as late,
				COALESCE(AVG(percentage) FILTER (WHERE status = 'graded'), 0) as avg_score,
				COALESCE(MAX(percentage) FILTER (WHERE status = 'graded'), 0) as max_score,
				COALESCE(MIN(percentage) FILTER (WHERE status = 'graded'), 0) as min_score`).
			Where("homework_id = ?", homeworkID).
			Row()
		if err := row.Scan(&s.TotalSubmissions, &s.GradedSubmissions, &s.LateSubmissions,
			&s.AverageScore, &s.HighestScore, &s.LowestScore); err != nil {
			return nil, fmt.Errorf("failed to scan homework stats: %w", err)
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
