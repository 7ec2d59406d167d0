package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/HMPS-2025/homework-service/internal/cache"
	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/repositories"
)

type SubmissionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
	helpers      *SharedHelpers
}

func NewSubmissionPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager, helpers *SharedHelpers) *SubmissionPostgreSQL {
	return &SubmissionPostgreSQL{db: db, cacheManager: cacheManager, helpers: helpers}
}

func (r *SubmissionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *SubmissionPostgreSQL) Create(ctx context.Context, submission *models.Submission) error {
	if err := r.getDB(nil).WithContext(ctx).Create(submission).Error; err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (r *SubmissionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	var submission models.Submission
	if err := r.getDB(nil).WithContext(ctx).First(&submission, id).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *SubmissionPostgreSQL) GetByIDWithHomework(ctx context.Context, id uint) (*models.Submission, error) {
	var submission models.Submission
	err := r.getDB(nil).WithContext(ctx).
		Preload("Homework").
		Preload("Student").
		First(&submission, id).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *SubmissionPostgreSQL) GetByHomeworkAndStudent(ctx context.Context, homeworkID uint, studentID string) (*models.Submission, error) {
	var submission models.Submission
	err := r.getDB(nil).WithContext(ctx).
		Where("homework_id = ? AND student_id = ?", homeworkID, studentID).
		First(&submission).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *SubmissionPostgreSQL) Update(ctx context.Context, submission *models.Submission) error {
	if err := r.getDB(nil).WithContext(ctx).Save(submission).Error; err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}
	_ = r.cacheManager.InvalidateSubmission(ctx, submission.ID)
	_ = r.cacheManager.Stats.InvalidatePattern(ctx, fmt.Sprintf("*%d*", submission.HomeworkID))
	return nil
}

func (r *SubmissionPostgreSQL) List(ctx context.Context, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	query := r.getDB(nil).WithContext(ctx).Model(&models.Submission{})
	query = r.helpers.ApplySubmissionFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	query = r.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var submissions []*models.Submission
	if err := query.Find(&submissions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, total, nil
}

func (r *SubmissionPostgreSQL) ListByHomework(ctx context.Context, homeworkID uint) ([]*models.Submission, error) {
	var submissions []*models.Submission
	err := r.getDB(nil).WithContext(ctx).
		Preload("Student").
		Where("homework_id = ?", homeworkID).
		Order("submitted_at ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions by homework: %w", err)
	}
	return submissions, nil
}

func (r *SubmissionPostgreSQL) ListPendingGrading(ctx context.Context, homeworkID uint) ([]*models.Submission, error) {
	var submissions []*models.Submission
	err := r.getDB(nil).WithContext(ctx).
		Where("homework_id = ? AND status = ?", homeworkID, models.SubmissionSubmitted).
		Order("submitted_at ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending submissions: %w", err)
	}
	return submissions, nil
}

func (r *SubmissionPostgreSQL) ListGradedInMonth(ctx context.Context, studentID, subject string, year, month int) ([]*models.Submission, error) {
	start, end := MonthRange(year, month)

	var submissions []*models.Submission
	query := r.getDB(nil).WithContext(ctx).
		Joins("JOIN homework ON homework.id = submissions.homework_id").
		Where("submissions.student_id = ? AND submissions.status = ?", studentID, models.SubmissionGraded).
		Where("submissions.graded_at >= ? AND submissions.graded_at < ?", start, end)
	if subject != "" {
		query = query.Where("homework.subject = ?", subject)
	}
	if err := query.Find(&submissions).Error; err != nil {
		return nil, fmt.Errorf("failed to list graded submissions: %w", err)
	}
	return submissions, nil
}

func (r *SubmissionPostgreSQL) CountAssignedInMonth(ctx context.Context, subject string, grade int, year, month int) (int64, error) {
	start, end := MonthRange(year, month)

	var count int64
	query := r.getDB(nil).WithContext(ctx).
		Model(&models.Homework{}).
		Where("grade = ? AND status IN ?", grade,
			[]models.HomeworkStatus{models.HomeworkActive, models.HomeworkClosed}).
		Where("assigned_date >= ? AND assigned_date < ?", start, end)
	if subject != "" {
		query = query.Where("subject = ?", subject)
	}
	err := query.Count(&count).Error
	return count, err
}
