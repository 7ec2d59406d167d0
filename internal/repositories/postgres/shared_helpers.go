package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/repositories"
)

// SharedHelpers contains common database operations
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// CountSubmissions counts submissions for a homework
func (h *SharedHelpers) CountSubmissions(ctx context.Context, homeworkID uint) (int64, error) {
	var count int64
	err := h.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("homework_id = ?", homeworkID).
		Count(&count).Error
	return count, err
}

// CountSubmissionsByStatus counts submissions by status
func (h *SharedHelpers) CountSubmissionsByStatus(ctx context.Context, homeworkID uint, status models.SubmissionStatus) (int64, error) {
	var count int64
	err := h.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("homework_id = ? AND status = ?", homeworkID, status).
		Count(&count).Error
	return count, err
}

// GetHomeworkBasicInfo gets the fields needed for submission checks
func (h *SharedHelpers) GetHomeworkBasicInfo(ctx context.Context, homeworkID uint) (*models.Homework, error) {
	var homework models.Homework
	err := h.db.WithContext(ctx).
		Select("id, status, due_date, allow_late, total_marks").
		First(&homework, homeworkID).Error
	return &homework, err
}

// ValidateSubmissionEligibility checks whether a student can submit now.
type SubmissionEligibility struct {
	CanSubmit bool
	IsLate    bool
	Reason    string
}

func (h *SharedHelpers) ValidateSubmissionEligibility(ctx context.Context, homeworkID uint, studentID string, now time.Time) (*SubmissionEligibility, error) {
	eligibility := &SubmissionEligibility{CanSubmit: true}

	homework, err := h.GetHomeworkBasicInfo(ctx, homeworkID)
	if err != nil {
		return nil, err
	}

	if homework.Status != models.HomeworkActive {
		eligibility.CanSubmit = false
		eligibility.Reason = "Homework is not active"
		return eligibility, nil
	}

	if now.After(homework.DueDate) {
		eligibility.IsLate = true
		if !homework.AllowLate {
			eligibility.CanSubmit = false
			eligibility.Reason = "Due date has passed"
			return eligibility, nil
		}
	}

	var submitted int64
	err = h.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("homework_id = ? AND student_id = ? AND status IN ?",
			homeworkID, studentID,
			[]models.SubmissionStatus{models.SubmissionSubmitted, models.SubmissionGraded}).
		Count(&submitted).Error
	if err != nil {
		return nil, err
	}
	if submitted > 0 {
		eligibility.CanSubmit = false
		eligibility.Reason = "Homework already submitted"
		return eligibility, nil
	}

	return eligibility, nil
}

// ApplyHomeworkFilters applies common filters to homework queries
func (h *SharedHelpers) ApplyHomeworkFilters(query *gorm.DB, filters repositories.HomeworkFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Subject != nil {
		query = query.Where("subject = ?", *filters.Subject)
	}
	if filters.Grade != nil {
		query = query.Where("grade = ?", *filters.Grade)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.DueFrom != nil {
		query = query.Where("due_date >= ?", *filters.DueFrom)
	}
	if filters.DueTo != nil {
		query = query.Where("due_date <= ?", *filters.DueTo)
	}
	return query
}

// ApplySubmissionFilters applies common filters to submission queries
func (h *SharedHelpers) ApplySubmissionFilters(query *gorm.DB, filters repositories.SubmissionFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.HomeworkID != nil {
		query = query.Where("homework_id = ?", *filters.HomeworkID)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.IsLate != nil {
		query = query.Where("is_late = ?", *filters.IsLate)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

// ApplyPaginationAndSort applies pagination and sorting with SQL injection protection
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	// Whitelist allowed sort columns
	allowedSortColumns := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"id":         true,
		"title":      true,
		"subject":    true,
		"status":     true,
		"due_date":   true,
		"grade":      true,
		"percentage": true,
	}

	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}

// BulkUpdateHomeworkStatus updates status for multiple homework rows
func (h *SharedHelpers) BulkUpdateHomeworkStatus(ctx context.Context, ids []uint, status models.HomeworkStatus) error {
	if len(ids) == 0 {
		return nil
	}
	return h.db.WithContext(ctx).
		Model(&models.Homework{}).
		Where("id IN ?", ids).
		Update("status", status).Error
}

// MonthRange returns the [start, end) bounds of a calendar month.
func MonthRange(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
