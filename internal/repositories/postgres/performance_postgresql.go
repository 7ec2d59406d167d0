package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/repositories"
)

type PerformancePostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewPerformancePostgreSQL(db *gorm.DB, helpers *SharedHelpers) *PerformancePostgreSQL {
	return &PerformancePostgreSQL{db: db, helpers: helpers}
}

func (r *PerformancePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *PerformancePostgreSQL) Upsert(ctx context.Context, record *models.PerformanceRecord) error {
	err := r.getDB(nil).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "student_id"}, {Name: "subject"}, {Name: "year"}, {Name: "month"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"average_score", "highest_score", "lowest_score", "grade",
				"homework_completed", "total_homework", "late_submissions",
				"weak_areas", "strong_areas", "trend", "needs_attention", "updated_at",
			}),
		}).
		Create(record).Error
	if err != nil {
		return fmt.Errorf("failed to upsert performance record: %w", err)
	}
	return nil
}

func (r *PerformancePostgreSQL) Get(ctx context.Context, studentID, subject string, year, month int) (*models.PerformanceRecord, error) {
	var record models.PerformanceRecord
	err := r.getDB(nil).WithContext(ctx).
		Where("student_id = ? AND subject = ? AND year = ? AND month = ?", studentID, subject, year, month).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *PerformancePostgreSQL) ListByStudent(ctx context.Context, studentID string, year, month int) ([]*models.PerformanceRecord, error) {
	var records []*models.PerformanceRecord
	err := r.getDB(nil).WithContext(ctx).
		Where("student_id = ? AND year = ? AND month = ?", studentID, year, month).
		Order("subject ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list performance records: %w", err)
	}
	return records, nil
}

// GetClassAverages returns graded-submission averages for every student in
// the grade+section for the month, used for class ranking.
func (r *PerformancePostgreSQL) GetClassAverages(ctx context.Context, grade int, section string, year, month int) ([]repositories.ClassAverage, error) {
	start, end := MonthRange(year, month)

	query := r.getDB(nil).WithContext(ctx).
		Table("submissions").
		Select("submissions.student_id, COALESCE(AVG(submissions.percentage), 0) as average_score").
		Joins("JOIN users ON users.id = submissions.student_id").
		Where("users.grade = ? AND users.role = ?", grade, models.RoleStudent).
		Where("submissions.status = ?", models.SubmissionGraded).
		Where("submissions.graded_at >= ? AND submissions.graded_at < ?", start, end).
		Group("submissions.student_id")
	if section != "" {
		query = query.Where("users.section = ?", section)
	}

	var averages []repositories.ClassAverage
	if err := query.Scan(&averages).Error; err != nil {
		return nil, fmt.Errorf("failed to get class averages: %w", err)
	}
	return averages, nil
}
