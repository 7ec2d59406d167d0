package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/HMPS-2025/homework-service/internal/models"
)

type ReportPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewReportPostgreSQL(db *gorm.DB, helpers *SharedHelpers) *ReportPostgreSQL {
	return &ReportPostgreSQL{db: db, helpers: helpers}
}

func (r *ReportPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *ReportPostgreSQL) Upsert(ctx context.Context, report *models.MonthlyReport) error {
	err := r.getDB(nil).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "student_id"}, {Name: "year"}, {Name: "month"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"overall_average", "overall_grade", "class_rank", "class_size",
				"subjects", "strengths", "improvements", "recommendations",
				"generated_at", "updated_at",
			}),
		}).
		Create(report).Error
	if err != nil {
		return fmt.Errorf("failed to upsert monthly report: %w", err)
	}
	return nil
}

func (r *ReportPostgreSQL) GetByStudentAndMonth(ctx context.Context, studentID string, year, month int) (*models.MonthlyReport, error) {
	var report models.MonthlyReport
	err := r.getDB(nil).WithContext(ctx).
		Preload("Student").
		Where("student_id = ? AND year = ? AND month = ?", studentID, year, month).
		First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *ReportPostgreSQL) ListByMonth(ctx context.Context, year, month int) ([]*models.MonthlyReport, error) {
	var reports []*models.MonthlyReport
	err := r.getDB(nil).WithContext(ctx).
		Preload("Student").
		Where("year = ? AND month = ?", year, month).
		Order("class_rank ASC").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list monthly reports: %w", err)
	}
	return reports, nil
}

func (r *ReportPostgreSQL) MarkEmailed(ctx context.Context, id uint, at time.Time) error {
	result := r.getDB(nil).WithContext(ctx).
		Model(&models.MonthlyReport{}).
		Where("id = ?", id).
		Update("emailed_at", at)
	if result.Error != nil {
		return fmt.Errorf("failed to mark report emailed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
