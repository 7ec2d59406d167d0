package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// MonthlyReport is the per-student monthly rollup across subjects, ranked
// within the student's grade+section. Ties share a rank (dense ranking).
type MonthlyReport struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	StudentID string `json:"student_id" gorm:"size:255;not null;uniqueIndex:idx_report_student_month"`
	Year      int    `json:"year" gorm:"not null;uniqueIndex:idx_report_student_month"`
	Month     int    `json:"month" gorm:"not null;uniqueIndex:idx_report_student_month"`

	OverallAverage float64        `json:"overall_average"`
	OverallGrade   string         `json:"overall_grade" gorm:"size:5"`
	ClassRank      int            `json:"class_rank"`
	ClassSize      int            `json:"class_size"`
	Subjects       datatypes.JSON `json:"subjects" gorm:"type:jsonb"` // []SubjectSummary

	Strengths       datatypes.JSON `json:"strengths" gorm:"type:jsonb"`       // []string
	Improvements    datatypes.JSON `json:"improvements" gorm:"type:jsonb"`    // []string
	Recommendations datatypes.JSON `json:"recommendations" gorm:"type:jsonb"` // []string

	GeneratedAt time.Time  `json:"generated_at"`
	EmailedAt   *time.Time `json:"emailed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Student *User `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

func (MonthlyReport) TableName() string {
	return "monthly_reports"
}

// SubjectSummary is one subject line inside MonthlyReport.Subjects.
type SubjectSummary struct {
	Subject           string           `json:"subject"`
	AverageScore      float64          `json:"average_score"`
	Grade             string           `json:"grade"`
	HomeworkCompleted int              `json:"homework_completed"`
	TotalHomework     int              `json:"total_homework"`
	Trend             PerformanceTrend `json:"trend"`
}

func (r *MonthlyReport) SubjectList() []SubjectSummary {
	if len(r.Subjects) == 0 {
		return nil
	}
	var list []SubjectSummary
	if err := json.Unmarshal(r.Subjects, &list); err != nil {
		return nil
	}
	return list
}
