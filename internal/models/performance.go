package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type PerformanceTrend string

const (
	TrendImproving PerformanceTrend = "improving"
	TrendDeclining PerformanceTrend = "declining"
	TrendStable    PerformanceTrend = "stable"
)

// PerformanceRecord is the per-student per-subject monthly rollup. Only
// graded submissions inside the calendar month feed the averages.
type PerformanceRecord struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	StudentID string `json:"student_id" gorm:"size:255;not null;uniqueIndex:idx_perf_student_subject_month"`
	Subject   string `json:"subject" gorm:"size:100;not null;uniqueIndex:idx_perf_student_subject_month"`
	Year      int    `json:"year" gorm:"not null;uniqueIndex:idx_perf_student_subject_month"`
	Month     int    `json:"month" gorm:"not null;uniqueIndex:idx_perf_student_subject_month"` // 1..12

	AverageScore      float64          `json:"average_score"` // mean percentage
	HighestScore      float64          `json:"highest_score"`
	LowestScore       float64          `json:"lowest_score"`
	Grade             string           `json:"grade" gorm:"size:5"`
	HomeworkCompleted int              `json:"homework_completed"`
	TotalHomework     int              `json:"total_homework"`
	LateSubmissions   int              `json:"late_submissions"`
	WeakAreas         datatypes.JSON   `json:"weak_areas,omitempty" gorm:"type:jsonb"`   // []string topics
	StrongAreas       datatypes.JSON   `json:"strong_areas,omitempty" gorm:"type:jsonb"` // []string topics
	Trend             PerformanceTrend `json:"trend" gorm:"size:20;default:stable"`
	NeedsAttention    bool             `json:"needs_attention" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Student *User `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

func (PerformanceRecord) TableName() string {
	return "performance_records"
}

func (p *PerformanceRecord) WeakAreaList() []string {
	return topicList(p.WeakAreas)
}

func (p *PerformanceRecord) StrongAreaList() []string {
	return topicList(p.StrongAreas)
}

func topicList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	return list
}

func (p *PerformanceRecord) CompletionRate() float64 {
	if p.TotalHomework == 0 {
		return 0
	}
	return float64(p.HomeworkCompleted) / float64(p.TotalHomework) * 100
}
