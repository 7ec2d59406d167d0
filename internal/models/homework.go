package models

import (
	"time"

	"gorm.io/gorm"
)

type HomeworkStatus string

const (
	HomeworkDraft     HomeworkStatus = "draft"
	HomeworkScheduled HomeworkStatus = "scheduled"
	HomeworkActive    HomeworkStatus = "active"
	HomeworkClosed    HomeworkStatus = "closed"
)

type Homework struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Title        string         `json:"title" gorm:"size:255;not null"`
	LessonID     uint           `json:"lesson_id" gorm:"not null;index"`
	Subject      string         `json:"subject" gorm:"size:100;not null;index"`
	Grade        int            `json:"grade" gorm:"not null;index"`
	Section      string         `json:"section" gorm:"size:10"`
	Status       HomeworkStatus `json:"status" gorm:"size:20;not null;default:draft;index"`
	AssignedDate *time.Time     `json:"assigned_date"`
	DueDate      time.Time      `json:"due_date" gorm:"not null;index"`
	AllowLate    bool           `json:"allow_late" gorm:"default:false"`
	TotalMarks   float64        `json:"total_marks" gorm:"not null;default:0"`
	Instructions string         `json:"instructions" gorm:"type:text"`
	CreatedBy    string         `json:"created_by" gorm:"size:255;not null;index"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	Lesson    *Lesson            `json:"lesson,omitempty" gorm:"foreignKey:LessonID"`
	Questions []HomeworkQuestion `json:"questions,omitempty" gorm:"foreignKey:HomeworkID"`

	// Computed, not persisted
	QuestionCount   int `json:"question_count" gorm:"-"`
	SubmissionCount int `json:"submission_count" gorm:"-"`
}

func (Homework) TableName() string {
	return "homework"
}

// HomeworkQuestion orders questions within a homework. Points may override
// the question's own marks; zero means use Question.Marks.
type HomeworkQuestion struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	HomeworkID uint    `json:"homework_id" gorm:"not null;uniqueIndex:idx_homework_question"`
	QuestionID uint    `json:"question_id" gorm:"not null;uniqueIndex:idx_homework_question"`
	Order      int     `json:"order" gorm:"column:question_order;not null"`
	Points     float64 `json:"points" gorm:"default:0"`

	Question *Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (HomeworkQuestion) TableName() string {
	return "homework_questions"
}

// EffectivePoints resolves the override against the question default.
func (hq *HomeworkQuestion) EffectivePoints() float64 {
	if hq.Points > 0 {
		return hq.Points
	}
	if hq.Question != nil {
		return hq.Question.Marks
	}
	return 0
}

func (h *Homework) IsOpen(now time.Time) bool {
	return h.Status == HomeworkActive && (h.AllowLate || !now.After(h.DueDate))
}
