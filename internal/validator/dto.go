package validator

import (
	"encoding/json"
	"time"
)

// ===== LESSON DTOs =====

type LessonCreateRequest struct {
	Title   string `json:"title" validate:"required,min=3,max=255"`
	Subject string `json:"subject" validate:"required,min=2,max=100"`
	Grade   int    `json:"grade" validate:"required,school_grade"`
	Unit    string `json:"unit" validate:"max=255"`
	Content string `json:"content" validate:"required,min=50"`
}

type LessonUpdateRequest struct {
	Title   *string `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	Subject *string `json:"subject,omitempty" validate:"omitempty,min=2,max=100"`
	Unit    *string `json:"unit,omitempty" validate:"omitempty,max=255"`
	Content *string `json:"content,omitempty" validate:"omitempty,min=50"`
}

// ===== QUESTION DTOs =====

type QuestionCreateRequest struct {
	Type     string          `json:"type" validate:"required,question_type"`
	Text     string          `json:"text" validate:"required,min=10"`
	Content  json.RawMessage `json:"content" validate:"required"`
	Marks    float64         `json:"marks" validate:"omitempty,marks_range"`
	LessonID uint            `json:"lesson_id" validate:"required"`
	Topic    string          `json:"topic" validate:"max=255"`
}

type QuestionGenerateRequest struct {
	LessonID    uint `json:"lesson_id" validate:"required"`
	MCQ         int  `json:"mcq" validate:"min=0,max=10"`
	ShortAnswer int  `json:"short_answer" validate:"min=0,max=10"`
	Descriptive int  `json:"descriptive" validate:"min=0,max=5"`
}

// ===== HOMEWORK DTOs =====

type HomeworkCreateRequest struct {
	Title        string    `json:"title" validate:"required,min=3,max=255"`
	LessonID     uint      `json:"lesson_id" validate:"required"`
	Section      string    `json:"section" validate:"max=10"`
	DueDate      time.Time `json:"due_date" validate:"required,future_date"`
	AllowLate    bool      `json:"allow_late"`
	Instructions string    `json:"instructions"`
	QuestionIDs  []uint    `json:"question_ids" validate:"omitempty,min=1,dive,required"`
}

type HomeworkUpdateRequest struct {
	Title        *string    `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	DueDate      *time.Time `json:"due_date,omitempty" validate:"omitempty,future_date"`
	AllowLate    *bool      `json:"allow_late,omitempty"`
	Instructions *string    `json:"instructions,omitempty"`
}

type ScheduleWeekRequest struct {
	Grade     int       `json:"grade" validate:"required,school_grade"`
	WeekStart time.Time `json:"week_start" validate:"required"`
	Subjects  []string  `json:"subjects,omitempty" validate:"omitempty,dive,min=2"`
}

// ===== SUBMISSION DTOs =====

type SubmissionSaveRequest struct {
	Answers map[string]string `json:"answers" validate:"required,min=1"`
}

type OverrideGradeRequest struct {
	QuestionIndex int     `json:"question_index" validate:"min=0"`
	Marks         float64 `json:"marks" validate:"min=0"`
	Feedback      string  `json:"feedback" validate:"max=2000"`
}
