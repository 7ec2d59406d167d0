package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	MCQ         QuestionType = "mcq"
	ShortAnswer QuestionType = "short_answer"
	Descriptive QuestionType = "descriptive"
)

// Default marks per question type.
const (
	DefaultMCQMarks         = 1.0
	DefaultShortAnswerMarks = 3.0
	DefaultDescriptiveMarks = 5.0
)

type Question struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Type      QuestionType   `json:"type" gorm:"size:20;not null;index"`
	Text      string         `json:"text" gorm:"type:text;not null"`
	Content   datatypes.JSON `json:"content" gorm:"type:jsonb;not null"` // type-specific payload
	Marks     float64        `json:"marks" gorm:"not null"`
	LessonID  uint           `json:"lesson_id" gorm:"not null;index"`
	Topic     string         `json:"topic" gorm:"size:255"`
	CreatedBy string         `json:"created_by" gorm:"size:255;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Lesson *Lesson `json:"lesson,omitempty" gorm:"foreignKey:LessonID"`
}

func (Question) TableName() string {
	return "questions"
}

// MCQContent is the Content payload for MCQ questions. Option keys are
// single uppercase letters ("A".."D"); CorrectOption holds the key.
type MCQContent struct {
	Options       map[string]string `json:"options"`
	CorrectOption string            `json:"correct_option"`
}

// ShortAnswerContent carries the model answer and the key points the
// grader checks coverage against.
type ShortAnswerContent struct {
	ModelAnswer string   `json:"model_answer"`
	KeyPoints   []string `json:"key_points"`
}

// DescriptiveContent adds the expected length band on top of the model
// answer and key points.
type DescriptiveContent struct {
	ModelAnswer string   `json:"model_answer"`
	KeyPoints   []string `json:"key_points"`
	MinWords    int      `json:"min_words"`
	MaxWords    int      `json:"max_words"`
}

func DefaultMarks(qt QuestionType) float64 {
	switch qt {
	case MCQ:
		return DefaultMCQMarks
	case ShortAnswer:
		return DefaultShortAnswerMarks
	case Descriptive:
		return DefaultDescriptiveMarks
	default:
		return DefaultMCQMarks
	}
}

func IsValidQuestionType(qt QuestionType) bool {
	switch qt {
	case MCQ, ShortAnswer, Descriptive:
		return true
	}
	return false
}
