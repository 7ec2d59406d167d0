package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type SubmissionStatus string

const (
	SubmissionDraft     SubmissionStatus = "draft"
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionGraded    SubmissionStatus = "graded"
)

// Submission holds a student's answers for one homework. One row per
// (homework, student); answers are keyed by the question's order index.
type Submission struct {
	ID         uint             `json:"id" gorm:"primaryKey"`
	HomeworkID uint             `json:"homework_id" gorm:"not null;uniqueIndex:idx_submission_homework_student;index"`
	StudentID  string           `json:"student_id" gorm:"size:255;not null;uniqueIndex:idx_submission_homework_student;index"`
	Status     SubmissionStatus `json:"status" gorm:"size:20;not null;default:draft;index"`
	Answers    datatypes.JSON   `json:"answers" gorm:"type:jsonb"` // map[orderIndex]answer text

	SubmittedAt *time.Time `json:"submitted_at"`
	IsLate      bool       `json:"is_late" gorm:"default:false"`

	// Grading outcome
	MarksObtained float64        `json:"marks_obtained" gorm:"default:0"`
	TotalMarks    float64        `json:"total_marks" gorm:"default:0"`
	Percentage    float64        `json:"percentage" gorm:"default:0"`
	Grade         *string        `json:"grade,omitempty" gorm:"size:5"`
	Results       datatypes.JSON `json:"results,omitempty" gorm:"type:jsonb"` // []AnswerResult
	GradedAt      *time.Time     `json:"graded_at,omitempty"`
	GradedBy      *string        `json:"graded_by,omitempty" gorm:"size:255"` // "auto" or teacher user ID

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Homework *Homework `json:"homework,omitempty" gorm:"foreignKey:HomeworkID"`
	Student  *User     `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

func (Submission) TableName() string {
	return "submissions"
}

// AnswerResult is one graded answer, stored in Submission.Results. The
// component scores stay on the record so teachers can see what drove a
// mark before overriding it.
type AnswerResult struct {
	QuestionIndex  int          `json:"question_index"`
	QuestionID     uint         `json:"question_id"`
	Type           QuestionType `json:"type"`
	Topic          string       `json:"topic,omitempty"`
	MarksAwarded   float64      `json:"marks_awarded"`
	MaxMarks       float64      `json:"max_marks"`
	IsCorrect      *bool        `json:"is_correct,omitempty"`
	SemanticScore  float64      `json:"semantic_score"`
	KeyPointScore  float64      `json:"key_point_score"`
	LengthScore    float64      `json:"length_score"`
	CoherenceScore float64      `json:"coherence_score"`
	Feedback       string       `json:"feedback,omitempty"`
	Overridden     bool         `json:"overridden,omitempty"`
}

func (s *Submission) AnswerMap() map[string]string {
	if len(s.Answers) == 0 {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(s.Answers, &m); err != nil {
		return nil
	}
	return m
}

func (s *Submission) ResultList() []AnswerResult {
	if len(s.Results) == 0 {
		return nil
	}
	var list []AnswerResult
	if err := json.Unmarshal(s.Results, &list); err != nil {
		return nil
	}
	return list
}
