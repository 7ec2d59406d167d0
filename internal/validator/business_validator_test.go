package validator

import (
	"testing"
	"time"

	"github.com/HMPS-2025/homework-service/internal/models"
)

func TestIsValidHomeworkTransition(t *testing.T) {
	tests := []struct {
		name string
		from models.HomeworkStatus
		to   models.HomeworkStatus
		want bool
	}{
		{name: "draft to scheduled", from: models.HomeworkDraft, to: models.HomeworkScheduled, want: true},
		{name: "draft to active", from: models.HomeworkDraft, to: models.HomeworkActive, want: true},
		{name: "scheduled to active", from: models.HomeworkScheduled, to: models.HomeworkActive, want: true},
		{name: "scheduled back to draft", from: models.HomeworkScheduled, to: models.HomeworkDraft, want: true},
		{name: "active to closed", from: models.HomeworkActive, to: models.HomeworkClosed, want: true},
		{name: "draft straight to closed", from: models.HomeworkDraft, to: models.HomeworkClosed, want: false},
		{name: "closed cannot reopen", from: models.HomeworkClosed, to: models.HomeworkActive, want: false},
		{name: "active back to draft", from: models.HomeworkActive, to: models.HomeworkDraft, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidHomeworkTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("IsValidHomeworkTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestIsValidSubmissionTransition(t *testing.T) {
	tests := []struct {
		name string
		from models.SubmissionStatus
		to   models.SubmissionStatus
		want bool
	}{
		{name: "draft to submitted", from: models.SubmissionDraft, to: models.SubmissionSubmitted, want: true},
		{name: "submitted to graded", from: models.SubmissionSubmitted, to: models.SubmissionGraded, want: true},
		{name: "regrade in place", from: models.SubmissionGraded, to: models.SubmissionGraded, want: true},
		{name: "draft cannot be graded", from: models.SubmissionDraft, to: models.SubmissionGraded, want: false},
		{name: "graded cannot revert", from: models.SubmissionGraded, to: models.SubmissionDraft, want: false},
		{name: "submitted cannot revert", from: models.SubmissionSubmitted, to: models.SubmissionDraft, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidSubmissionTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("IsValidSubmissionTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestValidator_CustomRules(t *testing.T) {
	v := New()

	t.Run("school_grade", func(t *testing.T) {
		type payload struct {
			Grade int `validate:"school_grade"`
		}
		if err := v.Struct(payload{Grade: 7}); err != nil {
			t.Errorf("grade 7 should be valid: %v", err)
		}
		if err := v.Struct(payload{Grade: 5}); err == nil {
			t.Error("grade 5 should be rejected")
		}
		if err := v.Struct(payload{Grade: 12}); err == nil {
			t.Error("grade 12 should be rejected")
		}
	})

	t.Run("question_type", func(t *testing.T) {
		type payload struct {
			Type string `validate:"question_type"`
		}
		for _, valid := range []string{"mcq", "short_answer", "descriptive"} {
			if err := v.Struct(payload{Type: valid}); err != nil {
				t.Errorf("type %q should be valid: %v", valid, err)
			}
		}
		if err := v.Struct(payload{Type: "essay"}); err == nil {
			t.Error("unknown type should be rejected")
		}
	})

	t.Run("future_date", func(t *testing.T) {
		type payload struct {
			DueDate *time.Time `validate:"future_date"`
		}
		future := time.Now().Add(time.Hour)
		past := time.Now().Add(-time.Hour)

		if err := v.Struct(payload{DueDate: &future}); err != nil {
			t.Errorf("future date should be valid: %v", err)
		}
		if err := v.Struct(payload{DueDate: &past}); err == nil {
			t.Error("past date should be rejected")
		}
		if err := v.Struct(payload{DueDate: nil}); err != nil {
			t.Errorf("nil date should be allowed: %v", err)
		}
	})

	t.Run("marks_range", func(t *testing.T) {
		type payload struct {
			Marks float64 `validate:"marks_range"`
		}
		if err := v.Struct(payload{Marks: 5}); err != nil {
			t.Errorf("5 marks should be valid: %v", err)
		}
		if err := v.Struct(payload{Marks: 0.1}); err == nil {
			t.Error("0.1 marks should be rejected")
		}
		if err := v.Struct(payload{Marks: 25}); err == nil {
			t.Error("25 marks should be rejected")
		}
	})
}
