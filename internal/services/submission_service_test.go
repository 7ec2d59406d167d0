package services

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/repositories"
	"github.com/HMPS-2025/homework-service/internal/validator"
)

// stubRepository wires hand-rolled homework/submission repos into the
// aggregate; the embedded interface panics on anything not stubbed.
type stubRepository struct {
	repositories.Repository
	homework   *stubHomeworkRepo
	submission *stubSubmissionRepo
}

func (r *stubRepository) Homework() repositories.HomeworkRepository     { return r.homework }
func (r *stubRepository) Submission() repositories.SubmissionRepository { return r.submission }
func (r *stubRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}

type stubHomeworkRepo struct {
	repositories.HomeworkRepository
	homework *models.Homework
}

func (r *stubHomeworkRepo) GetByID(ctx context.Context, id uint) (*models.Homework, error) {
	if r.homework == nil || r.homework.ID != id {
		return nil, repositories.ErrNotFound
	}
	return r.homework, nil
}

type stubSubmissionRepo struct {
	repositories.SubmissionRepository
	existing *models.Submission
	created  *models.Submission
	updated  *models.Submission
}

func (r *stubSubmissionRepo) GetByHomeworkAndStudent(ctx context.Context, homeworkID uint, studentID string) (*models.Submission, error) {
	if r.existing == nil {
		return nil, repositories.ErrNotFound
	}
	return r.existing, nil
}

func (r *stubSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	submission.ID = 1
	r.created = submission
	return nil
}

func (r *stubSubmissionRepo) Update(ctx context.Context, submission *models.Submission) error {
	r.updated = submission
	return nil
}

func newTestSubmissionService(homework *models.Homework, existing *models.Submission) (*submissionService, *stubSubmissionRepo) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	submissionRepo := &stubSubmissionRepo{existing: existing}
	repo := &stubRepository{
		homework:   &stubHomeworkRepo{homework: homework},
		submission: submissionRepo,
	}
	service := &submissionService{
		repo:      repo,
		logger:    logger,
		validator: validator.New(),
	}
	return service, submissionRepo
}

type stubAutoGrader struct {
	GradingService
	graded   []uint
	gradedBy []string
}

func (s *stubAutoGrader) GradeSubmission(ctx context.Context, submissionID uint, gradedBy string) (*SubmissionGradingResult, error) {
	s.graded = append(s.graded, submissionID)
	s.gradedBy = append(s.gradedBy, gradedBy)
	return &SubmissionGradingResult{SubmissionID: submissionID}, nil
}

func activeHomework(dueDate time.Time, allowLate bool) *models.Homework {
	return &models.Homework{
		ID:         10,
		Title:      "Water cycle worksheet",
		Subject:    "Science",
		Grade:      7,
		Status:     models.HomeworkActive,
		DueDate:    dueDate,
		AllowLate:  allowLate,
		TotalMarks: 10,
	}
}

func TestSubmissionService_Submit(t *testing.T) {
	ctx := context.Background()
	answers := map[string]string{"0": "A", "1": "Evaporation moves water into the air"}

	t.Run("on-time submission is not late", func(t *testing.T) {
		service, repo := newTestSubmissionService(activeHomework(time.Now().Add(24*time.Hour), false), nil)

		submission, err := service.Submit(ctx, 10, "student-1", SaveSubmissionRequest{Answers: answers})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if submission.IsLate {
			t.Error("Expected submission not to be late")
		}
		if submission.Status != models.SubmissionSubmitted {
			t.Errorf("Status = %s, want %s", submission.Status, models.SubmissionSubmitted)
		}
		if submission.SubmittedAt == nil {
			t.Error("SubmittedAt should be set")
		}
		if repo.created == nil {
			t.Error("Expected a new submission to be created")
		}
	})

	t.Run("late submission rejected when late work not allowed", func(t *testing.T) {
		service, _ := newTestSubmissionService(activeHomework(time.Now().Add(-time.Hour), false), nil)

		_, err := service.Submit(ctx, 10, "student-1", SaveSubmissionRequest{Answers: answers})
		if err != ErrDueDatePassed {
			t.Fatalf("Expected ErrDueDatePassed, got %v", err)
		}
	})

	t.Run("late submission accepted and flagged when allowed", func(t *testing.T) {
		service, _ := newTestSubmissionService(activeHomework(time.Now().Add(-time.Hour), true), nil)

		submission, err := service.Submit(ctx, 10, "student-1", SaveSubmissionRequest{Answers: answers})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if !submission.IsLate {
			t.Error("Expected submission to be flagged late")
		}
	})

	t.Run("duplicate submission rejected", func(t *testing.T) {
		existing := &models.Submission{
			ID:         1,
			HomeworkID: 10,
			StudentID:  "student-1",
			Status:     models.SubmissionSubmitted,
		}
		service, _ := newTestSubmissionService(activeHomework(time.Now().Add(24*time.Hour), false), existing)

		_, err := service.Submit(ctx, 10, "student-1", SaveSubmissionRequest{Answers: answers})
		if err != ErrAlreadySubmitted {
			t.Fatalf("Expected ErrAlreadySubmitted, got %v", err)
		}
	})

	t.Run("draft is promoted on submit", func(t *testing.T) {
		existing := &models.Submission{
			ID:         1,
			HomeworkID: 10,
			StudentID:  "student-1",
			Status:     models.SubmissionDraft,
		}
		service, repo := newTestSubmissionService(activeHomework(time.Now().Add(24*time.Hour), false), existing)

		submission, err := service.Submit(ctx, 10, "student-1", SaveSubmissionRequest{Answers: answers})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if submission.Status != models.SubmissionSubmitted {
			t.Errorf("Status = %s, want %s", submission.Status, models.SubmissionSubmitted)
		}
		if repo.updated == nil {
			t.Error("Expected the draft to be updated in place")
		}
	})

	t.Run("submitting kicks off auto-grading", func(t *testing.T) {
		service, _ := newTestSubmissionService(activeHomework(time.Now().Add(24*time.Hour), false), nil)
		grading := &stubAutoGrader{}
		service.grading = grading

		submission, err := service.Submit(ctx, 10, "student-1", SaveSubmissionRequest{Answers: answers})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if len(grading.graded) != 1 || grading.graded[0] != submission.ID {
			t.Fatalf("Expected submission %d to be graded, got %v", submission.ID, grading.graded)
		}
		if grading.gradedBy[0] != AutoGrader {
			t.Errorf("GradedBy = %q, want %q", grading.gradedBy[0], AutoGrader)
		}
	})

	t.Run("inactive homework rejected", func(t *testing.T) {
		homework := activeHomework(time.Now().Add(24*time.Hour), false)
		homework.Status = models.HomeworkClosed
		service, _ := newTestSubmissionService(homework, nil)

		_, err := service.Submit(ctx, 10, "student-1", SaveSubmissionRequest{Answers: answers})
		if err != ErrHomeworkNotActive {
			t.Fatalf("Expected ErrHomeworkNotActive, got %v", err)
		}
	})
}

func TestSubmissionService_SaveDraft(t *testing.T) {
	ctx := context.Background()
	answers := map[string]string{"0": "B"}

	t.Run("creates a draft", func(t *testing.T) {
		service, repo := newTestSubmissionService(activeHomework(time.Now().Add(24*time.Hour), false), nil)

		submission, err := service.SaveDraft(ctx, 10, "student-1", SaveSubmissionRequest{Answers: answers})
		if err != nil {
			t.Fatalf("SaveDraft failed: %v", err)
		}
		if submission.Status != models.SubmissionDraft {
			t.Errorf("Status = %s, want %s", submission.Status, models.SubmissionDraft)
		}
		if repo.created == nil {
			t.Error("Expected a draft to be created")
		}
	})

	t.Run("cannot overwrite a submitted submission", func(t *testing.T) {
		existing := &models.Submission{
			ID:         1,
			HomeworkID: 10,
			StudentID:  "student-1",
			Status:     models.SubmissionSubmitted,
		}
		service, _ := newTestSubmissionService(activeHomework(time.Now().Add(24*time.Hour), false), existing)

		_, err := service.SaveDraft(ctx, 10, "student-1", SaveSubmissionRequest{Answers: answers})
		if err != ErrAlreadySubmitted {
			t.Fatalf("Expected ErrAlreadySubmitted, got %v", err)
		}
	})
}
