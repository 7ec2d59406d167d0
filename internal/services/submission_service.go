package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/repositories"
	"github.com/HMPS-2025/homework-service/internal/validator"
)

type submissionService struct {
	db           *gorm.DB
	repo         repositories.Repository
	logger       *slog.Logger
	validator    *validator.Validator
	notification NotificationEventService
	grading      GradingService
}

func NewSubmissionService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, v *validator.Validator, notification NotificationEventService, grading GradingService) SubmissionService {
	return &submissionService{db: db, repo: repo, logger: logger, validator: v, notification: notification, grading: grading}
}

// SaveDraft stores answers without submitting. Students can save as
// often as they like until the homework closes.
func (s *submissionService) SaveDraft(ctx context.Context, homeworkID uint, studentID string, req SaveSubmissionRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, toValidationErrors(err)
	}

	homework, err := s.getOpenHomework(ctx, homeworkID)
	if err != nil {
		return nil, err
	}

	submission, err := s.repo.Submission().GetByHomeworkAndStudent(ctx, homeworkID, studentID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	if submission != nil {
		if submission.Status != models.SubmissionDraft {
			return nil, ErrAlreadySubmitted
		}
		submission.Answers = mustJSON(req.Answers)
		if err := s.repo.Submission().Update(ctx, submission); err != nil {
			return nil, fmt.Errorf("failed to update draft: %w", err)
		}
		return submission, nil
	}

	submission = &models.Submission{
		HomeworkID: homework.ID,
		StudentID:  studentID,
		Status:     models.SubmissionDraft,
		Answers:    mustJSON(req.Answers),
		TotalMarks: homework.TotalMarks,
	}
	if err := s.repo.Submission().Create(ctx, submission); err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}

	s.logger.Debug("draft saved", "homework_id", homeworkID, "student_id", studentID)
	return submission, nil
}

// Submit finalizes a submission. A submission arriving after the due
// date is rejected unless the homework allows late work, in which case
// it is stored flagged late.
func (s *submissionService) Submit(ctx context.Context, homeworkID uint, studentID string, req SaveSubmissionRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, toValidationErrors(err)
	}

	homework, err := s.getHomework(ctx, homeworkID)
	if err != nil {
		return nil, err
	}
	if homework.Status != models.HomeworkActive {
		return nil, ErrHomeworkNotActive
	}

	now := time.Now()
	isLate := now.After(homework.DueDate)
	if isLate && !homework.AllowLate {
		return nil, ErrDueDatePassed
	}

	var submission *models.Submission
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		existing, err := txRepo.Submission().GetByHomeworkAndStudent(ctx, homeworkID, studentID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return err
		}

		if existing != nil {
			if existing.Status != models.SubmissionDraft {
				return ErrAlreadySubmitted
			}
			existing.Answers = mustJSON(req.Answers)
			existing.Status = models.SubmissionSubmitted
			existing.SubmittedAt = timePtr(now)
			existing.IsLate = isLate
			submission = existing
			return txRepo.Submission().Update(ctx, existing)
		}

		submission = &models.Submission{
			HomeworkID:  homework.ID,
			StudentID:   studentID,
			Status:      models.SubmissionSubmitted,
			Answers:     mustJSON(req.Answers),
			SubmittedAt: timePtr(now),
			IsLate:      isLate,
			TotalMarks:  homework.TotalMarks,
		}
		return txRepo.Submission().Create(ctx, submission)
	})
	if err != nil {
		return nil, err
	}

	if s.notification != nil {
		if err := s.notification.PublishSubmissionReceived(ctx, submission); err != nil {
			s.logger.Warn("failed to publish submission event", "submission_id", submission.ID, "error", err)
		}
	}

	s.logger.Info("submission received",
		"submission_id", submission.ID,
		"homework_id", homeworkID,
		"student_id", studentID,
		"is_late", isLate)

	// Auto-grade right away. The submission stands even when grading
	// fails; a teacher can re-trigger it later.
	if s.grading != nil {
		if result, err := s.grading.GradeSubmission(ctx, submission.ID, AutoGrader); err != nil {
			s.logger.Warn("auto-grading failed", "submission_id", submission.ID, "error", err)
		} else {
			s.logger.Info("submission auto-graded",
				"submission_id", submission.ID, "percentage", result.Percentage)
		}
	}

	return submission, nil
}

func (s *submissionService) GetByID(ctx context.Context, id uint, userID string, role models.UserRole) (*models.Submission, error) {
	submission, err := s.repo.Submission().GetByIDWithHomework(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	switch role {
	case models.RoleStudent:
		if submission.StudentID != userID {
			return nil, NewPermissionError("submission", "read", "students can only view their own submissions")
		}
	case models.RoleTeacher:
		if submission.Homework != nil && submission.Homework.CreatedBy != userID {
			return nil, NewPermissionError("submission", "read", "teachers can only view submissions for their homework")
		}
	case models.RoleParent:
		student, err := s.repo.User().GetByID(ctx, submission.StudentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get student: %w", err)
		}
		parent, err := s.repo.User().GetByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get parent: %w", err)
		}
		if student.ParentEmail == "" || student.ParentEmail != parent.Email {
			return nil, NewPermissionError("submission", "read", "parents can only view their child's submissions")
		}
	}

	return submission, nil
}

func (s *submissionService) ListByHomework(ctx context.Context, homeworkID uint, userID string) ([]*models.Submission, error) {
	homework, err := s.getHomework(ctx, homeworkID)
	if err != nil {
		return nil, err
	}
	if homework.CreatedBy != userID {
		return nil, NewPermissionError("submission", "list", "only the homework creator can list submissions")
	}
	return s.repo.Submission().ListByHomework(ctx, homeworkID)
}

func (s *submissionService) ListByStudent(ctx context.Context, studentID string, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	filters.StudentID = &studentID
	return s.repo.Submission().List(ctx, filters)
}

func (s *submissionService) getHomework(ctx context.Context, homeworkID uint) (*models.Homework, error) {
	homework, err := s.repo.Homework().GetByID(ctx, homeworkID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrHomeworkNotFound
		}
		return nil, fmt.Errorf("failed to get homework: %w", err)
	}
	return homework, nil
}

func (s *submissionService) getOpenHomework(ctx context.Context, homeworkID uint) (*models.Homework, error) {
	homework, err := s.getHomework(ctx, homeworkID)
	if err != nil {
		return nil, err
	}
	if !homework.IsOpen(time.Now()) {
		if homework.Status != models.HomeworkActive {
			return nil, ErrHomeworkNotActive
		}
		return nil, ErrDueDatePassed
	}
	return homework, nil
}
