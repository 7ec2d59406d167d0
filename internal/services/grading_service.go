package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/nlp"
	"github.com/HMPS-2025/homework-service/internal/repositories"
	"github.com/HMPS-2025/homework-service/internal/validator"
)

// AutoGrader marks grades produced by the pipeline, as opposed to a
// teacher's user ID on overrides.
const AutoGrader = "auto"

type gradingService struct {
	db           *gorm.DB
	repo         repositories.Repository
	logger       *slog.Logger
	validator    *validator.Validator
	scorer       *nlp.SemanticScorer
	notification NotificationEventService
}

func NewGradingService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, v *validator.Validator, scorer *nlp.SemanticScorer, notification NotificationEventService) GradingService {
	return &gradingService{
		db:           db,
		repo:         repo,
		logger:       logger,
		validator:    v,
		scorer:       scorer,
		notification: notification,
	}
}

// GradeSubmission runs the rubric over every answer of a submitted
// submission and stores the outcome in one transaction.
func (s *gradingService) GradeSubmission(ctx context.Context, submissionID uint, gradedBy string) (*SubmissionGradingResult, error) {
	submission, err := s.repo.Submission().GetByID(ctx, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	if submission.Status == models.SubmissionDraft {
		return nil, ErrNotSubmitted
	}

	questions, err := s.repo.Homework().GetQuestions(ctx, submission.HomeworkID)
	if err != nil {
		return nil, fmt.Errorf("failed to get homework questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, NewBusinessRuleError("no_questions", "homework has no questions to grade")
	}

	answers := submission.AnswerMap()
	results := make([]models.AnswerResult, 0, len(questions))
	totalObtained := 0.0
	totalMax := 0.0

	for _, hq := range questions {
		if hq.Question == nil {
			return nil, fmt.Errorf("homework question %d has no question loaded", hq.ID)
		}
		points := hq.EffectivePoints()
		answer := answers[fmt.Sprintf("%d", hq.Order)]

		result := s.gradeAnswer(ctx, hq.Question, hq.Order, points, answer)
		results = append(results, result)
		totalObtained += result.MarksAwarded
		totalMax += points
	}

	now := time.Now()
	percentage := 0.0
	if totalMax > 0 {
		percentage = roundTo1(totalObtained / totalMax * 100)
	}
	letterGrade := calculateLetterGrade(percentage)

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		submission.Status = models.SubmissionGraded
		submission.MarksObtained = roundTo1(totalObtained)
		submission.TotalMarks = totalMax
		submission.Percentage = percentage
		submission.Grade = stringPtr(letterGrade)
		submission.Results = mustJSON(results)
		submission.GradedAt = timePtr(now)
		submission.GradedBy = stringPtr(gradedBy)
		return txRepo.Submission().Update(ctx, submission)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store grading result: %w", err)
	}

	if s.notification != nil {
		if err := s.notification.PublishSubmissionGraded(ctx, submission); err != nil {
			s.logger.Warn("failed to publish graded event", "submission_id", submission.ID, "error", err)
		}
	}

	s.logger.Info("submission graded",
		"submission_id", submission.ID,
		"homework_id", submission.HomeworkID,
		"student_id", submission.StudentID,
		"marks", submission.MarksObtained,
		"percentage", percentage,
		"grade", letterGrade,
		"graded_by", gradedBy)

	return &SubmissionGradingResult{
		SubmissionID:  submission.ID,
		HomeworkID:    submission.HomeworkID,
		StudentID:     submission.StudentID,
		MarksObtained: submission.MarksObtained,
		TotalMarks:    totalMax,
		Percentage:    percentage,
		Grade:         letterGrade,
		Answers:       results,
		GradedAt:      now,
		GradedBy:      gradedBy,
	}, nil
}

// GradeHomework grades every pending submission of a homework, one at a
// time. A single failing submission does not stop the batch.
func (s *gradingService) GradeHomework(ctx context.Context, homeworkID uint, gradedBy string) (*BatchGradingResult, error) {
	if _, err := s.repo.Homework().GetByID(ctx, homeworkID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrHomeworkNotFound
		}
		return nil, fmt.Errorf("failed to get homework: %w", err)
	}

	pending, err := s.repo.Submission().ListPendingGrading(ctx, homeworkID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending submissions: %w", err)
	}

	batch := &BatchGradingResult{HomeworkID: homeworkID}
	for _, submission := range pending {
		result, err := s.GradeSubmission(ctx, submission.ID, gradedBy)
		if err != nil {
			s.logger.Error("failed to grade submission",
				"submission_id", submission.ID, "error", err)
			batch.Failed++
			continue
		}
		batch.Graded++
		batch.Results = append(batch.Results, *result)
	}

	s.logger.Info("homework graded",
		"homework_id", homeworkID,
		"graded", batch.Graded,
		"failed", batch.Failed)

	return batch, nil
}

// OverrideGrade lets a teacher replace the marks of one answer. Totals,
// percentage and letter grade are recomputed from the stored results.
func (s *gradingService) OverrideGrade(ctx context.Context, submissionID uint, req OverrideGradeRequest, teacherID string) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, toValidationErrors(err)
	}

	submission, err := s.repo.Submission().GetByIDWithHomework(ctx, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	if submission.Status != models.SubmissionGraded {
		return nil, ErrNotGraded
	}
	if submission.Homework != nil && submission.Homework.CreatedBy != teacherID {
		return nil, NewPermissionError("submission", "override", "only the homework creator can override grades")
	}

	results := submission.ResultList()
	if req.QuestionIndex >= len(results) {
		return nil, ValidationErrors{NewValidationError("question_index", "no answer at this index", req.QuestionIndex)}
	}

	target := &results[req.QuestionIndex]
	if req.Marks > target.MaxMarks {
		return nil, NewBusinessRuleError("marks_exceed_max",
			fmt.Sprintf("marks %.1f exceed the question maximum %.1f", req.Marks, target.MaxMarks)).
			WithContext("max_marks", target.MaxMarks)
	}

	target.MarksAwarded = roundTo1(req.Marks)
	target.Overridden = true
	if req.Feedback != "" {
		target.Feedback = req.Feedback
	}
	correct := target.MarksAwarded >= target.MaxMarks
	target.IsCorrect = &correct

	totalObtained := 0.0
	totalMax := 0.0
	for _, r := range results {
		totalObtained += r.MarksAwarded
		totalMax += r.MaxMarks
	}
	percentage := 0.0
	if totalMax > 0 {
		percentage = roundTo1(totalObtained / totalMax * 100)
	}

	now := time.Now()
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		submission.MarksObtained = roundTo1(totalObtained)
		submission.Percentage = percentage
		submission.Grade = stringPtr(calculateLetterGrade(percentage))
		submission.Results = mustJSON(results)
		submission.GradedAt = timePtr(now)
		submission.GradedBy = stringPtr(teacherID)
		return txRepo.Submission().Update(ctx, submission)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store override: %w", err)
	}

	if s.notification != nil {
		if err := s.notification.PublishSubmissionGraded(ctx, submission); err != nil {
			s.logger.Warn("failed to publish graded event", "submission_id", submission.ID, "error", err)
		}
	}

	s.logger.Info("grade overridden",
		"submission_id", submission.ID,
		"question_index", req.QuestionIndex,
		"marks", req.Marks,
		"teacher_id", teacherID)

	return submission, nil
}
