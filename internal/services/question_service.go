package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/nlp"
	"github.com/HMPS-2025/homework-service/internal/repositories"
	"github.com/HMPS-2025/homework-service/internal/validator"
)

type questionService struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	generator *nlp.Generator
}

func NewQuestionService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, v *validator.Validator, generator *nlp.Generator) QuestionService {
	return &questionService{db: db, repo: repo, logger: logger, validator: v, generator: generator}
}

func (s *questionService) Create(ctx context.Context, req CreateQuestionRequest, userID string) (*models.Question, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, toValidationErrors(err)
	}

	qt := models.QuestionType(req.Type)
	if err := validateQuestionContent(qt, req.Content); err != nil {
		return nil, err
	}

	if _, err := s.repo.Lesson().GetByID(ctx, req.LessonID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	marks := req.Marks
	if marks == 0 {
		marks = models.DefaultMarks(qt)
	}

	question := &models.Question{
		Type:      qt,
		Text:      req.Text,
		Content:   datatypes.JSON(req.Content),
		Marks:     marks,
		LessonID:  req.LessonID,
		Topic:     req.Topic,
		CreatedBy: userID,
	}

	if err := s.repo.Question().Create(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("question created",
		"question_id", question.ID,
		"type", question.Type,
		"lesson_id", question.LessonID,
		"created_by", userID)

	return question, nil
}

func (s *questionService) Generate(ctx context.Context, req GenerateQuestionsRequest, userID string) ([]*models.Question, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, toValidationErrors(err)
	}

	lesson, err := s.repo.Lesson().GetByID(ctx, req.LessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	mix := nlp.QuestionMix{MCQ: req.MCQ, ShortAnswer: req.ShortAnswer, Descriptive: req.Descriptive}
	if mix.MCQ == 0 && mix.ShortAnswer == 0 && mix.Descriptive == 0 {
		mix = nlp.DefaultMix
	}

	generated, err := s.generator.GenerateSet(ctx, lesson, mix)
	if err != nil {
		return nil, NewBusinessRuleError("question_generation_failed", err.Error()).
			WithContext("lesson_id", lesson.ID)
	}

	questions := make([]*models.Question, 0, len(generated))
	for _, g := range generated {
		questions = append(questions, &models.Question{
			Type:      g.Type,
			Text:      g.Text,
			Content:   datatypes.JSON(g.Content),
			Marks:     g.Marks,
			LessonID:  lesson.ID,
			Topic:     g.Topic,
			CreatedBy: userID,
		})
	}

	if err := s.repo.Question().CreateBatch(ctx, questions); err != nil {
		return nil, fmt.Errorf("failed to persist generated questions: %w", err)
	}

	s.logger.Info("questions generated",
		"lesson_id", lesson.ID,
		"count", len(questions),
		"created_by", userID)

	return questions, nil
}

func (s *questionService) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	question, err := s.repo.Question().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return question, nil
}

func (s *questionService) Delete(ctx context.Context, id uint, userID string) error {
	question, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if question.CreatedBy != userID {
		return NewPermissionError("question", "delete", "only the creator can delete a question")
	}

	if err := s.repo.Question().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to delete question: %w", err)
	}

	s.logger.Info("question deleted", "question_id", id, "deleted_by", userID)
	return nil
}

func (s *questionService) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	return s.repo.Question().List(ctx, filters)
}

// validateQuestionContent checks the type-specific payload shape before
// anything is stored.
func validateQuestionContent(qt models.QuestionType, content json.RawMessage) error {
	switch qt {
	case models.MCQ:
		var c models.MCQContent
		if err := json.Unmarshal(content, &c); err != nil {
			return ValidationErrors{NewValidationError("content", "invalid mcq content", nil)}
		}
		if len(c.Options) < 2 {
			return ValidationErrors{NewValidationError("content", "mcq needs at least 2 options", nil)}
		}
		if _, ok := c.Options[c.CorrectOption]; !ok {
			return ValidationErrors{NewValidationError("content", "correct_option must be one of the option keys", c.CorrectOption)}
		}
	case models.ShortAnswer:
		var c models.ShortAnswerContent
		if err := json.Unmarshal(content, &c); err != nil {
			return ValidationErrors{NewValidationError("content", "invalid short answer content", nil)}
		}
		if c.ModelAnswer == "" {
			return ValidationErrors{NewValidationError("content", "model_answer is required", nil)}
		}
	case models.Descriptive:
		var c models.DescriptiveContent
		if err := json.Unmarshal(content, &c); err != nil {
			return ValidationErrors{NewValidationError("content", "invalid descriptive content", nil)}
		}
		if c.ModelAnswer == "" {
			return ValidationErrors{NewValidationError("content", "model_answer is required", nil)}
		}
		if c.MinWords < 0 || (c.MaxWords > 0 && c.MaxWords < c.MinWords) {
			return ValidationErrors{NewValidationError("content", "invalid word count bounds", nil)}
		}
	default:
		return ValidationErrors{NewValidationError("type", "unknown question type", string(qt))}
	}
	return nil
}
