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

const lessonKeywordCount = 10

type lessonService struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewLessonService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, v *validator.Validator) LessonService {
	return &lessonService{db: db, repo: repo, logger: logger, validator: v}
}

func (s *lessonService) Create(ctx context.Context, req CreateLessonRequest, userID string) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, toValidationErrors(err)
	}

	keywords := nlp.ExtractKeywords(req.Content, lessonKeywordCount)
	topics := nlp.ExtractTopics(req.Content, lessonKeywordCount)

	keywordsJSON, err := json.Marshal(keywords)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal keywords: %w", err)
	}
	topicsJSON, err := json.Marshal(topics)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal topics: %w", err)
	}

	lesson := &models.Lesson{
		Title:     req.Title,
		Subject:   req.Subject,
		Grade:     req.Grade,
		Unit:      req.Unit,
		Content:   req.Content,
		Keywords:  datatypes.JSON(keywordsJSON),
		Topics:    datatypes.JSON(topicsJSON),
		CreatedBy: userID,
	}

	if err := s.repo.Lesson().Create(ctx, lesson); err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}

	s.logger.Info("lesson created",
		"lesson_id", lesson.ID,
		"subject", lesson.Subject,
		"grade", lesson.Grade,
		"keywords", len(keywords),
		"created_by", userID)

	return lesson, nil
}

func (s *lessonService) GetByID(ctx context.Context, id uint) (*models.Lesson, error) {
	lesson, err := s.repo.Lesson().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return lesson, nil
}

func (s *lessonService) Update(ctx context.Context, id uint, req UpdateLessonRequest, userID string) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, toValidationErrors(err)
	}

	lesson, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lesson.CreatedBy != userID {
		return nil, NewPermissionError("lesson", "update", "only the creator can update a lesson")
	}

	if req.Title != nil {
		lesson.Title = *req.Title
	}
	if req.Subject != nil {
		lesson.Subject = *req.Subject
	}
	if req.Unit != nil {
		lesson.Unit = *req.Unit
	}
	if req.Content != nil {
		lesson.Content = *req.Content

		// content changed, re-extract
		keywordsJSON, err := json.Marshal(nlp.ExtractKeywords(lesson.Content, lessonKeywordCount))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal keywords: %w", err)
		}
		topicsJSON, err := json.Marshal(nlp.ExtractTopics(lesson.Content, lessonKeywordCount))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal topics: %w", err)
		}
		lesson.Keywords = datatypes.JSON(keywordsJSON)
		lesson.Topics = datatypes.JSON(topicsJSON)
	}

	if err := s.repo.Lesson().Update(ctx, lesson); err != nil {
		return nil, fmt.Errorf("failed to update lesson: %w", err)
	}

	s.logger.Info("lesson updated", "lesson_id", lesson.ID, "updated_by", userID)
	return lesson, nil
}

func (s *lessonService) Delete(ctx context.Context, id uint, userID string) error {
	lesson, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if lesson.CreatedBy != userID {
		return NewPermissionError("lesson", "delete", "only the creator can delete a lesson")
	}

	if err := s.repo.Lesson().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrLessonNotFound
		}
		return fmt.Errorf("failed to delete lesson: %w", err)
	}

	s.logger.Info("lesson deleted", "lesson_id", id, "deleted_by", userID)
	return nil
}

func (s *lessonService) List(ctx context.Context, filters repositories.LessonFilters) ([]*models.Lesson, int64, error) {
	return s.repo.Lesson().List(ctx, filters)
}
