package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/nlp"
	"github.com/HMPS-2025/homework-service/internal/repositories"
	"github.com/HMPS-2025/homework-service/internal/validator"
)

// Weekly schedule shape: two homework per subject, the first due three
// days into the week, the second at the end of it.
const (
	defaultWeeklyPerSubject = 2
	defaultCloseAfterDays   = 1
	firstDueOffset          = 3 // days from week start
	secondDueOffset         = 6
)

// SchedulePolicy carries the env-tunable scheduling knobs. Zero values
// fall back to the defaults above.
type SchedulePolicy struct {
	WeeklyPerSubject int
	CloseAfterDays   int
}

type homeworkService struct {
	db           *gorm.DB
	repo         repositories.Repository
	logger       *slog.Logger
	validator    *validator.Validator
	generator    *nlp.Generator
	notification NotificationEventService
	policy       SchedulePolicy
}

func NewHomeworkService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, v *validator.Validator, generator *nlp.Generator, notification NotificationEventService, policy SchedulePolicy) HomeworkService {
	return &homeworkService{
		db:           db,
		repo:         repo,
		logger:       logger,
		validator:    v,
		generator:    generator,
		notification: notification,
		policy:       policy,
	}
}

func (s *homeworkService) weeklyPerSubject() int {
	if s.policy.WeeklyPerSubject > 0 {
		return s.policy.WeeklyPerSubject
	}
	return defaultWeeklyPerSubject
}

func (s *homeworkService) closeAfterDays() int {
	if s.policy.CloseAfterDays > 0 {
		return s.policy.CloseAfterDays
	}
	return defaultCloseAfterDays
}

func (s *homeworkService) Create(ctx context.Context, req CreateHomeworkRequest, userID string) (*models.Homework, error) {
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

	homework := &models.Homework{
		Title:        req.Title,
		LessonID:     lesson.ID,
		Subject:      lesson.Subject,
		Grade:        lesson.Grade,
		Section:      req.Section,
		Status:       models.HomeworkDraft,
		DueDate:      req.DueDate,
		AllowLate:    req.AllowLate,
		Instructions: req.Instructions,
		CreatedBy:    userID,
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Homework().Create(ctx, homework); err != nil {
			return err
		}

		var joins []models.HomeworkQuestion
		if len(req.QuestionIDs) > 0 {
			joins, err = s.buildJoinsFromIDs(ctx, txRepo, req.QuestionIDs)
		} else {
			joins, err = s.buildJoinsFromGenerator(ctx, txRepo, lesson, nlp.DefaultMix, userID)
		}
		if err != nil {
			return err
		}

		total := 0.0
		for i := range joins {
			total += joins[i].Points
		}
		if err := txRepo.Homework().AddQuestions(ctx, homework.ID, joins); err != nil {
			return err
		}

		homework.TotalMarks = total
		homework.QuestionCount = len(joins)
		return txRepo.Homework().Update(ctx, homework)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create homework: %w", err)
	}

	s.logger.Info("homework created",
		"homework_id", homework.ID,
		"lesson_id", lesson.ID,
		"subject", homework.Subject,
		"total_marks", homework.TotalMarks,
		"created_by", userID)

	return homework, nil
}

func (s *homeworkService) buildJoinsFromIDs(ctx context.Context, repo repositories.Repository, questionIDs []uint) ([]models.HomeworkQuestion, error) {
	joins := make([]models.HomeworkQuestion, 0, len(questionIDs))
	for i, qid := range questionIDs {
		question, err := repo.Question().GetByID(ctx, qid)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrQuestionNotFound
			}
			return nil, err
		}
		joins = append(joins, models.HomeworkQuestion{
			QuestionID: question.ID,
			Order:      i,
			Points:     question.Marks,
		})
	}
	return joins, nil
}

func (s *homeworkService) buildJoinsFromGenerator(ctx context.Context, repo repositories.Repository, lesson *models.Lesson, mix nlp.QuestionMix, userID string) ([]models.HomeworkQuestion, error) {
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
	if err := repo.Question().CreateBatch(ctx, questions); err != nil {
		return nil, err
	}

	joins := make([]models.HomeworkQuestion, 0, len(questions))
	for i, q := range questions {
		joins = append(joins, models.HomeworkQuestion{
			QuestionID: q.ID,
			Order:      i,
			Points:     q.Marks,
		})
	}
	return joins, nil
}

func (s *homeworkService) GetByID(ctx context.Context, id uint, userID string, role models.UserRole) (*models.Homework, error) {
	homework, err := s.repo.Homework().GetByIDWithQuestions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrHomeworkNotFound
		}
		return nil, fmt.Errorf("failed to get homework: %w", err)
	}

	if role == models.RoleStudent {
		if homework.Status == models.HomeworkDraft || homework.Status == models.HomeworkScheduled {
			return nil, ErrHomeworkNotFound
		}
		stripAnswerKeys(homework)
	}

	return homework, nil
}

// stripAnswerKeys blanks grading material before a homework is shown to
// a student.
func stripAnswerKeys(homework *models.Homework) {
	for i := range homework.Questions {
		q := homework.Questions[i].Question
		if q == nil {
			continue
		}
		q.Content = sanitizeQuestionContent(q.Type, q.Content)
	}
}

func (s *homeworkService) Update(ctx context.Context, id uint, req UpdateHomeworkRequest, userID string) (*models.Homework, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, toValidationErrors(err)
	}

	homework, err := s.getOwned(ctx, id, userID, "update")
	if err != nil {
		return nil, err
	}
	if homework.Status == models.HomeworkClosed {
		return nil, NewBusinessRuleError("homework_closed", "closed homework cannot be updated")
	}

	if req.Title != nil {
		homework.Title = *req.Title
	}
	if req.DueDate != nil {
		homework.DueDate = *req.DueDate
	}
	if req.AllowLate != nil {
		homework.AllowLate = *req.AllowLate
	}
	if req.Instructions != nil {
		homework.Instructions = *req.Instructions
	}

	if err := s.repo.Homework().Update(ctx, homework); err != nil {
		return nil, fmt.Errorf("failed to update homework: %w", err)
	}

	s.logger.Info("homework updated", "homework_id", homework.ID, "updated_by", userID)
	return homework, nil
}

func (s *homeworkService) Delete(ctx context.Context, id uint, userID string) error {
	homework, err := s.getOwned(ctx, id, userID, "delete")
	if err != nil {
		return err
	}
	if homework.Status == models.HomeworkActive {
		return NewBusinessRuleError("homework_active", "active homework cannot be deleted, close it first")
	}

	if err := s.repo.Homework().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete homework: %w", err)
	}

	s.logger.Info("homework deleted", "homework_id", id, "deleted_by", userID)
	return nil
}

func (s *homeworkService) List(ctx context.Context, filters repositories.HomeworkFilters) ([]*models.Homework, int64, error) {
	return s.repo.Homework().List(ctx, filters)
}

func (s *homeworkService) Publish(ctx context.Context, id uint, userID string) (*models.Homework, error) {
	homework, err := s.getOwned(ctx, id, userID, "publish")
	if err != nil {
		return nil, err
	}

	if !validator.IsValidHomeworkTransition(homework.Status, models.HomeworkActive) {
		return nil, NewBusinessRuleError("invalid_transition",
			fmt.Sprintf("cannot publish homework in status %s", homework.Status)).
			WithContext("status", string(homework.Status))
	}

	questions, err := s.repo.Homework().GetQuestions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get homework questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, NewBusinessRuleError("no_questions", "homework has no questions")
	}

	now := time.Now()
	homework.Status = models.HomeworkActive
	homework.AssignedDate = timePtr(now)
	if err := s.repo.Homework().Update(ctx, homework); err != nil {
		return nil, fmt.Errorf("failed to publish homework: %w", err)
	}

	if s.notification != nil {
		if err := s.notification.PublishHomeworkPublished(ctx, homework); err != nil {
			s.logger.Warn("failed to publish homework event", "homework_id", homework.ID, "error", err)
		}
	}

	s.logger.Info("homework published", "homework_id", homework.ID, "due_date", homework.DueDate)
	return homework, nil
}

func (s *homeworkService) Close(ctx context.Context, id uint, userID string) (*models.Homework, error) {
	homework, err := s.getOwned(ctx, id, userID, "close")
	if err != nil {
		return nil, err
	}

	if !validator.IsValidHomeworkTransition(homework.Status, models.HomeworkClosed) {
		return nil, NewBusinessRuleError("invalid_transition",
			fmt.Sprintf("cannot close homework in status %s", homework.Status)).
			WithContext("status", string(homework.Status))
	}

	homework.Status = models.HomeworkClosed
	if err := s.repo.Homework().Update(ctx, homework); err != nil {
		return nil, fmt.Errorf("failed to close homework: %w", err)
	}

	s.logger.Info("homework closed", "homework_id", homework.ID, "closed_by", userID)
	return homework, nil
}

func (s *homeworkService) GetStats(ctx context.Context, id uint) (*repositories.HomeworkStats, error) {
	if _, err := s.repo.Homework().GetByID(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrHomeworkNotFound
		}
		return nil, fmt.Errorf("failed to get homework: %w", err)
	}
	return s.repo.Homework().GetStats(ctx, id)
}

// ScheduleWeek creates the standard weekly set for a grade. For each
// subject with lessons, two homework are scheduled from the most recent
// lesson: the first due at week start + 3 days, the second at + 6, with
// the topic cycle rotated so the second covers different ground.
func (s *homeworkService) ScheduleWeek(ctx context.Context, req ScheduleWeekRequest, userID string) ([]*models.Homework, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, toValidationErrors(err)
	}

	weekStart := startOfDay(req.WeekStart)
	subjects := req.Subjects
	if len(subjects) == 0 {
		var err error
		subjects, err = s.repo.Lesson().DistinctSubjects(ctx, req.Grade)
		if err != nil {
			return nil, fmt.Errorf("failed to list subjects: %w", err)
		}
	}

	var created []*models.Homework
	for _, subject := range subjects {
		existing, err := s.repo.Homework().CountInWeek(ctx, subject, req.Grade, weekStart)
		if err != nil {
			return nil, fmt.Errorf("failed to count weekly homework: %w", err)
		}
		target := s.weeklyPerSubject()
		if int(existing) >= target {
			s.logger.Debug("subject already scheduled for week",
				"subject", subject, "grade", req.Grade, "week_start", weekStart)
			continue
		}

		lessons, err := s.repo.Lesson().GetBySubjectAndGrade(ctx, subject, req.Grade)
		if err != nil {
			return nil, fmt.Errorf("failed to get lessons: %w", err)
		}
		if len(lessons) == 0 {
			s.logger.Warn("no lessons for subject, skipping", "subject", subject, "grade", req.Grade)
			continue
		}
		lesson := lessons[0]

		offsets := []int{firstDueOffset, secondDueOffset}
		for i := int(existing); i < target; i++ {
			offset := secondDueOffset
			if i < len(offsets) {
				offset = offsets[i]
			}
			dueDate := weekStart.AddDate(0, 0, offset).Add(18 * time.Hour) // 6 PM local

			homework := &models.Homework{
				Title:        fmt.Sprintf("%s - Week of %s (#%d)", subject, weekStart.Format("Jan 2"), i+1),
				LessonID:     lesson.ID,
				Subject:      subject,
				Grade:        req.Grade,
				Status:       models.HomeworkScheduled,
				AssignedDate: timePtr(weekStart),
				DueDate:      dueDate,
				CreatedBy:    userID,
			}

			// rotate topics so the week's second homework differs
			genLesson := lesson
			if i > 0 {
				genLesson = rotatedLesson(lesson, i*3)
			}

			err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
				if err := txRepo.Homework().Create(ctx, homework); err != nil {
					return err
				}
				joins, err := s.buildJoinsFromGenerator(ctx, txRepo, genLesson, nlp.DefaultMix, userID)
				if err != nil {
					return err
				}
				total := 0.0
				for j := range joins {
					total += joins[j].Points
				}
				if err := txRepo.Homework().AddQuestions(ctx, homework.ID, joins); err != nil {
					return err
				}
				homework.TotalMarks = total
				return txRepo.Homework().Update(ctx, homework)
			})
			if err != nil {
				return nil, fmt.Errorf("failed to schedule homework for %s: %w", subject, err)
			}

			created = append(created, homework)
		}
	}

	s.logger.Info("weekly homework scheduled",
		"grade", req.Grade,
		"week_start", weekStart,
		"created", len(created),
		"scheduled_by", userID)

	return created, nil
}

// rotatedLesson returns a shallow copy whose topic list starts at a
// different offset, so GenerateSet picks different topics.
func rotatedLesson(lesson *models.Lesson, shift int) *models.Lesson {
	topics := lesson.TopicList()
	if len(topics) < 2 {
		return lesson
	}
	shift = shift % len(topics)
	rotated := append(append([]string{}, topics[shift:]...), topics[:shift]...)

	copied := *lesson
	copied.Topics = mustJSON(rotated)
	return &copied
}

func (s *homeworkService) ActivateScheduled(ctx context.Context) (int, error) {
	due, err := s.repo.Homework().ListScheduledToActivate(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to list scheduled homework: %w", err)
	}

	activated := 0
	for _, homework := range due {
		if err := s.repo.Homework().UpdateStatus(ctx, homework.ID, models.HomeworkActive); err != nil {
			s.logger.Error("failed to activate homework", "homework_id", homework.ID, "error", err)
			continue
		}
		homework.Status = models.HomeworkActive
		if s.notification != nil {
			if err := s.notification.PublishHomeworkPublished(ctx, homework); err != nil {
				s.logger.Warn("failed to publish homework event", "homework_id", homework.ID, "error", err)
			}
		}
		activated++
	}

	if activated > 0 {
		s.logger.Info("scheduled homework activated", "count", activated)
	}
	return activated, nil
}

func (s *homeworkService) CloseOverdue(ctx context.Context) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -s.closeAfterDays())
	overdue, err := s.repo.Homework().ListActivePastDue(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue homework: %w", err)
	}

	closed := 0
	for _, homework := range overdue {
		if err := s.repo.Homework().UpdateStatus(ctx, homework.ID, models.HomeworkClosed); err != nil {
			s.logger.Error("failed to close homework", "homework_id", homework.ID, "error", err)
			continue
		}
		closed++
	}

	if closed > 0 {
		s.logger.Info("overdue homework closed", "count", closed)
	}
	return closed, nil
}

func (s *homeworkService) getOwned(ctx context.Context, id uint, userID, action string) (*models.Homework, error) {
	homework, err := s.repo.Homework().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrHomeworkNotFound
		}
		return nil, fmt.Errorf("failed to get homework: %w", err)
	}
	if homework.CreatedBy != userID {
		return nil, NewPermissionError("homework", action, "only the creator can "+action+" homework")
	}
	return homework, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
