package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/HMPS-2025/homework-service/internal/events"
	"github.com/HMPS-2025/homework-service/internal/models"
)

// Kafka topics per event family.
const (
	TopicHomework    = "homework-events"
	TopicSubmissions = "submission-events"
	TopicReports     = "report-events"
)

// notificationEventService publishes domain events. Publishing is best
// effort; the write that triggered the event has already committed.
type notificationEventService struct {
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewNotificationEventService(publisher events.EventPublisher, logger *slog.Logger) NotificationEventService {
	return &notificationEventService{publisher: publisher, logger: logger}
}

func (s *notificationEventService) PublishHomeworkPublished(ctx context.Context, homework *models.Homework) error {
	event := events.NewEvent(events.HomeworkPublished, map[string]interface{}{
		"homework_id": homework.ID,
		"title":       homework.Title,
		"subject":     homework.Subject,
		"grade":       homework.Grade,
		"section":     homework.Section,
		"due_date":    homework.DueDate,
		"total_marks": homework.TotalMarks,
	})
	return s.publish(ctx, TopicHomework, event)
}

func (s *notificationEventService) PublishSubmissionReceived(ctx context.Context, submission *models.Submission) error {
	event := events.NewEvent(events.SubmissionReceived, map[string]interface{}{
		"submission_id": submission.ID,
		"homework_id":   submission.HomeworkID,
		"student_id":    submission.StudentID,
		"submitted_at":  submission.SubmittedAt,
		"is_late":       submission.IsLate,
	})
	return s.publish(ctx, TopicSubmissions, event)
}

func (s *notificationEventService) PublishSubmissionGraded(ctx context.Context, submission *models.Submission) error {
	data := map[string]interface{}{
		"submission_id":  submission.ID,
		"homework_id":    submission.HomeworkID,
		"student_id":     submission.StudentID,
		"marks_obtained": submission.MarksObtained,
		"total_marks":    submission.TotalMarks,
		"percentage":     submission.Percentage,
	}
	if submission.Grade != nil {
		data["grade"] = *submission.Grade
	}
	if submission.GradedBy != nil {
		data["graded_by"] = *submission.GradedBy
	}
	event := events.NewEvent(events.SubmissionGraded, data)
	return s.publish(ctx, TopicSubmissions, event)
}

func (s *notificationEventService) PublishReportGenerated(ctx context.Context, report *models.MonthlyReport) error {
	event := events.NewEvent(events.ReportGenerated, map[string]interface{}{
		"report_id":       report.ID,
		"student_id":      report.StudentID,
		"year":            report.Year,
		"month":           report.Month,
		"overall_average": report.OverallAverage,
		"overall_grade":   report.OverallGrade,
		"class_rank":      report.ClassRank,
	})
	return s.publish(ctx, TopicReports, event)
}

func (s *notificationEventService) publish(ctx context.Context, topic string, event events.Event) error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	s.logger.Debug("event published", "topic", topic, "type", event.Type)
	return nil
}
