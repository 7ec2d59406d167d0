package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/HMPS-2025/homework-service/internal/email"
	"github.com/HMPS-2025/homework-service/internal/export"
	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/repositories"
)

const (
	strengthThreshold    = 75.0
	improvementThreshold = 50.0
)

type reportService struct {
	db           *gorm.DB
	repo         repositories.Repository
	logger       *slog.Logger
	performance  PerformanceService
	mailer       email.Mailer
	notification NotificationEventService
}

func NewReportService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, performance PerformanceService, mailer email.Mailer, notification NotificationEventService) ReportService {
	return &reportService{
		db:           db,
		repo:         repo,
		logger:       logger,
		performance:  performance,
		mailer:       mailer,
		notification: notification,
	}
}

// GenerateForClass builds the monthly report for every student of a
// grade+section. Ranks are dense: students with equal averages share a
// rank and the next distinct average takes the following one. With no
// section given, each section of the grade is ranked separately.
func (s *reportService) GenerateForClass(ctx context.Context, grade int, section string, year, month int) ([]*models.MonthlyReport, error) {
	if section == "" {
		return s.generateForGrade(ctx, grade, year, month)
	}

	students, err := s.repo.User().ListStudents(ctx, grade, section)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	if len(students) == 0 {
		return nil, nil
	}

	// make sure this month's rollups exist before ranking
	for _, student := range students {
		if _, err := s.performance.ComputeAllForStudent(ctx, student.ID, year, month); err != nil {
			s.logger.Warn("failed to compute performance",
				"student_id", student.ID, "error", err)
		}
	}

	averages, err := s.repo.Performance().GetClassAverages(ctx, grade, section, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to get class averages: %w", err)
	}
	ranks := denseRanks(averages)

	now := time.Now()
	reports := make([]*models.MonthlyReport, 0, len(students))
	for _, student := range students {
		records, err := s.repo.Performance().ListByStudent(ctx, student.ID, year, month)
		if err != nil {
			s.logger.Warn("failed to list performance records",
				"student_id", student.ID, "error", err)
			continue
		}
		if len(records) == 0 {
			continue
		}

		report := buildReport(student, records, year, month, now)
		report.ClassRank = ranks[student.ID]
		report.ClassSize = len(averages)

		if err := s.repo.Report().Upsert(ctx, report); err != nil {
			return nil, fmt.Errorf("failed to store report for %s: %w", student.ID, err)
		}

		if s.notification != nil {
			if err := s.notification.PublishReportGenerated(ctx, report); err != nil {
				s.logger.Warn("failed to publish report event",
					"student_id", student.ID, "error", err)
			}
		}

		reports = append(reports, report)
	}

	s.logger.Info("monthly reports generated",
		"grade", grade,
		"section", section,
		"year", year,
		"month", month,
		"count", len(reports))

	return reports, nil
}

// generateForGrade runs the per-section generation for every section of
// the grade so that ranks stay within a class.
func (s *reportService) generateForGrade(ctx context.Context, grade, year, month int) ([]*models.MonthlyReport, error) {
	sections, err := s.repo.User().DistinctSections(ctx, grade)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}

	var all []*models.MonthlyReport
	for _, section := range sections {
		reports, err := s.GenerateForClass(ctx, grade, section, year, month)
		if err != nil {
			return nil, err
		}
		all = append(all, reports...)
	}
	return all, nil
}

// denseRanks assigns 1-based ranks by descending average; equal
// averages share a rank.
func denseRanks(averages []repositories.ClassAverage) map[string]int {
	sorted := make([]repositories.ClassAverage, len(averages))
	copy(sorted, averages)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].AverageScore > sorted[j].AverageScore
	})

	ranks := make(map[string]int, len(sorted))
	rank := 0
	prev := -1.0
	for _, avg := range sorted {
		if avg.AverageScore != prev {
			rank++
			prev = avg.AverageScore
		}
		ranks[avg.StudentID] = rank
	}
	return ranks
}

func buildReport(student *models.User, records []*models.PerformanceRecord, year, month int, now time.Time) *models.MonthlyReport {
	subjects := make([]models.SubjectSummary, 0, len(records))
	var strengths, improvements, recommendations []string
	overall := 0.0

	for _, record := range records {
		subjects = append(subjects, models.SubjectSummary{
			Subject:           record.Subject,
			AverageScore:      record.AverageScore,
			Grade:             calculateLetterGrade(record.AverageScore),
			HomeworkCompleted: record.HomeworkCompleted,
			TotalHomework:     record.TotalHomework,
			Trend:             record.Trend,
		})
		overall += record.AverageScore

		switch {
		case record.AverageScore >= strengthThreshold:
			strengths = append(strengths, fmt.Sprintf("Strong performance in %s (%.1f%%)", record.Subject, record.AverageScore))
		case record.AverageScore < improvementThreshold:
			improvements = append(improvements, fmt.Sprintf("%s needs attention (%.1f%%)", record.Subject, record.AverageScore))
			recommendations = append(recommendations, fmt.Sprintf("Spend extra time revising %s material before attempting homework", record.Subject))
		}

		if record.Trend == models.TrendDeclining {
			recommendations = append(recommendations, fmt.Sprintf("Scores in %s are declining; review recent feedback with the teacher", record.Subject))
		}
		if record.TotalHomework > 0 && record.HomeworkCompleted < record.TotalHomework {
			recommendations = append(recommendations,
				fmt.Sprintf("Complete all assigned %s homework (%d of %d done)", record.Subject, record.HomeworkCompleted, record.TotalHomework))
		}
		if record.LateSubmissions > 0 {
			recommendations = append(recommendations, fmt.Sprintf("Submit %s homework before the due date", record.Subject))
		}
	}

	if len(records) > 0 {
		overall = roundTo1(overall / float64(len(records)))
	}
	if len(recommendations) == 0 {
		recommendations = append(recommendations, "Keep up the consistent work")
	}

	return &models.MonthlyReport{
		StudentID:       student.ID,
		Year:            year,
		Month:           month,
		OverallAverage:  overall,
		OverallGrade:    calculateLetterGrade(overall),
		Subjects:        mustJSON(subjects),
		Strengths:       mustJSON(strengths),
		Improvements:    mustJSON(improvements),
		Recommendations: mustJSON(recommendations),
		GeneratedAt:     now,
	}
}

func (s *reportService) GetReport(ctx context.Context, studentID string, year, month int) (*models.MonthlyReport, error) {
	report, err := s.repo.Report().GetByStudentAndMonth(ctx, studentID, year, month)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return report, nil
}

func (s *reportService) ExportExcel(ctx context.Context, studentID string, year, month int) ([]byte, string, error) {
	report, err := s.GetReport(ctx, studentID, year, month)
	if err != nil {
		return nil, "", err
	}

	student := report.Student
	if student == nil {
		student, err = s.repo.User().GetByID(ctx, studentID)
		if err != nil {
			return nil, "", fmt.Errorf("failed to get student: %w", err)
		}
	}

	data, err := export.MonthlyReportWorkbook(report, student)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build workbook: %w", err)
	}

	filename := fmt.Sprintf("report_%s_%04d-%02d.xlsx", student.RollNumber, year, month)
	return data, filename, nil
}

// EmailReport sends the report workbook to the student's parent. It is
// a no-op error if no parent email is on file.
func (s *reportService) EmailReport(ctx context.Context, studentID string, year, month int) error {
	report, err := s.GetReport(ctx, studentID, year, month)
	if err != nil {
		return err
	}

	student := report.Student
	if student == nil {
		student, err = s.repo.User().GetByID(ctx, studentID)
		if err != nil {
			return fmt.Errorf("failed to get student: %w", err)
		}
	}
	if student.ParentEmail == "" {
		return NewBusinessRuleError("no_parent_email", "student has no parent email on file").
			WithContext("student_id", studentID)
	}

	data, filename, err := s.ExportExcel(ctx, studentID, year, month)
	if err != nil {
		return err
	}

	monthName := time.Month(month).String()
	msg := email.Message{
		ToName:  "Parent of " + student.Name,
		ToEmail: student.ParentEmail,
		Subject: fmt.Sprintf("Monthly Progress Report - %s %d - %s", monthName, year, student.Name),
		PlainBody: fmt.Sprintf(
			"Dear Parent,\n\nPlease find attached the %s %d progress report for %s.\n\nOverall average: %.1f%% (%s)\nClass rank: %d of %d\n\nRegards,\nHomework Service",
			monthName, year, student.Name, report.OverallAverage, report.OverallGrade, report.ClassRank, report.ClassSize),
		Attachment: &email.Attachment{
			Filename:    filename,
			ContentType: export.ReportContentType,
			Data:        data,
		},
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send report email: %w", err)
	}

	if err := s.repo.Report().MarkEmailed(ctx, report.ID, time.Now()); err != nil {
		s.logger.Warn("failed to mark report emailed", "report_id", report.ID, "error", err)
	}

	s.logger.Info("report emailed",
		"student_id", studentID,
		"to", student.ParentEmail,
		"year", year,
		"month", month)

	return nil
}
