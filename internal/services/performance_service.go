package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"gorm.io/gorm"

	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/repositories"
)

// Trend and attention thresholds, in percentage points.
const (
	trendDelta         = 3.0
	attentionThreshold = 50.0
)

// Topic classification thresholds, as a fraction of marks earned on
// answers tagged with that topic across the month.
const (
	weakAreaThreshold   = 0.5
	strongAreaThreshold = 0.75
)

type performanceService struct {
	db     *gorm.DB
	repo   repositories.Repository
	logger *slog.Logger
}

func NewPerformanceService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger) PerformanceService {
	return &performanceService{db: db, repo: repo, logger: logger}
}

// ComputeMonthly rebuilds the rollup for one student+subject+month from
// graded submissions and stores it.
func (s *performanceService) ComputeMonthly(ctx context.Context, studentID, subject string, year, month int) (*models.PerformanceRecord, error) {
	student, err := s.repo.User().GetByID(ctx, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	graded, err := s.repo.Submission().ListGradedInMonth(ctx, studentID, subject, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to list graded submissions: %w", err)
	}

	assigned, err := s.repo.Submission().CountAssignedInMonth(ctx, subject, student.Grade, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to count assigned homework: %w", err)
	}

	average := 0.0
	highest := 0.0
	lowest := 0.0
	late := 0
	for i, sub := range graded {
		average += sub.Percentage
		if i == 0 || sub.Percentage > highest {
			highest = sub.Percentage
		}
		if i == 0 || sub.Percentage < lowest {
			lowest = sub.Percentage
		}
		if sub.IsLate {
			late++
		}
	}
	if len(graded) > 0 {
		average = roundTo1(average / float64(len(graded)))
	}

	weak, strong := classifyTopics(graded)

	record := &models.PerformanceRecord{
		StudentID:         studentID,
		Subject:           subject,
		Year:              year,
		Month:             month,
		AverageScore:      average,
		HighestScore:      highest,
		LowestScore:       lowest,
		Grade:             calculateLetterGrade(average),
		HomeworkCompleted: len(graded),
		TotalHomework:     int(assigned),
		LateSubmissions:   late,
		WeakAreas:         mustJSON(weak),
		StrongAreas:       mustJSON(strong),
		Trend:             s.computeTrend(ctx, studentID, subject, year, month, average),
		NeedsAttention:    average < attentionThreshold,
	}

	if err := s.repo.Performance().Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store performance record: %w", err)
	}

	s.logger.Info("performance computed",
		"student_id", studentID,
		"subject", subject,
		"year", year,
		"month", month,
		"average", average,
		"trend", record.Trend)

	return record, nil
}

// classifyTopics buckets answer topics by the share of marks earned on
// them across the month's graded work. Topics below half the available
// marks are weak, topics at three quarters or better are strong.
func classifyTopics(graded []*models.Submission) (weak, strong []string) {
	earned := make(map[string]float64)
	possible := make(map[string]float64)
	for _, sub := range graded {
		for _, r := range sub.ResultList() {
			if r.Topic == "" || r.MaxMarks <= 0 {
				continue
			}
			earned[r.Topic] += r.MarksAwarded
			possible[r.Topic] += r.MaxMarks
		}
	}

	for topic, max := range possible {
		ratio := earned[topic] / max
		switch {
		case ratio < weakAreaThreshold:
			weak = append(weak, topic)
		case ratio >= strongAreaThreshold:
			strong = append(strong, topic)
		}
	}
	sort.Strings(weak)
	sort.Strings(strong)
	return weak, strong
}

// computeTrend compares against the previous month: improving at +3
// points or more, declining at -3 or less, stable otherwise (including
// when there is no previous month).
func (s *performanceService) computeTrend(ctx context.Context, studentID, subject string, year, month int, current float64) models.PerformanceTrend {
	prevYear, prevMonth := year, month-1
	if prevMonth == 0 {
		prevYear, prevMonth = year-1, 12
	}

	previous, err := s.repo.Performance().Get(ctx, studentID, subject, prevYear, prevMonth)
	if err != nil {
		return models.TrendStable
	}

	delta := current - previous.AverageScore
	switch {
	case delta >= trendDelta:
		return models.TrendImproving
	case delta <= -trendDelta:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

// ComputeAllForStudent recomputes every subject the student had graded
// work in during the month.
func (s *performanceService) ComputeAllForStudent(ctx context.Context, studentID string, year, month int) ([]*models.PerformanceRecord, error) {
	graded, err := s.repo.Submission().ListGradedInMonth(ctx, studentID, "", year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to list graded submissions: %w", err)
	}

	subjects := make(map[string]bool)
	for _, sub := range graded {
		homework, err := s.repo.Homework().GetByID(ctx, sub.HomeworkID)
		if err != nil {
			s.logger.Warn("failed to resolve homework for submission",
				"submission_id", sub.ID, "error", err)
			continue
		}
		subjects[homework.Subject] = true
	}

	records := make([]*models.PerformanceRecord, 0, len(subjects))
	for subject := range subjects {
		record, err := s.ComputeMonthly(ctx, studentID, subject, year, month)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *performanceService) GetStudentPerformance(ctx context.Context, studentID string, year, month int) ([]*models.PerformanceRecord, error) {
	records, err := s.repo.Performance().ListByStudent(ctx, studentID, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to get performance records: %w", err)
	}
	return records, nil
}

func (s *performanceService) GetClassOverview(ctx context.Context, grade int, section string, year, month int) (*ClassPerformanceOverview, error) {
	averages, err := s.repo.Performance().GetClassAverages(ctx, grade, section, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to get class averages: %w", err)
	}

	overview := &ClassPerformanceOverview{
		Grade:        grade,
		Section:      section,
		Year:         year,
		Month:        month,
		StudentCount: len(averages),
	}

	sum := 0.0
	for _, avg := range averages {
		sum += avg.AverageScore
		if avg.AverageScore < attentionThreshold {
			overview.NeedsAttention++
		}
	}
	if len(averages) > 0 {
		overview.ClassAverage = roundTo1(sum / float64(len(averages)))
	}

	return overview, nil
}
