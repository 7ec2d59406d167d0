package services

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/repositories"
)

type stubPerformanceRepo struct {
	repositories.PerformanceRepository
	previous *models.PerformanceRecord
	upserted *models.PerformanceRecord
}

func (r *stubPerformanceRepo) Get(ctx context.Context, studentID, subject string, year, month int) (*models.PerformanceRecord, error) {
	if r.previous == nil || r.previous.Year != year || r.previous.Month != month {
		return nil, repositories.ErrNotFound
	}
	return r.previous, nil
}

func (r *stubPerformanceRepo) Upsert(ctx context.Context, record *models.PerformanceRecord) error {
	r.upserted = record
	return nil
}

type stubPerformanceUserRepo struct {
	repositories.UserRepository
	student *models.User
}

func (r *stubPerformanceUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if r.student == nil {
		return nil, repositories.ErrNotFound
	}
	return r.student, nil
}

type stubPerformanceSubmissionRepo struct {
	repositories.SubmissionRepository
	graded []*models.Submission
}

func (r *stubPerformanceSubmissionRepo) ListGradedInMonth(ctx context.Context, studentID, subject string, year, month int) ([]*models.Submission, error) {
	return r.graded, nil
}

func (r *stubPerformanceSubmissionRepo) CountAssignedInMonth(ctx context.Context, subject string, grade, year, month int) (int64, error) {
	return int64(len(r.graded)), nil
}

type stubPerformanceRepository struct {
	repositories.Repository
	performance *stubPerformanceRepo
	user        *stubPerformanceUserRepo
	submission  *stubPerformanceSubmissionRepo
}

func (r *stubPerformanceRepository) Performance() repositories.PerformanceRepository {
	return r.performance
}

func (r *stubPerformanceRepository) User() repositories.UserRepository { return r.user }
func (r *stubPerformanceRepository) Submission() repositories.SubmissionRepository {
	return r.submission
}

func newTestPerformanceService(previous *models.PerformanceRecord) *performanceService {
	return &performanceService{
		repo:   &stubPerformanceRepository{performance: &stubPerformanceRepo{previous: previous}},
		logger: slog.New(slog.NewTextHandler(os.Stdout, nil)),
	}
}

func TestPerformanceService_ComputeTrend(t *testing.T) {
	ctx := context.Background()

	previous := &models.PerformanceRecord{
		StudentID:    "student-1",
		Subject:      "Science",
		Year:         2026,
		Month:        7,
		AverageScore: 70,
	}

	tests := []struct {
		name     string
		previous *models.PerformanceRecord
		current  float64
		want     models.PerformanceTrend
	}{
		{name: "three points up is improving", previous: previous, current: 73, want: models.TrendImproving},
		{name: "three points down is declining", previous: previous, current: 67, want: models.TrendDeclining},
		{name: "small change is stable", previous: previous, current: 72, want: models.TrendStable},
		{name: "no previous month is stable", previous: nil, current: 95, want: models.TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestPerformanceService(tt.previous)
			got := service.computeTrend(ctx, "student-1", "Science", 2026, 8, tt.current)
			if got != tt.want {
				t.Errorf("computeTrend() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPerformanceService_ComputeMonthly_Aggregates(t *testing.T) {
	ctx := context.Background()

	graded := []*models.Submission{
		{
			HomeworkID: 1,
			Percentage: 80,
			Status:     models.SubmissionGraded,
			Results: mustJSON([]models.AnswerResult{
				{Topic: "Photosynthesis", MarksAwarded: 4, MaxMarks: 5},
				{Topic: "Respiration", MarksAwarded: 1, MaxMarks: 5},
			}),
		},
		{
			HomeworkID: 2,
			Percentage: 60,
			Status:     models.SubmissionGraded,
			IsLate:     true,
			Results: mustJSON([]models.AnswerResult{
				{Topic: "Photosynthesis", MarksAwarded: 5, MaxMarks: 5},
				{Topic: "Respiration", MarksAwarded: 2, MaxMarks: 5},
			}),
		},
	}

	perfRepo := &stubPerformanceRepo{}
	service := &performanceService{
		repo: &stubPerformanceRepository{
			performance: perfRepo,
			user:        &stubPerformanceUserRepo{student: &models.User{ID: "student-1", Grade: 7}},
			submission:  &stubPerformanceSubmissionRepo{graded: graded},
		},
		logger: slog.New(slog.NewTextHandler(os.Stdout, nil)),
	}

	record, err := service.ComputeMonthly(ctx, "student-1", "Science", 2026, 8)
	if err != nil {
		t.Fatalf("ComputeMonthly failed: %v", err)
	}

	if record.AverageScore != 70 {
		t.Errorf("AverageScore = %v, want 70", record.AverageScore)
	}
	if record.HighestScore != 80 {
		t.Errorf("HighestScore = %v, want 80", record.HighestScore)
	}
	if record.LowestScore != 60 {
		t.Errorf("LowestScore = %v, want 60", record.LowestScore)
	}
	if record.Grade != "B" {
		t.Errorf("Grade = %q, want B", record.Grade)
	}
	if record.LateSubmissions != 1 {
		t.Errorf("LateSubmissions = %d, want 1", record.LateSubmissions)
	}

	// Respiration earned 3 of 10 marks, Photosynthesis 9 of 10
	if weak := record.WeakAreaList(); len(weak) != 1 || weak[0] != "Respiration" {
		t.Errorf("WeakAreas = %v, want [Respiration]", weak)
	}
	if strong := record.StrongAreaList(); len(strong) != 1 || strong[0] != "Photosynthesis" {
		t.Errorf("StrongAreas = %v, want [Photosynthesis]", strong)
	}

	if perfRepo.upserted == nil {
		t.Error("Expected the record to be stored")
	}
}

func TestClassifyTopics(t *testing.T) {
	graded := []*models.Submission{
		{Results: mustJSON([]models.AnswerResult{
			{Topic: "Algebra", MarksAwarded: 1, MaxMarks: 4},
			{Topic: "Geometry", MarksAwarded: 3, MaxMarks: 4},
			{Topic: "", MarksAwarded: 0, MaxMarks: 4}, // untagged answers are skipped
		})},
		{Results: mustJSON([]models.AnswerResult{
			{Topic: "Algebra", MarksAwarded: 0, MaxMarks: 4},
			{Topic: "Fractions", MarksAwarded: 2, MaxMarks: 4},
		})},
	}

	weak, strong := classifyTopics(graded)

	// Algebra 1/8, Fractions 2/4 sit in neither bucket, Geometry 3/4
	if len(weak) != 1 || weak[0] != "Algebra" {
		t.Errorf("weak = %v, want [Algebra]", weak)
	}
	if len(strong) != 1 || strong[0] != "Geometry" {
		t.Errorf("strong = %v, want [Geometry]", strong)
	}
}

func TestPerformanceService_ComputeTrend_YearWrap(t *testing.T) {
	previous := &models.PerformanceRecord{
		StudentID:    "student-1",
		Subject:      "Science",
		Year:         2025,
		Month:        12,
		AverageScore: 60,
	}
	service := newTestPerformanceService(previous)

	got := service.computeTrend(context.Background(), "student-1", "Science", 2026, 1, 70)
	if got != models.TrendImproving {
		t.Errorf("computeTrend() = %s, want %s", got, models.TrendImproving)
	}
}
