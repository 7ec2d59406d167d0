package services

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/repositories"
)

type reportStubUserRepo struct {
	repositories.UserRepository
	sections       []string
	listedSections []string
}

func (r *reportStubUserRepo) DistinctSections(ctx context.Context, grade int) ([]string, error) {
	return r.sections, nil
}

func (r *reportStubUserRepo) ListStudents(ctx context.Context, grade int, section string) ([]*models.User, error) {
	r.listedSections = append(r.listedSections, section)
	return nil, nil
}

type reportStubRepository struct {
	repositories.Repository
	user *reportStubUserRepo
}

func (r *reportStubRepository) User() repositories.UserRepository { return r.user }

// A grade-wide run must rank each section on its own rather than
// pooling every section's students into one ladder.
func TestReportService_GenerateForClass_PerSection(t *testing.T) {
	user := &reportStubUserRepo{sections: []string{"A", "B"}}
	service := &reportService{
		repo:   &reportStubRepository{user: user},
		logger: slog.New(slog.NewTextHandler(os.Stdout, nil)),
	}

	if _, err := service.GenerateForClass(context.Background(), 7, "", 2026, 8); err != nil {
		t.Fatalf("GenerateForClass failed: %v", err)
	}

	if len(user.listedSections) != 2 || user.listedSections[0] != "A" || user.listedSections[1] != "B" {
		t.Errorf("Sections generated = %v, want [A B]", user.listedSections)
	}
}

func TestDenseRanks(t *testing.T) {
	averages := []repositories.ClassAverage{
		{StudentID: "s1", AverageScore: 91.5},
		{StudentID: "s2", AverageScore: 78},
		{StudentID: "s3", AverageScore: 91.5},
		{StudentID: "s4", AverageScore: 60},
		{StudentID: "s5", AverageScore: 78},
	}

	ranks := denseRanks(averages)

	want := map[string]int{
		"s1": 1,
		"s3": 1,
		"s2": 2,
		"s5": 2,
		"s4": 3,
	}
	for studentID, rank := range want {
		if ranks[studentID] != rank {
			t.Errorf("rank[%s] = %d, want %d", studentID, ranks[studentID], rank)
		}
	}
}

func TestDenseRanks_Empty(t *testing.T) {
	ranks := denseRanks(nil)
	if len(ranks) != 0 {
		t.Errorf("Expected no ranks, got %v", ranks)
	}
}

func TestDenseRanks_SingleStudent(t *testing.T) {
	ranks := denseRanks([]repositories.ClassAverage{{StudentID: "s1", AverageScore: 50}})
	if ranks["s1"] != 1 {
		t.Errorf("rank[s1] = %d, want 1", ranks["s1"])
	}
}
