package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/nlp"
	"github.com/HMPS-2025/homework-service/internal/repositories"
	"github.com/HMPS-2025/homework-service/internal/validator"
)

type scheduleLessonRepo struct {
	repositories.LessonRepository
	subjects []string
	lessons  map[string][]*models.Lesson
}

func (r *scheduleLessonRepo) DistinctSubjects(ctx context.Context, grade int) ([]string, error) {
	return r.subjects, nil
}

func (r *scheduleLessonRepo) GetBySubjectAndGrade(ctx context.Context, subject string, grade int) ([]*models.Lesson, error) {
	return r.lessons[subject], nil
}

type scheduleHomeworkRepo struct {
	repositories.HomeworkRepository
	existing   map[string]int64
	created    []*models.Homework
	nextID     uint
	lastCutoff time.Time
}

func (r *scheduleHomeworkRepo) ListActivePastDue(ctx context.Context, cutoff time.Time) ([]*models.Homework, error) {
	r.lastCutoff = cutoff
	return nil, nil
}

func (r *scheduleHomeworkRepo) CountInWeek(ctx context.Context, subject string, grade int, weekStart time.Time) (int64, error) {
	return r.existing[subject], nil
}

func (r *scheduleHomeworkRepo) Create(ctx context.Context, homework *models.Homework) error {
	r.nextID++
	homework.ID = r.nextID
	r.created = append(r.created, homework)
	return nil
}

func (r *scheduleHomeworkRepo) AddQuestions(ctx context.Context, homeworkID uint, questions []models.HomeworkQuestion) error {
	return nil
}

func (r *scheduleHomeworkRepo) Update(ctx context.Context, homework *models.Homework) error {
	return nil
}

type scheduleQuestionRepo struct {
	repositories.QuestionRepository
	nextID  uint
	created []*models.Question
}

func (r *scheduleQuestionRepo) CreateBatch(ctx context.Context, questions []*models.Question) error {
	for _, q := range questions {
		r.nextID++
		q.ID = r.nextID
	}
	r.created = append(r.created, questions...)
	return nil
}

type scheduleRepository struct {
	repositories.Repository
	lesson   *scheduleLessonRepo
	homework *scheduleHomeworkRepo
	question *scheduleQuestionRepo
}

func (r *scheduleRepository) Lesson() repositories.LessonRepository     { return r.lesson }
func (r *scheduleRepository) Homework() repositories.HomeworkRepository { return r.homework }
func (r *scheduleRepository) Question() repositories.QuestionRepository { return r.question }
func (r *scheduleRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}

func scheduleTestLesson(t *testing.T, id uint, subject string) *models.Lesson {
	t.Helper()
	topics, err := json.Marshal([]string{"Photosynthesis", "Respiration", "Transpiration", "Germination"})
	if err != nil {
		t.Fatalf("Failed to marshal topics: %v", err)
	}
	keywords, err := json.Marshal([]string{"sunlight", "chlorophyll", "glucose", "oxygen"})
	if err != nil {
		t.Fatalf("Failed to marshal keywords: %v", err)
	}
	return &models.Lesson{
		ID:       id,
		Title:    subject + " unit",
		Subject:  subject,
		Grade:    7,
		Content:  "Lesson content about plant processes and energy conversion.",
		Topics:   datatypes.JSON(topics),
		Keywords: datatypes.JSON(keywords),
	}
}

func newScheduleTestService(t *testing.T, repo *scheduleRepository) *homeworkService {
	t.Helper()
	return &homeworkService{
		repo:      repo,
		logger:    slog.New(slog.NewTextHandler(os.Stdout, nil)),
		validator: validator.New(),
		generator: nlp.NewGenerator(""),
	}
}

func TestHomeworkService_ScheduleWeek(t *testing.T) {
	ctx := context.Background()
	weekStart := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC) // a Monday

	repo := &scheduleRepository{
		lesson: &scheduleLessonRepo{
			subjects: []string{"Science", "Math"},
			lessons: map[string][]*models.Lesson{
				"Science": {scheduleTestLesson(t, 1, "Science")},
				"Math":    {scheduleTestLesson(t, 2, "Math")},
			},
		},
		homework: &scheduleHomeworkRepo{existing: map[string]int64{}},
		question: &scheduleQuestionRepo{},
	}
	service := newScheduleTestService(t, repo)

	created, err := service.ScheduleWeek(ctx, ScheduleWeekRequest{Grade: 7, WeekStart: weekStart}, "teacher-1")
	if err != nil {
		t.Fatalf("ScheduleWeek failed: %v", err)
	}

	// two per subject across two subjects
	if len(created) != 4 {
		t.Fatalf("Expected 4 homework, got %d", len(created))
	}

	perSubject := map[string][]*models.Homework{}
	for _, hw := range created {
		perSubject[hw.Subject] = append(perSubject[hw.Subject], hw)
		if hw.Status != models.HomeworkScheduled {
			t.Errorf("Status = %s, want %s", hw.Status, models.HomeworkScheduled)
		}
		// 2 MCQ at 1 + 2 short at 3 + 1 descriptive at 5
		if hw.TotalMarks != 13 {
			t.Errorf("TotalMarks = %v, want 13", hw.TotalMarks)
		}
	}

	for _, q := range repo.question.created {
		if len(q.Content) == 0 {
			t.Errorf("Generated question %d has no content payload", q.ID)
		}
		if q.Topic == "" {
			t.Errorf("Generated question %d has no topic", q.ID)
		}
	}

	for subject, homework := range perSubject {
		if len(homework) != 2 {
			t.Fatalf("Expected 2 homework for %s, got %d", subject, len(homework))
		}

		firstDue := weekStart.AddDate(0, 0, 3).Add(18 * time.Hour)
		secondDue := weekStart.AddDate(0, 0, 6).Add(18 * time.Hour)
		if !homework[0].DueDate.Equal(firstDue) {
			t.Errorf("%s first due = %v, want %v", subject, homework[0].DueDate, firstDue)
		}
		if !homework[1].DueDate.Equal(secondDue) {
			t.Errorf("%s second due = %v, want %v", subject, homework[1].DueDate, secondDue)
		}
	}
}

func TestHomeworkService_ScheduleWeek_Idempotent(t *testing.T) {
	ctx := context.Background()
	weekStart := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	repo := &scheduleRepository{
		lesson: &scheduleLessonRepo{
			subjects: []string{"Science"},
			lessons: map[string][]*models.Lesson{
				"Science": {scheduleTestLesson(t, 1, "Science")},
			},
		},
		homework: &scheduleHomeworkRepo{existing: map[string]int64{"Science": 2}},
		question: &scheduleQuestionRepo{},
	}
	service := newScheduleTestService(t, repo)

	created, err := service.ScheduleWeek(ctx, ScheduleWeekRequest{Grade: 7, WeekStart: weekStart}, "teacher-1")
	if err != nil {
		t.Fatalf("ScheduleWeek failed: %v", err)
	}
	if len(created) != 0 {
		t.Errorf("Expected no new homework for an already scheduled week, got %d", len(created))
	}
}

func TestHomeworkService_ScheduleWeek_PolicyOverride(t *testing.T) {
	ctx := context.Background()
	weekStart := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	repo := &scheduleRepository{
		lesson: &scheduleLessonRepo{
			subjects: []string{"Science"},
			lessons: map[string][]*models.Lesson{
				"Science": {scheduleTestLesson(t, 1, "Science")},
			},
		},
		homework: &scheduleHomeworkRepo{existing: map[string]int64{}},
		question: &scheduleQuestionRepo{},
	}
	service := newScheduleTestService(t, repo)
	service.policy = SchedulePolicy{WeeklyPerSubject: 1}

	created, err := service.ScheduleWeek(ctx, ScheduleWeekRequest{Grade: 7, WeekStart: weekStart}, "teacher-1")
	if err != nil {
		t.Fatalf("ScheduleWeek failed: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("Expected 1 homework with a per-subject target of 1, got %d", len(created))
	}

	firstDue := weekStart.AddDate(0, 0, 3).Add(18 * time.Hour)
	if !created[0].DueDate.Equal(firstDue) {
		t.Errorf("Due = %v, want %v", created[0].DueDate, firstDue)
	}
}

func TestHomeworkService_CloseOverdue_PolicyCutoff(t *testing.T) {
	ctx := context.Background()

	repo := &scheduleRepository{
		homework: &scheduleHomeworkRepo{existing: map[string]int64{}},
	}
	service := newScheduleTestService(t, repo)
	service.policy = SchedulePolicy{CloseAfterDays: 3}

	if _, err := service.CloseOverdue(ctx); err != nil {
		t.Fatalf("CloseOverdue failed: %v", err)
	}

	want := time.Now().AddDate(0, 0, -3)
	got := repo.homework.lastCutoff
	if got.Before(want.Add(-time.Minute)) || got.After(want.Add(time.Minute)) {
		t.Errorf("Cutoff = %v, want about %v", got, want)
	}
}

func TestHomeworkService_ScheduleWeek_SkipsSubjectsWithoutLessons(t *testing.T) {
	ctx := context.Background()
	weekStart := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	repo := &scheduleRepository{
		lesson: &scheduleLessonRepo{
			subjects: []string{"Science", "History"},
			lessons: map[string][]*models.Lesson{
				"Science": {scheduleTestLesson(t, 1, "Science")},
			},
		},
		homework: &scheduleHomeworkRepo{existing: map[string]int64{}},
		question: &scheduleQuestionRepo{},
	}
	service := newScheduleTestService(t, repo)

	created, err := service.ScheduleWeek(ctx, ScheduleWeekRequest{Grade: 7, WeekStart: weekStart}, "teacher-1")
	if err != nil {
		t.Fatalf("ScheduleWeek failed: %v", err)
	}
	if len(created) != 2 {
		t.Errorf("Expected 2 homework (Science only), got %d", len(created))
	}
}

func TestRotatedLesson(t *testing.T) {
	lesson := scheduleTestLesson(t, 1, "Science")

	rotated := rotatedLesson(lesson, 1)
	got := rotated.TopicList()
	want := []string{"Respiration", "Transpiration", "Germination", "Photosynthesis"}
	if len(got) != len(want) {
		t.Fatalf("TopicList length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("TopicList[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	// original is untouched
	if lesson.TopicList()[0] != "Photosynthesis" {
		t.Error("rotatedLesson must not mutate the original lesson")
	}
}
