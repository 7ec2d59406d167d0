package repositories

import (
	"context"
	"time"

	"github.com/HMPS-2025/homework-service/internal/models"
)

// ===== FILTERS =====

type LessonFilters struct {
	Subject   *string
	Grade     *int
	CreatedBy *string
	Search    *string

	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

type QuestionFilters struct {
	Type      *models.QuestionType
	LessonID  *uint
	Topic     *string
	CreatedBy *string

	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

type HomeworkFilters struct {
	Status    *models.HomeworkStatus
	Subject   *string
	Grade     *int
	CreatedBy *string
	DueFrom   *time.Time
	DueTo     *time.Time

	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

type SubmissionFilters struct {
	Status     *models.SubmissionStatus
	HomeworkID *uint
	StudentID  *string
	IsLate     *bool
	DateFrom   *time.Time
	DateTo     *time.Time

	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

type UserFilters struct {
	Role    *models.UserRole
	Grade   *int
	Section *string

	Limit  int
	Offset int
}

// ===== STATS =====

type HomeworkStats struct {
	TotalSubmissions  int64   `json:"total_submissions"`
	GradedSubmissions int64   `json:"graded_submissions"`
	LateSubmissions   int64   `json:"late_submissions"`
	AverageScore      float64 `json:"average_score"`
	HighestScore      float64 `json:"highest_score"`
	LowestScore       float64 `json:"lowest_score"`
}

type ClassAverage struct {
	StudentID    string  `json:"student_id"`
	AverageScore float64 `json:"average_score"`
}

// ===== REPOSITORY INTERFACES =====

type LessonRepository interface {
	Create(ctx context.Context, lesson *models.Lesson) error
	GetByID(ctx context.Context, id uint) (*models.Lesson, error)
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters LessonFilters) ([]*models.Lesson, int64, error)
	GetBySubjectAndGrade(ctx context.Context, subject string, grade int) ([]*models.Lesson, error)
	DistinctSubjects(ctx context.Context, grade int) ([]string, error)
}

type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	CreateBatch(ctx context.Context, questions []*models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters QuestionFilters) ([]*models.Question, int64, error)
	GetByLesson(ctx context.Context, lessonID uint) ([]*models.Question, error)
}

type HomeworkRepository interface {
	Create(ctx context.Context, homework *models.Homework) error
	GetByID(ctx context.Context, id uint) (*models.Homework, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Homework, error)
	Update(ctx context.Context, homework *models.Homework) error
	UpdateStatus(ctx context.Context, id uint, status models.HomeworkStatus) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters HomeworkFilters) ([]*models.Homework, int64, error)

	AddQuestions(ctx context.Context, homeworkID uint, questions []models.HomeworkQuestion) error
	RemoveQuestion(ctx context.Context, homeworkID, questionID uint) error
	GetQuestions(ctx context.Context, homeworkID uint) ([]models.HomeworkQuestion, error)

	ListActivePastDue(ctx context.Context, cutoff time.Time) ([]*models.Homework, error)
	ListScheduledToActivate(ctx context.Context, now time.Time) ([]*models.Homework, error)
	CountInWeek(ctx context.Context, subject string, grade int, weekStart time.Time) (int64, error)
	GetStats(ctx context.Context, homeworkID uint) (*HomeworkStats, error)
}

type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (*models.Submission, error)
	GetByIDWithHomework(ctx context.Context, id uint) (*models.Submission, error)
	GetByHomeworkAndStudent(ctx context.Context, homeworkID uint, studentID string) (*models.Submission, error)
	Update(ctx context.Context, submission *models.Submission) error
	List(ctx context.Context, filters SubmissionFilters) ([]*models.Submission, int64, error)
	ListByHomework(ctx context.Context, homeworkID uint) ([]*models.Submission, error)
	ListPendingGrading(ctx context.Context, homeworkID uint) ([]*models.Submission, error)
	ListGradedInMonth(ctx context.Context, studentID, subject string, year, month int) ([]*models.Submission, error)
	CountAssignedInMonth(ctx context.Context, subject string, grade int, year, month int) (int64, error)
}

type PerformanceRepository interface {
	Upsert(ctx context.Context, record *models.PerformanceRecord) error
	Get(ctx context.Context, studentID, subject string, year, month int) (*models.PerformanceRecord, error)
	ListByStudent(ctx context.Context, studentID string, year, month int) ([]*models.PerformanceRecord, error)
	GetClassAverages(ctx context.Context, grade int, section string, year, month int) ([]ClassAverage, error)
}

type ReportRepository interface {
	Upsert(ctx context.Context, report *models.MonthlyReport) error
	GetByStudentAndMonth(ctx context.Context, studentID string, year, month int) (*models.MonthlyReport, error)
	ListByMonth(ctx context.Context, year, month int) ([]*models.MonthlyReport, error)
	MarkEmailed(ctx context.Context, id uint, at time.Time) error
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)
	ListStudents(ctx context.Context, grade int, section string) ([]*models.User, error)
	DistinctSections(ctx context.Context, grade int) ([]string, error)
}
