package services

import (
	"context"
	"time"

	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/repositories"
	"github.com/HMPS-2025/homework-service/internal/validator"
)

// ===== REQUEST DTOs =====

type CreateLessonRequest = validator.LessonCreateRequest
type UpdateLessonRequest = validator.LessonUpdateRequest
type CreateQuestionRequest = validator.QuestionCreateRequest
type GenerateQuestionsRequest = validator.QuestionGenerateRequest
type CreateHomeworkRequest = validator.HomeworkCreateRequest
type UpdateHomeworkRequest = validator.HomeworkUpdateRequest
type ScheduleWeekRequest = validator.ScheduleWeekRequest
type SaveSubmissionRequest = validator.SubmissionSaveRequest
type OverrideGradeRequest = validator.OverrideGradeRequest

// ===== RESULT TYPES =====

// SubmissionGradingResult is the outcome of grading one submission.
type SubmissionGradingResult struct {
	SubmissionID  uint                  `json:"submission_id"`
	HomeworkID    uint                  `json:"homework_id"`
	StudentID     string                `json:"student_id"`
	MarksObtained float64               `json:"marks_obtained"`
	TotalMarks    float64               `json:"total_marks"`
	Percentage    float64               `json:"percentage"`
	Grade         string                `json:"grade"`
	Answers       []models.AnswerResult `json:"answers"`
	GradedAt      time.Time             `json:"graded_at"`
	GradedBy      string                `json:"graded_by"`
}

// BatchGradingResult summarizes grading every pending submission of a
// homework.
type BatchGradingResult struct {
	HomeworkID uint                      `json:"homework_id"`
	Graded     int                       `json:"graded"`
	Failed     int                       `json:"failed"`
	Results    []SubmissionGradingResult `json:"results"`
}

// ClassPerformanceOverview aggregates one class for one month.
type ClassPerformanceOverview struct {
	Grade          int     `json:"grade"`
	Section        string  `json:"section"`
	Year           int     `json:"year"`
	Month          int     `json:"month"`
	StudentCount   int     `json:"student_count"`
	ClassAverage   float64 `json:"class_average"`
	NeedsAttention int     `json:"needs_attention"`
}

// ===== SERVICE INTERFACES =====

type LessonService interface {
	Create(ctx context.Context, req CreateLessonRequest, userID string) (*models.Lesson, error)
	GetByID(ctx context.Context, id uint) (*models.Lesson, error)
	Update(ctx context.Context, id uint, req UpdateLessonRequest, userID string) (*models.Lesson, error)
	Delete(ctx context.Context, id uint, userID string) error
	List(ctx context.Context, filters repositories.LessonFilters) ([]*models.Lesson, int64, error)
}

type QuestionService interface {
	Create(ctx context.Context, req CreateQuestionRequest, userID string) (*models.Question, error)
	Generate(ctx context.Context, req GenerateQuestionsRequest, userID string) ([]*models.Question, error)
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	Delete(ctx context.Context, id uint, userID string) error
	List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error)
}

type HomeworkService interface {
	Create(ctx context.Context, req CreateHomeworkRequest, userID string) (*models.Homework, error)
	GetByID(ctx context.Context, id uint, userID string, role models.UserRole) (*models.Homework, error)
	Update(ctx context.Context, id uint, req UpdateHomeworkRequest, userID string) (*models.Homework, error)
	Delete(ctx context.Context, id uint, userID string) error
	List(ctx context.Context, filters repositories.HomeworkFilters) ([]*models.Homework, int64, error)

	Publish(ctx context.Context, id uint, userID string) (*models.Homework, error)
	Close(ctx context.Context, id uint, userID string) (*models.Homework, error)
	GetStats(ctx context.Context, id uint) (*repositories.HomeworkStats, error)

	// ScheduleWeek creates the standard weekly homework for every subject
	// of a grade: two per subject, due mid-week and end of week.
	ScheduleWeek(ctx context.Context, req ScheduleWeekRequest, userID string) ([]*models.Homework, error)

	// Maintenance entry points used by the scheduler.
	ActivateScheduled(ctx context.Context) (int, error)
	CloseOverdue(ctx context.Context) (int, error)
}

type SubmissionService interface {
	SaveDraft(ctx context.Context, homeworkID uint, studentID string, req SaveSubmissionRequest) (*models.Submission, error)
	Submit(ctx context.Context, homeworkID uint, studentID string, req SaveSubmissionRequest) (*models.Submission, error)
	GetByID(ctx context.Context, id uint, userID string, role models.UserRole) (*models.Submission, error)
	ListByHomework(ctx context.Context, homeworkID uint, userID string) ([]*models.Submission, error)
	ListByStudent(ctx context.Context, studentID string, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error)
}

type GradingService interface {
	GradeSubmission(ctx context.Context, submissionID uint, gradedBy string) (*SubmissionGradingResult, error)
	GradeHomework(ctx context.Context, homeworkID uint, gradedBy string) (*BatchGradingResult, error)
	OverrideGrade(ctx context.Context, submissionID uint, req OverrideGradeRequest, teacherID string) (*models.Submission, error)
}

type PerformanceService interface {
	ComputeMonthly(ctx context.Context, studentID, subject string, year, month int) (*models.PerformanceRecord, error)
	ComputeAllForStudent(ctx context.Context, studentID string, year, month int) ([]*models.PerformanceRecord, error)
	GetStudentPerformance(ctx context.Context, studentID string, year, month int) ([]*models.PerformanceRecord, error)
	GetClassOverview(ctx context.Context, grade int, section string, year, month int) (*ClassPerformanceOverview, error)
}

type ReportService interface {
	GenerateForClass(ctx context.Context, grade int, section string, year, month int) ([]*models.MonthlyReport, error)
	GetReport(ctx context.Context, studentID string, year, month int) (*models.MonthlyReport, error)
	ExportExcel(ctx context.Context, studentID string, year, month int) ([]byte, string, error)
	EmailReport(ctx context.Context, studentID string, year, month int) error
}

type NotificationEventService interface {
	PublishHomeworkPublished(ctx context.Context, homework *models.Homework) error
	PublishSubmissionReceived(ctx context.Context, submission *models.Submission) error
	PublishSubmissionGraded(ctx context.Context, submission *models.Submission) error
	PublishReportGenerated(ctx context.Context, report *models.MonthlyReport) error
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Lesson() LessonService
	Question() QuestionService
	Homework() HomeworkService
	Submission() SubmissionService
	Grading() GradingService
	Performance() PerformanceService
	Report() ReportService
	Notification() NotificationEventService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
