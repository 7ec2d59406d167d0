package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/HMPS-2025/homework-service/internal/email"
	"github.com/HMPS-2025/homework-service/internal/events"
	"github.com/HMPS-2025/homework-service/internal/nlp"
	"github.com/HMPS-2025/homework-service/internal/repositories"
	"github.com/HMPS-2025/homework-service/internal/validator"
)

// ServiceConfig controls per-service behavior.
type ServiceConfig struct {
	Enabled         bool
	CacheEnabled    bool
	CacheTTL        time.Duration
	AuditingEnabled bool
}

type ServiceManagerConfig struct {
	Lesson      ServiceConfig
	Question    ServiceConfig
	Homework    ServiceConfig
	Submission  ServiceConfig
	Grading     ServiceConfig
	Performance ServiceConfig
	Report      ServiceConfig
}

func DefaultServiceManagerConfig() ServiceManagerConfig {
	enabled := ServiceConfig{Enabled: true, CacheEnabled: true, CacheTTL: 5 * time.Minute}
	return ServiceManagerConfig{
		Lesson:      enabled,
		Question:    enabled,
		Homework:    enabled,
		Submission:  enabled,
		Grading:     enabled,
		Performance: enabled,
		Report:      enabled,
	}
}

// Dependencies are the shared collaborators every service draws from.
type Dependencies struct {
	DB        *gorm.DB
	Repo      repositories.Repository
	Logger    *slog.Logger
	Validator *validator.Validator
	Generator *nlp.Generator
	Scorer    *nlp.SemanticScorer
	Mailer    email.Mailer
	Publisher events.EventPublisher
	Schedule  SchedulePolicy
}

type serviceManager struct {
	config ServiceManagerConfig
	deps   Dependencies

	mu          sync.RWMutex
	initialized bool

	lesson       LessonService
	question     QuestionService
	homework     HomeworkService
	submission   SubmissionService
	grading      GradingService
	performance  PerformanceService
	report       ReportService
	notification NotificationEventService
}

func NewServiceManager(config ServiceManagerConfig, deps Dependencies) ServiceManager {
	return &serviceManager{config: config, deps: deps}
}

// NewDefaultServiceManager wires the standard configuration.
func NewDefaultServiceManager(deps Dependencies) ServiceManager {
	return NewServiceManager(DefaultServiceManagerConfig(), deps)
}

func (m *serviceManager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}
	if m.deps.Repo == nil {
		return fmt.Errorf("repository is required")
	}
	if m.deps.Validator == nil {
		return fmt.Errorf("validator is required")
	}

	m.notification = NewNotificationEventService(m.deps.Publisher, m.deps.Logger)
	m.lesson = NewLessonService(m.deps.DB, m.deps.Repo, m.deps.Logger, m.deps.Validator)
	m.question = NewQuestionService(m.deps.DB, m.deps.Repo, m.deps.Logger, m.deps.Validator, m.deps.Generator)
	m.homework = NewHomeworkService(m.deps.DB, m.deps.Repo, m.deps.Logger, m.deps.Validator, m.deps.Generator, m.notification, m.deps.Schedule)
	m.grading = NewGradingService(m.deps.DB, m.deps.Repo, m.deps.Logger, m.deps.Validator, m.deps.Scorer, m.notification)
	m.submission = NewSubmissionService(m.deps.DB, m.deps.Repo, m.deps.Logger, m.deps.Validator, m.notification, m.grading)
	m.performance = NewPerformanceService(m.deps.DB, m.deps.Repo, m.deps.Logger)
	m.report = NewReportService(m.deps.DB, m.deps.Repo, m.deps.Logger, m.performance, m.deps.Mailer, m.notification)

	m.initialized = true
	m.deps.Logger.Info("service manager initialized")
	return nil
}

func (m *serviceManager) Lesson() LessonService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.initialized {
		panic("service manager not initialized")
	}
	return m.lesson
}

func (m *serviceManager) Question() QuestionService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.initialized {
		panic("service manager not initialized")
	}
	return m.question
}

func (m *serviceManager) Homework() HomeworkService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.initialized {
		panic("service manager not initialized")
	}
	return m.homework
}

func (m *serviceManager) Submission() SubmissionService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.initialized {
		panic("service manager not initialized")
	}
	return m.submission
}

func (m *serviceManager) Grading() GradingService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.initialized {
		panic("service manager not initialized")
	}
	return m.grading
}

func (m *serviceManager) Performance() PerformanceService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.initialized {
		panic("service manager not initialized")
	}
	return m.performance
}

func (m *serviceManager) Report() ReportService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.initialized {
		panic("service manager not initialized")
	}
	return m.report
}

func (m *serviceManager) Notification() NotificationEventService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.initialized {
		panic("service manager not initialized")
	}
	return m.notification
}

func (m *serviceManager) HealthCheck(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if err := m.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

func (m *serviceManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil
	}
	if m.deps.Publisher != nil {
		if err := m.deps.Publisher.Close(); err != nil {
			m.deps.Logger.Error("failed to close event publisher", "error", err)
		}
	}
	m.initialized = false
	m.deps.Logger.Info("service manager shut down")
	return nil
}
