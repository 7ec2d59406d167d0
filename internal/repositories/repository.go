package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrNotFound)
}

// Repository là aggregate cho tất cả repository con
type Repository interface {
	Lesson() LessonRepository
	Question() QuestionRepository
	Homework() HomeworkRepository
	Submission() SubmissionRepository
	Performance() PerformanceRepository
	Report() ReportRepository
	User() UserRepository

	// WithTransaction runs fn inside a db transaction; the Repository
	// passed to fn is bound to that transaction.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	Ping(ctx context.Context) error
	Close() error
}

type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown() error
}
