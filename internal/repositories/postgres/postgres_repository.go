package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/HMPS-2025/homework-service/internal/cache"
	"github.com/HMPS-2025/homework-service/internal/repositories"
)

type RepositoryConfig struct {
	DB          *gorm.DB
	RedisClient *redis.Client
}

// PostgreSQLRepository implements repositories.Repository on gorm with an
// optional redis cache layer.
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	lesson      *LessonPostgreSQL
	question    *QuestionPostgreSQL
	homework    *HomeworkPostgreSQL
	submission  *SubmissionPostgreSQL
	performance *PerformancePostgreSQL
	report      *ReportPostgreSQL
	user        *UserPostgreSQL
}

func NewPostgreSQLRepository(config RepositoryConfig) *PostgreSQLRepository {
	cacheManager := cache.NewCacheManager(config.RedisClient)
	helpers := NewSharedHelpers(config.DB)

	return &PostgreSQLRepository{
		db:           config.DB,
		redisClient:  config.RedisClient,
		cacheManager: cacheManager,

		lesson:      NewLessonPostgreSQL(config.DB, cacheManager, helpers),
		question:    NewQuestionPostgreSQL(config.DB, cacheManager, helpers),
		homework:    NewHomeworkPostgreSQL(config.DB, cacheManager, helpers),
		submission:  NewSubmissionPostgreSQL(config.DB, cacheManager, helpers),
		performance: NewPerformancePostgreSQL(config.DB, helpers),
		report:      NewReportPostgreSQL(config.DB, helpers),
		user:        NewUserPostgreSQL(config.DB, cacheManager),
	}
}

func (r *PostgreSQLRepository) Lesson() repositories.LessonRepository           { return r.lesson }
func (r *PostgreSQLRepository) Question() repositories.QuestionRepository       { return r.question }
func (r *PostgreSQLRepository) Homework() repositories.HomeworkRepository       { return r.homework }
func (r *PostgreSQLRepository) Submission() repositories.SubmissionRepository   { return r.submission }
func (r *PostgreSQLRepository) Performance() repositories.PerformanceRepository { return r.performance }
func (r *PostgreSQLRepository) Report() repositories.ReportRepository           { return r.report }
func (r *PostgreSQLRepository) User() repositories.UserRepository               { return r.user }

func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := NewPostgreSQLRepository(RepositoryConfig{
			DB:          tx,
			RedisClient: r.redisClient,
		})
		return fn(txRepo)
	})
}

func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.Close()
}

func (r *PostgreSQLRepository) CacheManager() *cache.CacheManager {
	return r.cacheManager
}

// ===== REPOSITORY MANAGER =====

type postgresRepositoryManager struct {
	config RepositoryConfig
	repo   *PostgreSQLRepository
}

func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &postgresRepositoryManager{config: config}
}

func (m *postgresRepositoryManager) Initialize() error {
	if m.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}
	m.repo = NewPostgreSQLRepository(m.config)
	return nil
}

func (m *postgresRepositoryManager) GetRepository() repositories.Repository {
	if m.repo == nil {
		panic("repository manager not initialized")
	}
	return m.repo
}

func (m *postgresRepositoryManager) HealthCheck(ctx context.Context) error {
	if m.repo == nil {
		return fmt.Errorf("repository manager not initialized")
	}
	if err := m.repo.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	if m.config.RedisClient != nil {
		if err := m.repo.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache health check failed: %w", err)
		}
	}
	return nil
}

func (m *postgresRepositoryManager) Shutdown() error {
	if m.repo == nil {
		return nil
	}
	return m.repo.Close()
}
