package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/HMPS-2025/homework-service/internal/config"
	"github.com/HMPS-2025/homework-service/internal/email"
	"github.com/HMPS-2025/homework-service/internal/events"
	"github.com/HMPS-2025/homework-service/internal/handlers"
	"github.com/HMPS-2025/homework-service/internal/nlp"
	"github.com/HMPS-2025/homework-service/internal/repositories/postgres"
	"github.com/HMPS-2025/homework-service/internal/scheduler"
	"github.com/HMPS-2025/homework-service/internal/services"
	"github.com/HMPS-2025/homework-service/internal/utils"
	"github.com/HMPS-2025/homework-service/internal/validator"
	"github.com/HMPS-2025/homework-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to initialize Redis: %v", err)
		}
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	repo := repoManager.GetRepository()

	// Initialize validator
	validator := validator.New()

	// NLP components: embeddings degrade to lexical overlap without a key
	var embedder nlp.Embedder
	if cfg.OpenAIAPIKey != "" {
		embedder = nlp.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
	}
	scorer := nlp.NewSemanticScorer(embedder)
	generator := nlp.NewGenerator(cfg.OpenAIAPIKey)

	// Mailer
	var mailer email.Mailer
	if cfg.SendGridAPIKey != "" {
		mailer = email.NewSendGridMailer(cfg.SendGridAPIKey, cfg.SenderName, cfg.SenderEmail, slogLogger)
	} else {
		mailer = email.NewConsoleMailer(slogLogger)
	}

	// Event publisher
	var publisher events.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err = events.NewKafkaEventPublisher(cfg.KafkaBrokers, slogLogger)
		if err != nil {
			log.Fatalf("Failed to initialize Kafka publisher: %v", err)
		}
	} else {
		publisher = events.NewMockEventPublisher(slogLogger)
	}

	// Initialize services
	serviceManager := services.NewDefaultServiceManager(services.Dependencies{
		DB:        db,
		Repo:      repo,
		Logger:    slogLogger,
		Validator: validator,
		Generator: generator,
		Scorer:    scorer,
		Mailer:    mailer,
		Publisher: publisher,
		Schedule: services.SchedulePolicy{
			WeeklyPerSubject: cfg.WeeklyPerSubject,
			CloseAfterDays:   cfg.LessonCloseAfter,
		},
	})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Background jobs
	var jobs *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		jobs = scheduler.New(slogLogger)
		jobs.Register(scheduler.NewWeeklyHomeworkJob(serviceManager.Homework(), "scheduler", slogLogger))
		jobs.Register(scheduler.NewHomeworkLifecycleJob(serviceManager.Homework()))
		jobs.Register(scheduler.NewMonthlyReportJob(serviceManager.Report(), slogLogger))
		jobs.Start()
	}

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, logger, cfg.Casdoor, repo.User())

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Setup middleware
	handlers.SetupMiddleware(router, slogLogger)

	// Setup routes
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Stop background jobs
	if jobs != nil {
		jobs.Stop()
	}

	// Shutdown services
	if err := serviceManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown services: %v", err)
	}

	// Shutdown repositories
	if err := repoManager.Shutdown(); err != nil {
		log.Printf("Failed to shutdown repositories: %v", err)
	}

	// Close Redis connection
	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited")
}
