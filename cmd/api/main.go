package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quizzerhq/quizzer-api/internal/config"
	"github.com/quizzerhq/quizzer-api/internal/database"
	"github.com/quizzerhq/quizzer-api/internal/handler"
	"github.com/quizzerhq/quizzer-api/internal/middleware"
	"github.com/quizzerhq/quizzer-api/internal/models"
	"github.com/quizzerhq/quizzer-api/internal/repository"
	"github.com/quizzerhq/quizzer-api/internal/router"
	"github.com/quizzerhq/quizzer-api/internal/scheduler"
	"github.com/quizzerhq/quizzer-api/internal/service"
	"github.com/quizzerhq/quizzer-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Test{}, &models.Question{}, &models.Submission{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer cache.Close()
	}

	scorer, err := ai.NewOpenAIScorer(ai.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.ScorerModel,
		Timeout: cfg.ScorerTimeout,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("failed to create scorer: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	submissionRepo := repository.NewSubmissionRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	testRepo := repository.NewTestRepository(db)

	submissionService := service.NewSubmissionService(submissionRepo, logger)
	gradebookService := service.NewGradebookService(testRepo, questionRepo, cache, cfg.GradebookCacheTTL, logger)
	gradingService := service.NewGradingService(submissionRepo, gradebookService, scorer, logger)

	if cfg.SeedSampleData {
		seedService := service.NewSeedService(testRepo, questionRepo, logger)
		if err := seedService.EnsureSampleData(context.Background()); err != nil {
			log.Fatalf("failed to seed sample data: %v", err)
		}
	}

	gradingScheduler := scheduler.NewGradingScheduler(submissionRepo, gradingService, scheduler.Config{
		Schedule:  cfg.GradingSchedule,
		Lookback:  cfg.GradingLookback,
		BatchSize: cfg.GradingBatchSize,
	}, logger)
	if err := gradingScheduler.Start(); err != nil {
		log.Fatalf("failed to start grading scheduler: %v", err)
	}

	submissionHandler := handler.NewSubmissionHandler(submissionService, testRepo, validate, logger)
	gradebookHandler := handler.NewGradebookHandler(gradebookService, submissionService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		SubmissionHandler: submissionHandler,
		GradebookHandler:  gradebookHandler,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, gradingScheduler)
}

func waitForShutdown(app *fiber.App, gradingScheduler *scheduler.GradingScheduler) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := gradingScheduler.Stop(ctx); err != nil {
		log.Printf("grading scheduler did not stop cleanly: %v", err)
	}

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
