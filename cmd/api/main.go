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
	"github.com/rs/zerolog"

	"github.com/lumina-school/lumina-api/internal/config"
	"github.com/lumina-school/lumina-api/internal/database"
	"github.com/lumina-school/lumina-api/internal/events"
	"github.com/lumina-school/lumina-api/internal/handler"
	"github.com/lumina-school/lumina-api/internal/middleware"
	"github.com/lumina-school/lumina-api/internal/models"
	"github.com/lumina-school/lumina-api/internal/repository"
	"github.com/lumina-school/lumina-api/internal/router"
	"github.com/lumina-school/lumina-api/internal/service"
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

	if err := db.AutoMigrate(
		&models.Student{},
		&models.Enrollment{},
		&models.Exam{},
		&models.Question{},
		&models.ExamAttempt{},
		&models.Answer{},
		&models.Result{},
		&models.GradeBoundary{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Redis and NATS are optional; the engine degrades to uncached reads and
	// dropped events when they are absent.
	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, leaderboard cache disabled")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	publisher := events.NewNopPublisher()
	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, result events disabled")
	} else {
		defer natsConn.Close()
		publisher = events.NewNATSPublisher(natsConn, logger)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	examRepo := repository.NewExamRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	resultRepo := repository.NewResultRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	boundaryRepo := repository.NewBoundaryRepository(db)

	leaderboardService := service.NewLeaderboardService(resultRepo, examRepo, redisClient, cfg.LeaderboardTTL, logger)
	sessionService := service.NewExamSessionService(service.ExamSessionDeps{
		Attempts:    attemptRepo,
		Exams:       examRepo,
		Questions:   questionRepo,
		Answers:     answerRepo,
		Results:     resultRepo,
		Enrollments: enrollmentRepo,
		Boundaries:  boundaryRepo,
		Publisher:   publisher,
		Leaderboard: leaderboardService,
		Validator:   validate,
	}, logger)
	examService := service.NewExamService(examRepo, resultRepo, boundaryRepo, validate, logger)
	questionService := service.NewQuestionService(questionRepo, examRepo, validate, logger)
	reviewService := service.NewReviewService(attemptRepo, examRepo, questionRepo, answerRepo, resultRepo, boundaryRepo, leaderboardService, validate, logger)
	monitorService := service.NewMonitorService(attemptRepo, examRepo, logger)

	deps := router.Dependencies{
		SessionHandler:    handler.NewSessionHandler(sessionService, logger),
		ExamHandler:       handler.NewExamHandler(examService, logger),
		QuestionHandler:   handler.NewQuestionHandler(questionService, logger),
		ResultHandler:     handler.NewResultHandler(leaderboardService, reviewService, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		StaffMiddleware:   middleware.RequireRole("admin", "teacher"),
		MonitorMiddleware: middleware.RequireRole("admin", "teacher", "invigilator"),
	}
	if cfg.MonitorEnabled {
		deps.MonitorHandler = handler.NewMonitorHandler(monitorService, logger)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, deps)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
