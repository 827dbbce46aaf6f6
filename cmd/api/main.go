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

	"github.com/campusflow/campusflow-api/internal/config"
	"github.com/campusflow/campusflow-api/internal/database"
	"github.com/campusflow/campusflow-api/internal/handler"
	"github.com/campusflow/campusflow-api/internal/middleware"
	"github.com/campusflow/campusflow-api/internal/models"
	"github.com/campusflow/campusflow-api/internal/repository"
	"github.com/campusflow/campusflow-api/internal/router"
	"github.com/campusflow/campusflow-api/internal/service"
	"github.com/campusflow/campusflow-api/pkg/ai"
	cloud "github.com/campusflow/campusflow-api/pkg/cloudinary"
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
		&models.User{},
		&models.Course{},
		&models.Enrollment{},
		&models.Material{},
		&models.Assignment{},
		&models.AssignmentSubmission{},
		&models.Quiz{},
		&models.QuizSubmission{},
		&models.Notification{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, notifications stay node-local")
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	var reviewer ai.Reviewer
	if cfg.OpenAIAPIKey != "" {
		openAIReviewer, err := ai.NewOpenAIReviewer(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
		if err != nil {
			log.Fatalf("failed to create openai reviewer: %v", err)
		}
		reviewer = openAIReviewer
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	assignmentSubmissionRepo := repository.NewAssignmentSubmissionRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	quizSubmissionRepo := repository.NewQuizSubmissionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, redisClient, "campusflow", natsConn, validate, logger)
	courseService := service.NewCourseService(courseRepo, validate, logger)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, courseRepo, validate, logger)
	materialService := service.NewMaterialService(materialRepo, courseRepo, validate, uploader, cfg.MaxUploadSizeMB, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, courseRepo, validate, uploader, logger)
	assignmentSubmissionService := service.NewAssignmentSubmissionService(assignmentSubmissionRepo, assignmentRepo, notificationService, validate, logger)
	quizService := service.NewQuizService(quizRepo, courseRepo, validate, logger)
	quizSubmissionService := service.NewQuizSubmissionService(quizSubmissionRepo, quizRepo, notificationService, reviewer, validate, logger)
	dashboardService := service.NewStudentDashboardService(assignmentRepo, assignmentSubmissionRepo, quizRepo, quizSubmissionRepo, redisClient, cfg.DashboardCacheTTL, logger)

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notificationService.Start(appCtx)

	courseHandler := handler.NewCourseHandler(courseService, validate, logger)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService, validate, logger)
	materialHandler := handler.NewMaterialHandler(materialService, validate, logger)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, validate, logger)
	assignmentSubmissionHandler := handler.NewAssignmentSubmissionHandler(assignmentSubmissionService, validate, logger)
	quizHandler := handler.NewQuizHandler(quizService, validate, logger)
	quizSubmissionHandler := handler.NewQuizSubmissionHandler(quizSubmissionService, validate, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, validate, logger)
	studentDashboardHandler := handler.NewStudentDashboardHandler(dashboardService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		CourseHandler:               courseHandler,
		EnrollmentHandler:           enrollmentHandler,
		MaterialHandler:             materialHandler,
		AssignmentHandler:           assignmentHandler,
		AssignmentSubmissionHandler: assignmentSubmissionHandler,
		QuizHandler:                 quizHandler,
		QuizSubmissionHandler:       quizSubmissionHandler,
		NotificationHandler:         notificationHandler,
		StudentDashboardHandler:     studentDashboardHandler,
		JWTMiddleware:               middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, cancel)
}

func waitForShutdown(app *fiber.App, cancel context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	cancel()

	ctx, cancelTimeout := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelTimeout()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
