package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/campusflow/campusflow-api/internal/config"
	"github.com/campusflow/campusflow-api/internal/handler"
	"github.com/campusflow/campusflow-api/internal/models"
	"github.com/campusflow/campusflow-api/internal/repository"
	"github.com/campusflow/campusflow-api/internal/router"
	"github.com/campusflow/campusflow-api/internal/service"
)

type testUploader struct{}

func (u *testUploader) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	return "https://files.test/" + name, nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Enrollment{},
		&models.Material{},
		&models.Assignment{},
		&models.AssignmentSubmission{},
		&models.Quiz{},
		&models.QuizSubmission{},
		&models.Notification{},
	))

	return db
}

// setupApp builds a full application over an in-memory database, with the
// JWT middleware replaced by a stub that authenticates every request as the
// given user.
func setupApp(t *testing.T, db *gorm.DB, userID, role string) *fiber.App {
	t.Helper()

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)
	uploader := &testUploader{}

	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	assignmentSubmissionRepo := repository.NewAssignmentSubmissionRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	quizSubmissionRepo := repository.NewQuizSubmissionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, nil, "", nil, validate, logger)
	courseService := service.NewCourseService(courseRepo, validate, logger)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, courseRepo, validate, logger)
	materialService := service.NewMaterialService(materialRepo, courseRepo, validate, uploader, 1, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, courseRepo, validate, uploader, logger)
	assignmentSubmissionService := service.NewAssignmentSubmissionService(assignmentSubmissionRepo, assignmentRepo, notificationService, validate, logger)
	quizService := service.NewQuizService(quizRepo, courseRepo, validate, logger)
	quizSubmissionService := service.NewQuizSubmissionService(quizSubmissionRepo, quizRepo, notificationService, nil, validate, logger)
	dashboardService := service.NewStudentDashboardService(assignmentRepo, assignmentSubmissionRepo, quizRepo, quizSubmissionRepo, nil, 0, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret"}, router.Dependencies{
		CourseHandler:               handler.NewCourseHandler(courseService, validate, logger),
		EnrollmentHandler:           handler.NewEnrollmentHandler(enrollmentService, validate, logger),
		MaterialHandler:             handler.NewMaterialHandler(materialService, validate, logger),
		AssignmentHandler:           handler.NewAssignmentHandler(assignmentService, validate, logger),
		AssignmentSubmissionHandler: handler.NewAssignmentSubmissionHandler(assignmentSubmissionService, validate, logger),
		QuizHandler:                 handler.NewQuizHandler(quizService, validate, logger),
		QuizSubmissionHandler:       handler.NewQuizSubmissionHandler(quizSubmissionService, validate, logger),
		NotificationHandler:         handler.NewNotificationHandler(notificationService, validate, logger),
		StudentDashboardHandler:     handler.NewStudentDashboardHandler(dashboardService, logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals("user_id", userID)
			c.Locals("user_role", role)
			return c.Next()
		},
	})

	return app
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
