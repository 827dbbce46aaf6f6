package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/campusflow/campusflow-api/internal/config"
	"github.com/campusflow/campusflow-api/internal/handler"
	"github.com/campusflow/campusflow-api/internal/middleware"
	"github.com/campusflow/campusflow-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	CourseHandler               *handler.CourseHandler
	EnrollmentHandler           *handler.EnrollmentHandler
	MaterialHandler             *handler.MaterialHandler
	AssignmentHandler           *handler.AssignmentHandler
	AssignmentSubmissionHandler *handler.AssignmentSubmissionHandler
	QuizHandler                 *handler.QuizHandler
	QuizSubmissionHandler       *handler.QuizSubmissionHandler
	NotificationHandler         *handler.NotificationHandler
	StudentDashboardHandler     *handler.StudentDashboardHandler
	JWTMiddleware               fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Courses, enrollment and materials
	if deps.CourseHandler != nil {
		courses := app.Group("/api/v1/courses", jwtMiddleware)
		deps.CourseHandler.Register(courses)
	}
	if deps.EnrollmentHandler != nil {
		enrollment := app.Group("/api/v1", jwtMiddleware)
		deps.EnrollmentHandler.Register(enrollment)
	}
	if deps.MaterialHandler != nil {
		materials := app.Group("/api/v1", jwtMiddleware)
		deps.MaterialHandler.Register(materials)
	}

	// Assignments and their submissions
	if deps.AssignmentHandler != nil {
		assignments := app.Group("/api/v1", jwtMiddleware)
		deps.AssignmentHandler.Register(assignments)

		if deps.AssignmentSubmissionHandler != nil {
			deps.AssignmentSubmissionHandler.Register(assignments)
		}
	}

	// Quizzes and attempts
	if deps.QuizHandler != nil {
		quizzes := app.Group("/api/v1", jwtMiddleware)
		deps.QuizHandler.Register(quizzes)

		if deps.QuizSubmissionHandler != nil {
			deps.QuizSubmissionHandler.Register(quizzes)
		}
	}

	// Notifications (REST + websocket)
	if deps.NotificationHandler != nil {
		notifications := app.Group("/api/v1/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}

	// Student dashboard
	if deps.StudentDashboardHandler != nil {
		student := app.Group("/api/v1/student", jwtMiddleware, middleware.RequireRole("student", "teacher"))
		deps.StudentDashboardHandler.Register(student)
	}
}
