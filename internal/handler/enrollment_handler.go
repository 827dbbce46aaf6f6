package handler

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campusflow/campusflow-api/internal/dto"
	"github.com/campusflow/campusflow-api/internal/middleware"
	"github.com/campusflow/campusflow-api/internal/service"
	"github.com/campusflow/campusflow-api/internal/utils"
)

// EnrollmentHandler manages enrollment endpoints.
type EnrollmentHandler struct {
	service   service.EnrollmentService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewEnrollmentHandler builds an enrollment handler instance.
func NewEnrollmentHandler(service service.EnrollmentService, validator *validator.Validate, logger zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "enrollment_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. Enrollment by
// code is rate limited so join codes cannot be brute-forced.
func (h *EnrollmentHandler) Register(router fiber.Router) {
	router.Post("/enroll", middleware.RateLimit("enroll", 30, time.Minute), h.enroll)
	router.Delete("/courses/:courseId/enrollment", h.leave)
	router.Get("/courses/:courseId/roster", h.roster)
	router.Get("/my-courses", h.myCourses)
}

func (h *EnrollmentHandler) enroll(c *fiber.Ctx) error {
	var payload dto.EnrollRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	enrollment, err := h.service.Enroll(c.Context(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "enrolled", enrollment)
}

func (h *EnrollmentHandler) leave(c *fiber.Ctx) error {
	if err := h.service.Leave(c.Context(), c.Params("courseId"), userIDFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "left course", nil)
}

func (h *EnrollmentHandler) roster(c *fiber.Ctx) error {
	if !isTeacher(c) {
		return utils.SendError(c, fiber.StatusForbidden, "only teachers can view the roster")
	}

	roster, err := h.service.Roster(c.Context(), c.Params("courseId"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "roster retrieved", roster)
}

func (h *EnrollmentHandler) myCourses(c *fiber.Ctx) error {
	courses, err := h.service.CoursesForStudent(c.Context(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *EnrollmentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidCourseCode):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyEnrolled):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNotEnrolled):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
