package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campusflow/campusflow-api/internal/dto"
	"github.com/campusflow/campusflow-api/internal/models"
	"github.com/campusflow/campusflow-api/internal/service"
	"github.com/campusflow/campusflow-api/internal/utils"
)

// AssignmentSubmissionHandler manages assignment submission endpoints.
type AssignmentSubmissionHandler struct {
	service   service.AssignmentSubmissionService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAssignmentSubmissionHandler builds an assignment submission handler
// instance.
func NewAssignmentSubmissionHandler(service service.AssignmentSubmissionService, validator *validator.Validate, logger zerolog.Logger) *AssignmentSubmissionHandler {
	return &AssignmentSubmissionHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "assignment_submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AssignmentSubmissionHandler) Register(router fiber.Router) {
	router.Get("/submissions", h.list)
	router.Get("/submissions/:id", h.get)
	router.Post("/assignments/:assignmentId/submissions", h.submit)
	router.Post("/submissions/:id/resubmit", h.resubmit)
	router.Patch("/submissions/:id/content", h.updateContent)
	router.Post("/submissions/:id/grade", h.grade)
	router.Patch("/submissions/:id/grade", h.updateGrade)
}

func (h *AssignmentSubmissionHandler) list(c *fiber.Ctx) error {
	var filter dto.AssignmentSubmissionFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}
	if err := h.validator.Struct(filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	// Students only ever see their own submissions.
	if !isTeacher(c) {
		studentID := userIDFromContext(c)
		filter.StudentID = &studentID
	}

	submissions, err := h.service.List(c.Context(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *AssignmentSubmissionHandler) get(c *fiber.Ctx) error {
	submission, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	if !isTeacher(c) && submission.StudentID != userIDFromContext(c) {
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *AssignmentSubmissionHandler) submit(c *fiber.Ctx) error {
	var payload dto.AssignmentSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Submit(c.Context(), c.Params("assignmentId"), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission created", submission)
}

func (h *AssignmentSubmissionHandler) resubmit(c *fiber.Ctx) error {
	var payload dto.AssignmentSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Resubmit(c.Context(), c.Params("id"), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission updated", submission)
}

func (h *AssignmentSubmissionHandler) updateContent(c *fiber.Ctx) error {
	var payload dto.AssignmentContentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.UpdateContent(c.Context(), c.Params("id"), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission updated", submission)
}

func (h *AssignmentSubmissionHandler) grade(c *fiber.Ctx) error {
	if !isTeacher(c) {
		return utils.SendError(c, fiber.StatusForbidden, "only teachers can grade submissions")
	}

	var payload dto.GradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Grade(c.Context(), c.Params("id"), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission graded", submission)
}

func (h *AssignmentSubmissionHandler) updateGrade(c *fiber.Ctx) error {
	if !isTeacher(c) {
		return utils.SendError(c, fiber.StatusForbidden, "only teachers can grade submissions")
	}

	var payload dto.GradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.UpdateGrade(c.Context(), c.Params("id"), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "grade updated", submission)
}

func (h *AssignmentSubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, models.ErrSubmissionVersionConflict):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, models.ErrSubmissionAlreadySubmitted),
		errors.Is(err, models.ErrSubmissionResubmitGraded),
		errors.Is(err, models.ErrSubmissionResubmitPending),
		errors.Is(err, models.ErrSubmissionContentLocked),
		errors.Is(err, models.ErrSubmissionNotSubmitted),
		errors.Is(err, models.ErrSubmissionNotGraded):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, models.ErrGradeOutOfRange):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
