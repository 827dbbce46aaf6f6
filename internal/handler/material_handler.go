package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campusflow/campusflow-api/internal/dto"
	"github.com/campusflow/campusflow-api/internal/service"
	"github.com/campusflow/campusflow-api/internal/utils"
)

// MaterialHandler manages course material endpoints.
type MaterialHandler struct {
	service   service.MaterialService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewMaterialHandler builds a material handler instance.
func NewMaterialHandler(service service.MaterialService, validator *validator.Validate, logger zerolog.Logger) *MaterialHandler {
	return &MaterialHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "material_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *MaterialHandler) Register(router fiber.Router) {
	router.Get("/courses/:courseId/materials", h.listByCourse)
	router.Post("/materials", h.upload)
	router.Delete("/materials/:id", h.delete)
}

func (h *MaterialHandler) listByCourse(c *fiber.Ctx) error {
	materials, err := h.service.ListByCourse(c.Context(), c.Params("courseId"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "materials retrieved", materials)
}

func (h *MaterialHandler) upload(c *fiber.Ctx) error {
	if !isTeacher(c) {
		return utils.SendError(c, fiber.StatusForbidden, "only teachers can upload materials")
	}

	var payload dto.MaterialCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "material file is required")
	}

	material, err := h.service.Upload(c.Context(), payload, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "material uploaded", material)
}

func (h *MaterialHandler) delete(c *fiber.Ctx) error {
	if !isTeacher(c) {
		return utils.SendError(c, fiber.StatusForbidden, "only teachers can delete materials")
	}

	if err := h.service.Delete(c.Context(), c.Params("id")); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "material deleted", nil)
}

func (h *MaterialHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrMaterialNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "material not found")
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrMaterialFileRequired):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrMaterialTypeNotAllowed):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, service.ErrMaterialTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
