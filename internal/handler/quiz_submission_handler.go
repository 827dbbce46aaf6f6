package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campusflow/campusflow-api/internal/dto"
	"github.com/campusflow/campusflow-api/internal/models"
	"github.com/campusflow/campusflow-api/internal/repository"
	"github.com/campusflow/campusflow-api/internal/service"
	"github.com/campusflow/campusflow-api/internal/utils"
)

// QuizSubmissionHandler manages quiz attempt endpoints.
type QuizSubmissionHandler struct {
	service   service.QuizSubmissionService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewQuizSubmissionHandler builds a quiz submission handler instance.
func NewQuizSubmissionHandler(service service.QuizSubmissionService, validator *validator.Validate, logger zerolog.Logger) *QuizSubmissionHandler {
	return &QuizSubmissionHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "quiz_submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *QuizSubmissionHandler) Register(router fiber.Router) {
	router.Post("/quizzes/:quizId/submissions/start", h.start)
	router.Get("/quizzes/:quizId/my-submission", h.mySubmission)
	router.Get("/quiz-submissions", h.list)
	router.Get("/quiz-submissions/:id", h.get)
	router.Put("/quiz-submissions/:id/answers", h.saveAnswers)
	router.Post("/quiz-submissions/:id/submit", h.submit)
	router.Post("/quiz-submissions/:id/auto-submit", h.autoSubmit)
	router.Post("/quiz-submissions/:id/grade", h.grade)
	router.Patch("/quiz-submissions/:id/grade", h.updateGrade)
	router.Post("/quiz-submissions/:id/suggest-feedback", h.suggestFeedback)
}

func (h *QuizSubmissionHandler) start(c *fiber.Ctx) error {
	submission, err := h.service.Start(c.Context(), c.Params("quizId"), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "quiz started", submission)
}

func (h *QuizSubmissionHandler) mySubmission(c *fiber.Ctx) error {
	submission, err := h.service.GetForStudent(c.Context(), c.Params("quizId"), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *QuizSubmissionHandler) list(c *fiber.Ctx) error {
	filter := repository.QuizSubmissionFilter{}
	if quizID := c.Query("quiz_id"); quizID != "" {
		filter.QuizID = &quizID
	}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}

	// Students only ever see their own attempts.
	if isTeacher(c) {
		if studentID := c.Query("student_id"); studentID != "" {
			filter.StudentID = &studentID
		}
	} else {
		studentID := userIDFromContext(c)
		filter.StudentID = &studentID
	}

	submissions, err := h.service.List(c.Context(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *QuizSubmissionHandler) get(c *fiber.Ctx) error {
	submission, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	if !isTeacher(c) && submission.StudentID != userIDFromContext(c) {
		return utils.SendError(c, fiber.StatusNotFound, "quiz submission not found")
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *QuizSubmissionHandler) saveAnswers(c *fiber.Ctx) error {
	var payload dto.QuizAnswersRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.SaveAnswers(c.Context(), c.Params("id"), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "answers saved", submission)
}

func (h *QuizSubmissionHandler) submit(c *fiber.Ctx) error {
	var payload dto.QuizAnswersRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Submit(c.Context(), c.Params("id"), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "quiz submitted", submission)
}

func (h *QuizSubmissionHandler) autoSubmit(c *fiber.Ctx) error {
	if !isTeacher(c) {
		return utils.SendError(c, fiber.StatusForbidden, "only teachers can force-close attempts")
	}

	submission, err := h.service.AutoSubmit(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "quiz auto-submitted", submission)
}

func (h *QuizSubmissionHandler) grade(c *fiber.Ctx) error {
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

func (h *QuizSubmissionHandler) updateGrade(c *fiber.Ctx) error {
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

func (h *QuizSubmissionHandler) suggestFeedback(c *fiber.Ctx) error {
	if !isTeacher(c) {
		return utils.SendError(c, fiber.StatusForbidden, "only teachers can request feedback suggestions")
	}

	review, err := h.service.SuggestFeedback(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "feedback suggested", review)
}

func (h *QuizSubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrQuizNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "quiz not found")
	case errors.Is(err, service.ErrQuizAttemptNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "quiz submission not found")
	case errors.Is(err, models.ErrSubmissionVersionConflict):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, models.ErrQuizAlreadyStarted),
		errors.Is(err, models.ErrQuizNotInProgress),
		errors.Is(err, models.ErrQuizSubmitState),
		errors.Is(err, models.ErrQuizAutoSubmitState),
		errors.Is(err, models.ErrQuizNotSubmitted),
		errors.Is(err, models.ErrQuizNotGraded):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, models.ErrQuizPastDue),
		errors.Is(err, models.ErrQuizTimeExpired),
		errors.Is(err, models.ErrQuizAutoSubmitTooEarly),
		errors.Is(err, models.ErrGradeOutOfRange):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrReviewerUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, service.ErrNoEssayAnswer):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
