package handler

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/lumina-school/lumina-api/internal/dto"
	"github.com/lumina-school/lumina-api/internal/grading"
	"github.com/lumina-school/lumina-api/internal/observability"
	"github.com/lumina-school/lumina-api/internal/service"
	"github.com/lumina-school/lumina-api/internal/utils"
)

// SessionHandler manages the student-facing exam session endpoints.
type SessionHandler struct {
	service service.ExamSessionService
	logger  zerolog.Logger
}

// NewSessionHandler builds a session handler instance.
func NewSessionHandler(service service.ExamSessionService, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		logger:  logger.With().Str("component", "session_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SessionHandler) Register(router fiber.Router) {
	router.Post("/exams/:examId/start", h.start)
	router.Get("/sessions/:sessionId", h.status)
	router.Post("/sessions/:sessionId/answers", h.submitAnswer)
	router.Post("/sessions/:sessionId/finalize", h.finalize)
	router.Get("/sessions/:sessionId/revision", h.revision)
}

func (h *SessionHandler) start(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "examId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}

	schoolID := schoolIDFromContext(c)
	studentID := userIDFromContext(c)

	response, err := h.service.StartExam(c.UserContext(), schoolID, examID, studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	if !response.Resumed {
		observability.AttemptsStarted().
			WithLabelValues(strconv.FormatUint(uint64(schoolID), 10)).Inc()
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "exam session started", response)
	}

	return utils.SendSuccess(c, "exam session resumed", response)
}

func (h *SessionHandler) status(c *fiber.Ctx) error {
	response, err := h.service.GetSessionStatus(c.UserContext(), schoolIDFromContext(c), c.Params("sessionId"), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "session status retrieved", response)
}

func (h *SessionHandler) submitAnswer(c *fiber.Ctx) error {
	var payload dto.SubmitAnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	schoolID := schoolIDFromContext(c)
	response, err := h.service.SubmitAnswer(c.UserContext(), schoolID, c.Params("sessionId"), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	observability.AnswersGraded().
		WithLabelValues(strconv.FormatUint(uint64(schoolID), 10), "submitted").Inc()

	return utils.SendSuccess(c, "answer recorded", response)
}

func (h *SessionHandler) finalize(c *fiber.Ctx) error {
	schoolID := schoolIDFromContext(c)
	response, err := h.service.FinalizeExam(c.UserContext(), schoolID, c.Params("sessionId"), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	observability.AttemptsFinished().
		WithLabelValues(strconv.FormatUint(uint64(schoolID), 10), "submitted").Inc()

	return utils.SendSuccess(c, "exam finalized", response)
}

func (h *SessionHandler) revision(c *fiber.Ctx) error {
	response, err := h.service.GetRevisionReport(c.UserContext(), schoolIDFromContext(c), c.Params("sessionId"), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "revision report generated", response)
}

func (h *SessionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "exam not found")
	case errors.Is(err, service.ErrAttemptNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "session not found")
	case errors.Is(err, service.ErrExamNotCBT):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "exam is not CBT-enabled")
	case errors.Is(err, service.ErrExamNotActive):
		return utils.SendError(c, fiber.StatusForbidden, "exam is not currently active")
	case errors.Is(err, service.ErrNotEnrolled):
		return utils.SendError(c, fiber.StatusForbidden, "student is not enrolled for this exam")
	case errors.Is(err, service.ErrTimeExpired):
		return utils.SendError(c, fiber.StatusConflict, "attempt time has expired")
	case errors.Is(err, service.ErrAlreadyFinalized):
		return utils.SendError(c, fiber.StatusConflict, "attempt already finalized")
	case errors.Is(err, service.ErrNotGraded):
		return utils.SendError(c, fiber.StatusConflict, "attempt is not graded yet")
	case errors.Is(err, service.ErrInvalidQuestionForExam):
		return utils.SendError(c, fiber.StatusBadRequest, "question does not belong to this exam")
	case errors.Is(err, grading.ErrConfiguration):
		h.logger.Error().Err(err).Msg("grade boundary configuration error")
		return utils.SendError(c, fiber.StatusInternalServerError, "grade boundaries misconfigured")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
