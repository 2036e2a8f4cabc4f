package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/lumina-school/lumina-api/internal/dto"
	"github.com/lumina-school/lumina-api/internal/grading"
	"github.com/lumina-school/lumina-api/internal/service"
	"github.com/lumina-school/lumina-api/internal/utils"
)

// ResultHandler serves leaderboards and the essay review endpoint.
type ResultHandler struct {
	leaderboard service.LeaderboardService
	review      service.ReviewService
	logger      zerolog.Logger
}

// NewResultHandler builds a result handler instance.
func NewResultHandler(leaderboard service.LeaderboardService, review service.ReviewService, logger zerolog.Logger) *ResultHandler {
	return &ResultHandler{
		leaderboard: leaderboard,
		review:      review,
		logger:      logger.With().Str("component", "result_handler").Logger(),
	}
}

// Register attaches the student-facing routes to the provided router group.
func (h *ResultHandler) Register(router fiber.Router) {
	router.Get("/exams/:examId/leaderboard", h.getLeaderboard)
}

// RegisterReview attaches the essay review route. The router puts it behind
// the staff role guard, so it registers separately.
func (h *ResultHandler) RegisterReview(router fiber.Router) {
	router.Post("/sessions/:sessionId/questions/:questionId/review", h.reviewEssay)
}

func (h *ResultHandler) getLeaderboard(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "examId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}

	board, err := h.leaderboard.Get(c.UserContext(), schoolIDFromContext(c), examID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "leaderboard retrieved", board)
}

func (h *ResultHandler) reviewEssay(c *fiber.Ctx) error {
	questionID, err := parseUintParam(c, "questionId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid question id")
	}

	var payload dto.EssayReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	line, err := h.review.ReviewEssay(c.UserContext(), schoolIDFromContext(c), c.Params("sessionId"), questionID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "essay reviewed", line)
}

func (h *ResultHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "exam not found")
	case errors.Is(err, service.ErrAttemptNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "session not found")
	case errors.Is(err, service.ErrAnswerNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "answer not found")
	case errors.Is(err, service.ErrInvalidQuestionForExam):
		return utils.SendError(c, fiber.StatusBadRequest, "question does not belong to this exam")
	case errors.Is(err, service.ErrNotReviewable):
		return utils.SendError(c, fiber.StatusConflict, "answer is not flagged for review")
	case errors.Is(err, service.ErrMarksExceedQuestion):
		return utils.SendError(c, fiber.StatusBadRequest, "marks exceed the question maximum")
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
