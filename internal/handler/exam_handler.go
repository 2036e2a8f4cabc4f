package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/lumina-school/lumina-api/internal/dto"
	"github.com/lumina-school/lumina-api/internal/grading"
	"github.com/lumina-school/lumina-api/internal/repository"
	"github.com/lumina-school/lumina-api/internal/service"
	"github.com/lumina-school/lumina-api/internal/utils"
)

// ExamHandler manages the admin exam endpoints.
type ExamHandler struct {
	service service.ExamService
	logger  zerolog.Logger
}

// NewExamHandler builds an exam handler instance.
func NewExamHandler(service service.ExamService, logger zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		service: service,
		logger:  logger.With().Str("component", "exam_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ExamHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Post("/:id/publish", h.publish)
	router.Delete("/:id/publish", h.unpublish)
}

// RegisterBoundaries attaches the grade-boundary routes.
func (h *ExamHandler) RegisterBoundaries(router fiber.Router) {
	router.Put("/:set", h.replaceBoundaries)
}

func (h *ExamHandler) list(c *fiber.Ctx) error {
	filter := repository.ExamFilter{}
	if subjectID, err := parseQueryUint(c, "subject_id"); err == nil && subjectID != nil {
		filter.SubjectID = subjectID
	}
	if classID, err := parseQueryUint(c, "class_id"); err == nil && classID != nil {
		filter.ClassID = classID
	}
	if termID, err := parseQueryUint(c, "term_id"); err == nil && termID != nil {
		filter.TermID = termID
	}
	filter.CBTOnly = c.QueryBool("cbt_only")

	exams, err := h.service.List(c.UserContext(), schoolIDFromContext(c), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exams retrieved", exams)
}

func (h *ExamHandler) create(c *fiber.Ctx) error {
	var payload dto.ExamCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	exam, err := h.service.Create(c.UserContext(), schoolIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "exam created", exam)
}

func (h *ExamHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}

	exam, err := h.service.GetByID(c.UserContext(), schoolIDFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exam retrieved", exam)
}

func (h *ExamHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}

	var payload dto.ExamUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	exam, err := h.service.Update(c.UserContext(), schoolIDFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exam updated", exam)
}

func (h *ExamHandler) publish(c *fiber.Ctx) error {
	return h.setPublished(c, true, "results published")
}

func (h *ExamHandler) unpublish(c *fiber.Ctx) error {
	return h.setPublished(c, false, "results unpublished")
}

func (h *ExamHandler) setPublished(c *fiber.Ctx, published bool, message string) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}

	if err := h.service.SetPublished(c.UserContext(), schoolIDFromContext(c), id, published); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, message, nil)
}

func (h *ExamHandler) replaceBoundaries(c *fiber.Ctx) error {
	setName := c.Params("set")

	var payload dto.BoundarySetRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.ReplaceBoundarySet(c.UserContext(), schoolIDFromContext(c), setName, payload); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "boundary set replaced", nil)
}

func (h *ExamHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "exam not found")
	case errors.Is(err, service.ErrExamLocked):
		return utils.SendError(c, fiber.StatusConflict, "exam already has attempts")
	case errors.Is(err, grading.ErrConfiguration):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
