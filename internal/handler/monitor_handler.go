package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/lumina-school/lumina-api/internal/service"
	"github.com/lumina-school/lumina-api/internal/tenant"
	"github.com/lumina-school/lumina-api/internal/utils"
)

// monitorInterval is how often a connected invigilator receives a fresh snapshot.
const monitorInterval = 5 * time.Second

// MonitorHandler streams live session snapshots to invigilators over a websocket.
type MonitorHandler struct {
	service service.MonitorService
	logger  zerolog.Logger
}

// NewMonitorHandler builds a monitor handler instance.
func NewMonitorHandler(service service.MonitorService, logger zerolog.Logger) *MonitorHandler {
	return &MonitorHandler{
		service: service,
		logger:  logger.With().Str("component", "monitor_handler").Logger(),
	}
}

// Register binds the monitor routes under the provided router group.
func (h *MonitorHandler) Register(router fiber.Router) {
	router.Get("/exams/:examId/monitor", h.snapshot)

	router.Use("/exams/:examId/monitor/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("monitor_school_id", schoolIDFromContext(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/exams/:examId/monitor/ws", websocket.New(h.stream))
}

// snapshot serves a single point-in-time view for clients without websocket support.
func (h *MonitorHandler) snapshot(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "examId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}

	view, err := h.service.Snapshot(c.UserContext(), schoolIDFromContext(c), examID)
	if err != nil {
		if errors.Is(err, service.ErrExamNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "exam not found")
		}
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "monitor snapshot", view)
}

func (h *MonitorHandler) stream(conn *websocket.Conn) {
	defer conn.Close()

	schoolID, _ := conn.Locals("monitor_school_id").(uint)
	examID, err := strconv.ParseUint(conn.Params("examId"), 10, 64)
	if schoolID == 0 || err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid monitor target"))
		return
	}

	logger := h.logger.With().Uint("school_id", schoolID).Uint64("exam_id", examID).Logger()
	logger.Info().Msg("monitor websocket connected")
	defer logger.Info().Msg("monitor websocket disconnected")

	// The reader goroutine only notices the peer going away; invigilators
	// never send application messages.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx := tenant.WithSchool(context.Background(), schoolID)
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		snapshot, err := h.service.Snapshot(ctx, schoolID, uint(examID))
		if err != nil {
			logger.Warn().Err(err).Msg("monitor snapshot failed")
			return
		}
		if err := conn.WriteJSON(snapshot); err != nil {
			return
		}

		select {
		case <-closed:
			return
		case <-ticker.C:
		}
	}
}
