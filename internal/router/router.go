package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lumina-school/lumina-api/internal/config"
	"github.com/lumina-school/lumina-api/internal/handler"
	"github.com/lumina-school/lumina-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SessionHandler  *handler.SessionHandler
	ExamHandler     *handler.ExamHandler
	QuestionHandler *handler.QuestionHandler
	ResultHandler   *handler.ResultHandler
	MonitorHandler  *handler.MonitorHandler
	JWTMiddleware   fiber.Handler
	// StaffMiddleware guards the admin surface (exam and question management,
	// boundary sets, essay review); MonitorMiddleware guards the invigilator
	// monitor. A nil handler leaves that surface open, as in handler tests.
	StaffMiddleware   fiber.Handler
	MonitorMiddleware fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", observability.MetricsHandler())

	passthrough := func(c *fiber.Ctx) error { return c.Next() }
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = passthrough
	}
	staffMiddleware := deps.StaffMiddleware
	if staffMiddleware == nil {
		staffMiddleware = passthrough
	}
	monitorMiddleware := deps.MonitorMiddleware
	if monitorMiddleware == nil {
		monitorMiddleware = passthrough
	}

	// Student-facing session lifecycle and leaderboard
	if deps.SessionHandler != nil {
		cbt := api.Group("/cbt", jwtMiddleware)
		deps.SessionHandler.Register(cbt)
	}
	if deps.ResultHandler != nil {
		deps.ResultHandler.Register(api.Group("/cbt", jwtMiddleware))
		deps.ResultHandler.RegisterReview(api.Group("/cbt", jwtMiddleware, staffMiddleware))
	}

	// Admin surface: exams, boundary sets, questions
	if deps.ExamHandler != nil {
		exams := api.Group("/exams", jwtMiddleware, staffMiddleware)
		deps.ExamHandler.Register(exams)

		boundaries := api.Group("/grade-boundaries", jwtMiddleware, staffMiddleware)
		deps.ExamHandler.RegisterBoundaries(boundaries)
	}

	if deps.QuestionHandler != nil {
		questions := api.Group("/questions", jwtMiddleware, staffMiddleware)
		deps.QuestionHandler.Register(questions)
	}

	// Invigilator monitor, snapshot and websocket
	if deps.MonitorHandler != nil {
		monitor := api.Group("/monitor", jwtMiddleware, monitorMiddleware)
		deps.MonitorHandler.Register(monitor)
	}
}
