package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quizzerhq/quizzer-api/internal/config"
	"github.com/quizzerhq/quizzer-api/internal/handler"
	"github.com/quizzerhq/quizzer-api/internal/middleware"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SubmissionHandler *handler.SubmissionHandler
	GradebookHandler  *handler.GradebookHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Student surface: anonymous, addressed by test id + access code.
	if deps.SubmissionHandler != nil {
		tests := api.Group("/tests", middleware.AutosaveRateLimit(20, time.Second))
		deps.SubmissionHandler.Register(tests)
	}

	// Teacher review surface.
	if deps.GradebookHandler != nil {
		deps.GradebookHandler.Register(api.Group("/gradebook"))
	}
}
