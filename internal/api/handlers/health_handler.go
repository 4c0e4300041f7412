package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/resto-agent/backend/internal/apperrors"
	"github.com/resto-agent/backend/internal/conversation"
)

// HealthHandler reports service health derived from the error handler's
// rolling rate plus basic liveness facts.
type HealthHandler struct {
	errs     *apperrors.Handler
	sessions *conversation.Manager
	started  time.Time
}

func NewHealthHandler(errs *apperrors.Handler, sessions *conversation.Manager) *HealthHandler {
	return &HealthHandler{errs: errs, sessions: sessions, started: time.Now()}
}

func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	status := h.errs.HealthStatus()

	code := fiber.StatusOK
	if status != "healthy" {
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":          status,
		"error_rate":      h.errs.ErrorRate(60 * time.Second),
		"active_sessions": h.sessions.SessionCount(),
		"uptime_seconds":  int(time.Since(h.started).Seconds()),
	})
}
