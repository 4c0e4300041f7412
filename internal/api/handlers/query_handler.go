package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/resto-agent/backend/internal/processor"
)

type QueryHandler struct {
	proc   *processor.Processor
	logger *zap.Logger
}

func NewQueryHandler(proc *processor.Processor, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{proc: proc, logger: logger}
}

// HandleQuery processes one conversational turn. The processor never raises;
// error conditions come back as error-kind envelopes with a mapped status.
func (h *QueryHandler) HandleQuery(c *fiber.Ctx) error {
	var req processor.Request
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warn("failed to parse query request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if req.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "session_id is required",
		})
	}
	if req.QueryText == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "query_text is required",
		})
	}

	envelope := h.proc.ProcessQuery(c.Context(), req)
	return c.JSON(envelope)
}

// GetQueryHistory returns the persisted trace of a session's turns.
func (h *QueryHandler) GetQueryHistory(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "session_id is required",
		})
	}

	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 200 {
		limit = 20
	}

	records, err := h.proc.History(sessionID, limit)
	if err != nil {
		h.logger.Error("failed to load query history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load query history",
		})
	}

	history := make([]fiber.Map, 0, len(records))
	for _, record := range records {
		history = append(history, fiber.Map{
			"query_id":      record.ID,
			"query_text":    record.QueryText,
			"query_type":    record.QueryType,
			"intent_type":   record.IntentType,
			"response_id":   record.ResponseID,
			"response_type": record.ResponseType,
			"response_text": record.ResponseText,
			"latency_ms":    record.LatencyMS,
			"created_at":    record.CreatedAt.Format(time.RFC3339),
		})
	}

	return c.JSON(fiber.Map{
		"session_id": sessionID,
		"history":    history,
	})
}

// GetStatistics exposes the processor's rolling counters.
func (h *QueryHandler) GetStatistics(c *fiber.Ctx) error {
	return c.JSON(h.proc.Statistics())
}
