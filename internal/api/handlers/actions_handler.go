package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/resto-agent/backend/internal/actions"
	"github.com/resto-agent/backend/internal/apperrors"
)

// ActionsHandler exposes direct action execution for operator tooling. The
// conversational path routes actions through the query endpoint instead.
type ActionsHandler struct {
	executor *actions.Executor
	logger   *zap.Logger
}

func NewActionsHandler(executor *actions.Executor, logger *zap.Logger) *ActionsHandler {
	return &ActionsHandler{executor: executor, logger: logger}
}

func (h *ActionsHandler) ExecuteAction(c *fiber.Ctx) error {
	var req struct {
		ActionType string                 `json:"action_type"`
		Parameters map[string]interface{} `json:"parameters"`
		Confirmed  bool                   `json:"confirmed"`
	}

	if err := c.BodyParser(&req); err != nil {
		h.logger.Warn("failed to parse action request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.ActionType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "action_type is required",
		})
	}

	if needs, consequence := h.executor.RequiresConfirmation(req.ActionType, req.Parameters); needs && !req.Confirmed {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"requires_confirmation": true,
			"consequence":           consequence,
		})
	}

	outcome, err := h.executor.Execute(c.Context(), req.ActionType, req.Parameters)
	if err != nil {
		errorType := apperrors.Classify(err)
		return c.Status(apperrors.StatusCode(errorType)).JSON(fiber.Map{
			"error":      err.Error(),
			"error_type": string(errorType),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"result":  outcome.Phrase,
		"data":    outcome.Data,
	})
}
