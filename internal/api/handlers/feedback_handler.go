package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/resto-agent/backend/internal/apperrors"
	"github.com/resto-agent/backend/internal/feedback"
	"github.com/resto-agent/backend/internal/storage/models"
)

type FeedbackHandler struct {
	service *feedback.Service
	logger  *zap.Logger
}

func NewFeedbackHandler(service *feedback.Service, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{service: service, logger: logger}
}

// SubmitFeedback accepts a rating or helpfulness verdict for a response.
func (h *FeedbackHandler) SubmitFeedback(c *fiber.Ctx) error {
	var record models.FeedbackRecord
	if err := c.BodyParser(&record); err != nil {
		h.logger.Warn("failed to parse feedback body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	feedbackID, err := h.service.SubmitFeedback(&record)
	if err != nil {
		return c.Status(apperrors.StatusCode(apperrors.Classify(err))).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"feedback_id": feedbackID,
		"status":      "recorded",
	})
}

// ListFeedback returns records matching optional filters.
func (h *FeedbackHandler) ListFeedback(c *fiber.Ctx) error {
	filter := models.FeedbackFilter{
		SessionID: c.Query("session_id"),
		QueryID:   c.Query("query_id"),
		Type:      c.Query("feedback_type"),
		Limit:     c.QueryInt("limit", 50),
		Offset:    c.QueryInt("offset", 0),
	}
	if since := c.Query("since"); since != "" {
		parsed, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "since must be RFC3339",
			})
		}
		filter.Since = &parsed
	}

	records, err := h.service.ListFeedback(filter)
	if err != nil {
		h.logger.Error("failed to list feedback", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list feedback",
		})
	}

	return c.JSON(fiber.Map{
		"count":   len(records),
		"records": records,
	})
}

// GetStatistics returns the aggregate feedback snapshot.
func (h *FeedbackHandler) GetStatistics(c *fiber.Ctx) error {
	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "since must be RFC3339",
			})
		}
		since = &parsed
	}

	stats, err := h.service.GetStatistics(since, c.QueryBool("refresh", false))
	if err != nil {
		h.logger.Error("failed to compute feedback statistics", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to compute statistics",
		})
	}

	return c.JSON(stats)
}

// ExportFeedback streams matching records as JSON or CSV.
func (h *FeedbackHandler) ExportFeedback(c *fiber.Ctx) error {
	filter := models.FeedbackFilter{
		SessionID: c.Query("session_id"),
		Type:      c.Query("feedback_type"),
	}

	format := c.Query("format", "json")
	switch format {
	case "json":
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return h.service.ExportJSON(c.Response().BodyWriter(), filter)
	case "csv":
		c.Set(fiber.HeaderContentType, "text/csv")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="feedback.csv"`)
		return h.service.ExportCSV(c.Response().BodyWriter(), filter)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "format must be json or csv",
		})
	}
}
