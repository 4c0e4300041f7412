package validation

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var scriptPattern = regexp.MustCompile(`(?i)(<script|<iframe|javascript:|onerror=|onload=|onclick=)`)

type Config struct {
	MaxQueryLength      int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware enforces content-type and payload hygiene on mutating routes.
// Query text goes to an LLM prompt and a read-only SQL path, so the guard
// here is length and markup, not SQL keywords.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxQueryLength == 0 {
		cfg.MaxQueryLength = 2000
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json"}
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodPost || c.Method() == fiber.MethodPut {
			contentType := c.Get(fiber.HeaderContentType)
			if contentType != "" && !contentTypeAllowed(contentType, cfg.AllowedContentTypes) {
				return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
					"error": "unsupported content type",
				})
			}
		}

		if strings.Contains(c.Path(), "/api/v1/query") && c.Method() == fiber.MethodPost {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid JSON format",
				})
			}

			queryText, ok := req["query_text"].(string)
			if !ok || strings.TrimSpace(queryText) == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "query_text is required and must be a string",
				})
			}

			if len(queryText) > cfg.MaxQueryLength {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "query_text exceeds maximum length",
				})
			}

			if scriptPattern.MatchString(queryText) {
				cfg.Logger.Warn("markup rejected in query text",
					zap.String("ip", c.IP()))
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid query content",
				})
			}
		}

		return c.Next()
	}
}

func contentTypeAllowed(contentType string, allowed []string) bool {
	for _, candidate := range allowed {
		if strings.Contains(contentType, candidate) {
			return true
		}
	}
	return false
}
