package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/resto-agent/backend/internal/apperrors"
	"github.com/resto-agent/backend/internal/conversation"
)

// Action is the structured payload for action_request classifications.
type Action struct {
	Type           string                 `json:"type"`
	Parameters     map[string]interface{} `json:"parameters"`
	RequiredParams []string               `json:"required_params"`
}

// ClassificationResult is the structured output of the classification
// service. The engine treats it as read-only input.
type ClassificationResult struct {
	QueryType  string                   `json:"request_type"`
	IntentType string                   `json:"intent_type"`
	Entities   map[string][]string      `json:"entities,omitempty"`
	Filters    map[string]interface{}   `json:"filters,omitempty"`
	TimePeriod string                   `json:"time_period,omitempty"`
	TimeRange  *conversation.TimeRange  `json:"time_range,omitempty"`
	ItemName   string                   `json:"item_name,omitempty"`
	NewPrice   *float64                 `json:"new_price,omitempty"`
	Action     *Action                  `json:"action,omitempty"`
	Confidence float64                  `json:"confidence"`
}

const classifierSystemPrompt = `You are a query classifier for a restaurant operations assistant.
Classify the user's question into a request type and extract structured fields.

Request types:
- data_query: questions about orders, sales, menu items, categories
- action_request: requests to change something (update price, disable item)
- correction: the user is amending their previous question

Return JSON only:
{
  "request_type": "data_query",
  "intent_type": "order_history",
  "entities": {"items": ["Burger"]},
  "filters": {"status": "completed"},
  "time_period": "yesterday",
  "start_date": "2025-02-21",
  "end_date": "2025-02-21",
  "item_name": "",
  "new_price": null,
  "action": {"type": "", "parameters": {}, "required_params": []},
  "confidence": 0.9
}`

// Classifier turns raw query text into a ClassificationResult.
type Classifier struct {
	client *Client
	logger *zap.Logger
}

func NewClassifier(client *Client, logger *zap.Logger) *Classifier {
	return &Classifier{client: client, logger: logger}
}

// Classify calls the classification service with the query plus any cached
// date context and validates the structured payload before returning it.
func (c *Classifier) Classify(ctx context.Context, queryText, dateContext string) (*ClassificationResult, error) {
	userPrompt := queryText
	if dateContext != "" {
		userPrompt = fmt.Sprintf("Current date context: %s\n\nQuestion: %s", dateContext, queryText)
	}

	resp, err := c.client.Complete(ctx, CompletionRequest{
		SystemPrompt: classifierSystemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  0.1,
		MaxTokens:    400,
	})
	if err != nil {
		return nil, apperrors.Typed(apperrors.TypeClassification, err)
	}

	result, err := ParseClassification(resp.Content)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("query classified",
		zap.String("request_type", result.QueryType),
		zap.String("intent_type", result.IntentType),
		zap.Float64("confidence", result.Confidence))

	return result, nil
}

// classificationWire mirrors the service's flat date fields before they are
// folded into a validated TimeRange.
type classificationWire struct {
	ClassificationResult
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// ParseClassification decodes and validates a classification payload:
// YYYY-MM-DD dates with start not after end, a single-sided range mirrored
// to both bounds, and new_price never negative.
func ParseClassification(content string) (*ClassificationResult, error) {
	var wire classificationWire
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &wire); err != nil {
		return nil, apperrors.Typedf(apperrors.TypeParsing, "invalid classification payload: %v", err)
	}

	result := wire.ClassificationResult

	if result.QueryType == "" && result.IntentType == "" {
		return nil, apperrors.Typedf(apperrors.TypeClassification, "classification missing request_type and intent_type")
	}

	if wire.StartDate != "" || wire.EndDate != "" {
		tr := &conversation.TimeRange{Start: wire.StartDate, End: wire.EndDate}
		if err := tr.Validate(); err != nil {
			return nil, apperrors.Typed(apperrors.TypeTemporalAnalysis, err)
		}
		result.TimeRange = tr
	} else if result.TimeRange != nil {
		if err := result.TimeRange.Validate(); err != nil {
			return nil, apperrors.Typed(apperrors.TypeTemporalAnalysis, err)
		}
	}

	if result.NewPrice != nil && *result.NewPrice < 0 {
		return nil, apperrors.Typedf(apperrors.TypeValidation, "new_price must be non-negative, got %v", *result.NewPrice)
	}

	if result.Action != nil && result.Action.Type == "" {
		result.Action = nil
	}

	return &result, nil
}
