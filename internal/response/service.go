package response

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/resto-agent/backend/internal/apperrors"
)

// Service turns structured results into varied natural-language text.
// The last-template map is shared mutable state under the processor's
// single-writer-per-turn assumption; it carries no lock of its own.
type Service struct {
	logger   *zap.Logger
	rng      *rand.Rand
	lastUsed map[Kind]int
}

func NewService(logger *zap.Logger) *Service {
	return &Service{
		logger:   logger,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		lastUsed: make(map[Kind]int),
	}
}

// FormatResponse renders one envelope for the given kind. A handler failure
// degrades to an error-kind envelope rather than propagating.
func (s *Service) FormatResponse(kind Kind, data map[string]interface{}, metadata map[string]interface{}) *Envelope {
	envelope, err := s.render(kind, data, metadata)
	if err != nil {
		s.logger.Warn("response rendering degraded to error",
			zap.String("kind", kind.String()),
			zap.Error(err))
		fallback, _ := s.render(KindError, map[string]interface{}{
			"message":    "the response could not be formatted",
			"suggestion": apperrors.SuggestionFor(apperrors.TypeResponseGeneration),
		}, nil)
		return fallback
	}
	return envelope
}

func (s *Service) render(kind Kind, data map[string]interface{}, metadata map[string]interface{}) (*Envelope, error) {
	if data == nil {
		data = map[string]interface{}{}
	}

	envelope := &Envelope{
		Type:      kind.String(),
		Metadata:  metadata,
		Timestamp: time.Now(),
	}

	switch kind {
	case KindData:
		return s.renderData(envelope, data)
	case KindAction:
		return s.renderAction(envelope, data)
	case KindError:
		return s.renderError(envelope, data)
	case KindClarification:
		return s.renderClarification(envelope, data)
	case KindConfirmation:
		return s.renderConfirmation(envelope, data)
	case KindEmpty:
		return s.renderEmpty(envelope, data)
	case KindSuccess:
		return s.renderSuccess(envelope, data)
	case KindSummary:
		return s.renderSummary(envelope, data)
	default:
		return nil, fmt.Errorf("unhandled response kind %d", kind)
	}
}

func (s *Service) renderData(envelope *Envelope, data map[string]interface{}) (*Envelope, error) {
	records, _ := data["records"].([]map[string]interface{})
	subject := stringOr(data, "subject", "records")

	if len(records) == 0 {
		return s.renderEmpty(envelope, data)
	}

	count := len(records)
	envelope.Text = s.fill(KindData, map[string]string{
		"count":   fmt.Sprintf("%d", count),
		"subject": subject,
	})
	envelope.Verbal = fmt.Sprintf("%d %s found.", count, subject)

	payload := map[string]interface{}{
		"count":   count,
		"records": records,
	}
	if aggregates, ok := numericAggregates(records); ok {
		payload["aggregates"] = aggregates
		envelope.Text += fmt.Sprintf(" The total is %.2f and the average is %.2f.",
			aggregates["total"], aggregates["average"])
	}
	envelope.Data = payload

	return envelope, nil
}

func (s *Service) renderAction(envelope *Envelope, data map[string]interface{}) (*Envelope, error) {
	success, _ := data["success"].(bool)
	if !success {
		errorCode, _ := data["error_code"].(string)
		suggestion := apperrors.SuggestionFor(apperrors.ErrorType(errorCode))
		return s.renderError(envelope, map[string]interface{}{
			"message":    stringOr(data, "message", "the action failed"),
			"suggestion": suggestion,
		})
	}

	action := stringOr(data, "action", "")
	if action == "" {
		return nil, fmt.Errorf("action response missing action phrase")
	}

	envelope.Text = s.fill(KindAction, map[string]string{"action": action})
	envelope.Verbal = envelope.Text
	envelope.Data = data
	return envelope, nil
}

func (s *Service) renderError(envelope *Envelope, data map[string]interface{}) (*Envelope, error) {
	envelope.Type = KindError.String()
	envelope.Text = s.fill(KindError, map[string]string{
		"message":    stringOr(data, "message", "an unexpected error occurred"),
		"suggestion": stringOr(data, "suggestion", apperrors.SuggestionFor(apperrors.TypeInternal)),
	})
	envelope.Verbal = "Sorry, something went wrong."
	envelope.Data = data
	return envelope, nil
}

func (s *Service) renderClarification(envelope *Envelope, data map[string]interface{}) (*Envelope, error) {
	question := stringOr(data, "question", "")
	if question == "" {
		return nil, fmt.Errorf("clarification response missing question")
	}

	envelope.Text = s.fill(KindClarification, map[string]string{"question": question})

	if options := stringSlice(data["options"]); len(options) > 0 {
		envelope.Text += " Did you mean " + enumerate(options, "or") + "?"
	}
	envelope.Verbal = question
	envelope.Data = data
	return envelope, nil
}

func (s *Service) renderConfirmation(envelope *Envelope, data map[string]interface{}) (*Envelope, error) {
	consequence := stringOr(data, "consequence", "")
	if consequence == "" {
		// An irreversible action must state its consequence before it runs.
		return nil, fmt.Errorf("confirmation response missing consequence")
	}

	envelope.Text = s.fill(KindConfirmation, map[string]string{"consequence": consequence})
	envelope.Verbal = envelope.Text
	envelope.Data = data
	if envelope.Metadata == nil {
		envelope.Metadata = map[string]interface{}{}
	}
	envelope.Metadata["requires_confirmation"] = true
	return envelope, nil
}

func (s *Service) renderEmpty(envelope *Envelope, data map[string]interface{}) (*Envelope, error) {
	subject := stringOr(data, "subject", "records")
	envelope.Type = KindEmpty.String()
	envelope.Text = s.fill(KindEmpty, map[string]string{"subject": subject})
	envelope.Verbal = fmt.Sprintf("No %s found.", subject)
	envelope.Data = nil
	if envelope.Metadata == nil {
		envelope.Metadata = map[string]interface{}{}
	}
	envelope.Metadata["is_empty"] = true
	return envelope, nil
}

func (s *Service) renderSuccess(envelope *Envelope, data map[string]interface{}) (*Envelope, error) {
	message := stringOr(data, "message", "")
	if message == "" {
		return nil, fmt.Errorf("success response missing message")
	}
	envelope.Text = s.fill(KindSuccess, map[string]string{"message": message})
	envelope.Verbal = message
	envelope.Data = data
	return envelope, nil
}

func (s *Service) renderSummary(envelope *Envelope, data map[string]interface{}) (*Envelope, error) {
	points := stringSlice(data["summary_points"])
	if len(points) == 0 {
		return nil, fmt.Errorf("summary response missing summary_points")
	}
	envelope.Text = s.fill(KindSummary, map[string]string{"points": enumerate(points, "and")})
	envelope.Verbal = points[0]
	envelope.Data = data
	return envelope, nil
}

// fill selects a template for the kind, excluding the one used last time
// when more than one exists, and substitutes placeholders.
func (s *Service) fill(kind Kind, values map[string]string) string {
	pool := templatePools[kind]
	if len(pool) == 0 {
		return values["message"]
	}

	idx := 0
	if len(pool) > 1 {
		last, used := s.lastUsed[kind]
		idx = s.rng.Intn(len(pool))
		if used && idx == last {
			idx = (idx + 1 + s.rng.Intn(len(pool)-1)) % len(pool)
		}
	}
	s.lastUsed[kind] = idx

	text := pool[idx]
	for name, value := range values {
		text = strings.ReplaceAll(text, "{"+name+"}", value)
	}
	return stripUnfilled(text)
}

var placeholderPattern = regexp.MustCompile(`\{[a-z_]+\}`)

// stripUnfilled removes leftover placeholders and tidies the spacing they
// leave behind.
func stripUnfilled(text string) string {
	text = placeholderPattern.ReplaceAllString(text, "")
	text = strings.Join(strings.Fields(text), " ")
	text = strings.ReplaceAll(text, " .", ".")
	text = strings.ReplaceAll(text, " ,", ",")
	return strings.TrimSpace(text)
}

// numericAggregates computes total and average when every record carries a
// numeric "value".
func numericAggregates(records []map[string]interface{}) (map[string]float64, bool) {
	total := 0.0
	for _, record := range records {
		value, ok := numeric(record["value"])
		if !ok {
			return nil, false
		}
		total += value
	}
	return map[string]float64{
		"total":   total,
		"average": total / float64(len(records)),
	}, true
}

func numeric(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// enumerate joins items as "A, B, and C" (or "A, B or C" for options).
func enumerate(items []string, conjunction string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " " + conjunction + " " + items[1]
	default:
		head := strings.Join(items[:len(items)-1], ", ")
		if conjunction == "and" {
			return head + ", and " + items[len(items)-1]
		}
		return head + " " + conjunction + " " + items[len(items)-1]
	}
}

func stringOr(data map[string]interface{}, key, fallback string) string {
	if v, ok := data[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func stringSlice(v interface{}) []string {
	switch items := v.(type) {
	case []string:
		return items
	case []interface{}:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
