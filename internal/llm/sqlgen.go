package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/resto-agent/backend/internal/apperrors"
	"github.com/resto-agent/backend/internal/conversation"
	"github.com/resto-agent/backend/internal/metrics"
)

// SQLRequest carries everything the generation service needs: the question,
// combined context+classification entities and filters, the effective time
// range, and recent conversation history.
type SQLRequest struct {
	QueryText string
	Entities  map[string][]string
	Filters   map[string]interface{}
	TimeRange *conversation.TimeRange
	History   []string
	Schema    string
}

const sqlgenSystemPrompt = `You generate a single SQLite SELECT statement for a restaurant operations database.

Schema:
- orders(id, status, total, location_id, created_at, completed_at)
- order_items(id, order_id, item_id, quantity, unit_price)
- menu_items(id, name, category_id, price, active)
- categories(id, name, active)
- options(id, item_id, name)
- option_items(id, option_id, name, price_delta)

Rules:
1. Return exactly one SELECT statement, nothing else.
2. Never modify data.
3. created_at and completed_at are unix epoch seconds; compare date bounds
   with strftime('%s', 'YYYY-MM-DD').
4. Always include a LIMIT clause.`

var selectOnly = regexp.MustCompile(`(?is)^\s*select\b`)

// SQLGenerator produces one capped SELECT statement per data query.
type SQLGenerator struct {
	client *Client
	rowCap int
	logger *zap.Logger
}

func NewSQLGenerator(client *Client, rowCap int, logger *zap.Logger) *SQLGenerator {
	if rowCap <= 0 {
		rowCap = 1000
	}
	return &SQLGenerator{client: client, rowCap: rowCap, logger: logger}
}

// Generate asks the generation service for a statement and enforces the
// single-SELECT and row-cap safety rules on the result.
func (g *SQLGenerator) Generate(ctx context.Context, req SQLRequest) (string, error) {
	resp, err := g.client.Complete(ctx, CompletionRequest{
		SystemPrompt: sqlgenSystemPrompt,
		UserPrompt:   buildSQLPrompt(req),
		Temperature:  0.1,
		MaxTokens:    500,
	})
	if err != nil {
		return "", apperrors.Typed(apperrors.TypeSQLGeneration, err)
	}

	sqlText := stripCodeFence(resp.Content)
	sqlText = strings.TrimSuffix(strings.TrimSpace(sqlText), ";")

	if !selectOnly.MatchString(sqlText) {
		return "", apperrors.Typedf(apperrors.TypeSQLGeneration, "generated statement is not a SELECT")
	}
	if strings.Contains(sqlText, ";") {
		return "", apperrors.Typedf(apperrors.TypeSQLGeneration, "generated payload contains multiple statements")
	}

	sqlText = EnsureRowCap(sqlText, g.rowCap)
	metrics.SQLGenerated.Inc()

	g.logger.Debug("sql generated", zap.String("sql", sqlText))
	return sqlText, nil
}

func buildSQLPrompt(req SQLRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", req.QueryText)

	if len(req.Entities) > 0 {
		b.WriteString("Entities:\n")
		for entityType, names := range req.Entities {
			fmt.Fprintf(&b, "- %s: %s\n", entityType, strings.Join(names, ", "))
		}
	}
	if len(req.Filters) > 0 {
		b.WriteString("Filters:\n")
		for key, value := range req.Filters {
			fmt.Fprintf(&b, "- %s = %v\n", key, value)
		}
	}
	if req.TimeRange != nil {
		fmt.Fprintf(&b, "Date range: %s to %s (inclusive)\n", req.TimeRange.Start, req.TimeRange.End)
	}
	if len(req.History) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, line := range req.History {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}
	if req.Schema != "" {
		fmt.Fprintf(&b, "Additional schema notes:\n%s\n", req.Schema)
	}

	b.WriteString("Return the SQL statement only.")
	return b.String()
}

var limitClause = regexp.MustCompile(`(?i)\blimit\s+(\d+)`)

// EnsureRowCap appends a LIMIT when the statement has none and lowers any
// existing LIMIT that exceeds the cap.
func EnsureRowCap(sqlText string, cap int) string {
	match := limitClause.FindStringSubmatch(sqlText)
	if match == nil {
		return fmt.Sprintf("%s LIMIT %d", sqlText, cap)
	}

	var existing int
	fmt.Sscanf(match[1], "%d", &existing)
	if existing > cap {
		return limitClause.ReplaceAllString(sqlText, fmt.Sprintf("LIMIT %d", cap))
	}
	return sqlText
}
