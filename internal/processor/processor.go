package processor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/resto-agent/backend/internal/actions"
	"github.com/resto-agent/backend/internal/apperrors"
	"github.com/resto-agent/backend/internal/conversation"
	"github.com/resto-agent/backend/internal/dataaccess"
	"github.com/resto-agent/backend/internal/llm"
	"github.com/resto-agent/backend/internal/metrics"
	"github.com/resto-agent/backend/internal/resolution"
	"github.com/resto-agent/backend/internal/response"
	"github.com/resto-agent/backend/internal/storage/models"
)

// Collaborator contracts. Production wiring uses the concrete services;
// tests substitute fakes.
type Classifier interface {
	Classify(ctx context.Context, queryText, dateContext string) (*llm.ClassificationResult, error)
}

type SQLGenerator interface {
	Generate(ctx context.Context, req llm.SQLRequest) (string, error)
}

type DataAccess interface {
	QueryToRows(ctx context.Context, sqlText string, params []interface{}, useCache bool) ([]dataaccess.Row, dataaccess.ExecResult)
	InvalidateCache(ctx context.Context) error
}

type Resolver interface {
	ResolveEntities(queryText string, convCtx *conversation.Context) (*resolution.Result, error)
}

type ActionRunner interface {
	RequiresConfirmation(actionType string, params map[string]interface{}) (bool, string)
	Execute(ctx context.Context, actionType string, params map[string]interface{}) (*actions.Outcome, error)
}

type FeedbackRecorder interface {
	StoreQueryResponse(resp *models.StoredResponse) error
}

// DateContexter supplies the relative-date anchor passed to classification.
type DateContexter interface {
	DateContext(ctx context.Context, sessionID string) string
}

type HistoryStore interface {
	InsertQueryRecord(record *models.QueryRecord) error
	GetQueryHistory(sessionID string, limit int) ([]models.QueryRecord, error)
}

// Request is one turn of input. Classification may be supplied by the
// caller; when nil the processor classifies the text itself.
type Request struct {
	QueryText         string                    `json:"query_text"`
	SessionID         string                    `json:"session_id"`
	UserID            string                    `json:"user_id,omitempty"`
	TargetQueryID     string                    `json:"target_query_id,omitempty"`
	Confirmed         bool                      `json:"confirmed,omitempty"`
	Classification    *llm.ClassificationResult `json:"-"`
	AdditionalContext map[string]interface{}    `json:"additional_context,omitempty"`
}

// Stats is a point-in-time snapshot of the processor's rolling counters.
type Stats struct {
	TotalQueries      int64                         `json:"total_queries"`
	TotalErrors       int64                         `json:"total_errors"`
	AvgProcessingTime float64                       `json:"avg_processing_time"`
	ErrorsByType      map[apperrors.ErrorType]int64 `json:"errors_by_type"`
}

// Processor orchestrates one conversational turn: classification, reference
// resolution, SQL generation and execution or action dispatch, and response
// formatting. Every path ends in a response envelope; nothing escapes as a
// raised error.
type Processor struct {
	classifier Classifier
	sqlgen     SQLGenerator
	data       DataAccess
	resolver   Resolver
	runner     ActionRunner
	responses  *response.Service
	sessions   *conversation.Manager
	feedback   FeedbackRecorder
	history    HistoryStore
	dates      DateContexter
	errs       *apperrors.Handler
	logger     *zap.Logger

	useCache    bool
	historySize int

	mu           sync.Mutex
	totalQueries int64
	totalErrors  int64
	totalLatency float64
	errorsByType map[apperrors.ErrorType]int64
}

type Config struct {
	UseCache    bool
	HistorySize int
}

func New(
	classifier Classifier,
	sqlgen SQLGenerator,
	data DataAccess,
	resolver Resolver,
	runner ActionRunner,
	responses *response.Service,
	sessions *conversation.Manager,
	feedback FeedbackRecorder,
	history HistoryStore,
	dates DateContexter,
	errs *apperrors.Handler,
	cfg Config,
	logger *zap.Logger,
) *Processor {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 5
	}
	return &Processor{
		classifier:   classifier,
		sqlgen:       sqlgen,
		data:         data,
		resolver:     resolver,
		runner:       runner,
		responses:    responses,
		sessions:     sessions,
		feedback:     feedback,
		history:      history,
		dates:        dates,
		errs:         errs,
		logger:       logger,
		useCache:     cfg.UseCache,
		historySize:  cfg.HistorySize,
		errorsByType: make(map[apperrors.ErrorType]int64),
	}
}

// turnState accumulates everything the finalize step needs.
type turnState struct {
	queryID        string
	req            Request
	convCtx        *conversation.Context
	classification *llm.ClassificationResult
	sql            string
	start          time.Time
}

// ProcessQuery is the asynchronous core. It honors ctx cancellation at every
// stage boundary and always returns an envelope.
func (p *Processor) ProcessQuery(ctx context.Context, req Request) *response.Envelope {
	state := &turnState{
		queryID: uuid.New().String(),
		req:     req,
		start:   time.Now(),
	}

	if req.SessionID == "" {
		envelope := p.errorEnvelope(
			apperrors.Typedf(apperrors.TypeValidation, "session_id is required"),
			apperrors.TypeValidation, nil)
		return p.finalize(state, envelope)
	}
	if strings.TrimSpace(req.QueryText) == "" {
		envelope := p.errorEnvelope(
			apperrors.Typedf(apperrors.TypeInput, "query text is empty"),
			apperrors.TypeInput, map[string]interface{}{"session_id": req.SessionID})
		return p.finalize(state, envelope)
	}

	state.convCtx = p.sessions.GetOrCreate(req.SessionID, req.UserID)

	if envelope := p.cancelled(ctx, state); envelope != nil {
		return p.finalize(state, envelope)
	}

	classification := req.Classification
	if classification == nil {
		var err error
		classification, err = p.classifier.Classify(ctx, req.QueryText, p.dateContext(ctx, req.SessionID))
		if err != nil {
			if envelope := p.cancelled(ctx, state); envelope != nil {
				return p.finalize(state, envelope)
			}
			envelope := p.errorEnvelope(err, apperrors.TypeClassification, map[string]interface{}{
				"session_id": req.SessionID,
			})
			return p.finalize(state, envelope)
		}
	}
	state.classification = classification

	p.logger.Info("processing query",
		zap.String("query_id", state.queryID),
		zap.String("session_id", req.SessionID),
		zap.String("query_type", classification.QueryType),
		zap.String("intent_type", classification.IntentType))

	var envelope *response.Envelope
	switch classification.QueryType {
	case "correction":
		envelope = p.handleCorrection(ctx, state)
	case "action_request":
		envelope = p.handleAction(ctx, state)
	default:
		envelope = p.handleDataQuery(ctx, state)
	}

	return p.finalize(state, envelope)
}

// ProcessQuerySync wraps the core with a deadline for callers without a
// context of their own.
func (p *Processor) ProcessQuerySync(req Request, timeout time.Duration) *response.Envelope {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return p.ProcessQuery(ctx, req)
}

// ProcessQueryAsync runs the core in a goroutine. The channel receives
// exactly one envelope and is then closed.
func (p *Processor) ProcessQueryAsync(ctx context.Context, req Request) <-chan *response.Envelope {
	out := make(chan *response.Envelope, 1)
	go func() {
		defer close(out)
		out <- p.ProcessQuery(ctx, req)
	}()
	return out
}

// handleDataQuery resolves references, combines session and classification
// context, generates one capped SELECT, and renders the rows.
func (p *Processor) handleDataQuery(ctx context.Context, state *turnState) *response.Envelope {
	convCtx := state.convCtx
	classification := state.classification

	resolved, err := p.resolver.ResolveEntities(state.req.QueryText, convCtx)
	if err != nil {
		return p.errorEnvelope(err, apperrors.TypeEntityResolution, map[string]interface{}{
			"session_id": state.req.SessionID,
		})
	}

	if resolved.NeedsClarification {
		convCtx.SetClarification(resolved.ClarificationQuestion, state.queryID, map[string]interface{}{
			"query_text": state.req.QueryText,
		})
		metrics.ClarificationTotal.Inc()
		return p.responses.FormatResponse(response.KindClarification, map[string]interface{}{
			"question": resolved.ClarificationQuestion,
		}, nil)
	}

	entities := combineEntities(classification.Entities, resolved.Entities)
	filters := combineFilters(convCtx.Filters, classification.Filters)
	if resolved.QueryReference != nil {
		filters = combineFilters(filters, resolved.QueryReference.Filters)
	}

	timeRange := classification.TimeRange
	if timeRange == nil {
		timeRange = convCtx.TimeRange
	}

	if envelope := p.cancelled(ctx, state); envelope != nil {
		return envelope
	}

	sqlText, err := p.sqlgen.Generate(ctx, llm.SQLRequest{
		QueryText: state.req.QueryText,
		Entities:  entities,
		Filters:   filters,
		TimeRange: timeRange,
		History:   p.recentHistory(convCtx),
	})
	if err != nil {
		if envelope := p.cancelled(ctx, state); envelope != nil {
			return envelope
		}
		return p.errorEnvelope(err, apperrors.TypeSQLGeneration, map[string]interface{}{
			"session_id": state.req.SessionID,
		})
	}
	state.sql = sqlText

	rows, execResult := p.data.QueryToRows(ctx, sqlText, nil, p.useCache)
	if !execResult.Success {
		if execResult.ErrorType == apperrors.TypeQueryCancelled {
			return p.cancelledEnvelope(state)
		}
		return p.errorEnvelope(
			apperrors.Typedf(execResult.ErrorType, "%s", execResult.Error),
			execResult.ErrorType,
			map[string]interface{}{"session_id": state.req.SessionID})
	}
	metrics.SQLRowsReturned.Observe(float64(execResult.RowCount))

	// The turn succeeded; commit its context contributions.
	convCtx.MergeEntities(resolved.Entities)
	convCtx.MergeEntities(classificationEntities(classification.Entities))
	convCtx.MergeFilters(classification.Filters)
	if timeRange != nil {
		convCtx.SetTimeRange(timeRange)
	}
	if convCtx.AwaitingClarification() {
		convCtx.ResolveClarification()
	}

	subject := subjectFor(classification.IntentType)
	records := make([]map[string]interface{}, len(rows))
	for i, row := range rows {
		records[i] = map[string]interface{}(row)
	}

	metadata := map[string]interface{}{
		"execution_time": execResult.ExecutionTime,
		"from_cache":     execResult.FromCache,
	}

	if len(records) == 0 {
		return p.responses.FormatResponse(response.KindEmpty, map[string]interface{}{
			"subject": subject,
		}, metadata)
	}
	return p.responses.FormatResponse(response.KindData, map[string]interface{}{
		"records": records,
		"subject": subject,
	}, metadata)
}

// handleAction validates parameters, gates irreversible actions behind a
// confirmation turn, and executes.
func (p *Processor) handleAction(ctx context.Context, state *turnState) *response.Envelope {
	convCtx := state.convCtx
	action := state.classification.Action
	if action == nil {
		action = synthesizeAction(state.classification)
	}

	// A confirmation turn carries no action payload of its own; pick up the
	// pending action left by the previous envelope.
	if state.req.Confirmed && convCtx.AwaitingClarification() {
		if pending := pendingAction(convCtx); pending != nil {
			action = pending
		}
	}

	if action == nil {
		return p.errorEnvelope(
			apperrors.Typedf(apperrors.TypeAction, "action request carried no action payload"),
			apperrors.TypeAction, nil)
	}

	if missing := missingParams(action); missing != "" {
		question := fmt.Sprintf("What %s should I use?", strings.ReplaceAll(missing, "_", " "))
		convCtx.SetClarification(question, state.queryID, map[string]interface{}{
			"action_type":   action.Type,
			"parameters":    action.Parameters,
			"missing_param": missing,
		})
		metrics.ClarificationTotal.Inc()
		return p.responses.FormatResponse(response.KindClarification, map[string]interface{}{
			"question": question,
		}, nil)
	}

	if needs, consequence := p.runner.RequiresConfirmation(action.Type, action.Parameters); needs && !state.req.Confirmed {
		convCtx.SetClarification(consequence, state.queryID, map[string]interface{}{
			"action_type": action.Type,
			"parameters":  action.Parameters,
		})
		return p.responses.FormatResponse(response.KindConfirmation, map[string]interface{}{
			"consequence": consequence,
			"action_type": action.Type,
		}, nil)
	}

	if envelope := p.cancelled(ctx, state); envelope != nil {
		return envelope
	}

	outcome, err := p.runner.Execute(ctx, action.Type, action.Parameters)
	if err != nil {
		errorType := apperrors.Classify(err)
		record := p.handle(err, errorType, map[string]interface{}{
			"action_type": action.Type,
		})
		return p.responses.FormatResponse(response.KindAction, map[string]interface{}{
			"success":    false,
			"message":    record.Message,
			"error_code": string(errorType),
		}, nil)
	}

	if convCtx.AwaitingClarification() {
		convCtx.ResolveClarification()
	}

	// The action changed rows the cached result sets were built from.
	if cacheErr := p.data.InvalidateCache(ctx); cacheErr != nil {
		p.logger.Warn("cache invalidation after action failed", zap.Error(cacheErr))
	}

	data := map[string]interface{}{
		"success": true,
		"action":  outcome.Phrase,
	}
	for k, v := range outcome.Data {
		data[k] = v
	}
	return p.responses.FormatResponse(response.KindAction, data, nil)
}

// handleCorrection finds the turn being amended, reconstructs its request
// with the correction applied, and reprocesses.
func (p *Processor) handleCorrection(ctx context.Context, state *turnState) *response.Envelope {
	convCtx := state.convCtx

	target := p.correctionTarget(state)
	if target == nil {
		return p.errorEnvelope(
			apperrors.Typedf(apperrors.TypeCorrection, "nothing to correct in this session"),
			apperrors.TypeCorrection,
			map[string]interface{}{"session_id": state.req.SessionID})
	}

	convCtx.MarkCorrected()

	correctedText := fmt.Sprintf("%s (correction: %s)", target.Text, state.req.QueryText)

	corrected, err := p.classifier.Classify(ctx, correctedText, p.dateContext(ctx, state.req.SessionID))
	if err != nil {
		if envelope := p.cancelled(ctx, state); envelope != nil {
			return envelope
		}
		return p.errorEnvelope(err, apperrors.TypeCorrection, map[string]interface{}{
			"target_query_id": target.QueryID,
		})
	}
	// A correction of a correction degenerates; treat the amended text as a
	// plain data query to terminate the recursion.
	if corrected.QueryType == "correction" {
		corrected.QueryType = "data_query"
	}

	rerouted := *state
	rerouted.req.QueryText = correctedText
	rerouted.classification = corrected
	state.classification = corrected
	state.sql = ""

	var envelope *response.Envelope
	if corrected.QueryType == "action_request" {
		envelope = p.handleAction(ctx, &rerouted)
	} else {
		envelope = p.handleDataQuery(ctx, &rerouted)
	}
	state.sql = rerouted.sql

	if envelope.Type != response.KindError.String() && convCtx.AwaitingClarification() {
		convCtx.ResolveClarification()
	}
	return envelope
}

// correctionTarget prefers an explicit query id, then the clarification
// state's recorded target, then the most recent user turn.
func (p *Processor) correctionTarget(state *turnState) *conversation.Turn {
	convCtx := state.convCtx

	if state.req.TargetQueryID != "" {
		if turn := convCtx.TurnByQueryID(state.req.TargetQueryID); turn != nil {
			return turn
		}
		p.logger.Warn("correction target not found, falling back to last turn",
			zap.String("target_query_id", state.req.TargetQueryID))
	}
	if convCtx.Clarification != nil && convCtx.Clarification.TargetQueryID != "" {
		if turn := convCtx.TurnByQueryID(convCtx.Clarification.TargetQueryID); turn != nil {
			return turn
		}
	}

	// Positional fallback: the most recent user turn, unless that turn was
	// itself a correction, in which case the one before it is the real target.
	last := convCtx.LastUserTurn()
	if last != nil && last.QueryType == "correction" {
		if prev := convCtx.PreviousUserTurn(); prev != nil {
			return prev
		}
	}
	return last
}

// finalize stamps the envelope, records metrics and history, stores the
// response for feedback correlation, and appends both turns. The user turn
// is appended only here so resolution inside the turn saw the prior state.
func (p *Processor) finalize(state *turnState, envelope *response.Envelope) *response.Envelope {
	elapsed := time.Since(state.start).Seconds()
	envelope.ResponseID = uuid.New().String()
	envelope.ProcessingTime = elapsed

	queryType := ""
	intentType := ""
	confidence := 0.0
	if state.classification != nil {
		queryType = state.classification.QueryType
		intentType = state.classification.IntentType
		confidence = state.classification.Confidence
	}

	status := "success"
	if envelope.Type == response.KindError.String() {
		status = "error"
	}
	metrics.QueryTotal.WithLabelValues(status).Inc()
	metrics.QueryDuration.WithLabelValues(orUnknown(queryType)).Observe(elapsed)
	metrics.ResponseTotal.WithLabelValues(envelope.Type).Inc()

	p.mu.Lock()
	p.totalQueries++
	p.totalLatency += elapsed
	if status == "error" {
		p.totalErrors++
	}
	p.mu.Unlock()

	if state.convCtx != nil {
		filters := map[string]interface{}{}
		if state.classification != nil {
			filters = state.classification.Filters
		}
		state.convCtx.AppendTurn(conversation.Turn{
			QueryID:    state.queryID,
			Role:       "user",
			Text:       state.req.QueryText,
			QueryType:  queryType,
			IntentType: intentType,
			SQL:        state.sql,
			Filters:    filters,
		})
		state.convCtx.AppendTurn(conversation.Turn{
			QueryID: state.queryID,
			Role:    "assistant",
			Text:    envelope.Text,
		})
	}

	if p.feedback != nil {
		stored := &models.StoredResponse{
			ResponseID:   envelope.ResponseID,
			QueryID:      state.queryID,
			SessionID:    state.req.SessionID,
			QueryText:    state.req.QueryText,
			IntentType:   intentType,
			ResponseText: envelope.Text,
		}
		if err := p.feedback.StoreQueryResponse(stored); err != nil {
			p.logger.Warn("failed to store response for feedback correlation", zap.Error(err))
		}
	}

	if p.history != nil && state.req.SessionID != "" {
		record := &models.QueryRecord{
			ID:           state.queryID,
			SessionID:    state.req.SessionID,
			UserID:       state.req.UserID,
			QueryText:    state.req.QueryText,
			QueryType:    queryType,
			IntentType:   intentType,
			ResponseID:   envelope.ResponseID,
			ResponseType: envelope.Type,
			ResponseText: envelope.Text,
			Confidence:   confidence,
			RowCount:     rowCountOf(envelope),
			LatencyMS:    int(elapsed * 1000),
		}
		if err := p.history.InsertQueryRecord(record); err != nil {
			p.logger.Warn("failed to persist query record", zap.Error(err))
		}
	}

	return envelope
}

// History returns the persisted trace of a session's processed turns.
func (p *Processor) History(sessionID string, limit int) ([]models.QueryRecord, error) {
	if p.history == nil {
		return nil, nil
	}
	return p.history.GetQueryHistory(sessionID, limit)
}

// Statistics snapshots the rolling counters.
func (p *Processor) Statistics() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	byType := make(map[apperrors.ErrorType]int64, len(p.errorsByType))
	for t, n := range p.errorsByType {
		byType[t] = n
	}

	avg := 0.0
	if p.totalQueries > 0 {
		avg = p.totalLatency / float64(p.totalQueries)
	}
	return Stats{
		TotalQueries:      p.totalQueries,
		TotalErrors:       p.totalErrors,
		AvgProcessingTime: avg,
		ErrorsByType:      byType,
	}
}

func (p *Processor) dateContext(ctx context.Context, sessionID string) string {
	if p.dates == nil {
		return ""
	}
	return p.dates.DateContext(ctx, sessionID)
}

func (p *Processor) cancelled(ctx context.Context, state *turnState) *response.Envelope {
	if ctx.Err() == nil {
		return nil
	}
	return p.cancelledEnvelope(state)
}

func (p *Processor) cancelledEnvelope(state *turnState) *response.Envelope {
	record := p.handle(
		apperrors.Typedf(apperrors.TypeQueryCancelled, "query cancelled"),
		apperrors.TypeQueryCancelled,
		map[string]interface{}{"session_id": state.req.SessionID})
	return p.responses.FormatResponse(response.KindError, map[string]interface{}{
		"message":    "the query was cancelled before it completed",
		"suggestion": record.RecoverySuggestion,
		"error_type": string(apperrors.TypeQueryCancelled),
	}, nil)
}

func (p *Processor) errorEnvelope(err error, errorType apperrors.ErrorType, errCtx map[string]interface{}) *response.Envelope {
	record := p.handle(err, errorType, errCtx)
	return p.responses.FormatResponse(response.KindError, map[string]interface{}{
		"message":    record.Message,
		"suggestion": record.RecoverySuggestion,
		"error_type": string(record.ErrorType),
	}, nil)
}

// handle routes through the shared error handler and keeps the processor's
// per-type tallies in step with it.
func (p *Processor) handle(err error, errorType apperrors.ErrorType, errCtx map[string]interface{}) *apperrors.Record {
	record := p.errs.Handle(err, errorType, errCtx, "")
	metrics.ErrorTotal.WithLabelValues(string(record.ErrorType)).Inc()

	p.mu.Lock()
	p.errorsByType[record.ErrorType]++
	p.mu.Unlock()

	return record
}

// recentHistory renders the trailing user turns as prompt lines.
func (p *Processor) recentHistory(convCtx *conversation.Context) []string {
	var lines []string
	for i := len(convCtx.History) - 1; i >= 0 && len(lines) < p.historySize; i-- {
		turn := convCtx.History[i]
		if turn.Role != "user" {
			continue
		}
		lines = append([]string{turn.Text}, lines...)
	}
	return lines
}

func combineEntities(classified map[string][]string, resolved []conversation.Entity) map[string][]string {
	out := make(map[string][]string)
	for entityType, names := range classified {
		out[entityType] = append(out[entityType], names...)
	}
	for _, entity := range resolved {
		key := string(entity.Type)
		if !containsString(out[key], entity.Name) {
			out[key] = append(out[key], entity.Name)
		}
	}
	return out
}

func combineFilters(base, overlay map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

func classificationEntities(classified map[string][]string) []conversation.Entity {
	var out []conversation.Entity
	for entityType, names := range classified {
		for _, name := range names {
			out = append(out, conversation.Entity{
				Type: conversation.EntityType(entityType),
				Name: name,
			})
		}
	}
	return out
}

// subjectFor maps an intent to the noun the response templates use.
func subjectFor(intentType string) string {
	switch intentType {
	case "order_history", "order_count":
		return "orders"
	case "sales_summary", "revenue":
		return "sales records"
	case "menu_lookup", "item_lookup":
		return "menu items"
	case "category_lookup":
		return "categories"
	default:
		return "records"
	}
}

// synthesizeAction builds an update_price action from the flat item_name and
// new_price fields some classifications carry instead of an action payload.
func synthesizeAction(c *llm.ClassificationResult) *llm.Action {
	if c.ItemName == "" || c.NewPrice == nil {
		return nil
	}
	return &llm.Action{
		Type: "update_price",
		Parameters: map[string]interface{}{
			"item_name": c.ItemName,
			"new_price": *c.NewPrice,
		},
		RequiredParams: []string{"item_name", "new_price"},
	}
}

// pendingAction reconstructs the action stashed in the clarification state.
func pendingAction(convCtx *conversation.Context) *llm.Action {
	pending := convCtx.Clarification.Pending
	actionType, _ := pending["action_type"].(string)
	if actionType == "" {
		return nil
	}
	params, _ := pending["parameters"].(map[string]interface{})
	return &llm.Action{Type: actionType, Parameters: params}
}

// missingParams returns the first required parameter absent or empty.
func missingParams(action *llm.Action) string {
	for _, name := range action.RequiredParams {
		value, ok := action.Parameters[name]
		if !ok || value == nil {
			return name
		}
		if s, isString := value.(string); isString && s == "" {
			return name
		}
	}
	return ""
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}

func rowCountOf(envelope *response.Envelope) int {
	if envelope.Data == nil {
		return 0
	}
	if count, ok := envelope.Data["count"].(int); ok {
		return count
	}
	return 0
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
