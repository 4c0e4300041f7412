package apperrors

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	maxStackFrames  = 10
	windowRetention = 24 * time.Hour
	healthWindow    = 60 * time.Second
	healthThreshold = 1.0 // errors per second
)

// Record is the sanitized envelope produced for every handled error.
type Record struct {
	ErrorType          ErrorType              `json:"error_type"`
	Message            string                 `json:"message"`
	Timestamp          time.Time              `json:"timestamp"`
	StatusCode         int                    `json:"status_code"`
	RecoverySuggestion string                 `json:"recovery_suggestion"`
	Context            map[string]interface{} `json:"context,omitempty"`
	Source             Source                 `json:"source"`
}

type Source struct {
	File     string `json:"file"`
	Function string `json:"function"`
	Line     int    `json:"line"`
}

// Handler is the central error service. One instance is constructed at
// startup and injected into every component; it owns the rolling counters
// used for error-rate and health reporting.
type Handler struct {
	logger *zap.Logger

	mu          sync.Mutex
	errorCounts map[ErrorType]int64
	timestamps  []time.Time
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		logger:      logger,
		errorCounts: make(map[ErrorType]int64),
	}
}

// Handle classifies, sanitizes, counts, and logs an error, returning the
// record callers embed in user-facing envelopes. Severity scales with the
// error class: infrastructure failures log at error, transient upstream
// failures at warn, everything else at info.
func (h *Handler) Handle(err error, errorType ErrorType, errCtx map[string]interface{}, suggestion string) *Record {
	if errorType == "" {
		errorType = Classify(err)
	}
	if suggestion == "" {
		suggestion = SuggestionFor(errorType)
	}

	record := &Record{
		ErrorType:          errorType,
		Message:            messageOf(err),
		Timestamp:          time.Now(),
		StatusCode:         StatusCode(errorType),
		RecoverySuggestion: suggestion,
		Context:            SanitizeContext(errCtx),
		Source:             callerSource(2),
	}

	h.record(errorType, record.Timestamp)
	h.log(record, err)

	return record
}

func (h *Handler) record(t ErrorType, at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.errorCounts[t]++
	h.timestamps = append(h.timestamps, at)
	h.pruneLocked(at)
}

// pruneLocked drops timestamps older than the retention window.
func (h *Handler) pruneLocked(now time.Time) {
	cutoff := now.Add(-windowRetention)
	idx := 0
	for idx < len(h.timestamps) && h.timestamps[idx].Before(cutoff) {
		idx++
	}
	if idx > 0 {
		h.timestamps = append([]time.Time(nil), h.timestamps[idx:]...)
	}
}

func (h *Handler) log(record *Record, err error) {
	fields := []zap.Field{
		zap.String("error_type", string(record.ErrorType)),
		zap.Int("status_code", record.StatusCode),
		zap.String("source_file", record.Source.File),
		zap.String("source_function", record.Source.Function),
		zap.Int("source_line", record.Source.Line),
		zap.Error(err),
	}
	if len(record.Context) > 0 {
		fields = append(fields, zap.Any("context", record.Context))
	}

	switch record.ErrorType {
	case TypeInternal, TypeDatabase, TypeDatabaseConnection, TypeDatabaseQuery,
		TypeConfiguration, TypeSQLExecution:
		h.logger.Error(record.Message, fields...)
	case TypeTimeout, TypeNetwork, TypeExternalService:
		h.logger.Warn(record.Message, fields...)
	default:
		h.logger.Info(record.Message, fields...)
	}
}

// ErrorCounts returns a copy of the per-type counters.
func (h *Handler) ErrorCounts() map[ErrorType]int64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	counts := make(map[ErrorType]int64, len(h.errorCounts))
	for t, n := range h.errorCounts {
		counts[t] = n
	}
	return counts
}

// ErrorRate reports errors per second over the trailing window.
func (h *Handler) ErrorRate(window time.Duration) float64 {
	if window <= 0 {
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := time.Now().Add(-window)
	count := 0
	for i := len(h.timestamps) - 1; i >= 0; i-- {
		if h.timestamps[i].Before(cutoff) {
			break
		}
		count++
	}
	return float64(count) / window.Seconds()
}

// HealthStatus is "healthy" below one error per second over the last minute,
// "degraded" otherwise.
func (h *Handler) HealthStatus() string {
	if h.ErrorRate(healthWindow) < healthThreshold {
		return "healthy"
	}
	return "degraded"
}

// GuardResult is the non-raising envelope returned by Guard.
type GuardResult struct {
	Success bool    `json:"success"`
	Record  *Record `json:"error,omitempty"`
}

// Guard runs fn and converts any returned error or panic into a GuardResult
// so the caller's control flow is never interrupted.
func (h *Handler) Guard(errorType ErrorType, fn func() error) (result GuardResult) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = errors.New("panic in guarded call")
			}
			result = GuardResult{Success: false, Record: h.Handle(err, errorType, nil, "")}
		}
	}()

	if err := fn(); err != nil {
		return GuardResult{Success: false, Record: h.Handle(err, errorType, nil, "")}
	}
	return GuardResult{Success: true}
}

// Classify maps an error to a type using typed errors and context sentinels,
// defaulting to internal.
func Classify(err error) ErrorType {
	if err == nil {
		return TypeInternal
	}

	var typed *TypedError
	if errors.As(err, &typed) {
		return typed.Type
	}
	if errors.Is(err, context.Canceled) {
		return TypeQueryCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return TypeTimeout
	}
	return TypeInternal
}

func messageOf(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// callerSource walks up the stack past handler frames, bounded so a deep
// stack never produces an unbounded walk.
func callerSource(skip int) Source {
	pcs := make([]uintptr, maxStackFrames)
	n := runtime.Callers(skip+1, pcs)
	if n == 0 {
		return Source{}
	}

	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "internal/apperrors") {
			return Source{File: frame.File, Function: frame.Function, Line: frame.Line}
		}
		if !more {
			return Source{File: frame.File, Function: frame.Function, Line: frame.Line}
		}
	}
}
