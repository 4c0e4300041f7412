package dataaccess

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/resto-agent/backend/internal/apperrors"
	"github.com/resto-agent/backend/internal/cache/redis"
	"github.com/resto-agent/backend/internal/metrics"
	"github.com/resto-agent/backend/internal/storage/sqlite"
	"github.com/resto-agent/backend/pkg/retry"
	"github.com/resto-agent/backend/pkg/utils"
)

// Row is one result record keyed by column name.
type Row map[string]interface{}

// ExecResult reports how an execution went. Expected failures are reported
// here with Success=false and a typed ErrorType instead of being raised.
type ExecResult struct {
	Success       bool                `json:"success"`
	ErrorType     apperrors.ErrorType `json:"error_type,omitempty"`
	Error         string              `json:"error,omitempty"`
	ExecutionTime float64             `json:"execution_time"`
	RowCount      int                 `json:"rowcount"`
	FromCache     bool                `json:"from_cache,omitempty"`
}

// AsyncResult pairs rows with their ExecResult for the channel-based path.
type AsyncResult struct {
	Rows   []Row
	Result ExecResult
}

// Layer executes generated SQL against the restaurant database with a small
// retry budget and an optional redis result cache.
type Layer struct {
	db       *sqlite.Client
	cache    *redis.Client
	cacheTTL time.Duration
	policy   retry.Policy
	logger   *zap.Logger
}

func NewLayer(db *sqlite.Client, cache *redis.Client, cacheTTL time.Duration, maxAttempts int, logger *zap.Logger) *Layer {
	policy := retry.DefaultPolicy()
	if maxAttempts > 0 {
		policy.MaxAttempts = maxAttempts
	}
	policy.Logger = logger

	return &Layer{
		db:       db,
		cache:    cache,
		cacheTTL: cacheTTL,
		policy:   policy,
		logger:   logger,
	}
}

// QueryToRows runs sqlText and returns the rows plus an ExecResult. Database
// and timeout failures come back in the result rather than as a raised error.
func (l *Layer) QueryToRows(ctx context.Context, sqlText string, params []interface{}, useCache bool) ([]Row, ExecResult) {
	start := time.Now()

	cacheKey := ""
	if useCache && l.cache != nil {
		cacheKey = utils.HashString(fmt.Sprintf("%s|%v", sqlText, params))
		var cached []Row
		hit, err := l.cache.GetQueryResult(ctx, cacheKey, &cached)
		if err != nil {
			l.logger.Warn("query cache read failed", zap.Error(err))
		} else if hit {
			metrics.CacheHits.WithLabelValues("query").Inc()
			return cached, ExecResult{
				Success:       true,
				ExecutionTime: time.Since(start).Seconds(),
				RowCount:      len(cached),
				FromCache:     true,
			}
		}
		metrics.CacheMisses.WithLabelValues("query").Inc()
	}

	rows, err := retry.DoWithResult(ctx, l.policy, func() ([]Row, error) {
		return l.execute(ctx, sqlText, params)
	})

	elapsed := time.Since(start).Seconds()

	if err != nil {
		errType := classifyExecError(err)
		l.logger.Warn("query execution failed",
			zap.String("error_type", string(errType)),
			zap.Float64("execution_time", elapsed),
			zap.Error(err))
		return nil, ExecResult{
			Success:       false,
			ErrorType:     errType,
			Error:         err.Error(),
			ExecutionTime: elapsed,
		}
	}

	if cacheKey != "" {
		if cacheErr := l.cache.SetQueryResult(ctx, cacheKey, rows, l.cacheTTL); cacheErr != nil {
			l.logger.Warn("query cache write failed", zap.Error(cacheErr))
		}
	}

	return rows, ExecResult{
		Success:       true,
		ExecutionTime: elapsed,
		RowCount:      len(rows),
	}
}

// InvalidateCache drops every cached result set. Called after actions that
// mutate the tables generated queries read from, so follow-up queries see the
// new state instead of a stale cached result.
func (l *Layer) InvalidateCache(ctx context.Context) error {
	if l.cache == nil {
		return nil
	}
	return l.cache.InvalidateQueryCache(ctx)
}

// QueryToRowsAsync mirrors QueryToRows over a channel so the caller can await
// or cancel the execution. The channel always receives exactly one result.
func (l *Layer) QueryToRowsAsync(ctx context.Context, sqlText string, params []interface{}, useCache bool) <-chan AsyncResult {
	out := make(chan AsyncResult, 1)
	go func() {
		defer close(out)
		rows, result := l.QueryToRows(ctx, sqlText, params, useCache)
		out <- AsyncResult{Rows: rows, Result: result}
	}()
	return out
}

func (l *Layer) execute(ctx context.Context, sqlText string, params []interface{}) ([]Row, error) {
	sqlRows, err := l.db.DB().QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, err
	}
	defer sqlRows.Close()

	columns, err := sqlRows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for sqlRows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := sqlRows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}

	return out, sqlRows.Err()
}

func classifyExecError(err error) apperrors.ErrorType {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.TypeTimeout
	case errors.Is(err, context.Canceled):
		return apperrors.TypeQueryCancelled
	case errors.Is(err, sql.ErrConnDone):
		return apperrors.TypeDatabaseConnection
	default:
		return apperrors.TypeDatabaseQuery
	}
}
