package feedback

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/resto-agent/backend/internal/apperrors"
	"github.com/resto-agent/backend/internal/metrics"
	"github.com/resto-agent/backend/internal/storage/models"
)

// ResponseStore correlates response ids back to the turn that produced
// them. The sqlite client satisfies it; tests use a map-backed fake.
type ResponseStore interface {
	InsertStoredResponse(resp *models.StoredResponse) error
	GetStoredResponse(responseID string) (*models.StoredResponse, error)
}

// Service persists and aggregates user feedback on responses.
type Service struct {
	store     Store
	responses ResponseStore
	logger    *zap.Logger

	statsTTL   time.Duration
	statsMu    sync.Mutex
	statsCache *models.FeedbackStats
}

func NewService(store Store, responses ResponseStore, statsTTL time.Duration, logger *zap.Logger) *Service {
	if statsTTL <= 0 {
		statsTTL = 5 * time.Minute
	}
	return &Service{
		store:     store,
		responses: responses,
		logger:    logger,
		statsTTL:  statsTTL,
	}
}

// SubmitFeedback validates and stores a record, returning its id. An
// unknown response_id is not an error: the caller-supplied query_text and
// original_intent are kept as the fallback correlation.
func (s *Service) SubmitFeedback(record *models.FeedbackRecord) (string, error) {
	if record.SessionID == "" {
		return "", apperrors.Typedf(apperrors.TypeValidation, "feedback requires a session_id")
	}
	if record.FeedbackType == "" {
		return "", apperrors.Typedf(apperrors.TypeValidation, "feedback requires a feedback_type")
	}
	if record.Rating != nil && (*record.Rating < 1 || *record.Rating > 5) {
		return "", apperrors.Typedf(apperrors.TypeValidation, "rating must be between 1 and 5, got %d", *record.Rating)
	}

	if record.FeedbackID == "" {
		record.FeedbackID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if record.ResponseID != "" && s.responses != nil {
		stored, err := s.responses.GetStoredResponse(record.ResponseID)
		if err != nil {
			s.logger.Warn("response lookup failed, keeping caller-supplied fields", zap.Error(err))
		} else if stored != nil {
			if record.QueryID == "" {
				record.QueryID = stored.QueryID
			}
			if record.QueryText == "" {
				record.QueryText = stored.QueryText
			}
			if record.OriginalIntent == "" {
				record.OriginalIntent = stored.IntentType
			}
		} else {
			s.logger.Debug("feedback references unknown response_id",
				zap.String("response_id", record.ResponseID))
		}
	}

	if err := s.store.Save(record); err != nil {
		return "", apperrors.Typed(apperrors.TypeDatabase, err)
	}

	metrics.FeedbackTotal.WithLabelValues(record.FeedbackType).Inc()
	s.invalidateStats()

	s.logger.Info("feedback submitted",
		zap.String("feedback_id", record.FeedbackID),
		zap.String("feedback_type", record.FeedbackType))

	return record.FeedbackID, nil
}

func (s *Service) GetFeedback(feedbackID string) (*models.FeedbackRecord, error) {
	return s.store.Get(feedbackID)
}

func (s *Service) ListFeedback(filter models.FeedbackFilter) ([]models.FeedbackRecord, error) {
	return s.store.List(filter)
}

// StoreQueryResponse records the (query, response) pair for later feedback
// correlation.
func (s *Service) StoreQueryResponse(resp *models.StoredResponse) error {
	if s.responses == nil {
		return nil
	}
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = time.Now()
	}
	return s.responses.InsertStoredResponse(resp)
}

// GetResponse looks up a previously emitted response by id; nil when unknown.
func (s *Service) GetResponse(responseID string) (*models.StoredResponse, error) {
	if s.responses == nil {
		return nil, nil
	}
	return s.responses.GetStoredResponse(responseID)
}

// GetStatistics returns the aggregate snapshot, cached with a TTL.
func (s *Service) GetStatistics(since *time.Time, forceRefresh bool) (*models.FeedbackStats, error) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	if !forceRefresh && since == nil && s.statsCache != nil &&
		time.Since(s.statsCache.ComputedAt) < s.statsTTL {
		cached := *s.statsCache
		return &cached, nil
	}

	records, err := s.store.List(models.FeedbackFilter{Since: since})
	if err != nil {
		return nil, apperrors.Typed(apperrors.TypeDatabase, err)
	}

	stats := computeStats(records)
	if since == nil {
		s.statsCache = stats
	}

	if stats.TotalCount > 0 {
		metrics.SatisfactionScore.Set(float64(stats.HelpfulCount) / float64(stats.TotalCount))
	}

	snapshot := *stats
	return &snapshot, nil
}

func (s *Service) invalidateStats() {
	s.statsMu.Lock()
	s.statsCache = nil
	s.statsMu.Unlock()
}

func computeStats(records []models.FeedbackRecord) *models.FeedbackStats {
	stats := &models.FeedbackStats{
		IssueDistribution: make(map[string]int),
		TopQueryIntents:   make(map[string]int),
		ComputedAt:        time.Now(),
	}

	ratingSum := 0
	ratingCount := 0

	for _, record := range records {
		stats.TotalCount++
		switch record.FeedbackType {
		case "helpful":
			stats.HelpfulCount++
		case "not_helpful":
			stats.NotHelpfulCount++
		}
		if record.Rating != nil {
			ratingSum += *record.Rating
			ratingCount++
		}
		if record.IssueCategory != "" {
			stats.IssueDistribution[record.IssueCategory]++
		}
		if record.OriginalIntent != "" {
			stats.TopQueryIntents[record.OriginalIntent]++
		}
	}

	if ratingCount > 0 {
		stats.AverageRating = float64(ratingSum) / float64(ratingCount)
	}

	return stats
}

// ExportJSON dumps every matching record as a JSON array.
func (s *Service) ExportJSON(w io.Writer, filter models.FeedbackFilter) error {
	records, err := s.store.List(filter)
	if err != nil {
		return apperrors.Typed(apperrors.TypeDatabase, err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(records)
}

// ExportCSV dumps every matching record as tabular data for offline
// analysis.
func (s *Service) ExportCSV(w io.Writer, filter models.FeedbackFilter) error {
	records, err := s.store.List(filter)
	if err != nil {
		return apperrors.Typed(apperrors.TypeDatabase, err)
	}

	writer := csv.NewWriter(w)
	header := []string{"feedback_id", "session_id", "query_id", "query_text", "response_id",
		"feedback_type", "rating", "issue_category", "comment", "original_intent", "created_at"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, record := range records {
		rating := ""
		if record.Rating != nil {
			rating = strconv.Itoa(*record.Rating)
		}
		row := []string{
			record.FeedbackID,
			record.SessionID,
			record.QueryID,
			record.QueryText,
			record.ResponseID,
			record.FeedbackType,
			rating,
			record.IssueCategory,
			record.Comment,
			record.OriginalIntent,
			record.CreatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
