package feedback

import (
	"sort"
	"sync"

	"github.com/resto-agent/backend/internal/storage/models"
)

// Store is the pluggable persistence contract for feedback records.
// Backends: memory, file (one JSON document per record), sqlite.
type Store interface {
	Save(record *models.FeedbackRecord) error
	Get(feedbackID string) (*models.FeedbackRecord, error)
	List(filter models.FeedbackFilter) ([]models.FeedbackRecord, error)
}

// MemoryStore keeps records in-process, mainly for tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records []models.FeedbackRecord
	byID    map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]int)}
}

func (s *MemoryStore) Save(record *models.FeedbackRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID[record.FeedbackID] = len(s.records)
	s.records = append(s.records, *record)
	return nil
}

func (s *MemoryStore) Get(feedbackID string) (*models.FeedbackRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[feedbackID]
	if !ok {
		return nil, nil
	}
	record := s.records[idx]
	return &record, nil
}

func (s *MemoryStore) List(filter models.FeedbackFilter) ([]models.FeedbackRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.FeedbackRecord
	for _, record := range s.records {
		if matches(&record, filter) {
			out = append(out, record)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return paginate(out, filter), nil
}

func matches(record *models.FeedbackRecord, filter models.FeedbackFilter) bool {
	if filter.SessionID != "" && record.SessionID != filter.SessionID {
		return false
	}
	if filter.QueryID != "" && record.QueryID != filter.QueryID {
		return false
	}
	if filter.Type != "" && record.FeedbackType != filter.Type {
		return false
	}
	if filter.Since != nil && record.CreatedAt.Before(*filter.Since) {
		return false
	}
	if filter.Until != nil && record.CreatedAt.After(*filter.Until) {
		return false
	}
	return true
}

func paginate(records []models.FeedbackRecord, filter models.FeedbackFilter) []models.FeedbackRecord {
	if filter.Offset > 0 {
		if filter.Offset >= len(records) {
			return nil
		}
		records = records[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(records) {
		records = records[:filter.Limit]
	}
	return records
}
