package feedback

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/resto-agent/backend/internal/storage/models"
)

// FileStore persists one JSON document per record inside a directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create feedback directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Save(record *models.FeedbackRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal feedback record: %w", err)
	}

	path := filepath.Join(s.dir, record.FeedbackID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write feedback record: %w", err)
	}
	return nil
}

func (s *FileStore) Get(feedbackID string) (*models.FeedbackRecord, error) {
	path := filepath.Join(s.dir, feedbackID+".json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read feedback record: %w", err)
	}

	var record models.FeedbackRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal feedback record: %w", err)
	}
	return &record, nil
}

func (s *FileStore) List(filter models.FeedbackFilter) ([]models.FeedbackRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read feedback directory: %w", err)
	}

	var out []models.FeedbackRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		record, err := s.Get(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil || record == nil {
			continue
		}
		if matches(record, filter) {
			out = append(out, *record)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return paginate(out, filter), nil
}
