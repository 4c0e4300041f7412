package feedback

import (
	"github.com/resto-agent/backend/internal/storage/models"
	"github.com/resto-agent/backend/internal/storage/sqlite"
)

// SQLiteStore backs feedback with the shared application database.
type SQLiteStore struct {
	db *sqlite.Client
}

func NewSQLiteStore(db *sqlite.Client) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Save(record *models.FeedbackRecord) error {
	return s.db.InsertFeedback(record)
}

func (s *SQLiteStore) Get(feedbackID string) (*models.FeedbackRecord, error) {
	return s.db.GetFeedback(feedbackID)
}

func (s *SQLiteStore) List(filter models.FeedbackFilter) ([]models.FeedbackRecord, error) {
	return s.db.ListFeedback(filter)
}
