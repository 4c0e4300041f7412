package feedback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/resto-agent/backend/internal/storage/models"
)

func seedRecords(t *testing.T, store Store) {
	t.Helper()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	records := []models.FeedbackRecord{
		{FeedbackID: "f1", SessionID: "s1", FeedbackType: "helpful", CreatedAt: base},
		{FeedbackID: "f2", SessionID: "s1", FeedbackType: "not_helpful", CreatedAt: base.Add(time.Hour)},
		{FeedbackID: "f3", SessionID: "s2", FeedbackType: "helpful", CreatedAt: base.Add(2 * time.Hour)},
	}
	for i := range records {
		require.NoError(t, store.Save(&records[i]))
	}
}

func runStoreContract(t *testing.T, store Store) {
	seedRecords(t, store)

	got, err := store.Get("f2")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "not_helpful", got.FeedbackType)

	missing, err := store.Get("nope")
	require.NoError(t, err)
	require.Nil(t, missing)

	all, err := store.List(models.FeedbackFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	require.Equal(t, "f3", all[0].FeedbackID)

	bySession, err := store.List(models.FeedbackFilter{SessionID: "s1"})
	require.NoError(t, err)
	require.Len(t, bySession, 2)

	byType, err := store.List(models.FeedbackFilter{Type: "helpful"})
	require.NoError(t, err)
	require.Len(t, byType, 2)

	paged, err := store.List(models.FeedbackFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	require.Equal(t, "f2", paged[0].FeedbackID)
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	runStoreContract(t, store)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save(&models.FeedbackRecord{
		FeedbackID:   "f1",
		SessionID:    "s1",
		FeedbackType: "helpful",
		CreatedAt:    time.Now(),
	}))

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	got, err := reopened.Get("f1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "s1", got.SessionID)
}
