package sqlite

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/resto-agent/backend/internal/storage/models"
)

func testClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(t.TempDir()+"/test.db", zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	if err := client.InitSchema(); err != nil {
		t.Fatalf("InitSchema: %v", err)
	}
	return client
}

func TestQueryRecordRoundTrip(t *testing.T) {
	client := testClient(t)

	records := []models.QueryRecord{
		{ID: "q1", SessionID: "s1", QueryText: "first", QueryType: "data_query", ResponseType: "data", CreatedAt: time.Now().Add(-time.Minute)},
		{ID: "q2", SessionID: "s1", QueryText: "second", QueryType: "data_query", ResponseType: "empty", CreatedAt: time.Now()},
		{ID: "q3", SessionID: "s2", QueryText: "other session", QueryType: "action_request", ResponseType: "action", CreatedAt: time.Now()},
	}
	for i := range records {
		if err := client.InsertQueryRecord(&records[i]); err != nil {
			t.Fatalf("InsertQueryRecord: %v", err)
		}
	}

	history, err := client.GetQueryHistory("s1", 10)
	if err != nil {
		t.Fatalf("GetQueryHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d", len(history))
	}
	// Newest first.
	if history[0].ID != "q2" || history[1].ID != "q1" {
		t.Errorf("order = %s, %s", history[0].ID, history[1].ID)
	}

	limited, err := client.GetQueryHistory("s1", 1)
	if err != nil {
		t.Fatalf("GetQueryHistory: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "q2" {
		t.Errorf("limited = %+v", limited)
	}
}

func TestStoredResponseRoundTrip(t *testing.T) {
	client := testClient(t)

	stored := &models.StoredResponse{
		ResponseID:   "r1",
		QueryID:      "q1",
		SessionID:    "s1",
		QueryText:    "how many orders",
		IntentType:   "order_count",
		ResponseText: "I found 12 orders.",
		CreatedAt:    time.Now(),
	}
	if err := client.InsertStoredResponse(stored); err != nil {
		t.Fatalf("InsertStoredResponse: %v", err)
	}

	got, err := client.GetStoredResponse("r1")
	if err != nil {
		t.Fatalf("GetStoredResponse: %v", err)
	}
	if got == nil || got.QueryText != "how many orders" || got.IntentType != "order_count" {
		t.Errorf("got = %+v", got)
	}

	missing, err := client.GetStoredResponse("unknown")
	if err != nil {
		t.Fatalf("GetStoredResponse(unknown): %v", err)
	}
	if missing != nil {
		t.Errorf("missing = %+v", missing)
	}
}

func TestFeedbackRoundTrip(t *testing.T) {
	client := testClient(t)

	rating := 4
	record := &models.FeedbackRecord{
		FeedbackID:    "f1",
		SessionID:     "s1",
		QueryID:       "q1",
		FeedbackType:  "rating",
		Rating:        &rating,
		IssueCategory: "",
		Comment:       "close enough",
		Metadata:      map[string]interface{}{"client": "web"},
		CreatedAt:     time.Now(),
	}
	if err := client.InsertFeedback(record); err != nil {
		t.Fatalf("InsertFeedback: %v", err)
	}

	got, err := client.GetFeedback("f1")
	if err != nil {
		t.Fatalf("GetFeedback: %v", err)
	}
	if got == nil || got.Rating == nil || *got.Rating != 4 {
		t.Fatalf("got = %+v", got)
	}
	if got.Metadata["client"] != "web" {
		t.Errorf("metadata = %v", got.Metadata)
	}

	listed, err := client.ListFeedback(models.FeedbackFilter{SessionID: "s1"})
	if err != nil {
		t.Fatalf("ListFeedback: %v", err)
	}
	if len(listed) != 1 || listed[0].FeedbackID != "f1" {
		t.Errorf("listed = %+v", listed)
	}

	empty, err := client.ListFeedback(models.FeedbackFilter{SessionID: "other"})
	if err != nil {
		t.Fatalf("ListFeedback(other): %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("empty = %+v", empty)
	}
}

func TestGetMenuItemNames(t *testing.T) {
	client := testClient(t)

	seed := []string{
		`INSERT INTO menu_items (name, price, active) VALUES ('Cheeseburger', 8.99, 1)`,
		`INSERT INTO menu_items (name, price, active) VALUES ('Caesar Salad', 6.50, 1)`,
		`INSERT INTO menu_items (name, price, active) VALUES ('Old Special', 4.00, 0)`,
	}
	for _, stmt := range seed {
		if _, err := client.DB().Exec(stmt); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	names, err := client.GetMenuItemNames(context.Background())
	if err != nil {
		t.Fatalf("GetMenuItemNames: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("names = %v, inactive items must be excluded", names)
	}
}

func TestGetMenuItemByName(t *testing.T) {
	client := testClient(t)

	seed := []string{
		`INSERT INTO categories (name) VALUES ('Burgers')`,
		`INSERT INTO menu_items (name, category_id, price, active) VALUES ('Cheeseburger', 1, 8.99, 1)`,
	}
	for _, stmt := range seed {
		if _, err := client.DB().Exec(stmt); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	item, err := client.GetMenuItemByName(context.Background(), "Cheeseburger")
	if err != nil {
		t.Fatalf("GetMenuItemByName: %v", err)
	}
	if item == nil {
		t.Fatal("item not found")
	}
	if item.Category != "Burgers" || item.Price != 8.99 || !item.Active {
		t.Errorf("item = %+v", item)
	}

	item, err = client.GetMenuItemByName(context.Background(), "Unicorn Steak")
	if err != nil {
		t.Fatalf("GetMenuItemByName: %v", err)
	}
	if item != nil {
		t.Errorf("unknown name returned %+v, want nil", item)
	}
}
