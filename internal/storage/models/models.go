package models

import "time"

// QueryRecord is the persisted trace of a processed turn.
type QueryRecord struct {
	ID           string
	SessionID    string
	UserID       string
	QueryText    string
	QueryType    string
	IntentType   string
	ResponseID   string
	ResponseType string
	ResponseText string
	Confidence   float64
	RowCount     int
	LatencyMS    int
	CreatedAt    time.Time
}

// StoredResponse correlates a response_id back to the turn that produced it
// so later feedback can reference the original query.
type StoredResponse struct {
	ResponseID   string
	QueryID      string
	SessionID    string
	QueryText    string
	IntentType   string
	ResponseText string
	CreatedAt    time.Time
}

// FeedbackRecord is immutable once stored.
type FeedbackRecord struct {
	FeedbackID     string                 `json:"feedback_id"`
	SessionID      string                 `json:"session_id"`
	QueryID        string                 `json:"query_id"`
	QueryText      string                 `json:"query_text"`
	ResponseID     string                 `json:"response_id,omitempty"`
	FeedbackType   string                 `json:"feedback_type"`
	Rating         *int                   `json:"rating,omitempty"`
	IssueCategory  string                 `json:"issue_category,omitempty"`
	Comment        string                 `json:"comment,omitempty"`
	OriginalIntent string                 `json:"original_intent,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

// FeedbackFilter narrows feedback listings.
type FeedbackFilter struct {
	SessionID string
	QueryID   string
	Type      string
	Since     *time.Time
	Until     *time.Time
	Limit     int
	Offset    int
}

// FeedbackStats is an aggregate snapshot recomputed on demand.
type FeedbackStats struct {
	TotalCount        int            `json:"total_count"`
	HelpfulCount      int            `json:"helpful_count"`
	NotHelpfulCount   int            `json:"not_helpful_count"`
	AverageRating     float64        `json:"average_rating"`
	IssueDistribution map[string]int `json:"issue_distribution"`
	TopQueryIntents   map[string]int `json:"top_query_intents"`
	ComputedAt        time.Time      `json:"computed_at"`
}

// MenuItem is a restaurant menu row used by approximate name lookups.
type MenuItem struct {
	ID       int64
	Name     string
	Category string
	Price    float64
	Active   bool
}
