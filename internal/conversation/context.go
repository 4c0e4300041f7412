package conversation

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EntityType keys the active-entity buckets. The order of AllEntityTypes is
// the priority order used when resolving bare pronouns.
type EntityType string

const (
	EntityItems       EntityType = "items"
	EntityCategories  EntityType = "categories"
	EntityOptions     EntityType = "options"
	EntityOptionItems EntityType = "option_items"
)

var AllEntityTypes = []EntityType{EntityItems, EntityCategories, EntityOptions, EntityOptionItems}

// Entity is one concrete thing a turn talked about.
type Entity struct {
	Type EntityType `json:"type"`
	Name string     `json:"name"`
	ID   string     `json:"id,omitempty"`
}

// TimeRange holds inclusive YYYY-MM-DD bounds.
type TimeRange struct {
	Start string `json:"start_date"`
	End   string `json:"end_date"`
}

// Validate enforces the date contract: parseable bounds, start not after
// end, and a single-sided range mirrored to both bounds.
func (t *TimeRange) Validate() error {
	if t.Start == "" && t.End == "" {
		return fmt.Errorf("empty time range")
	}
	if t.Start == "" {
		t.Start = t.End
	}
	if t.End == "" {
		t.End = t.Start
	}

	start, err := time.Parse("2006-01-02", t.Start)
	if err != nil {
		return fmt.Errorf("invalid start date %q: %w", t.Start, err)
	}
	end, err := time.Parse("2006-01-02", t.End)
	if err != nil {
		return fmt.Errorf("invalid end date %q: %w", t.End, err)
	}
	if start.After(end) {
		return fmt.Errorf("start date %s after end date %s", t.Start, t.End)
	}
	return nil
}

// ClarificationPhase tracks the disambiguation state machine.
type ClarificationPhase string

const (
	ClarificationAwaiting  ClarificationPhase = "awaiting_clarification"
	ClarificationCorrected ClarificationPhase = "corrected"
	ClarificationResolved  ClarificationPhase = "resolved"
)

// ClarificationState is set while the engine waits for the user to
// disambiguate; it must be consumed or cleared before an unrelated query is
// treated as fresh.
type ClarificationState struct {
	Phase         ClarificationPhase     `json:"phase"`
	Question      string                 `json:"question"`
	TargetQueryID string                 `json:"target_query_id,omitempty"`
	Pending       map[string]interface{} `json:"pending,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// Turn is one entry in the append-only conversation history.
type Turn struct {
	QueryID    string                 `json:"query_id"`
	Role       string                 `json:"role"`
	Text       string                 `json:"text"`
	QueryType  string                 `json:"query_type,omitempty"`
	IntentType string                 `json:"intent_type,omitempty"`
	SQL        string                 `json:"sql,omitempty"`
	Filters    map[string]interface{} `json:"filters,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// Context is the per-session mutable state. It is owned by exactly one
// session; callers must not dispatch two requests for the same session
// concurrently without external serialization.
type Context struct {
	SessionID      string
	UserID         string
	ActiveEntities map[EntityType][]Entity
	Filters        map[string]interface{}
	TimeRange      *TimeRange
	Clarification  *ClarificationState
	History        []Turn
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func newContext(sessionID, userID string) *Context {
	now := time.Now()
	return &Context{
		SessionID:      sessionID,
		UserID:         userID,
		ActiveEntities: make(map[EntityType][]Entity),
		Filters:        make(map[string]interface{}),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// AppendTurn adds to the history; history is never truncated or reordered.
func (c *Context) AppendTurn(turn Turn) {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}
	c.History = append(c.History, turn)
	c.UpdatedAt = time.Now()
}

// MergeEntities records newly mentioned entities, most recent last.
func (c *Context) MergeEntities(entities []Entity) {
	for _, e := range entities {
		bucket := c.ActiveEntities[e.Type]
		replaced := false
		for i, existing := range bucket {
			if existing.Name == e.Name {
				// Re-mention moves the entity to most-recent position.
				bucket = append(append(bucket[:i], bucket[i+1:]...), e)
				replaced = true
				break
			}
		}
		if !replaced {
			bucket = append(bucket, e)
		}
		c.ActiveEntities[e.Type] = bucket
	}
	c.UpdatedAt = time.Now()
}

// MergeFilters overlays new filters onto the session's filter set.
func (c *Context) MergeFilters(filters map[string]interface{}) {
	for k, v := range filters {
		c.Filters[k] = v
	}
	c.UpdatedAt = time.Now()
}

func (c *Context) SetTimeRange(tr *TimeRange) {
	c.TimeRange = tr
	c.UpdatedAt = time.Now()
}

// SetClarification enters the awaiting phase.
func (c *Context) SetClarification(question, targetQueryID string, pending map[string]interface{}) {
	c.Clarification = &ClarificationState{
		Phase:         ClarificationAwaiting,
		Question:      question,
		TargetQueryID: targetQueryID,
		Pending:       pending,
		CreatedAt:     time.Now(),
	}
	c.UpdatedAt = time.Now()
}

// MarkCorrected transitions awaiting -> corrected; returns false when there
// is no clarification in flight.
func (c *Context) MarkCorrected() bool {
	if c.Clarification == nil || c.Clarification.Phase != ClarificationAwaiting {
		return false
	}
	c.Clarification.Phase = ClarificationCorrected
	c.UpdatedAt = time.Now()
	return true
}

// ResolveClarification ends the state machine and clears the state.
func (c *Context) ResolveClarification() {
	if c.Clarification != nil {
		c.Clarification.Phase = ClarificationResolved
	}
	c.Clarification = nil
	c.UpdatedAt = time.Now()
}

// AwaitingClarification reports whether a disambiguation is in flight.
func (c *Context) AwaitingClarification() bool {
	return c.Clarification != nil && c.Clarification.Phase == ClarificationAwaiting
}

// LastUserTurn returns the most recent user entry, or nil.
func (c *Context) LastUserTurn() *Turn {
	for i := len(c.History) - 1; i >= 0; i-- {
		if c.History[i].Role == "user" {
			return &c.History[i]
		}
	}
	return nil
}

// PreviousUserTurn returns the second-most-recent user entry, used as the
// positional fallback when a correction carries no explicit query id.
func (c *Context) PreviousUserTurn() *Turn {
	seen := 0
	for i := len(c.History) - 1; i >= 0; i-- {
		if c.History[i].Role == "user" {
			seen++
			if seen == 2 {
				return &c.History[i]
			}
		}
	}
	return nil
}

// TurnByQueryID finds a user turn by its query id.
func (c *Context) TurnByQueryID(queryID string) *Turn {
	for i := len(c.History) - 1; i >= 0; i-- {
		if c.History[i].QueryID == queryID && c.History[i].Role == "user" {
			return &c.History[i]
		}
	}
	return nil
}

// Manager owns one Context per session.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Context
	logger   *zap.Logger
}

func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Context),
		logger:   logger,
	}
}

// GetOrCreate returns the session's context, creating it on first use.
func (m *Manager) GetOrCreate(sessionID, userID string) *Context {
	m.mu.RLock()
	ctx, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if ok {
		return ctx
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ctx, ok = m.sessions[sessionID]; ok {
		return ctx
	}

	ctx = newContext(sessionID, userID)
	m.sessions[sessionID] = ctx
	m.logger.Debug("conversation context created", zap.String("session_id", sessionID))
	return ctx
}

// Drop removes a session's context.
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// SessionCount reports how many sessions are live.
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
