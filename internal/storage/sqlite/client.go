package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/resto-agent/backend/internal/storage/models"
)

type Client struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewClient(dbPath string, logger *zap.Logger) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err = db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err = db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db, logger: logger}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

// DB exposes the handle for the data access layer's read path.
func (c *Client) DB() *sql.DB {
	return c.db
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		active INTEGER DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS menu_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		category_id INTEGER,
		price REAL NOT NULL DEFAULT 0,
		active INTEGER DEFAULT 1,
		FOREIGN KEY (category_id) REFERENCES categories(id)
	);
	CREATE INDEX IF NOT EXISTS idx_items_category ON menu_items(category_id);
	CREATE INDEX IF NOT EXISTS idx_items_name ON menu_items(name);

	CREATE TABLE IF NOT EXISTS options (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		FOREIGN KEY (item_id) REFERENCES menu_items(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS option_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		option_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		price_delta REAL DEFAULT 0,
		FOREIGN KEY (option_id) REFERENCES options(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		status TEXT NOT NULL,
		total REAL NOT NULL DEFAULT 0,
		location_id INTEGER,
		created_at INTEGER NOT NULL,
		completed_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
	CREATE INDEX IF NOT EXISTS idx_orders_created ON orders(created_at);

	CREATE TABLE IF NOT EXISTS order_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id INTEGER NOT NULL,
		item_id INTEGER NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 1,
		unit_price REAL NOT NULL,
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
		FOREIGN KEY (item_id) REFERENCES menu_items(id)
	);
	CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);

	CREATE TABLE IF NOT EXISTS query_history (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		user_id TEXT,
		query_text TEXT NOT NULL,
		query_type TEXT,
		intent_type TEXT,
		response_id TEXT,
		response_type TEXT,
		response_text TEXT,
		confidence REAL,
		row_count INTEGER,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_query_session ON query_history(session_id);
	CREATE INDEX IF NOT EXISTS idx_query_created ON query_history(created_at);

	CREATE TABLE IF NOT EXISTS stored_responses (
		response_id TEXT PRIMARY KEY,
		query_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		query_text TEXT,
		intent_type TEXT,
		response_text TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_responses_session ON stored_responses(session_id);

	CREATE TABLE IF NOT EXISTS feedback (
		feedback_id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		query_id TEXT,
		query_text TEXT,
		response_id TEXT,
		feedback_type TEXT NOT NULL,
		rating INTEGER,
		issue_category TEXT,
		comment TEXT,
		original_intent TEXT,
		metadata TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_session ON feedback(session_id);
	CREATE INDEX IF NOT EXISTS idx_feedback_created ON feedback(created_at);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	c.logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertQueryRecord(record *models.QueryRecord) error {
	query := `
		INSERT INTO query_history (id, session_id, user_id, query_text, query_type, intent_type,
			response_id, response_type, response_text, confidence, row_count, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		record.ID,
		record.SessionID,
		record.UserID,
		record.QueryText,
		record.QueryType,
		record.IntentType,
		record.ResponseID,
		record.ResponseType,
		record.ResponseText,
		record.Confidence,
		record.RowCount,
		record.LatencyMS,
		record.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert query record: %w", err)
	}

	c.logger.Debug("query recorded",
		zap.String("query_id", record.ID),
		zap.String("session_id", record.SessionID),
		zap.String("response_type", record.ResponseType))

	return nil
}

func (c *Client) GetQueryHistory(sessionID string, limit int) ([]models.QueryRecord, error) {
	query := `
		SELECT id, query_text, query_type, intent_type, response_id, response_type,
			response_text, confidence, row_count, latency_ms, created_at
		FROM query_history
		WHERE session_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get query history: %w", err)
	}
	defer rows.Close()

	var records []models.QueryRecord
	for rows.Next() {
		var r models.QueryRecord
		var createdAt int64

		err := rows.Scan(&r.ID, &r.QueryText, &r.QueryType, &r.IntentType, &r.ResponseID,
			&r.ResponseType, &r.ResponseText, &r.Confidence, &r.RowCount, &r.LatencyMS, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.SessionID = sessionID
		r.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, r)
	}

	return records, rows.Err()
}

func (c *Client) InsertStoredResponse(resp *models.StoredResponse) error {
	query := `
		INSERT OR REPLACE INTO stored_responses
			(response_id, query_id, session_id, query_text, intent_type, response_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		resp.ResponseID,
		resp.QueryID,
		resp.SessionID,
		resp.QueryText,
		resp.IntentType,
		resp.ResponseText,
		resp.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert stored response: %w", err)
	}
	return nil
}

func (c *Client) GetStoredResponse(responseID string) (*models.StoredResponse, error) {
	query := `
		SELECT response_id, query_id, session_id, query_text, intent_type, response_text, created_at
		FROM stored_responses WHERE response_id = ?
	`

	var resp models.StoredResponse
	var createdAt int64

	err := c.db.QueryRow(query, responseID).Scan(
		&resp.ResponseID, &resp.QueryID, &resp.SessionID,
		&resp.QueryText, &resp.IntentType, &resp.ResponseText, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stored response: %w", err)
	}

	resp.CreatedAt = time.Unix(createdAt, 0)
	return &resp, nil
}

func (c *Client) InsertFeedback(record *models.FeedbackRecord) error {
	metadataJSON, _ := json.Marshal(record.Metadata)

	query := `
		INSERT INTO feedback (feedback_id, session_id, query_id, query_text, response_id,
			feedback_type, rating, issue_category, comment, original_intent, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		record.FeedbackID,
		record.SessionID,
		record.QueryID,
		record.QueryText,
		record.ResponseID,
		record.FeedbackType,
		record.Rating,
		record.IssueCategory,
		record.Comment,
		record.OriginalIntent,
		string(metadataJSON),
		record.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}

	c.logger.Info("feedback stored",
		zap.String("feedback_id", record.FeedbackID),
		zap.String("feedback_type", record.FeedbackType))

	return nil
}

func (c *Client) GetFeedback(feedbackID string) (*models.FeedbackRecord, error) {
	query := `
		SELECT feedback_id, session_id, query_id, query_text, response_id, feedback_type,
			rating, issue_category, comment, original_intent, metadata, created_at
		FROM feedback WHERE feedback_id = ?
	`

	row := c.db.QueryRow(query, feedbackID)
	record, err := scanFeedback(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}
	return record, nil
}

func (c *Client) ListFeedback(filter models.FeedbackFilter) ([]models.FeedbackRecord, error) {
	query := `
		SELECT feedback_id, session_id, query_id, query_text, response_id, feedback_type,
			rating, issue_category, comment, original_intent, metadata, created_at
		FROM feedback WHERE 1=1
	`
	args := []interface{}{}

	if filter.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, filter.SessionID)
	}
	if filter.QueryID != "" {
		query += " AND query_id = ?"
		args = append(args, filter.QueryID)
	}
	if filter.Type != "" {
		query += " AND feedback_type = ?"
		args = append(args, filter.Type)
	}
	if filter.Since != nil {
		query += " AND created_at >= ?"
		args = append(args, filter.Since.Unix())
	}
	if filter.Until != nil {
		query += " AND created_at <= ?"
		args = append(args, filter.Until.Unix())
	}

	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var records []models.FeedbackRecord
	for rows.Next() {
		record, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback row: %w", err)
		}
		records = append(records, *record)
	}

	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFeedback(row rowScanner) (*models.FeedbackRecord, error) {
	var r models.FeedbackRecord
	var rating sql.NullInt64
	var metadataJSON string
	var createdAt int64

	err := row.Scan(&r.FeedbackID, &r.SessionID, &r.QueryID, &r.QueryText, &r.ResponseID,
		&r.FeedbackType, &rating, &r.IssueCategory, &r.Comment, &r.OriginalIntent,
		&metadataJSON, &createdAt)
	if err != nil {
		return nil, err
	}

	if rating.Valid {
		v := int(rating.Int64)
		r.Rating = &v
	}
	if metadataJSON != "" && metadataJSON != "null" {
		json.Unmarshal([]byte(metadataJSON), &r.Metadata)
	}
	r.CreatedAt = time.Unix(createdAt, 0)

	return &r, nil
}

// GetMenuItemByName returns the item with the given exact name, or nil when
// no such item exists.
func (c *Client) GetMenuItemByName(ctx context.Context, name string) (*models.MenuItem, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT mi.id, mi.name, COALESCE(cat.name, ''), mi.price, mi.active
		FROM menu_items mi
		LEFT JOIN categories cat ON cat.id = mi.category_id
		WHERE mi.name = ?`, name)

	var item models.MenuItem
	var active int
	if err := row.Scan(&item.ID, &item.Name, &item.Category, &item.Price, &active); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get menu item: %w", err)
	}
	item.Active = active == 1

	return &item, nil
}

func (c *Client) GetMenuItemNames(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT name FROM menu_items WHERE active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to get menu item names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}
