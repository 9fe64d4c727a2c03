// Package sqlite provides the SQLite implementation of the memory and
// session stores.
//
// SQLite is a lightweight, file-based database suitable for local
// development and single-node deployments. Embeddings and details are stored
// as JSON strings in TEXT columns.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mnemo-ai/mnemo-go/pkg/storage"
)

// Client implements storage.MemoryStore and storage.SessionStore using
// SQLite as the backend.
type Client struct {
	// db is the SQLite database connection.
	db *sql.DB

	// tableName is the name of the table storing memories.
	tableName string
}

// Config contains configuration for creating a SQLite client.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// TableName is the name of the memories table (default: "memories").
	TableName string
}

// NewClient creates a new SQLite client.
//
// Parameters:
//   - cfg: Configuration containing the database path and table name
//
// Returns:
//   - *Client: The SQLite client instance
//   - error: Error if database connection or table creation fails
func NewClient(cfg *Config) (*Client, error) {
	if cfg.TableName == "" {
		cfg.TableName = "memories"
	}

	// Create parent directory if it doesn't exist
	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("NewSQLiteClient: failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	client := &Client{
		db:        db,
		tableName: cfg.TableName,
	}

	if err := client.initTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return client, nil
}

// initTables initializes the database table structure.
func (c *Client) initTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY,
			user_id TEXT NOT NULL,
			memory_type TEXT NOT NULL,
			summary TEXT NOT NULL,
			content TEXT NOT NULL,
			embedding TEXT NOT NULL,
			details TEXT,
			confidence REAL,
			summary_hash INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`, c.tableName)

	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	indexQuery := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS idx_%s_user_type ON %s(user_id, memory_type, updated_at)
	`, c.tableName, c.tableName)
	if _, err := c.db.ExecContext(ctx, indexQuery); err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	// The uniqueness backstop for concurrent extraction: a second insert of
	// the same normalized summary for the same owner and type must fail.
	uniqueQuery := fmt.Sprintf(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_fingerprint
		ON %s(user_id, memory_type, summary_hash)
	`, c.tableName, c.tableName)
	if _, err := c.db.ExecContext(ctx, uniqueQuery); err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	sessionsQuery := `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := c.db.ExecContext(ctx, sessionsQuery); err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	return nil
}

// Insert persists a memory and fills in its timestamps.
//
// Returns storage.ErrDuplicateFingerprint when the normalized summary
// collides with an existing memory of the same owner and type.
func (c *Client) Insert(ctx context.Context, memory *storage.Memory) error {
	embeddingJSON, err := json.Marshal(memory.Embedding)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}

	detailsJSON, err := json.Marshal(memory.Details)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}

	now := time.Now().UTC()
	query := fmt.Sprintf(`
		INSERT INTO %s
		(id, user_id, memory_type, summary, content, embedding, details, confidence, summary_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.tableName)

	_, err = c.db.ExecContext(ctx, query,
		memory.ID,
		memory.UserID,
		string(memory.Type),
		memory.Summary,
		memory.Content,
		string(embeddingJSON),
		string(detailsJSON),
		nullFloat(memory.Confidence),
		storage.SummaryFingerprint(memory.Summary),
		now,
		now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("Insert: %w", storage.ErrDuplicateFingerprint)
		}
		return fmt.Errorf("Insert: %w", err)
	}

	memory.CreatedAt = now
	memory.UpdatedAt = now
	return nil
}

// Query retrieves memories ordered by updated_at descending.
func (c *Client) Query(ctx context.Context, opts *storage.QueryOptions) ([]*storage.Memory, error) {
	whereClause := "WHERE user_id = ?"
	args := []interface{}{opts.UserID}

	if opts.Type != "" {
		whereClause += " AND memory_type = ?"
		args = append(args, string(opts.Type))
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, memory_type, summary, content, embedding, details,
		       confidence, created_at, updated_at
		FROM %s
		%s
		ORDER BY updated_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, c.tableName, whereClause)
	args = append(args, limit, opts.Offset)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var memories []*storage.Memory
	for rows.Next() {
		memory, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("Query: %w", err)
		}
		memories = append(memories, memory)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Query: %w", err)
	}

	return memories, nil
}

// GetSession retrieves a session by ID.
func (c *Client) GetSession(ctx context.Context, id string) (*storage.Session, error) {
	var session storage.Session
	err := c.db.QueryRowContext(ctx,
		"SELECT id, user_id, created_at FROM sessions WHERE id = ?", id,
	).Scan(&session.ID, &session.UserID, &session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetSession: %w", err)
	}
	return &session, nil
}

// CreateSession persists a new session.
func (c *Client) CreateSession(ctx context.Context, session *storage.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	_, err := c.db.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, created_at) VALUES (?, ?, ?)",
		session.ID, session.UserID, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("CreateSession: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// scanMemory scans a memory from a result row.
func scanMemory(rows *sql.Rows) (*storage.Memory, error) {
	var memory storage.Memory
	var memType string
	var embeddingStr string
	var detailsStr sql.NullString
	var confidence sql.NullFloat64

	err := rows.Scan(
		&memory.ID,
		&memory.UserID,
		&memType,
		&memory.Summary,
		&memory.Content,
		&embeddingStr,
		&detailsStr,
		&confidence,
		&memory.CreatedAt,
		&memory.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	memory.Type = storage.MemoryType(memType)

	if err := json.Unmarshal([]byte(embeddingStr), &memory.Embedding); err != nil {
		return nil, fmt.Errorf("parse embedding: %w", err)
	}

	if detailsStr.Valid && detailsStr.String != "" && detailsStr.String != "null" {
		if err := json.Unmarshal([]byte(detailsStr.String), &memory.Details); err != nil {
			return nil, fmt.Errorf("parse details: %w", err)
		}
	}

	if confidence.Valid {
		memory.Confidence = &confidence.Float64
	}

	return &memory, nil
}

// nullFloat converts an optional confidence into a driver-friendly value.
func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
