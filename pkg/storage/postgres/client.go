// Package postgres provides the PostgreSQL implementation of the memory and
// session stores.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/mnemo-ai/mnemo-go/pkg/storage"
)

// uniqueViolation is the PostgreSQL error code for unique constraint
// violations.
const uniqueViolation = "23505"

// Client implements storage.MemoryStore and storage.SessionStore using
// PostgreSQL as the backend.
type Client struct {
	db        *sql.DB
	tableName string
}

// Config contains PostgreSQL configuration.
type Config struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	TableName string
	SSLMode   string
}

// NewClient creates a new PostgreSQL client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.TableName == "" {
		cfg.TableName = "memories"
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
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

// initTables initializes the table structure.
func (c *Client) initTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGINT PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			memory_type VARCHAR(32) NOT NULL,
			summary TEXT NOT NULL,
			content TEXT NOT NULL,
			embedding JSONB NOT NULL,
			details JSONB,
			confidence DOUBLE PRECISION,
			summary_hash BIGINT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, c.tableName)
	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("initTables: create table: %w", err)
	}

	indexQuery := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS idx_%s_user_type ON %s(user_id, memory_type, updated_at)
	`, c.tableName, c.tableName)
	if _, err := c.db.ExecContext(ctx, indexQuery); err != nil {
		return fmt.Errorf("initTables: create index: %w", err)
	}

	uniqueQuery := fmt.Sprintf(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_fingerprint
		ON %s(user_id, memory_type, summary_hash)
	`, c.tableName, c.tableName)
	if _, err := c.db.ExecContext(ctx, uniqueQuery); err != nil {
		return fmt.Errorf("initTables: create unique index: %w", err)
	}

	sessionsQuery := `
		CREATE TABLE IF NOT EXISTS sessions (
			id VARCHAR(255) PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := c.db.ExecContext(ctx, sessionsQuery); err != nil {
		return fmt.Errorf("initTables: create sessions: %w", err)
	}

	return nil
}

// Insert persists a memory and fills in its timestamps.
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
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
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
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
	whereClause := "WHERE user_id = $1"
	args := []interface{}{opts.UserID}

	if opts.Type != "" {
		whereClause += fmt.Sprintf(" AND memory_type = $%d", len(args)+1)
		args = append(args, string(opts.Type))
	}

	// LIMIT NULL means no limit in PostgreSQL.
	var limit interface{} = opts.Limit
	if opts.Limit <= 0 {
		limit = nil
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, memory_type, summary, content, embedding, details,
		       confidence, created_at, updated_at
		FROM %s
		%s
		ORDER BY updated_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, c.tableName, whereClause, len(args)+1, len(args)+2)
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
		"SELECT id, user_id, created_at FROM sessions WHERE id = $1", id,
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
		"INSERT INTO sessions (id, user_id, created_at) VALUES ($1, $2, $3)",
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
