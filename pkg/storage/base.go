// Package storage provides interfaces and types for memory persistence backends.
//
// It defines the MemoryStore and SessionStore interfaces that all storage
// implementations must satisfy, along with the row-level memory types.
package storage

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"time"
)

// MemoryType classifies a memory by the kind of knowledge it holds.
type MemoryType string

const (
	// TypeEpisodic marks memories of concrete events ("went to Hawaii last week").
	TypeEpisodic MemoryType = "episodic"

	// TypeSemantic marks memories of stable facts and preferences ("likes pizza").
	TypeSemantic MemoryType = "semantic"

	// TypeProcedural marks memories of routines and how-to knowledge.
	TypeProcedural MemoryType = "procedural"

	// TypeEmotional marks memories of expressed feelings.
	TypeEmotional MemoryType = "emotional"

	// TypeValuePrinciple marks memories of beliefs, values, and principles.
	TypeValuePrinciple MemoryType = "value_principle"
)

// AllMemoryTypes lists the five permitted memory types in the fixed
// classification order used by the extraction pipeline: semantic first,
// value_principle last.
var AllMemoryTypes = []MemoryType{
	TypeSemantic,
	TypeEpisodic,
	TypeProcedural,
	TypeEmotional,
	TypeValuePrinciple,
}

// Valid reports whether t is one of the five permitted memory types.
func (t MemoryType) Valid() bool {
	switch t {
	case TypeEpisodic, TypeSemantic, TypeProcedural, TypeEmotional, TypeValuePrinciple:
		return true
	}
	return false
}

// Sentinel errors returned by storage backends.
var (
	// ErrSessionNotFound indicates that a referenced session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrDuplicateFingerprint indicates that an insert collided with the
	// uniqueness constraint on (user_id, memory_type, summary fingerprint).
	ErrDuplicateFingerprint = errors.New("duplicate summary fingerprint")
)

// Memory represents a memory row stored in a backend.
//
// This type is defined in the storage package to avoid circular dependencies
// with the core package. It mirrors the core.Memory structure.
type Memory struct {
	// ID is the unique identifier of the memory.
	ID int64

	// UserID identifies the user who owns this memory.
	UserID string

	// Type is the memory type.
	Type MemoryType

	// Summary is a short bounded-length description of the memory.
	Summary string

	// Content is the full, unbounded memory text.
	Content string

	// Embedding is the vector embedding for similarity scoring.
	Embedding []float64

	// Details contains additional structured information (session id,
	// extraction timestamp, provenance tag, ...).
	Details map[string]interface{}

	// Confidence is the stored extraction confidence in [0,1].
	// Nil means the memory carries no confidence; scoring falls back to 0.5.
	Confidence *float64

	// CreatedAt is when the memory was created.
	CreatedAt time.Time

	// UpdatedAt is when the memory was last updated.
	UpdatedAt time.Time
}

// Session represents a conversation session owned by a user.
//
// Sessions themselves are managed outside this core; the engine only needs
// to resolve a session to its owner for access control.
type Session struct {
	// ID is the unique identifier of the session.
	ID string

	// UserID identifies the user who owns this session.
	UserID string

	// CreatedAt is when the session was created.
	CreatedAt time.Time
}

// QueryOptions contains options for memory query operations.
type QueryOptions struct {
	// UserID filters memories to a specific owner. Required.
	UserID string

	// Type filters memories to a single memory type (empty = all types).
	Type MemoryType

	// Limit sets the maximum number of results to return (0 = no limit).
	Limit int

	// Offset sets the number of results to skip (for pagination).
	Offset int
}

// MemoryStore defines the interface for memory persistence backends.
//
// All backends (SQLite, PostgreSQL, MySQL) must implement this interface.
// Queries return memories ordered by updated_at descending, so a limited
// query yields the most-recently-updated window.
type MemoryStore interface {
	// Insert persists a memory and fills in its generated timestamps.
	//
	// Backends enforce a uniqueness constraint on
	// (user_id, memory_type, summary fingerprint); inserting a memory whose
	// normalized summary collides with an existing row fails with
	// ErrDuplicateFingerprint.
	Insert(ctx context.Context, memory *Memory) error

	// Query retrieves memories matching the options, ordered by
	// updated_at descending.
	Query(ctx context.Context, opts *QueryOptions) ([]*Memory, error)

	// Close closes the store and releases resources.
	Close() error
}

// SessionStore resolves sessions to their owners.
type SessionStore interface {
	// GetSession retrieves a session by ID.
	//
	// Returns ErrSessionNotFound if no such session exists.
	GetSession(ctx context.Context, id string) (*Session, error)

	// CreateSession persists a new session.
	CreateSession(ctx context.Context, session *Session) error

	// Close closes the store and releases resources.
	Close() error
}

// SummaryFingerprint returns the FNV-64a hash of the normalized summary.
//
// Normalization lower-cases the summary and collapses all whitespace runs to
// a single space, so summaries that differ only in casing or spacing map to
// the same fingerprint. Backends use the fingerprint for the uniqueness
// constraint backing duplicate suppression under concurrent extraction.
func SummaryFingerprint(summary string) int64 {
	normalized := strings.Join(strings.Fields(strings.ToLower(summary)), " ")
	h := fnv.New64a()
	_, _ = h.Write([]byte(normalized))
	return int64(h.Sum64())
}
