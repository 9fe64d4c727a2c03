// Package core provides the main mnemo engine: long-term-memory retrieval
// grounding a composed reply, and extraction of new memories from
// conversation history.
package core

import (
	"time"

	"github.com/mnemo-ai/mnemo-go/pkg/storage"
)

// MemoryType classifies a memory by the kind of knowledge it holds.
type MemoryType = storage.MemoryType

// The five permitted memory types.
const (
	TypeEpisodic       = storage.TypeEpisodic
	TypeSemantic       = storage.TypeSemantic
	TypeProcedural     = storage.TypeProcedural
	TypeEmotional      = storage.TypeEmotional
	TypeValuePrinciple = storage.TypeValuePrinciple
)

// Conversation turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Memory represents a single long-term memory owned by one user.
//
// A memory is created by the extraction pipeline (or an external authoring
// path) and is read-only for retrieval; the engine never mutates stored
// memories.
type Memory struct {
	// ID is the unique identifier of the memory.
	ID int64 `json:"id"`

	// UserID identifies the user who owns this memory.
	UserID string `json:"user_id"`

	// Type is the memory type (episodic, semantic, procedural, emotional,
	// value_principle).
	Type MemoryType `json:"memory_type"`

	// Summary is a short, bounded-length description of the memory.
	Summary string `json:"summary"`

	// Content is the full memory text.
	Content string `json:"content"`

	// Embedding is the vector embedding for similarity scoring.
	// Omitted from JSON to reduce payload size.
	Embedding []float64 `json:"embedding,omitempty"`

	// Details contains additional structured information about the memory
	// (session id, extraction timestamp, provenance tag, ...).
	Details map[string]interface{} `json:"details,omitempty"`

	// Confidence is the extraction confidence in [0,1], nil when the memory
	// carries none.
	Confidence *float64 `json:"confidence,omitempty"`

	// CreatedAt is when the memory was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the memory was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationTurn is one immutable turn of a chat conversation.
// Only turns with role "user" feed memory extraction.
type ConversationTurn struct {
	// Role is the speaker role ("user" or "assistant").
	Role string `json:"role"`

	// Content is the turn text.
	Content string `json:"content"`

	// Timestamp is when the turn was produced.
	Timestamp time.Time `json:"timestamp"`
}

// Response is the result of grounding a reply in retrieved memories.
type Response struct {
	// Content is the composed reply text.
	Content string `json:"content"`

	// RelevantMemories are the memories the reply was grounded on, best
	// match first (at most 5, every one scored above the relevance
	// threshold).
	RelevantMemories []*Memory `json:"relevant_memories"`

	// Confidence expresses how well the retrieved memories cover the query,
	// in [0,1] rounded to 3 decimal places.
	Confidence float64 `json:"confidence"`
}
