package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/mnemo-ai/mnemo-go/pkg/embedder"
	"github.com/mnemo-ai/mnemo-go/pkg/storage"
)

// Conversation turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// provenanceTag marks memories created by pattern-match extraction.
const provenanceTag = "pattern_match"

// Turn is one immutable conversation turn. Only user turns feed extraction.
type Turn struct {
	// Role is the speaker role ("user" or "assistant").
	Role string

	// Content is the turn text.
	Content string

	// Timestamp is when the turn was produced.
	Timestamp time.Time
}

// Pipeline orchestrates extraction: segment and classify user turns,
// suppress near-duplicates, embed survivors, and persist them.
type Pipeline struct {
	store     storage.MemoryStore
	embedder  embedder.Provider
	extractor *Extractor
	dedup     *Deduplicator
	cfg       Config
	node      *snowflake.Node
	locks     *keyedMutex
	log       zerolog.Logger
}

// NewPipeline creates an extraction pipeline.
//
// A nil pattern table selects the built-in defaults; zero-valued config
// fields fall back to theirs. The snowflake node generates memory IDs.
func NewPipeline(store storage.MemoryStore, provider embedder.Provider, table *PatternTable, cfg Config, node *snowflake.Node, log zerolog.Logger) *Pipeline {
	cfg = cfg.applyDefaults()
	return &Pipeline{
		store:     store,
		embedder:  provider,
		extractor: NewExtractor(NewClassifier(table), cfg),
		dedup:     NewDeduplicator(cfg.DuplicateThreshold),
		cfg:       cfg,
		node:      node,
		locks:     newKeyedMutex(),
		log:       log,
	}
}

// Process extracts and persists new memories from a conversation.
//
// Steps:
//  1. Keep only user turns; no user turns means nothing to extract.
//  2. Concatenate the user-turn text into one context string.
//  3. Extract candidates across all five memory types.
//  4. Per candidate: fetch existing memories of the same owner and type,
//     skip near-duplicates, embed the full text, and insert a new memory
//     with session id, extraction timestamp, and provenance details.
//
// Calls are serialized per (owner, session) so concurrent processing of the
// same conversation cannot double-insert; a fingerprint conflict raised by
// the store is treated as "already extracted" and skipped, never surfaced.
//
// Returns the newly persisted memories, oldest-extracted first.
func (p *Pipeline) Process(ctx context.Context, userID, sessionID string, turns []Turn) ([]*storage.Memory, error) {
	userTurns := lo.Filter(turns, func(t Turn, _ int) bool {
		return t.Role == RoleUser
	})
	if len(userTurns) == 0 {
		return nil, nil
	}

	key := userID + "/" + sessionID
	p.locks.lock(key)
	defer p.locks.unlock(key)

	text := strings.Join(lo.Map(userTurns, func(t Turn, _ int) string {
		return t.Content
	}), " ")

	candidates := p.extractor.Extract(text)

	var created []*storage.Memory
	for _, candidate := range candidates {
		existing, err := p.store.Query(ctx, &storage.QueryOptions{
			UserID: userID,
			Type:   candidate.Type,
			Limit:  p.cfg.DedupFetchLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("Process: %w", err)
		}

		if p.dedup.IsDuplicate(candidate, existing) {
			p.log.Debug().
				Str("user_id", userID).
				Str("type", string(candidate.Type)).
				Str("summary", candidate.Summary).
				Msg("duplicate candidate skipped")
			continue
		}

		vector, err := p.embedder.Embed(ctx, candidate.Content)
		if err != nil {
			return nil, fmt.Errorf("Process: %w", err)
		}

		confidence := candidate.Confidence
		memory := &storage.Memory{
			ID:        p.node.Generate().Int64(),
			UserID:    userID,
			Type:      candidate.Type,
			Summary:   candidate.Summary,
			Content:   candidate.Content,
			Embedding: vector,
			Details: map[string]interface{}{
				"session_id":   sessionID,
				"extracted_at": time.Now().UTC().Format(time.RFC3339),
				"provenance":   provenanceTag,
			},
			Confidence: &confidence,
		}

		if err := p.store.Insert(ctx, memory); err != nil {
			if errors.Is(err, storage.ErrDuplicateFingerprint) {
				// Lost a race with a concurrent extraction; same outcome as
				// the Jaccard check.
				continue
			}
			return nil, fmt.Errorf("Process: %w", err)
		}

		created = append(created, memory)
	}

	p.log.Info().
		Str("user_id", userID).
		Str("session_id", sessionID).
		Int("candidates", len(candidates)).
		Int("created", len(created)).
		Msg("extraction complete")

	return created, nil
}
