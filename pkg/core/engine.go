package core

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"

	"github.com/mnemo-ai/mnemo-go/pkg/embedder"
	hashEmbedder "github.com/mnemo-ai/mnemo-go/pkg/embedder/hash"
	openaiEmbedder "github.com/mnemo-ai/mnemo-go/pkg/embedder/openai"
	"github.com/mnemo-ai/mnemo-go/pkg/extraction"
	"github.com/mnemo-ai/mnemo-go/pkg/logger"
	"github.com/mnemo-ai/mnemo-go/pkg/retrieval"
	"github.com/mnemo-ai/mnemo-go/pkg/storage"
	mysqlStore "github.com/mnemo-ai/mnemo-go/pkg/storage/mysql"
	postgresStore "github.com/mnemo-ai/mnemo-go/pkg/storage/postgres"
	sqliteStore "github.com/mnemo-ai/mnemo-go/pkg/storage/sqlite"
)

// recentContextWindow is how many trailing history turns feed the
// context-overlap signal of relevance scoring.
const recentContextWindow = 5

// Engine is the long-term-memory engine.
//
// It exposes the two entry points called by the surrounding transport layer:
//   - GenerateResponse: retrieve and rank memories relevant to a message and
//     compose a grounded reply. Pure read + compute.
//   - ProcessConversation: extract, deduplicate, and persist new memories
//     from a conversation's user turns.
//
// Retrieval is side-effect-free and may be invoked concurrently without
// coordination; extraction serializes itself per (owner, session).
//
// Example:
//
//	config, _ := core.LoadConfigFromEnv()
//	engine, _ := core.NewEngine(config)
//	defer engine.Close()
//
//	resp, _ := engine.GenerateResponse(ctx, "user_001", "session_001",
//	    "What food do I like?", history)
type Engine struct {
	// config contains the engine configuration.
	config *Config

	// store is the memory persistence backend.
	store storage.MemoryStore

	// sessions resolves sessions to their owners for access control.
	sessions storage.SessionStore

	// embedder is the embedding provider (hash placeholder or OpenAI).
	embedder embedder.Provider

	// retriever scores and ranks candidate memories per query.
	retriever *retrieval.Retriever

	// composer builds reply text from retrieved memories.
	composer *retrieval.Composer

	// pipeline extracts, deduplicates, and persists new memories.
	pipeline *extraction.Pipeline

	// node generates unique memory IDs.
	node *snowflake.Node

	// log is the engine's structured logger.
	log zerolog.Logger
}

// NewEngine creates an engine from configuration, initializing the store
// and embedding provider it names.
//
// Parameters:
//   - cfg: Configuration selecting the store and embedder providers.
//
// Returns a new Engine, or an error if validation or initialization fails.
func NewEngine(cfg *Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, sessions, err := initStore(cfg.Store)
	if err != nil {
		return nil, NewEngineError("NewEngine", err)
	}

	provider, err := initEmbedder(cfg.Embedder)
	if err != nil {
		return nil, NewEngineError("NewEngine", err)
	}

	return NewEngineWithComponents(cfg, store, sessions, provider, logger.Init())
}

// NewEngineWithComponents creates an engine over externally constructed
// collaborators. Tests and callers embedding the engine in a larger system
// use this to inject their own store, session resolver, embedder, or logger.
func NewEngineWithComponents(cfg *Config, store storage.MemoryStore, sessions storage.SessionStore, provider embedder.Provider, log zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		return nil, NewEngineError("NewEngine", err)
	}

	return &Engine{
		config:    cfg,
		store:     store,
		sessions:  sessions,
		embedder:  provider,
		retriever: retrieval.NewRetriever(store, provider, cfg.Retrieval, log),
		composer:  retrieval.NewComposer(cfg.Retrieval),
		pipeline:  extraction.NewPipeline(store, provider, nil, cfg.Extraction, node, log),
		node:      node,
		log:       log,
	}, nil
}

// GenerateResponse retrieves memories relevant to a new user message and
// composes a grounded reply.
//
// The session must exist and belong to userID; otherwise the call fails with
// ErrNotFound or ErrAccessDenied. The trailing turns of history (up to 5)
// provide the context-overlap scoring signal.
//
// The call has no side effects.
func (e *Engine) GenerateResponse(ctx context.Context, userID, sessionID, message string, history []ConversationTurn) (*Response, error) {
	const op = "GenerateResponse"

	if err := e.authorize(ctx, op, userID, sessionID); err != nil {
		return nil, err
	}

	result, err := e.retriever.Retrieve(ctx, userID, message, recentContext(history))
	if err != nil {
		return nil, NewEngineError(op, err)
	}

	content, confidence := e.composer.Compose(message, result.Top, result.Scored)

	e.log.Info().
		Str("user_id", userID).
		Str("session_id", sessionID).
		Int("memories", len(result.Top)).
		Float64("confidence", confidence).
		Msg("response generated")

	return &Response{
		Content:          content,
		RelevantMemories: fromStorageMemories(result.Top),
		Confidence:       confidence,
	}, nil
}

// ProcessConversation extracts and persists new memories from a
// conversation.
//
// Only user turns are considered; a conversation without user turns yields
// an empty result without touching storage. The session must exist and
// belong to userID.
//
// Returns the newly persisted memories (empty when everything was a
// duplicate or nothing matched).
func (e *Engine) ProcessConversation(ctx context.Context, userID, sessionID string, turns []ConversationTurn) ([]*Memory, error) {
	const op = "ProcessConversation"

	if err := e.authorize(ctx, op, userID, sessionID); err != nil {
		return nil, err
	}

	created, err := e.pipeline.Process(ctx, userID, sessionID, toExtractionTurns(turns))
	if err != nil {
		return nil, NewEngineError(op, err)
	}

	return fromStorageMemories(created), nil
}

// CreateSession registers a session owned by userID so that subsequent
// GenerateResponse and ProcessConversation calls pass ownership validation.
func (e *Engine) CreateSession(ctx context.Context, userID, sessionID string) error {
	const op = "CreateSession"

	if userID == "" || sessionID == "" {
		return NewEngineError(op, ErrInvalidInput)
	}

	if err := e.sessions.CreateSession(ctx, &storage.Session{ID: sessionID, UserID: userID}); err != nil {
		return NewEngineError(op, err)
	}
	return nil
}

// Close closes the engine and releases all resources.
func (e *Engine) Close() error {
	var errs []error

	if e.store != nil {
		if err := e.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	// The SQL backends serve as both stores over one connection; only close
	// the session store when it is a distinct object.
	if e.sessions != nil && any(e.sessions) != any(e.store) {
		if err := e.sessions.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if e.embedder != nil {
		if err := e.embedder.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// authorize verifies that the session exists and belongs to the user.
func (e *Engine) authorize(ctx context.Context, op, userID, sessionID string) error {
	if userID == "" || sessionID == "" {
		return NewEngineError(op, ErrInvalidInput)
	}

	session, err := e.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return NewEngineError(op, ErrNotFound)
		}
		return NewEngineError(op, err)
	}

	if session.UserID != userID {
		return NewEngineError(op, ErrAccessDenied)
	}

	return nil
}

// recentContext concatenates the trailing turns of history into the short
// context string used for context-overlap scoring.
func recentContext(history []ConversationTurn) string {
	start := len(history) - recentContextWindow
	if start < 0 {
		start = 0
	}

	parts := make([]string, 0, recentContextWindow)
	for _, turn := range history[start:] {
		parts = append(parts, turn.Content)
	}
	return strings.Join(parts, " ")
}

// initStore initializes the storage backend. Each SQL backend serves as
// both the memory store and the session resolver.
func initStore(cfg StoreConfig) (storage.MemoryStore, storage.SessionStore, error) {
	switch cfg.Provider {
	case "sqlite":
		client, err := sqliteStore.NewClient(&sqliteStore.Config{
			DBPath:    cfg.DBPath,
			TableName: cfg.TableName,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	case "postgres":
		client, err := postgresStore.NewClient(&postgresStore.Config{
			Host:      cfg.Host,
			Port:      cfg.Port,
			User:      cfg.User,
			Password:  cfg.Password,
			DBName:    cfg.DBName,
			TableName: cfg.TableName,
			SSLMode:   cfg.SSLMode,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	case "mysql":
		client, err := mysqlStore.NewClient(&mysqlStore.Config{
			Host:      cfg.Host,
			Port:      cfg.Port,
			User:      cfg.User,
			Password:  cfg.Password,
			DBName:    cfg.DBName,
			TableName: cfg.TableName,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	default:
		return nil, nil, ErrInvalidConfig
	}
}

// initEmbedder initializes the embedding provider.
func initEmbedder(cfg EmbedderConfig) (embedder.Provider, error) {
	switch cfg.Provider {
	case "hash":
		return hashEmbedder.New(&hashEmbedder.Config{
			Dimensions: cfg.Dimensions,
		}), nil
	case "openai":
		return openaiEmbedder.NewClient(&openaiEmbedder.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
		})
	default:
		return nil, ErrInvalidConfig
	}
}
