package core_test

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemo-ai/mnemo-go/pkg/core"
	"github.com/mnemo-ai/mnemo-go/pkg/embedder/hash"
	"github.com/mnemo-ai/mnemo-go/pkg/storage"
)

// fakeMemoryStore is an in-memory MemoryStore for engine tests.
type fakeMemoryStore struct {
	mu       sync.Mutex
	memories []*storage.Memory
}

func (s *fakeMemoryStore) Insert(_ context.Context, memory *storage.Memory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.memories {
		if m.UserID == memory.UserID && m.Type == memory.Type &&
			storage.SummaryFingerprint(m.Summary) == storage.SummaryFingerprint(memory.Summary) {
			return storage.ErrDuplicateFingerprint
		}
	}
	s.memories = append(s.memories, memory)
	return nil
}

func (s *fakeMemoryStore) Query(_ context.Context, opts *storage.QueryOptions) ([]*storage.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*storage.Memory
	for _, m := range s.memories {
		if opts.UserID != "" && m.UserID != opts.UserID {
			continue
		}
		if opts.Type != "" && m.Type != opts.Type {
			continue
		}
		result = append(result, m)
		if opts.Limit > 0 && len(result) >= opts.Limit {
			break
		}
	}
	return result, nil
}

func (s *fakeMemoryStore) Close() error { return nil }

// fakeSessionStore is an in-memory SessionStore for engine tests.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*storage.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*storage.Session)}
}

func (s *fakeSessionStore) GetSession(_ context.Context, id string) (*storage.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, storage.ErrSessionNotFound
	}
	return session, nil
}

func (s *fakeSessionStore) CreateSession(_ context.Context, session *storage.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *fakeSessionStore) Close() error { return nil }

func newTestEngine(t *testing.T) (*core.Engine, *fakeMemoryStore, *fakeSessionStore) {
	t.Helper()

	store := &fakeMemoryStore{}
	sessions := newFakeSessionStore()

	engine, err := core.NewEngineWithComponents(&core.Config{}, store, sessions, hash.New(nil), zerolog.Nop())
	require.NoError(t, err)
	return engine, store, sessions
}

func TestGenerateResponseWithMemories(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.CreateSession(ctx, "user1", "session1"))

	turns := []core.ConversationTurn{
		{Role: core.RoleUser, Content: "I really love Italian food, especially pizza with fresh basil.", Timestamp: time.Now()},
	}
	created, err := engine.ProcessConversation(ctx, "user1", "session1", turns)
	require.NoError(t, err)
	require.NotEmpty(t, created)

	resp, err := engine.GenerateResponse(ctx, "user1", "session1", "What food do I like? pizza basil", turns)
	require.NoError(t, err)

	require.NotEmpty(t, resp.RelevantMemories)
	assert.Regexp(t, regexp.MustCompile(`(?i)food|pizza`), resp.Content)
	assert.Greater(t, resp.Confidence, 0.0)

	found := false
	for _, m := range resp.RelevantMemories {
		if m.ID == created[0].ID {
			found = true
		}
	}
	assert.True(t, found, "the extracted memory must ground the reply")
}

func TestGenerateResponseNoMemories(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.CreateSession(ctx, "user1", "session1"))

	resp, err := engine.GenerateResponse(ctx, "user1", "session1", "What food do I like?", nil)
	require.NoError(t, err)

	assert.Empty(t, resp.RelevantMemories)
	assert.Regexp(t, regexp.MustCompile(`(?i)don't have specific memories|provide more context`), resp.Content)
	assert.Less(t, resp.Confidence, 0.5)
}

func TestGenerateResponseSessionMissing(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.GenerateResponse(context.Background(), "user1", "nope", "hello there", nil)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestGenerateResponseWrongOwner(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.CreateSession(ctx, "user1", "session1"))

	_, err := engine.GenerateResponse(ctx, "user2", "session1", "hello there", nil)
	assert.ErrorIs(t, err, core.ErrAccessDenied)
}

func TestGenerateResponseEmptyInput(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.GenerateResponse(context.Background(), "", "session1", "hello", nil)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = engine.GenerateResponse(context.Background(), "user1", "", "hello", nil)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestProcessConversation(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.CreateSession(ctx, "user1", "session1"))

	turns := []core.ConversationTurn{
		{Role: core.RoleUser, Content: "Yesterday I went to a trattoria downtown.", Timestamp: time.Now()},
		{Role: core.RoleAssistant, Content: "Sounds lovely!", Timestamp: time.Now()},
	}

	created, err := engine.ProcessConversation(ctx, "user1", "session1", turns)
	require.NoError(t, err)

	require.Len(t, created, 1)
	assert.Equal(t, core.TypeEpisodic, created[0].Type)
	assert.Equal(t, "session1", created[0].Details["session_id"])
	assert.Len(t, store.memories, 1)

	// Reprocessing is a no-op.
	again, err := engine.ProcessConversation(ctx, "user1", "session1", turns)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestProcessConversationSessionValidation(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	turns := []core.ConversationTurn{
		{Role: core.RoleUser, Content: "I really love Italian food.", Timestamp: time.Now()},
	}

	_, err := engine.ProcessConversation(ctx, "user1", "missing", turns)
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, engine.CreateSession(ctx, "user1", "session1"))
	_, err = engine.ProcessConversation(ctx, "user2", "session1", turns)
	assert.ErrorIs(t, err, core.ErrAccessDenied)
}

func TestEngineClose(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	assert.NoError(t, engine.Close())
}
