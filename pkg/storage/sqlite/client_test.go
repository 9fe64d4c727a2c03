package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemo-ai/mnemo-go/pkg/storage"
	"github.com/mnemo-ai/mnemo-go/pkg/storage/sqlite"
)

func newTestClient(t *testing.T) *sqlite.Client {
	t.Helper()

	client, err := sqlite.NewClient(&sqlite.Config{
		DBPath: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func testMemory(id int64, userID, summary string, memType storage.MemoryType) *storage.Memory {
	confidence := 0.9
	return &storage.Memory{
		ID:         id,
		UserID:     userID,
		Type:       memType,
		Summary:    summary,
		Content:    summary + " with more detail",
		Embedding:  []float64{0.1, 0.2, 0.3},
		Details:    map[string]interface{}{"session_id": "s1", "provenance": "pattern_match"},
		Confidence: &confidence,
	}
}

func TestInsertAndQuery(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	memory := testMemory(1, "user1", "User loves pizza", storage.TypeSemantic)
	require.NoError(t, client.Insert(ctx, memory))
	assert.False(t, memory.CreatedAt.IsZero(), "Insert fills timestamps")

	results, err := client.Query(ctx, &storage.QueryOptions{UserID: "user1"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	got := results[0]
	assert.Equal(t, memory.ID, got.ID)
	assert.Equal(t, storage.TypeSemantic, got.Type)
	assert.Equal(t, "User loves pizza", got.Summary)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, got.Embedding)
	assert.Equal(t, "s1", got.Details["session_id"])
	require.NotNil(t, got.Confidence)
	assert.Equal(t, 0.9, *got.Confidence)
}

func TestQueryFilters(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Insert(ctx, testMemory(1, "user1", "User loves pizza", storage.TypeSemantic)))
	require.NoError(t, client.Insert(ctx, testMemory(2, "user1", "Went hiking yesterday", storage.TypeEpisodic)))
	require.NoError(t, client.Insert(ctx, testMemory(3, "user2", "User loves sushi", storage.TypeSemantic)))

	// Owner filter
	results, err := client.Query(ctx, &storage.QueryOptions{UserID: "user1"})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	// Type filter
	results, err = client.Query(ctx, &storage.QueryOptions{UserID: "user1", Type: storage.TypeEpisodic})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(2), results[0].ID)

	// Limit
	results, err = client.Query(ctx, &storage.QueryOptions{UserID: "user1", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestQueryNewestFirst(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Insert(ctx, testMemory(1, "user1", "first memory inserted", storage.TypeSemantic)))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, client.Insert(ctx, testMemory(2, "user1", "second memory inserted", storage.TypeSemantic)))

	results, err := client.Query(ctx, &storage.QueryOptions{UserID: "user1"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int64(2), results[0].ID, "most recently updated comes first")
}

func TestInsertDuplicateFingerprint(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Insert(ctx, testMemory(1, "user1", "User loves pizza", storage.TypeSemantic)))

	// Same normalized summary, owner, and type collides.
	err := client.Insert(ctx, testMemory(2, "user1", "user  LOVES   pizza", storage.TypeSemantic))
	assert.ErrorIs(t, err, storage.ErrDuplicateFingerprint)

	// Different type or owner does not.
	assert.NoError(t, client.Insert(ctx, testMemory(3, "user1", "User loves pizza", storage.TypeEpisodic)))
	assert.NoError(t, client.Insert(ctx, testMemory(4, "user2", "User loves pizza", storage.TypeSemantic)))
}

func TestInsertNilConfidence(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	memory := testMemory(1, "user1", "User loves pizza", storage.TypeSemantic)
	memory.Confidence = nil
	require.NoError(t, client.Insert(ctx, memory))

	results, err := client.Query(ctx, &storage.QueryOptions{UserID: "user1"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Confidence)
}

func TestSessions(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	require.NoError(t, client.CreateSession(ctx, &storage.Session{ID: "session1", UserID: "user1"}))

	session, err := client.GetSession(ctx, "session1")
	require.NoError(t, err)
	assert.Equal(t, "user1", session.UserID)
	assert.False(t, session.CreatedAt.IsZero())
}
