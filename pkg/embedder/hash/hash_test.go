package hash_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemo-ai/mnemo-go/pkg/embedder/hash"
)

func TestNew(t *testing.T) {
	e := hash.New(nil)
	assert.Equal(t, hash.DefaultDimensions, e.Dimensions())

	e = hash.New(&hash.Config{Dimensions: 64})
	assert.Equal(t, 64, e.Dimensions())

	e = hash.New(&hash.Config{})
	assert.Equal(t, hash.DefaultDimensions, e.Dimensions())
}

func TestEmbedDeterministic(t *testing.T) {
	e := hash.New(nil)
	ctx := context.Background()

	v1, err := e.Embed(ctx, "I love pizza with fresh basil")
	require.NoError(t, err)
	v2, err := e.Embed(ctx, "I love pizza with fresh basil")
	require.NoError(t, err)

	assert.Equal(t, v1, v2, "same text must produce the same vector")
	assert.Len(t, v1, hash.DefaultDimensions)
}

func TestEmbedCaseInsensitive(t *testing.T) {
	e := hash.New(nil)
	ctx := context.Background()

	v1, err := e.Embed(ctx, "Pizza Basil")
	require.NoError(t, err)
	v2, err := e.Embed(ctx, "pizza basil")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
}

func TestEmbedNormalized(t *testing.T) {
	e := hash.New(nil)

	vec, err := e.Embed(context.Background(), "the quick brown fox jumps over the lazy dog")
	require.NoError(t, err)

	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-9, "non-empty embeddings are unit length")
}

func TestEmbedEmptyText(t *testing.T) {
	e := hash.New(nil)

	vec, err := e.Embed(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, vec, hash.DefaultDimensions)
	for _, v := range vec {
		assert.Zero(t, v, "empty text embeds to the zero vector")
	}
}

func TestEmbedDistinctTexts(t *testing.T) {
	e := hash.New(nil)
	ctx := context.Background()

	v1, err := e.Embed(ctx, "pizza and pasta")
	require.NoError(t, err)
	v2, err := e.Embed(ctx, "kernel scheduling latency")
	require.NoError(t, err)

	assert.NotEqual(t, v1, v2)
}

func TestEmbedBatch(t *testing.T) {
	e := hash.New(nil)
	ctx := context.Background()

	vectors, err := e.EmbedBatch(ctx, []string{"first text", "second text"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)

	single, err := e.Embed(ctx, "first text")
	require.NoError(t, err)
	assert.Equal(t, single, vectors[0])
}

func TestClose(t *testing.T) {
	e := hash.New(nil)
	assert.NoError(t, e.Close())
}
