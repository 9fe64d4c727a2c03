// Package hash provides a deterministic hash-based embedding provider.
//
// The provider is a placeholder for a real embedding model: it maps tokens
// into a fixed number of buckets via a rolling hash and spreads a fractional
// increment into neighboring buckets so related-but-distinct token sets
// produce smoothly similar vectors. The same text always yields the same
// vector, which keeps scoring reproducible and tests deterministic.
package hash

import (
	"context"
	"math"
	"strings"
)

// DefaultDimensions is the embedding dimension used when none is configured.
//
// The dimension is fixed for the whole deployment; changing it invalidates
// all stored embeddings.
const DefaultDimensions = 128

// neighborWeight is the fractional increment spread into the buckets adjacent
// to each token's bucket.
const neighborWeight = 0.3

// Embedder implements embedder.Provider with a deterministic token-hashing
// scheme. It is a pure function of the input text and never fails.
type Embedder struct {
	dimensions int
}

// Config contains configuration for creating a hash Embedder.
type Config struct {
	// Dimensions is the embedding dimension (default: 128).
	Dimensions int
}

// New creates a new hash-based embedding provider.
//
// Parameters:
//   - cfg: Configuration; nil or zero Dimensions selects DefaultDimensions.
//
// Returns a new Embedder. Construction cannot fail.
func New(cfg *Config) *Embedder {
	dims := DefaultDimensions
	if cfg != nil && cfg.Dimensions > 0 {
		dims = cfg.Dimensions
	}
	return &Embedder{dimensions: dims}
}

// Embed converts text into a deterministic embedding vector.
//
// The algorithm:
//  1. Lower-case the text and split on whitespace.
//  2. For each token, compute a 31-bit rolling hash and map it to a bucket
//     via modulo.
//  3. Increment the bucket by 1.0 and its immediate neighbors (wrapping) by
//     0.3 to create similarity gradients between related token sets.
//  4. L2-normalize the result. A zero vector (no tokens) stays zero.
func (e *Embedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, e.dimensions)

	for _, token := range strings.Fields(strings.ToLower(text)) {
		bucket := int(tokenHash(token) % uint32(e.dimensions))
		vec[bucket] += 1.0
		vec[(bucket+1)%e.dimensions] += neighborWeight
		vec[(bucket-1+e.dimensions)%e.dimensions] += neighborWeight
	}

	return normalize(vec), nil
}

// EmbedBatch converts multiple texts into embedding vectors.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Dimensions returns the embedding dimension.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Close releases resources. The hash embedder holds none.
func (e *Embedder) Close() error {
	return nil
}

// tokenHash computes a 31-bit rolling hash of a token (h = h*31 + byte,
// masked to 31 bits).
func tokenHash(token string) uint32 {
	var h uint32
	for i := 0; i < len(token); i++ {
		h = (h*31 + uint32(token[i])) & 0x7fffffff
	}
	return h
}

// normalize scales v to unit L2 length. A zero-norm vector is returned
// unchanged.
func normalize(v []float64) []float64 {
	var sum float64
	for _, val := range v {
		sum += val * val
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] /= norm
	}
	return v
}
