// Package embedder provides interfaces for text embedding providers.
//
// It defines the Provider interface that all embedding implementations must
// satisfy, enabling text-to-vector conversion for similarity scoring. The
// default hash-based provider is a deterministic placeholder; a real embedding
// model (e.g. the OpenAI provider) can be substituted without touching any
// caller.
package embedder

import "context"

// Provider defines the interface for embedding providers.
//
// All embedding implementations (hash, OpenAI, ...) must implement this
// interface.
type Provider interface {
	// Embed converts a text string into a vector embedding.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - text: The input text to embed
	//
	// Returns the embedding vector and any error.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch converts multiple text strings into vector embeddings.
	//
	// This method is more efficient than calling Embed multiple times for
	// providers that can batch requests.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimensions returns the dimension of embedding vectors produced by
	// this provider. All memories in a deployment must share one dimension;
	// changing it invalidates every stored embedding.
	Dimensions() int

	// Close closes the provider and releases resources.
	Close() error
}
