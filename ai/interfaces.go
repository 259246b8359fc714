package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity scoring.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// An empty string must not fail; implementations return a zero-length
	// or zero-valued vector for it.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorCache stores embeddings keyed by an opaque content key.
// Implementations must be thread-safe for concurrent use.
type VectorCache interface {
	// GetVector returns the cached vector and true, or nil and false on a miss.
	GetVector(ctx context.Context, key string) ([]float32, bool, error)

	// PutVector stores a vector under key, replacing any previous value.
	PutVector(ctx context.Context, key string, vector []float32) error
}
