package ai

import "context"

// Embedder turns recipe text and search queries into vectors.
// Vectors need not be unit length; callers normalize them.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// EmbedText embeds one query.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts embeds a batch of recipe texts. The result has one vector
	// per input, in input order, or an error for the whole batch.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// AIProvider owns an embedding service and its lifecycle.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Model identifies the embedding model, recorded in index manifests.
	Model() string

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
