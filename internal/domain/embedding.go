package domain

import "context"

// EmbeddingResult is one embedded text with provider token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult holds embeddings for a batch of texts, index-aligned
// with the input slice.
type BatchEmbeddingResult struct {
	Embeddings  [][]float32
	TotalTokens int
}

// Embedder vectorizes text via the embedding backend.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
	EmbedBatch(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker is implemented by embedders that can probe their backend.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
