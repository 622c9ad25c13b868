package search

import (
	"context"

	"github.com/roosthq/roost/internal/domain"
)

// QueryParser extracts structured constraints from raw query text.
type QueryParser interface {
	Parse(raw string) domain.ParsedQuery
}

// SemanticIndex scores listings by embedding similarity. A nil provider
// means the embedding backend was unavailable at startup and ranking runs
// degraded on the remaining signals.
type SemanticIndex interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Similarity(queryVec []float32, id string) float64
}

// LexicalIndex scores listings by keyword overlap.
type LexicalIndex interface {
	Score(query string, ids []string) map[string]float64
}
