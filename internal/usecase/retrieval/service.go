// Package retrieval exposes the listing vectors for RAG consumers: given
// free text, return the most similar listing chunks with their scores.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/roosthq/roost/internal/corpus"
	"github.com/roosthq/roost/internal/domain"
	"github.com/roosthq/roost/internal/index/embedding"
)

// VectorSearcher finds the listings most similar to a query vector.
type VectorSearcher interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	TopK(queryVec []float32, k int, allow func(id string) bool) []embedding.Match
}

// Chunk is one retrieved passage: the listing's composed text blob plus its
// similarity to the query.
type Chunk struct {
	ListingID  string
	Text       string
	Similarity float64
}

// Service serves retrieval requests.
type Service struct {
	corpus   *corpus.Corpus
	searcher VectorSearcher // nil: embedding backend down
	maxK     int
}

// New creates a retrieval service. searcher may be nil when the embedding
// index could not be built; retrieval then fails fast, there is no lexical
// fallback for RAG grounding.
func New(c *corpus.Corpus, searcher VectorSearcher, maxK int) *Service {
	return &Service{corpus: c, searcher: searcher, maxK: maxK}
}

// Retrieve returns up to k chunks most similar to the query, optionally
// restricted to one neighbourhood. k is clamped to the configured maximum.
func (s *Service) Retrieve(ctx context.Context, queryText string, k int, neighbourhood string) ([]Chunk, error) {
	if strings.TrimSpace(queryText) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if s.searcher == nil {
		return nil, fmt.Errorf("retrieval needs the embedding index: %w", domain.ErrEmbeddingUnavailable)
	}

	if k <= 0 || k > s.maxK {
		k = s.maxK
	}

	queryVec, err := s.searcher.EmbedQuery(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed retrieval query: %w", err)
	}

	var allow func(id string) bool
	if neighbourhood != "" {
		allow = func(id string) bool {
			l, ok := s.corpus.Get(id)
			return ok && l.Neighbourhood == neighbourhood
		}
	}

	matches := s.searcher.TopK(queryVec, k, allow)
	chunks := make([]Chunk, 0, len(matches))
	for _, m := range matches {
		l, ok := s.corpus.Get(m.ID)
		if !ok {
			continue
		}
		chunks = append(chunks, Chunk{
			ListingID:  l.ID,
			Text:       l.TextBlob,
			Similarity: m.Similarity,
		})
	}
	return chunks, nil
}
