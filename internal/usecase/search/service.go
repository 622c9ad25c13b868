// Package search implements natural-language listing search: parse the
// query into constraints, filter candidates, rank them with the hybrid
// scorer over semantic, lexical, rating, and price signals.
package search

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/roosthq/roost/internal/corpus"
	"github.com/roosthq/roost/internal/domain"
	"github.com/roosthq/roost/internal/logger"
	"github.com/roosthq/roost/internal/metrics"
)

// Service handles listing search requests.
type Service struct {
	parser   QueryParser
	filter   *Filter
	scorer   *scorer
	lexical  LexicalIndex
	semantic SemanticIndex // nil: embedding backend down, run degraded
	topN     int
}

// New creates a search service. semantic may be nil when the embedding index
// could not be built; the service then ranks on the remaining signals.
func New(parser QueryParser, c *corpus.Corpus, lexical LexicalIndex, semantic SemanticIndex, topN, minCandidates int) *Service {
	return &Service{
		parser:   parser,
		filter:   NewFilter(c, minCandidates),
		scorer:   newScorer(c),
		lexical:  lexical,
		semantic: semantic,
		topN:     topN,
	}
}

// Search runs the full pipeline for one query.
func (s *Service) Search(ctx context.Context, rawQuery string) (domain.RankedResult, error) {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(rawQuery) == "" {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return domain.RankedResult{}, domain.ErrEmptyQuery
	}

	pq := s.parser.Parse(rawQuery)
	ids, relaxed := s.filter.Apply(pq)
	metrics.SearchCandidates.Observe(float64(len(ids)))
	for _, stage := range relaxed {
		metrics.SearchRelaxationsTotal.WithLabelValues(stage).Inc()
	}

	lexScores := s.lexical.Score(rawQuery, ids)
	semScores, degraded := s.semanticScores(ctx, rawQuery, ids)

	candidates := s.scorer.score(ids, pq, semScores, lexScores)
	if s.topN > 0 && len(candidates) > s.topN {
		candidates = candidates[:s.topN]
	}

	outcome := "ok"
	if degraded {
		outcome = "degraded"
		log.Warn("Ranking without semantic signal: embedding backend unavailable",
			zap.String("query", rawQuery))
	}
	metrics.SearchRequestsTotal.WithLabelValues(outcome).Inc()

	return domain.RankedResult{
		Query:      pq,
		Candidates: candidates,
		Degraded:   degraded,
		Relaxed:    relaxed,
	}, nil
}

// semanticScores embeds the query and scores candidates against the listing
// vectors. Any failure degrades to nil scores instead of failing the search.
func (s *Service) semanticScores(ctx context.Context, rawQuery string, ids []string) (map[string]float64, bool) {
	if s.semantic == nil {
		return nil, true
	}

	queryVec, err := s.semantic.EmbedQuery(ctx, rawQuery)
	if err != nil {
		logger.FromContext(ctx).Warn("Query embedding failed", zap.Error(err))
		return nil, true
	}

	scores := make(map[string]float64, len(ids))
	for _, id := range ids {
		scores[id] = s.semantic.Similarity(queryVec, id)
	}
	return scores, false
}
