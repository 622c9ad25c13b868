// Package embedding builds and serves the semantic half of hybrid ranking:
// one normalized vector per listing, computed through the embedding backend
// at startup and persisted on disk keyed by the corpus fingerprint.
package embedding

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/roosthq/roost/internal/domain"
	"github.com/roosthq/roost/internal/metrics"
)

// BuildOptions tunes how listing vectors are computed on a cache miss.
type BuildOptions struct {
	BatchSize   int
	Workers     int
	MaxRetries  int
	RetryDelay  time.Duration
	CachePath   string
	Fingerprint string
}

// Index holds normalized listing vectors. Read-only after Build, safe for
// concurrent use.
type Index struct {
	embedder   domain.Embedder
	maxRetries int
	retryDelay time.Duration

	vectors map[string][]float32
	dims    int
}

// Build returns an index over the given listings, loading vectors from the
// disk cache when its fingerprint matches and computing them otherwise. A
// compute failure is returned as is; callers decide whether to run degraded.
func Build(ctx context.Context, embedder domain.Embedder, listings []domain.Listing, opts BuildOptions, logger *zap.Logger) (*Index, error) {
	idx := &Index{
		embedder:   embedder,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
	}

	if opts.CachePath != "" {
		vectors, dims, err := loadCache(opts.CachePath, opts.Fingerprint)
		if err == nil && coversAll(vectors, listings) {
			metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
			idx.vectors, idx.dims = vectors, dims
			logger.Info("Loaded embedding cache",
				zap.String("path", opts.CachePath),
				zap.Int("vectors", len(vectors)),
				zap.Int("dimensions", dims))
			return idx, nil
		}
		metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()
		if err != nil {
			logger.Info("Embedding cache unusable, recomputing",
				zap.String("path", opts.CachePath),
				zap.Error(err))
		}
	}

	vectors, dims, err := idx.computeAll(ctx, listings, opts)
	if err != nil {
		return nil, err
	}
	idx.vectors, idx.dims = vectors, dims

	if opts.CachePath != "" {
		ids := make([]string, len(listings))
		for i, l := range listings {
			ids[i] = l.ID
		}
		if err := saveCache(opts.CachePath, opts.Fingerprint, dims, vectors, ids); err != nil {
			logger.Warn("Failed to persist embedding cache",
				zap.String("path", opts.CachePath),
				zap.Error(err))
		}
	}
	return idx, nil
}

func coversAll(vectors map[string][]float32, listings []domain.Listing) bool {
	for _, l := range listings {
		if _, ok := vectors[l.ID]; !ok {
			return false
		}
	}
	return true
}

func (idx *Index) computeAll(ctx context.Context, listings []domain.Listing, opts BuildOptions) (map[string][]float32, int, error) {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 64
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, 0, fmt.Errorf("create embedding worker pool: %w", err)
	}
	defer pool.Release()

	vectors := make(map[string][]float32, len(listings))
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)

	for start := 0; start < len(listings); start += batchSize {
		end := start + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		batch := listings[start:end]

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			mu.Lock()
			failed := firstErr != nil
			mu.Unlock()
			if failed {
				return
			}

			texts := make([]string, len(batch))
			for i, l := range batch {
				texts[i] = l.TextBlob
			}

			var result domain.BatchEmbeddingResult
			err := retryWithBackoff(ctx, func() error {
				var embedErr error
				result, embedErr = idx.embedder.EmbedBatch(ctx, texts)
				return embedErr
			}, idx.maxRetries, idx.retryDelay)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			if len(result.Embeddings) != len(batch) {
				if firstErr == nil {
					firstErr = fmt.Errorf("embedding backend returned %d vectors for %d texts", len(result.Embeddings), len(batch))
				}
				return
			}
			for i, l := range batch {
				vectors[l.ID] = normalize(result.Embeddings[i])
			}
		})
		if submitErr != nil {
			wg.Done()
			return nil, 0, fmt.Errorf("submit embedding batch: %w", submitErr)
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, 0, firstErr
	}

	dims := 0
	for _, v := range vectors {
		dims = len(v)
		break
	}
	return vectors, dims, nil
}

// EmbedQuery embeds and normalizes free text, retrying transient failures.
func (idx *Index) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	var result domain.EmbeddingResult
	err := retryWithBackoff(ctx, func() error {
		var embedErr error
		result, embedErr = idx.embedder.Embed(ctx, text)
		return embedErr
	}, idx.maxRetries, idx.retryDelay)
	if err != nil {
		return nil, err
	}
	return normalize(result.Embedding), nil
}

// Similarity maps the cosine between the query vector and a listing vector
// into [0,1]. Unknown ids score zero.
func (idx *Index) Similarity(queryVec []float32, id string) float64 {
	vec, ok := idx.vectors[id]
	if !ok || len(vec) != len(queryVec) {
		return 0
	}
	return (dot(queryVec, vec) + 1) / 2
}

// Match pairs a listing id with its similarity to a query vector.
type Match struct {
	ID         string
	Similarity float64
}

// TopK returns the k listings most similar to the query vector, restricted
// to ids accepted by allow (nil allows everything). Ties break on id so the
// result is deterministic.
func (idx *Index) TopK(queryVec []float32, k int, allow func(id string) bool) []Match {
	matches := make([]Match, 0, len(idx.vectors))
	for id := range idx.vectors {
		if allow != nil && !allow(id) {
			continue
		}
		matches = append(matches, Match{ID: id, Similarity: idx.Similarity(queryVec, id)})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].ID < matches[j].ID
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// Size reports how many listing vectors the index holds.
func (idx *Index) Size() int { return len(idx.vectors) }

// Dimensions reports the vector width.
func (idx *Index) Dimensions() int { return idx.dims }

func normalize(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	// Normalized inputs keep the cosine in [-1,1] up to float drift.
	return math.Max(-1, math.Min(1, sum))
}
