package search

import (
	"sort"

	"github.com/roosthq/roost/internal/corpus"
	"github.com/roosthq/roost/internal/domain"
)

// Hybrid ranking weights. In degraded mode the semantic weight is dropped
// and the rest renormalize to sum to one, preserving their ratios.
const (
	weightSemantic = 0.55
	weightLexical  = 0.20
	weightRating   = 0.15
	weightPrice    = 0.10

	// Neutral-low rating score for listings without reviews: unknown
	// quality should not beat a solid track record, nor sink to zero.
	unratedScore = 0.3
)

type scorer struct {
	corpus *corpus.Corpus

	// corpus-wide price bounds for queries without price constraints
	priceLow  float64
	priceHigh float64
}

func newScorer(c *corpus.Corpus) *scorer {
	s := &scorer{corpus: c}
	for i, l := range c.All() {
		if i == 0 || l.PricePerNight < s.priceLow {
			s.priceLow = l.PricePerNight
		}
		if l.PricePerNight > s.priceHigh {
			s.priceHigh = l.PricePerNight
		}
	}
	return s
}

// score combines the per-signal scores for the given candidates and returns
// them ranked: final desc, then review count desc, then id asc.
func (s *scorer) score(
	ids []string,
	pq domain.ParsedQuery,
	semantic map[string]float64, // nil in degraded mode
	lexical map[string]float64,
) []domain.ScoredCandidate {
	wSem, wLex, wRat, wPri := weights(semantic != nil)

	out := make([]domain.ScoredCandidate, 0, len(ids))
	for _, id := range ids {
		l, ok := s.corpus.Get(id)
		if !ok {
			continue
		}

		c := domain.ScoredCandidate{
			ListingID:   id,
			Lexical:     lexical[id],
			RatingScore: ratingScore(l),
			PriceScore:  s.priceScore(l, pq),
		}
		if semantic != nil {
			c.Semantic = semantic[id]
		}
		c.Final = wSem*c.Semantic + wLex*c.Lexical + wRat*c.RatingScore + wPri*c.PriceScore
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Final != out[j].Final {
			return out[i].Final > out[j].Final
		}
		li, _ := s.corpus.Get(out[i].ListingID)
		lj, _ := s.corpus.Get(out[j].ListingID)
		if li.ReviewCount != lj.ReviewCount {
			return li.ReviewCount > lj.ReviewCount
		}
		return out[i].ListingID < out[j].ListingID
	})
	return out
}

func weights(withSemantic bool) (sem, lex, rat, pri float64) {
	if withSemantic {
		return weightSemantic, weightLexical, weightRating, weightPrice
	}
	rest := weightLexical + weightRating + weightPrice
	return 0, weightLexical / rest, weightRating / rest, weightPrice / rest
}

func ratingScore(l domain.Listing) float64 {
	if !l.HasRating {
		return unratedScore
	}
	r := l.Rating / 5
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// priceScore rewards listings near the price the guest asked for. With an
// explicit budget the target is the cap (or range midpoint); at or under
// target scores 1 and overshoot decays linearly. Without a budget, cheaper
// listings score higher relative to the corpus price range.
func (s *scorer) priceScore(l domain.Listing, pq domain.ParsedQuery) float64 {
	var target float64
	switch {
	case pq.PriceMin != nil && pq.PriceMax != nil:
		target = (*pq.PriceMin + *pq.PriceMax) / 2
	case pq.PriceMax != nil:
		target = *pq.PriceMax
	default:
		if s.priceHigh <= s.priceLow {
			return 0.5
		}
		score := 1 - (l.PricePerNight-s.priceLow)/(s.priceHigh-s.priceLow)
		if score < 0 {
			return 0
		}
		if score > 1 {
			return 1
		}
		return score
	}

	if target <= 0 {
		return 0.5
	}
	if l.PricePerNight <= target {
		return 1
	}
	score := 1 - (l.PricePerNight-target)/target
	if score < 0 {
		return 0
	}
	return score
}
