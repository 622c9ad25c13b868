// Package listings serves direct catalog reads: single listing lookup and
// the featured selection shown before a guest types a query.
package listings

import (
	"fmt"
	"sort"

	"github.com/roosthq/roost/internal/corpus"
	"github.com/roosthq/roost/internal/domain"
)

// Featured selection thresholds. The strict tier asks for a proven track
// record; small catalogs fall back to the relaxed tier rather than showing
// an empty shelf.
const (
	featuredMinRating  = 4.5
	featuredMinReviews = 5
	relaxedMinRating   = 4.0
)

// Service reads listings from the in-memory catalog.
type Service struct {
	corpus        *corpus.Corpus
	featuredCount int
}

// New creates a listings service.
func New(c *corpus.Corpus, featuredCount int) *Service {
	return &Service{corpus: c, featuredCount: featuredCount}
}

// Get returns one listing by id.
func (s *Service) Get(id string) (domain.Listing, error) {
	l, ok := s.corpus.Get(id)
	if !ok {
		return domain.Listing{}, fmt.Errorf("listing %s: %w", id, domain.ErrListingNotFound)
	}
	return l, nil
}

// GetMany returns the listings for the given ids, skipping unknown ones and
// preserving input order. Used to hydrate ranked search results.
func (s *Service) GetMany(ids []string) []domain.Listing {
	out := make([]domain.Listing, 0, len(ids))
	for _, id := range ids {
		if l, ok := s.corpus.Get(id); ok {
			out = append(out, l)
		}
	}
	return out
}

// Featured returns the showcase listings: highly rated with enough reviews,
// ordered rating desc, review count desc, id asc. Deterministic for a given
// corpus, so the landing page is stable across requests.
func (s *Service) Featured() []domain.Listing {
	picked := s.pick(func(l domain.Listing) bool {
		return l.HasRating && l.Rating >= featuredMinRating && l.ReviewCount >= featuredMinReviews
	})
	if len(picked) == 0 {
		picked = s.pick(func(l domain.Listing) bool {
			return l.HasRating && l.Rating >= relaxedMinRating
		})
	}

	sort.Slice(picked, func(i, j int) bool {
		if picked[i].Rating != picked[j].Rating {
			return picked[i].Rating > picked[j].Rating
		}
		if picked[i].ReviewCount != picked[j].ReviewCount {
			return picked[i].ReviewCount > picked[j].ReviewCount
		}
		return picked[i].ID < picked[j].ID
	})

	if s.featuredCount > 0 && len(picked) > s.featuredCount {
		picked = picked[:s.featuredCount]
	}
	return picked
}

func (s *Service) pick(keep func(domain.Listing) bool) []domain.Listing {
	var out []domain.Listing
	for _, l := range s.corpus.All() {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}
