package corpus

import "github.com/roosthq/roost/internal/domain"

// NewForTest builds a corpus straight from listings, skipping the adapter
// pipeline; tests only.
func NewForTest(listings []domain.Listing) *Corpus {
	return newCorpus(listings)
}
