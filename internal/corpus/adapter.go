package corpus

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roosthq/roost/internal/domain"
	"github.com/roosthq/roost/internal/text"
)

// Canonicalizer maps raw amenity and neighbourhood strings onto the canonical
// vocabulary. Implemented by the query vocab so the corpus and the parser
// speak the same tags.
type Canonicalizer interface {
	CanonicalAmenity(raw string) (string, bool)
	CanonicalNeighbourhood(raw string) (string, bool)
}

// Adapter turns raw source records into the immutable corpus.
type Adapter struct {
	source        Source
	canon         Canonicalizer
	detections    map[string][]string
	maxMalformed  float64
	logger        *zap.Logger
}

// NewAdapter creates a corpus adapter. detections may be nil when no CV
// output is configured.
func NewAdapter(
	source Source,
	canon Canonicalizer,
	detections map[string][]string,
	maxMalformedFraction float64,
	logger *zap.Logger,
) *Adapter {
	return &Adapter{
		source:       source,
		canon:        canon,
		detections:   detections,
		maxMalformed: maxMalformedFraction,
		logger:       logger,
	}
}

// Load fetches, normalizes, validates, and dedupes the catalog. Individual
// malformed records are dropped with a warning; the load fails with
// domain.ErrCorpusLoad when the source is unreadable, when the malformed
// fraction exceeds the configured threshold, or when nothing usable remains.
func (a *Adapter) Load(ctx context.Context) (*Corpus, error) {
	records, undecodable, err := a.source.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch listings: %w", err)
	}

	total := len(records) + undecodable
	if total == 0 {
		return nil, fmt.Errorf("source produced no records: %w", domain.ErrCorpusLoad)
	}

	listings := make([]domain.Listing, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	malformed := undecodable
	duplicates := 0

	for i := range records {
		l := a.normalize(&records[i])

		if err := l.Validate(); err != nil {
			malformed++
			a.logger.Warn("Dropping malformed listing", zap.Error(err))
			continue
		}
		if _, dup := seen[l.ID]; dup {
			duplicates++
			continue
		}
		seen[l.ID] = struct{}{}
		listings = append(listings, l)
	}

	if frac := float64(malformed) / float64(total); frac > a.maxMalformed {
		return nil, fmt.Errorf("%d of %d records malformed (%.0f%% > %.0f%% allowed): %w",
			malformed, total, frac*100, a.maxMalformed*100, domain.ErrCorpusLoad)
	}
	if len(listings) == 0 {
		return nil, fmt.Errorf("no valid listings after normalization: %w", domain.ErrCorpusLoad)
	}

	a.logger.Info("Corpus loaded",
		zap.Int("listings", len(listings)),
		zap.Int("malformed", malformed),
		zap.Int("duplicates", duplicates),
	)

	return newCorpus(listings), nil
}

func (a *Adapter) normalize(rec *RawListing) domain.Listing {
	amenities := make(map[string]struct{}, len(rec.Amenities))
	addAmenity := func(raw string) {
		if raw == "" {
			return
		}
		if tag, ok := a.canon.CanonicalAmenity(raw); ok {
			amenities[tag] = struct{}{}
			return
		}
		// Unknown amenities keep their normalized form so lexical and
		// semantic signals still see them.
		if n := text.Normalize(raw); n != "" {
			amenities[n] = struct{}{}
		}
	}
	for _, raw := range rec.Amenities {
		addAmenity(raw)
	}
	for _, raw := range a.detections[rec.ID] {
		addAmenity(raw)
	}

	neighbourhood := text.Normalize(rec.Neighbourhood)
	if tag, ok := a.canon.CanonicalNeighbourhood(rec.Neighbourhood); ok {
		neighbourhood = tag
	}

	l := domain.Listing{
		ID:            rec.ID,
		Title:         rec.Title,
		Description:   rec.Description,
		Neighbourhood: neighbourhood,
		PricePerNight: rec.PricePerNight,
		GuestCapacity: rec.GuestCapacity,
		Beds:          rec.Beds,
		Baths:         rec.Baths,
		MinNights:     rec.MinNights,
		MaxNights:     rec.MaxNights,
		ReviewCount:   rec.ReviewCount,
		Amenities:     amenities,
	}
	if rec.Rating != nil {
		l.Rating = *rec.Rating
		l.HasRating = true
	}
	l.TextBlob = domain.ComposeTextBlob(l.Title, l.Description, l.SortedAmenities(), l.Neighbourhood)
	return l
}
