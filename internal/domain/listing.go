package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Listing is an immutable rental record. It is materialized once by the corpus
// adapter at load time; every other component holds read-only references.
type Listing struct {
	ID            string
	Title         string
	Description   string
	Neighbourhood string // canonical gazetteer tag
	PricePerNight float64
	GuestCapacity int
	Beds          int
	Baths         float64
	MinNights     int
	MaxNights     int
	Rating        float64 // 0..5, meaningful only when HasRating
	HasRating     bool
	ReviewCount   int
	Amenities     map[string]struct{} // canonical amenity tags
	TextBlob      string              // title + description + amenities + neighbourhood
}

// Validate checks the fields the engine depends on. A listing failing
// validation is dropped by the adapter, not repaired.
func (l *Listing) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("missing id: %w", ErrMalformedListing)
	}
	if l.Title == "" {
		return fmt.Errorf("listing %s: missing title: %w", l.ID, ErrMalformedListing)
	}
	if l.Neighbourhood == "" {
		return fmt.Errorf("listing %s: missing neighbourhood: %w", l.ID, ErrMalformedListing)
	}
	if l.PricePerNight < 0 {
		return fmt.Errorf("listing %s: negative price: %w", l.ID, ErrMalformedListing)
	}
	if l.GuestCapacity <= 0 {
		return fmt.Errorf("listing %s: non-positive guest capacity: %w", l.ID, ErrMalformedListing)
	}
	if l.ReviewCount < 0 {
		return fmt.Errorf("listing %s: negative review count: %w", l.ID, ErrMalformedListing)
	}
	if l.HasRating && (l.Rating < 0 || l.Rating > 5) {
		return fmt.Errorf("listing %s: rating %.2f out of range: %w", l.ID, l.Rating, ErrMalformedListing)
	}
	return nil
}

// HasAmenity reports whether the listing carries the canonical amenity tag.
func (l *Listing) HasAmenity(tag string) bool {
	_, ok := l.Amenities[tag]
	return ok
}

// SortedAmenities returns the amenity tags in deterministic order.
func (l *Listing) SortedAmenities() []string {
	out := make([]string, 0, len(l.Amenities))
	for a := range l.Amenities {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// ComposeTextBlob builds the text used for embedding and lexical indexing.
// Field order is fixed so the corpus fingerprint is stable across loads.
func ComposeTextBlob(title, description string, amenities []string, neighbourhood string) string {
	parts := make([]string, 0, 4)
	if title != "" {
		parts = append(parts, title)
	}
	if description != "" {
		parts = append(parts, description)
	}
	if len(amenities) > 0 {
		sorted := make([]string, len(amenities))
		copy(sorted, amenities)
		sort.Strings(sorted)
		parts = append(parts, strings.Join(sorted, ", "))
	}
	if neighbourhood != "" {
		parts = append(parts, neighbourhood)
	}
	return strings.Join(parts, ". ")
}
