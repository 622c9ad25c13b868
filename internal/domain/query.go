package domain

import "sort"

// ParsedQuery holds the structured constraints extracted from one free-text
// query. Nil pointer fields mean "no constraint". Lifetime is a single request.
type ParsedQuery struct {
	RawText        string
	Guests         *int
	Nights         *int
	PriceMin       *float64
	PriceMax       *float64
	Neighbourhoods map[string]struct{} // OR semantics
	Amenities      map[string]struct{} // AND semantics, canonical tags
}

// NewParsedQuery returns an empty parse for the given raw text.
func NewParsedQuery(raw string) ParsedQuery {
	return ParsedQuery{
		RawText:        raw,
		Neighbourhoods: make(map[string]struct{}),
		Amenities:      make(map[string]struct{}),
	}
}

// HasConstraints reports whether any hard constraint was extracted.
func (q *ParsedQuery) HasConstraints() bool {
	return q.Guests != nil || q.Nights != nil ||
		q.PriceMin != nil || q.PriceMax != nil ||
		len(q.Neighbourhoods) > 0 || len(q.Amenities) > 0
}

// SortedNeighbourhoods returns the neighbourhood set in deterministic order.
func (q *ParsedQuery) SortedNeighbourhoods() []string {
	return sortedSet(q.Neighbourhoods)
}

// SortedAmenities returns the required amenity set in deterministic order.
func (q *ParsedQuery) SortedAmenities() []string {
	return sortedSet(q.Amenities)
}

func sortedSet(s map[string]struct{}) []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
