package corpus

import "context"

// RawListing is one listing record as delivered by a source, before
// normalization and validation.
type RawListing struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Neighbourhood string   `json:"neighbourhood"`
	PricePerNight float64  `json:"price_per_night"`
	GuestCapacity int      `json:"guest_capacity"`
	Beds          int      `json:"beds"`
	Baths         float64  `json:"baths"`
	MinNights     int      `json:"minimum_nights"`
	MaxNights     int      `json:"maximum_nights"`
	Rating        *float64 `json:"rating"`
	ReviewCount   int      `json:"review_count"`
	Amenities     []string `json:"amenities"`
}

// Source delivers the raw listing catalog in bulk. undecodable counts records
// the source could not even deserialize; they participate in the adapter's
// malformed-fraction check alongside validation failures.
type Source interface {
	FetchAll(ctx context.Context) (records []RawListing, undecodable int, err error)
}
