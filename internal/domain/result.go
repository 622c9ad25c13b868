package domain

// ScoredCandidate carries the per-signal and blended scores for one candidate
// listing. Computed per request and discarded with the response.
type ScoredCandidate struct {
	ListingID   string
	Semantic    float64 // cosine renormalized into [0,1]
	Lexical     float64 // TF-IDF cosine, [0,1]
	RatingScore float64 // rating/5, or a fixed default when unrated
	PriceScore  float64 // closeness to the stated bound, [0,1]
	Final       float64
}

// RankedResult is the outcome of one search request.
type RankedResult struct {
	Query      ParsedQuery
	Candidates []ScoredCandidate
	// Degraded is true when the semantic signal was unavailable and the
	// remaining weights were renormalized.
	Degraded bool
	// Relaxed names the constraint groups dropped by the candidate-filter
	// fallback, in the order they were dropped. Empty for a strict match.
	Relaxed []string
}
