// Package chi exposes the HTTP API: search, listing reads, retrieval for
// RAG consumers, health, and metrics.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/roosthq/roost/internal/domain"
	healthuc "github.com/roosthq/roost/internal/usecase/health"
	listingsuc "github.com/roosthq/roost/internal/usecase/listings"
	retrievaluc "github.com/roosthq/roost/internal/usecase/retrieval"
	searchuc "github.com/roosthq/roost/internal/usecase/search"
)

// Error response codes.
const (
	codeBadRequest           = "bad_request"
	codeEmptyQuery           = "empty_query"
	codeListingNotFound      = "listing_not_found"
	codeEmbeddingUnavailable = "embedding_unavailable"
	codeInternalError        = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	search        *searchuc.Service
	listings      *listingsuc.Service
	retrieval     *retrievaluc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	listings *listingsuc.Service,
	retrieval *retrievaluc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:    search,
		listings:  listings,
		retrieval: retrieval,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, codeEmptyQuery),
		sentinelHandler(domain.ErrListingNotFound, http.StatusNotFound, codeListingNotFound),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusBadGateway, codeEmbeddingUnavailable),
	}
	return s
}

// Routes mounts all handlers on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/search", s.Search)
	r.Get("/listings/featured", s.FeaturedListings)
	r.Get("/listings/{id}", s.GetListing)
	r.Post("/retrieval", s.Retrieve)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type parsedQueryResponse struct {
	Guests         *int     `json:"guests,omitempty"`
	Nights         *int     `json:"nights,omitempty"`
	PriceMin       *float64 `json:"price_min,omitempty"`
	PriceMax       *float64 `json:"price_max,omitempty"`
	Neighbourhoods []string `json:"neighbourhoods,omitempty"`
	Amenities      []string `json:"amenities,omitempty"`
}

type scoreBreakdown struct {
	Semantic float64 `json:"semantic"`
	Lexical  float64 `json:"lexical"`
	Rating   float64 `json:"rating"`
	Price    float64 `json:"price"`
	Final    float64 `json:"final"`
}

type listingResponse struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Neighbourhood string   `json:"neighbourhood,omitempty"`
	PricePerNight float64  `json:"price_per_night"`
	GuestCapacity int      `json:"guest_capacity"`
	Beds          int      `json:"beds,omitempty"`
	Baths         float64  `json:"baths,omitempty"`
	MinNights     int      `json:"minimum_nights,omitempty"`
	MaxNights     int      `json:"maximum_nights,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
	ReviewCount   int      `json:"review_count"`
	Amenities     []string `json:"amenities,omitempty"`
}

type searchResultItem struct {
	Listing listingResponse `json:"listing"`
	Scores  scoreBreakdown  `json:"scores"`
}

type searchResponse struct {
	Query    parsedQueryResponse `json:"query"`
	Results  []searchResultItem  `json:"results"`
	Degraded bool                `json:"degraded"`
	Relaxed  []string            `json:"relaxed,omitempty"`
	Total    int                 `json:"total"`
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	res, err := s.search.Search(r.Context(), req.Query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]searchResultItem, 0, len(res.Candidates))
	for _, c := range res.Candidates {
		l, err := s.listings.Get(c.ListingID)
		if err != nil {
			continue
		}
		items = append(items, searchResultItem{
			Listing: listingToResponse(l),
			Scores: scoreBreakdown{
				Semantic: c.Semantic,
				Lexical:  c.Lexical,
				Rating:   c.RatingScore,
				Price:    c.PriceScore,
				Final:    c.Final,
			},
		})
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:    parsedToResponse(res.Query),
		Results:  items,
		Degraded: res.Degraded,
		Relaxed:  res.Relaxed,
		Total:    len(items),
	})
}

// GetListing handles GET /listings/{id}.
func (s *Server) GetListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	l, err := s.listings.Get(id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listingToResponse(l))
}

type featuredResponse struct {
	Items []listingResponse `json:"items"`
	Total int               `json:"total"`
}

// FeaturedListings handles GET /listings/featured.
func (s *Server) FeaturedListings(w http.ResponseWriter, r *http.Request) {
	featured := s.listings.Featured()
	items := make([]listingResponse, len(featured))
	for i, l := range featured {
		items[i] = listingToResponse(l)
	}
	writeJSON(w, http.StatusOK, featuredResponse{Items: items, Total: len(items)})
}

type retrievalRequest struct {
	Query         string `json:"query"`
	K             int    `json:"k,omitempty"`
	Neighbourhood string `json:"neighbourhood,omitempty"`
}

type retrievalChunk struct {
	ListingID  string  `json:"listing_id"`
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
}

type retrievalResponse struct {
	Chunks []retrievalChunk `json:"chunks"`
	Total  int              `json:"total"`
}

// Retrieve handles POST /retrieval.
func (s *Server) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req retrievalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	chunks, err := s.retrieval.Retrieve(r.Context(), req.Query, req.K, req.Neighbourhood)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]retrievalChunk, len(chunks))
	for i, c := range chunks {
		items[i] = retrievalChunk{ListingID: c.ListingID, Text: c.Text, Similarity: c.Similarity}
	}
	writeJSON(w, http.StatusOK, retrievalResponse{Chunks: items, Total: len(items)})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health. Degraded still answers 200: the service
// serves searches without the embedding backend, just with reduced quality.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func listingToResponse(l domain.Listing) listingResponse {
	resp := listingResponse{
		ID:            l.ID,
		Title:         l.Title,
		Description:   l.Description,
		Neighbourhood: l.Neighbourhood,
		PricePerNight: l.PricePerNight,
		GuestCapacity: l.GuestCapacity,
		Beds:          l.Beds,
		Baths:         l.Baths,
		MinNights:     l.MinNights,
		MaxNights:     l.MaxNights,
		ReviewCount:   l.ReviewCount,
		Amenities:     l.SortedAmenities(),
	}
	if l.HasRating {
		rating := l.Rating
		resp.Rating = &rating
	}
	return resp
}

func parsedToResponse(pq domain.ParsedQuery) parsedQueryResponse {
	return parsedQueryResponse{
		Guests:         pq.Guests,
		Nights:         pq.Nights,
		PriceMin:       pq.PriceMin,
		PriceMax:       pq.PriceMax,
		Neighbourhoods: pq.SortedNeighbourhoods(),
		Amenities:      pq.SortedAmenities(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuery,
		domain.ErrListingNotFound,
		domain.ErrEmbeddingUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
