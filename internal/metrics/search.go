package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roost",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"outcome"}, // "ok" / "degraded" / "error"
	)

	SearchCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "roost",
			Name:      "search_candidates",
			Help:      "Candidate set size after hard filtering",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
	)

	SearchRelaxationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roost",
			Name:      "search_relaxations_total",
			Help:      "Constraint groups dropped by the candidate-filter fallback",
		},
		[]string{"constraint"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchCandidates)
	prometheus.MustRegister(SearchRelaxationsTotal)
	searchMetricsRegistered = true
}
