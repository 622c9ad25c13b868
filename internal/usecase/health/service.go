package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks. The service stays up in degraded mode
// when the embedding backend is away, so a failing check never means down,
// only reduced ranking quality.
type Service struct {
	corpus    CorpusInfo
	store     StorePinger
	embedding EmbeddingChecker
}

// New creates a Service. store and embedding can be nil: file-driver
// deployments have no listing store to ping, and a failed embedding index
// build leaves no checker.
func New(corpus CorpusInfo, store StorePinger, embedding EmbeddingChecker) *Service {
	return &Service{corpus: corpus, store: store, embedding: embedding}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.corpus.Len() > 0 {
		checks["corpus"] = CheckOK
	} else {
		checks["corpus"] = CheckError
	}

	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			checks["listing_store"] = CheckError
		} else {
			checks["listing_store"] = CheckOK
		}
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	} else {
		// No checker at all means the index build already failed.
		checks["embedding"] = CheckError
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
