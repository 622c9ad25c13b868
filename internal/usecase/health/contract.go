package health

import "context"

// StorePinger checks listing store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// CorpusInfo reports the loaded catalog size.
type CorpusInfo interface {
	Len() int
}
