package health

import "context"

// CorpusInfo exposes the loaded corpus shape for the health payload.
type CorpusInfo interface {
	Size() int
	Dimension() int
	Columns() []string
}

// EmbeddingChecker verifies the embedding provider is reachable.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// CachePinger verifies the embedding cache is reachable.
type CachePinger interface {
	Ping(ctx context.Context) error
}
