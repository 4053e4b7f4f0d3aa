// Package health aggregates component checks into a single report.
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

// DatabaseInfo describes the loaded corpus.
type DatabaseInfo struct {
	TotalDocuments  int      `json:"total_documents"`
	Columns         []string `json:"columns"`
	EmbeddingsShape [2]int   `json:"embeddings_shape"`
}

// Report aggregates health check results with the corpus shape.
type Report struct {
	Status       Status
	Checks       map[string]CheckResult
	DatabaseInfo DatabaseInfo
}

// Service coordinates health checks.
type Service struct {
	corpus    CorpusInfo
	embedding EmbeddingChecker
	cache     CachePinger
}

// New creates a Service. embedding and cache can be nil.
func New(corpus CorpusInfo, embedding EmbeddingChecker, cache CachePinger) *Service {
	return &Service{corpus: corpus, embedding: embedding, cache: cache}
}

// Check runs health checks against all configured components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["cache"] = CheckError
		} else {
			checks["cache"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{
		Status: status,
		Checks: checks,
		DatabaseInfo: DatabaseInfo{
			TotalDocuments:  s.corpus.Size(),
			Columns:         s.corpus.Columns(),
			EmbeddingsShape: [2]int{s.corpus.Size(), s.corpus.Dimension()},
		},
	}
}
