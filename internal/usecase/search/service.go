// Package search orchestrates query embedding and engine dispatch, and owns
// the live partition index for lock-free rebuilds.
package search

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/altglass/semqa/internal/domain"
	"github.com/altglass/semqa/internal/domain/search/result"
	"github.com/altglass/semqa/internal/index"
	"github.com/altglass/semqa/internal/index/ivf"
	"github.com/altglass/semqa/internal/metrics"
)

// Method names used in responses and metric labels.
const (
	MethodExact       = "exact"
	MethodApproximate = "approximate"
)

// Request is a search query with engine selection.
type Request struct {
	Query          string
	TopK           int
	UseApproximate bool
	// LeavesToSearch overrides the configured default when > 0.
	LeavesToSearch int
}

// Response carries the ranked results and how they were obtained.
type Response struct {
	Results   []result.Result
	Method    string
	LatencyMS float64
	// TotalTokens consumed embedding the query (0 on a cache hit).
	TotalTokens int
}

// Service embeds queries and dispatches them to the exact or approximate
// engine. The approximate index is held behind an atomic pointer so Rebuild
// never blocks readers.
type Service struct {
	embed   Embedder
	exact   ExactEngine
	approx  atomic.Pointer[ivf.Index]
	builder IndexBuilder

	defaultLeavesToSearch int
	logger                *zap.Logger
}

// New creates a search service. approx may be nil when the service starts
// without a trained index; approximate queries then fail until Rebuild.
func New(
	embed Embedder,
	exact ExactEngine,
	approx *ivf.Index,
	builder IndexBuilder,
	defaultLeavesToSearch int,
	logger *zap.Logger,
) *Service {
	s := &Service{
		embed:                 embed,
		exact:                 exact,
		builder:               builder,
		defaultLeavesToSearch: defaultLeavesToSearch,
		logger:                logger,
	}
	if approx != nil {
		s.approx.Store(approx)
	}
	return s
}

// Index returns the live partition index, or nil when none is trained.
func (s *Service) Index() *ivf.Index {
	return s.approx.Load()
}

// Search embeds the query and runs the selected engine. Latency covers the
// full operation including embedding.
func (s *Service) Search(ctx context.Context, req Request) (Response, error) {
	start := time.Now()

	method := MethodExact
	if req.UseApproximate {
		method = MethodApproximate
	}

	if req.Query == "" {
		return Response{}, fmt.Errorf("%w: query must not be empty", domain.ErrInvalidArgument)
	}
	if req.TopK < 1 {
		return Response{}, fmt.Errorf("%w: top_k must be at least 1, got %d", domain.ErrInvalidArgument, req.TopK)
	}

	embResult, err := s.embed.Embed(ctx, req.Query)
	if err != nil {
		s.observe(method, "error", start)
		return Response{}, fmt.Errorf("vectorize query: %w", err)
	}
	query := index.Normalize(embResult.Embedding)

	var results []result.Result
	if req.UseApproximate {
		results, err = s.searchApproximate(ctx, query, req)
	} else {
		results, err = s.exact.Search(ctx, query, req.TopK)
	}
	if err != nil {
		s.observe(method, "error", start)
		return Response{}, err
	}

	s.observe(method, "success", start)

	return Response{
		Results:     results,
		Method:      method,
		LatencyMS:   float64(time.Since(start).Microseconds()) / 1000.0,
		TotalTokens: embResult.TotalTokens,
	}, nil
}

func (s *Service) searchApproximate(ctx context.Context, query []float32, req Request) ([]result.Result, error) {
	ix := s.approx.Load()
	if ix == nil {
		return nil, fmt.Errorf("%w: no partition index is trained", domain.ErrSearchFailure)
	}

	leaves := req.LeavesToSearch
	if leaves == 0 {
		leaves = s.defaultLeavesToSearch
		if leaves > ix.NumLeaves() {
			leaves = ix.NumLeaves()
		}
	}

	results, err := ix.Search(ctx, query, req.TopK, leaves)
	if err != nil {
		return nil, fmt.Errorf("approximate search: %w", err)
	}
	return results, nil
}

// Rebuild trains a fresh partition index and atomically swaps it in.
// Concurrent searches keep using the old index until the swap.
func (s *Service) Rebuild(ctx context.Context) error {
	start := time.Now()

	ix, err := s.builder.Build(ctx)
	if err != nil {
		metrics.IndexRebuildsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("rebuild index: %w", err)
	}

	s.approx.Store(ix)
	metrics.IndexRebuildsTotal.WithLabelValues("success").Inc()

	s.logger.Info("Partition index rebuilt",
		zap.Int("num_leaves", ix.NumLeaves()),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func (s *Service) observe(method, status string, start time.Time) {
	metrics.SearchesTotal.WithLabelValues(method, status).Inc()
	metrics.SearchDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}
