// Package qa assembles question-answering responses: retrieve the closest
// stored pair, then either synthesize a fresh answer or fall back to the
// stored one. Retrieval never fails solely because generation failed.
package qa

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/altglass/semqa/internal/usecase/search"
)

// SourceDocument is the retrieved pair the answer is grounded on.
type SourceDocument struct {
	ID              int     `json:"id"`
	Question        string  `json:"question"`
	Answer          string  `json:"answer"`
	SimilarityScore float32 `json:"similarity_score"`
}

// Response is the per-request answer envelope.
type Response struct {
	Success        bool            `json:"success"`
	Query          string          `json:"query"`
	Answer         string          `json:"answer"`
	SourceDocument *SourceDocument `json:"source_document,omitempty"`
	SearchMethod   string          `json:"search_method"`
	LatencyMS      float64         `json:"latency_ms"`
}

// Service assembles answers from retrieval plus optional generation.
type Service struct {
	searcher Searcher
	docs     DocumentReader
	gen      Generator
	logger   *zap.Logger
}

// New creates a Q&A service. gen may be nil to disable generation.
func New(searcher Searcher, docs DocumentReader, gen Generator, logger *zap.Logger) *Service {
	return &Service{searcher: searcher, docs: docs, gen: gen, logger: logger}
}

// Ask retrieves the nearest document for the query and produces an answer.
// Only the top result drives synthesis; lower-ranked results are dropped.
// latency_ms covers embedding, search, and generation end to end.
func (s *Service) Ask(ctx context.Context, query string, useApproximate bool, topK int) (Response, error) {
	start := time.Now()

	searchResp, err := s.searcher.Search(ctx, search.Request{
		Query:          query,
		TopK:           topK,
		UseApproximate: useApproximate,
	})
	if err != nil {
		return Response{}, fmt.Errorf("search: %w", err)
	}

	if len(searchResp.Results) == 0 {
		return Response{
			Success:      false,
			Query:        query,
			SearchMethod: searchResp.Method,
			LatencyMS:    latencyMS(start),
		}, nil
	}

	top := searchResp.Results[0]
	doc, err := s.docs.Get(top.DocID())
	if err != nil {
		return Response{}, fmt.Errorf("resolve document %d: %w", top.DocID(), err)
	}

	answer := s.answerFor(ctx, query, doc.Question(), doc.Answer())

	return Response{
		Success: true,
		Query:   query,
		Answer:  answer,
		SourceDocument: &SourceDocument{
			ID:              doc.ID(),
			Question:        doc.Question(),
			Answer:          doc.Answer(),
			SimilarityScore: top.Score(),
		},
		SearchMethod: searchResp.Method,
		LatencyMS:    latencyMS(start),
	}, nil
}

// answerFor synthesizes an answer via the generator, or falls back to the
// stored answer verbatim when the generator is absent or fails.
func (s *Service) answerFor(ctx context.Context, query, question, storedAnswer string) string {
	if s.gen == nil {
		return storedAnswer
	}

	promptContext := fmt.Sprintf("Question: %s\nAnswer: %s", question, storedAnswer)

	generated, err := s.gen.Generate(ctx, promptContext, query)
	if err != nil {
		s.logger.Warn("Answer generation failed, using stored answer",
			zap.String("query", query),
			zap.Error(err),
		)
		return storedAnswer
	}
	return generated
}

func latencyMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
