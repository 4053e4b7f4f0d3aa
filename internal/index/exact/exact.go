// Package exact implements the brute-force similarity scan. Always correct,
// O(N*d) per query; the baseline approximate results are validated against.
package exact

import (
	"context"
	"fmt"

	"github.com/altglass/semqa/internal/domain"
	"github.com/altglass/semqa/internal/domain/search/result"
	"github.com/altglass/semqa/internal/index"
)

// cancelCheckInterval is how many documents are scanned between
// context cancellation checks.
const cancelCheckInterval = 1024

// Corpus is the read-only view of the document store the engine scans.
type Corpus interface {
	Size() int
	Dimension() int
	Embedding(id int) []float32
}

// Engine scans the full corpus for every query.
type Engine struct {
	corpus Corpus
}

// New creates an exact search engine over the corpus.
func New(corpus Corpus) *Engine {
	return &Engine{corpus: corpus}
}

// Search scores the query against every document and returns the topK
// results ordered by descending similarity, ties by ascending document id.
func (e *Engine) Search(ctx context.Context, query []float32, topK int) ([]result.Result, error) {
	n := e.corpus.Size()
	if topK < 1 || topK > n {
		return nil, fmt.Errorf("%w: top_k must be between 1 and %d, got %d", domain.ErrInvalidArgument, n, topK)
	}
	if len(query) != e.corpus.Dimension() {
		return nil, fmt.Errorf(
			"%w: query dimension %d, corpus dimension %d",
			domain.ErrInvalidArgument, len(query), e.corpus.Dimension(),
		)
	}

	candidates := make([]index.Scored, n)
	for i := 0; i < n; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("exact scan canceled at %d/%d: %w", i, n, err)
			}
		}
		candidates[i] = index.Scored{DocID: i, Score: index.Dot(query, e.corpus.Embedding(i))}
	}

	return index.TopK(candidates, topK), nil
}
