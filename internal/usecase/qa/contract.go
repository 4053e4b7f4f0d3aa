package qa

import (
	"context"

	"github.com/altglass/semqa/internal/domain"
	"github.com/altglass/semqa/internal/usecase/search"
)

// Searcher runs the retrieval pipeline.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (search.Response, error)
}

// DocumentReader resolves documents by id.
type DocumentReader interface {
	Get(id int) (domain.Document, error)
}

// Generator synthesizes an answer from retrieved context. Optional: a nil
// generator means the stored answer is always returned verbatim.
type Generator interface {
	Generate(ctx context.Context, promptContext, query string) (string, error)
}
