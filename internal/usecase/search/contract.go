package search

import (
	"context"

	"github.com/altglass/semqa/internal/domain"
	"github.com/altglass/semqa/internal/domain/search/result"
	"github.com/altglass/semqa/internal/index/ivf"
)

// ExactEngine scans the full corpus for the nearest documents.
type ExactEngine interface {
	Search(ctx context.Context, query []float32, topK int) ([]result.Result, error)
}

// ApproxEngine scans a subset of partitions for the nearest documents.
type ApproxEngine interface {
	Search(ctx context.Context, query []float32, topK, leavesToSearch int) ([]result.Result, error)
	NumLeaves() int
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// IndexBuilder trains a fresh partition index over the current corpus.
type IndexBuilder interface {
	Build(ctx context.Context) (*ivf.Index, error)
}
