package exact

import (
	"context"
	"errors"
	"testing"

	"github.com/altglass/semqa/internal/domain"
)

// testCorpus is a minimal in-memory corpus for engine tests.
type testCorpus struct {
	embeddings [][]float32
}

func (c *testCorpus) Size() int                  { return len(c.embeddings) }
func (c *testCorpus) Dimension() int             { return len(c.embeddings[0]) }
func (c *testCorpus) Embedding(id int) []float32 { return c.embeddings[id] }

// orthogonalCorpus has three unit vectors along distinct axes, so every query
// along an axis has exactly one perfect match.
func orthogonalCorpus() *testCorpus {
	return &testCorpus{embeddings: [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}}
}

func TestSearchFindsPerfectMatch(t *testing.T) {
	engine := New(orthogonalCorpus())

	for docID := 0; docID < 3; docID++ {
		query := []float32{0, 0, 0}
		query[docID] = 1

		results, err := engine.Search(context.Background(), query, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(results))
		}
		if results[0].DocID() != docID {
			t.Errorf("query along axis %d: matched doc %d", docID, results[0].DocID())
		}
		if results[0].Score() != 1 {
			t.Errorf("expected score 1, got %v", results[0].Score())
		}
	}
}

func TestSearchOrdersByDescendingScore(t *testing.T) {
	corpus := &testCorpus{embeddings: [][]float32{
		{0.6, 0.8},
		{1, 0},
		{0.8, 0.6},
	}}
	engine := New(corpus)

	results, err := engine.Search(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 1; i < len(results); i++ {
		if results[i].Score() > results[i-1].Score() {
			t.Errorf("results not sorted: score[%d]=%v > score[%d]=%v",
				i, results[i].Score(), i-1, results[i-1].Score())
		}
	}
	if results[0].DocID() != 1 {
		t.Errorf("expected doc 1 first, got %d", results[0].DocID())
	}
}

func TestSearchBreaksTiesByAscendingID(t *testing.T) {
	corpus := &testCorpus{embeddings: [][]float32{
		{0, 1},
		{1, 0},
		{1, 0},
	}}
	engine := New(corpus)

	results, err := engine.Search(context.Background(), []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].DocID() != 1 || results[1].DocID() != 2 {
		t.Errorf("tie-break violated: got docs %d, %d", results[0].DocID(), results[1].DocID())
	}
}

func TestSearchInvalidTopK(t *testing.T) {
	engine := New(orthogonalCorpus())

	for _, topK := range []int{0, -1, 4} {
		_, err := engine.Search(context.Background(), []float32{1, 0, 0}, topK)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("top_k=%d: expected ErrInvalidArgument, got %v", topK, err)
		}
	}
}

func TestSearchDimensionMismatch(t *testing.T) {
	engine := New(orthogonalCorpus())

	_, err := engine.Search(context.Background(), []float32{1, 0}, 1)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestSearchCanceledContext(t *testing.T) {
	engine := New(orthogonalCorpus())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Search(ctx, []float32{1, 0, 0}, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
