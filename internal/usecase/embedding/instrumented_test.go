package embedding

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/altglass/semqa/internal/domain"
)

// singleEmbedder supports only per-text embedding.
type singleEmbedder struct {
	calls int
	err   error
}

func (s *singleEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	s.calls++
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	return domain.EmbeddingResult{
		Embedding:   []float32{float32(len(text))},
		TotalTokens: 2,
	}, nil
}

// batchEmbedder records the chunk sizes it receives.
type batchEmbedder struct {
	singleEmbedder
	batchSizes []int
}

func (b *batchEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	b.batchSizes = append(b.batchSizes, len(texts))
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = []float32{float32(i)}
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings, TotalTokens: len(texts)}, nil
}

func TestBatchEmbedChunksLargeInputs(t *testing.T) {
	inner := &batchEmbedder{}
	p := NewInstrumentedEmbedder(inner, "openai", "test-model", zap.NewNop())

	texts := make([]string, DefaultMaxAPIBatchSize+10)
	for i := range texts {
		texts[i] = fmt.Sprintf("text %d", i)
	}

	result, err := p.BatchEmbed(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Embeddings) != len(texts) {
		t.Errorf("embeddings: got %d, want %d", len(result.Embeddings), len(texts))
	}
	if len(inner.batchSizes) != 2 {
		t.Fatalf("expected 2 chunks, got %v", inner.batchSizes)
	}
	if inner.batchSizes[0] != DefaultMaxAPIBatchSize || inner.batchSizes[1] != 10 {
		t.Errorf("chunk sizes: got %v", inner.batchSizes)
	}
	if result.TotalTokens != len(texts) {
		t.Errorf("tokens: got %d", result.TotalTokens)
	}
}

func TestBatchEmbedFallsBackToPerTextEmbedding(t *testing.T) {
	inner := &singleEmbedder{}
	p := NewInstrumentedEmbedder(inner, "openai", "test-model", zap.NewNop())

	result, err := p.BatchEmbed(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if inner.calls != 3 {
		t.Errorf("expected 3 per-text calls, got %d", inner.calls)
	}
	if len(result.Embeddings) != 3 {
		t.Fatalf("embeddings: got %d", len(result.Embeddings))
	}
	if result.Embeddings[2][0] != 3 {
		t.Errorf("unexpected embedding for third text: %v", result.Embeddings[2])
	}
	if result.TotalTokens != 6 {
		t.Errorf("tokens: got %d", result.TotalTokens)
	}
}

func TestBatchEmbedEmptyInput(t *testing.T) {
	p := NewInstrumentedEmbedder(&singleEmbedder{}, "openai", "test-model", zap.NewNop())

	result, err := p.BatchEmbed(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embeddings) != 0 {
		t.Errorf("expected no embeddings, got %d", len(result.Embeddings))
	}
}

func TestBatchEmbedErrorPropagates(t *testing.T) {
	inner := &singleEmbedder{err: domain.ErrEmbeddingProvider}
	p := NewInstrumentedEmbedder(inner, "openai", "test-model", zap.NewNop())

	_, err := p.BatchEmbed(context.Background(), []string{"a"})
	if !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Errorf("expected ErrEmbeddingProvider, got %v", err)
	}
}

func TestEmbedDelegates(t *testing.T) {
	inner := &singleEmbedder{}
	p := NewInstrumentedEmbedder(inner, "openai", "test-model", zap.NewNop())

	result, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Embedding[0] != 5 {
		t.Errorf("unexpected embedding: %v", result.Embedding)
	}
}
