package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/altglass/semqa/internal/domain"
)

// flakyEmbedder fails a fixed number of times before succeeding.
type flakyEmbedder struct {
	failures int
	err      error
	calls    int
}

func (f *flakyEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	f.calls++
	if f.calls <= f.failures {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: []float32{1}}, nil
}

func fastPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	inner := &flakyEmbedder{failures: 2, err: domain.ErrEmbeddingProvider}
	r := NewRetryEmbedder(inner, fastPolicy(), zap.NewNop())

	result, err := r.Embed(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 calls, got %d", inner.calls)
	}
	if len(result.Embedding) != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	inner := &flakyEmbedder{failures: 10, err: domain.ErrEmbeddingProvider}
	r := NewRetryEmbedder(inner, fastPolicy(), zap.NewNop())

	_, err := r.Embed(context.Background(), "q")
	if !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Fatalf("expected ErrEmbeddingProvider, got %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 calls, got %d", inner.calls)
	}
}

func TestRetryDoesNotRetryInvalidArgument(t *testing.T) {
	inner := &flakyEmbedder{failures: 10, err: domain.ErrInvalidArgument}
	r := NewRetryEmbedder(inner, fastPolicy(), zap.NewNop())

	_, err := r.Embed(context.Background(), "q")
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 call, got %d", inner.calls)
	}
}

func TestRetryDoesNotRetryCanceledContext(t *testing.T) {
	inner := &flakyEmbedder{failures: 10, err: context.Canceled}
	r := NewRetryEmbedder(inner, fastPolicy(), zap.NewNop())

	_, err := r.Embed(context.Background(), "q")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 call, got %d", inner.calls)
	}
}

func TestPolicyDelayIsCapped(t *testing.T) {
	p := Policy{MaxAttempts: 10, BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}

	if d := p.delay(1); d != 100*time.Millisecond {
		t.Errorf("attempt 1: got %v", d)
	}
	if d := p.delay(2); d != 200*time.Millisecond {
		t.Errorf("attempt 2: got %v", d)
	}
	if d := p.delay(3); d != 300*time.Millisecond {
		t.Errorf("attempt 3: got %v", d)
	}
	if d := p.delay(8); d != 300*time.Millisecond {
		t.Errorf("attempt 8: got %v", d)
	}
}

func TestNewRetryEmbedderFallsBackToDefaultPolicy(t *testing.T) {
	r := NewRetryEmbedder(&flakyEmbedder{}, Policy{}, zap.NewNop())
	if r.policy.MaxAttempts != DefaultPolicy.MaxAttempts {
		t.Errorf("expected default policy, got %+v", r.policy)
	}
}
