package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/altglass/semqa/internal/domain"
)

// Policy is an explicit retry policy for external provider calls.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy retries twice with a short exponential backoff.
var DefaultPolicy = Policy{
	MaxAttempts: 3,
	BaseDelay:   100 * time.Millisecond,
	MaxDelay:    2 * time.Second,
}

// delay returns the backoff before the given retry attempt (1-based).
func (p Policy) delay(attempt int) time.Duration {
	d := p.BaseDelay << (attempt - 1)
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// RetryEmbedder retries transient embedding failures per the policy.
// Context cancellation and invalid arguments are never retried.
type RetryEmbedder struct {
	inner  domain.Embedder
	policy Policy
	logger *zap.Logger
}

// NewRetryEmbedder wraps an embedder with the retry policy.
func NewRetryEmbedder(inner domain.Embedder, policy Policy, logger *zap.Logger) *RetryEmbedder {
	if policy.MaxAttempts < 1 {
		policy = DefaultPolicy
	}
	return &RetryEmbedder{inner: inner, policy: policy, logger: logger}
}

// Embed delegates to the inner embedder, retrying on provider errors.
func (r *RetryEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	var lastErr error

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		result, err := r.inner.Embed(ctx, text)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !retryable(err) || attempt == r.policy.MaxAttempts {
			break
		}

		delay := r.policy.delay(attempt)
		r.logger.Warn("Embedding attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return domain.EmbeddingResult{}, fmt.Errorf("retry aborted: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return domain.EmbeddingResult{}, fmt.Errorf("embed after %d attempts: %w", r.policy.MaxAttempts, lastErr)
}

// retryable reports whether an error is worth another attempt.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !errors.Is(err, domain.ErrInvalidArgument)
}
