package resilience

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/duskrise/stargaze/internal/config"
	"github.com/duskrise/stargaze/internal/types"
)

// RetryPolicy implements pure exponential backoff with error-class-aware
// retry eligibility. It holds no shared state beyond counters and is safe to
// reuse across calls.
type RetryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration

	totalRetries atomic.Int64
	totalSuccess atomic.Int64
	totalFailure atomic.Int64
}

// NewRetryPolicy creates a new retry policy with the given configuration.
func NewRetryPolicy(cfg config.RetryConfig) *RetryPolicy {
	rp := &RetryPolicy{
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		maxDelay:    cfg.MaxDelay,
	}

	if rp.maxAttempts < 1 {
		rp.maxAttempts = 3
	}
	if rp.baseDelay <= 0 {
		rp.baseDelay = 1 * time.Second
	}
	if rp.maxDelay < rp.baseDelay {
		rp.maxDelay = 10 * time.Second
	}

	return rp
}

// Execute runs an operation with retry logic and context.
func (rp *RetryPolicy) Execute(ctx context.Context, fn func(context.Context) error) error {
	_, err := rp.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}

// ExecuteWithResult runs an operation that returns a result with retry logic.
// Non-retryable errors fail immediately without consuming remaining attempts;
// the final error of an exhausted budget is returned unchanged. Backoff
// sleeps are cancellable via ctx and hold no locks.
func (rp *RetryPolicy) ExecuteWithResult(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	var lastErr error

	for attempt := 0; attempt < rp.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		result, err := fn(ctx)
		if err == nil {
			rp.totalSuccess.Add(1)
			return result, nil
		}

		lastErr = err

		if !types.IsRetryable(err) {
			rp.totalFailure.Add(1)
			return nil, err
		}

		if attempt == rp.maxAttempts-1 {
			break
		}

		rp.totalRetries.Add(1)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(rp.Delay(attempt)):
		}
	}

	rp.totalFailure.Add(1)
	return nil, lastErr
}

// Delay returns the backoff for a 0-based attempt index:
// min(baseDelay * 2^attempt, maxDelay). No jitter.
func (rp *RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := rp.baseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= rp.maxDelay || delay <= 0 {
			return rp.maxDelay
		}
	}

	if delay > rp.maxDelay {
		return rp.maxDelay
	}
	return delay
}

// Stats returns retry statistics.
func (rp *RetryPolicy) Stats() (retries, success, failure int64) {
	return rp.totalRetries.Load(), rp.totalSuccess.Load(), rp.totalFailure.Load()
}

// ResetStats resets the statistics.
func (rp *RetryPolicy) ResetStats() {
	rp.totalRetries.Store(0)
	rp.totalSuccess.Store(0)
	rp.totalFailure.Store(0)
}

// DisabledRetryPolicy is a no-op retry policy that doesn't retry.
type DisabledRetryPolicy struct{}

// NewDisabledRetryPolicy creates a disabled retry policy.
func NewDisabledRetryPolicy() *DisabledRetryPolicy {
	return &DisabledRetryPolicy{}
}

// Execute runs a function without retry logic.
func (rp *DisabledRetryPolicy) Execute(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// ExecuteWithResult runs a function that returns a result without retry logic.
func (rp *DisabledRetryPolicy) ExecuteWithResult(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	return fn(ctx)
}
