package resilience

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/duskrise/stargaze/internal/config"
	"github.com/duskrise/stargaze/internal/types"
)

func testRetryConfig(attempts int) config.RetryConfig {
	return config.RetryConfig{
		Enabled:     true,
		MaxAttempts: attempts,
		BaseDelay:   1 * time.Millisecond,
		MaxDelay:    10 * time.Millisecond,
	}
}

func TestNewRetryPolicy(t *testing.T) {
	t.Run("creates with config values", func(t *testing.T) {
		cfg := config.RetryConfig{
			MaxAttempts: 5,
			BaseDelay:   100 * time.Millisecond,
			MaxDelay:    2 * time.Second,
		}

		rp := NewRetryPolicy(cfg)

		if rp.maxAttempts != 5 {
			t.Errorf("maxAttempts = %v, want 5", rp.maxAttempts)
		}
		if rp.baseDelay != 100*time.Millisecond {
			t.Errorf("baseDelay = %v, want 100ms", rp.baseDelay)
		}
		if rp.maxDelay != 2*time.Second {
			t.Errorf("maxDelay = %v, want 2s", rp.maxDelay)
		}
	})

	t.Run("applies defaults for zero values", func(t *testing.T) {
		rp := NewRetryPolicy(config.RetryConfig{})

		if rp.maxAttempts != 3 {
			t.Errorf("maxAttempts = %v, want 3", rp.maxAttempts)
		}
		if rp.baseDelay != 1*time.Second {
			t.Errorf("baseDelay = %v, want 1s", rp.baseDelay)
		}
		if rp.maxDelay != 10*time.Second {
			t.Errorf("maxDelay = %v, want 10s", rp.maxDelay)
		}
	})
}

func TestRetryPolicyDelay(t *testing.T) {
	t.Run("doubles per attempt and caps at max", func(t *testing.T) {
		rp := NewRetryPolicy(config.RetryConfig{
			MaxAttempts: 10,
			BaseDelay:   1 * time.Second,
			MaxDelay:    10 * time.Second,
		})

		want := []time.Duration{
			1 * time.Second,  // attempt 0
			2 * time.Second,  // attempt 1
			4 * time.Second,  // attempt 2
			8 * time.Second,  // attempt 3
			10 * time.Second, // attempt 4: 16s capped
			10 * time.Second, // attempt 5
		}

		for attempt, expected := range want {
			if got := rp.Delay(attempt); got != expected {
				t.Errorf("Delay(%d) = %v, want %v", attempt, got, expected)
			}
		}
	})

	t.Run("negative attempt treated as first", func(t *testing.T) {
		rp := NewRetryPolicy(config.RetryConfig{
			BaseDelay: 1 * time.Second,
			MaxDelay:  10 * time.Second,
		})

		if got := rp.Delay(-1); got != 1*time.Second {
			t.Errorf("Delay(-1) = %v, want 1s", got)
		}
	})

	t.Run("large attempt does not overflow", func(t *testing.T) {
		rp := NewRetryPolicy(config.RetryConfig{
			BaseDelay: 1 * time.Second,
			MaxDelay:  10 * time.Second,
		})

		if got := rp.Delay(100); got != 10*time.Second {
			t.Errorf("Delay(100) = %v, want 10s", got)
		}
	})
}

func TestRetryPolicyExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("returns result on first success", func(t *testing.T) {
		rp := NewRetryPolicy(testRetryConfig(3))

		calls := 0
		result, err := rp.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
			calls++
			return "ok", nil
		})

		if err != nil {
			t.Errorf("error = %v, want nil", err)
		}
		if result != "ok" {
			t.Errorf("result = %v, want ok", result)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("retries transient errors up to max attempts", func(t *testing.T) {
		rp := NewRetryPolicy(testRetryConfig(3))

		transient := &types.APIError{StatusCode: 500}
		calls := 0
		_, err := rp.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
			calls++
			return nil, transient
		})

		if !errors.Is(err, transient) {
			t.Errorf("error = %v, want the final attempt error unchanged", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("succeeds after transient failures", func(t *testing.T) {
		rp := NewRetryPolicy(testRetryConfig(3))

		calls := 0
		result, err := rp.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
			calls++
			if calls < 3 {
				return nil, syscall.ECONNREFUSED
			}
			return "recovered", nil
		})

		if err != nil {
			t.Errorf("error = %v, want nil", err)
		}
		if result != "recovered" {
			t.Errorf("result = %v, want recovered", result)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("non-retryable error fails immediately", func(t *testing.T) {
		rp := NewRetryPolicy(testRetryConfig(3))

		notFound := &types.APIError{StatusCode: 404}
		calls := 0
		_, err := rp.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
			calls++
			return nil, notFound
		})

		if !errors.Is(err, notFound) {
			t.Errorf("error = %v, want the original 404", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1 for non-retryable error", calls)
		}
	})

	t.Run("circuit open error is not retried", func(t *testing.T) {
		rp := NewRetryPolicy(testRetryConfig(3))

		calls := 0
		_, err := rp.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
			calls++
			return nil, types.ErrCircuitOpen
		})

		if !errors.Is(err, types.ErrCircuitOpen) {
			t.Errorf("error = %v, want ErrCircuitOpen", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("context cancellation stops retries", func(t *testing.T) {
		rp := NewRetryPolicy(config.RetryConfig{
			MaxAttempts: 10,
			BaseDelay:   50 * time.Millisecond,
			MaxDelay:    1 * time.Second,
		})

		cancelCtx, cancel := context.WithCancel(context.Background())
		calls := 0
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		_, err := rp.ExecuteWithResult(cancelCtx, func(ctx context.Context) (any, error) {
			calls++
			return nil, syscall.ECONNREFUSED
		})

		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
		if calls > 2 {
			t.Errorf("calls = %d, want cancellation during backoff", calls)
		}
	})

	t.Run("Execute wraps ExecuteWithResult", func(t *testing.T) {
		rp := NewRetryPolicy(testRetryConfig(2))

		calls := 0
		err := rp.Execute(ctx, func(ctx context.Context) error {
			calls++
			return nil
		})

		if err != nil {
			t.Errorf("error = %v, want nil", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})
}

func TestRetryPolicyStats(t *testing.T) {
	ctx := context.Background()
	rp := NewRetryPolicy(testRetryConfig(3))

	// One success, one exhausted failure with 2 retries
	_, _ = rp.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
		return "ok", nil
	})
	_, _ = rp.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
		return nil, syscall.ECONNREFUSED
	})

	retries, success, failure := rp.Stats()
	if retries != 2 {
		t.Errorf("retries = %d, want 2", retries)
	}
	if success != 1 {
		t.Errorf("success = %d, want 1", success)
	}
	if failure != 1 {
		t.Errorf("failure = %d, want 1", failure)
	}

	rp.ResetStats()
	retries, success, failure = rp.Stats()
	if retries != 0 || success != 0 || failure != 0 {
		t.Errorf("Stats() after reset = (%d, %d, %d), want zeros", retries, success, failure)
	}
}

func TestDisabledRetryPolicy(t *testing.T) {
	ctx := context.Background()
	rp := NewDisabledRetryPolicy()

	t.Run("calls exactly once", func(t *testing.T) {
		calls := 0
		_, err := rp.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
			calls++
			return nil, syscall.ECONNREFUSED
		})

		if err == nil {
			t.Error("error = nil, want the underlying error")
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("passes through results", func(t *testing.T) {
		result, err := rp.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
			return 42, nil
		})
		if err != nil || result != 42 {
			t.Errorf("ExecuteWithResult() = (%v, %v), want (42, nil)", result, err)
		}
	})
}
