package resilience

import (
	"context"

	"github.com/duskrise/stargaze/internal/types"
)

// Re-export errors and classification from the types package for convenience
// within the resilience package.
var ErrCircuitOpen = types.ErrCircuitOpen

// IsCircuitOpen returns true if the error is a circuit open error.
func IsCircuitOpen(err error) bool {
	return types.IsCircuitOpen(err)
}

// IsRetryable determines if an error is transient and worth retrying.
func IsRetryable(err error) bool {
	return types.IsRetryable(err)
}

// Breaker is the circuit breaker contract consumed by the repository.
type Breaker interface {
	CanAttempt() bool
	Peek() bool
	RecordSuccess()
	RecordFailure()
	State() State
	IsOpen() bool
	FailureCount() int
	Reset()
	SetOnStateChange(fn func(from, to State))
}

// Retrier is the retry policy contract consumed by the repository.
type Retrier interface {
	Execute(ctx context.Context, fn func(context.Context) error) error
	ExecuteWithResult(ctx context.Context, fn func(context.Context) (any, error)) (any, error)
}
