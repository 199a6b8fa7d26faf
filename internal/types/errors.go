package types

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

var (
	ErrNoData           = errors.New("stargaze: no cached data")
	ErrDataCorrupted    = errors.New("stargaze: cached data corrupted")
	ErrInvalidKey       = errors.New("stargaze: invalid cache key")
	ErrCircuitOpen      = errors.New("stargaze: circuit breaker open")
	ErrEmptyResponse    = errors.New("stargaze: empty response body")
	ErrInvalidURL       = errors.New("stargaze: invalid request URL")
	ErrResponseTooLarge = errors.New("stargaze: response body exceeds size limit")
	ErrClosed           = errors.New("stargaze: client closed")
)

// APIError represents a non-2xx response from the remote service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("stargaze: api returned status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("stargaze: api returned status %d", e.StatusCode)
}

// IsServerError returns true for 5xx status codes.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode <= 599
}

// DecodeError wraps a payload deserialization failure.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("stargaze: decode failed: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// StoreError wraps a cache tier failure with operation context.
type StoreError struct {
	Op   string
	Key  string
	Tier string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("cache %s on %s [%s]: %v", e.Op, e.Tier, e.Key, e.Err)
	}
	return fmt.Sprintf("cache %s on %s: %v", e.Op, e.Tier, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func NewStoreError(op, key, tier string, err error) *StoreError {
	return &StoreError{
		Op:   op,
		Key:  key,
		Tier: tier,
		Err:  err,
	}
}

func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData)
}

func IsDataCorrupted(err error) bool {
	return errors.Is(err, ErrDataCorrupted)
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// IsRetryable determines if a fetch error is transient and worth retrying.
// Server 5xx responses and transport-level timeouts or connection failures
// are retryable. Client 4xx responses, malformed URLs, empty bodies, and
// decode failures are not: retrying them cannot succeed and only delays the
// fallback decision.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Circuit open means the breaker already decided to stop trying
	if errors.Is(err, ErrCircuitOpen) {
		return false
	}

	if errors.Is(err, ErrInvalidURL) || errors.Is(err, ErrEmptyResponse) ||
		errors.Is(err, ErrResponseTooLarge) {
		return false
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsServerError()
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	// Unknown errors are assumed transient
	return true
}

// IsFallbackEligible reports whether an error class justifies serving stale
// cached data. Only connectivity failures (no network, timeout, circuit open)
// qualify; server responses and data errors are surfaced to the caller so a
// real problem is never masked by the cache.
func IsFallbackEligible(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrCircuitOpen) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return false
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return false
	}

	if errors.Is(err, ErrInvalidURL) || errors.Is(err, ErrEmptyResponse) ||
		errors.Is(err, ErrResponseTooLarge) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	return false
}

// IsRemoteResponse reports whether the error carries evidence the remote
// service actually responded (an HTTP status, a body we could not use). Such
// errors prove connectivity even though the fetch failed, which matters to a
// half-open circuit breaker deciding whether the dependency is reachable.
func IsRemoteResponse(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return true
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return true
	}

	return errors.Is(err, ErrEmptyResponse) || errors.Is(err, ErrResponseTooLarge)
}
