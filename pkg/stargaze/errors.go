package stargaze

import "github.com/duskrise/stargaze/internal/types"

// Sentinel errors returned by client operations. The closed set lets a
// presentation layer tailor messaging instead of showing a generic failure.
var (
	ErrNoData           = types.ErrNoData
	ErrDataCorrupted    = types.ErrDataCorrupted
	ErrInvalidKey       = types.ErrInvalidKey
	ErrCircuitOpen      = types.ErrCircuitOpen
	ErrEmptyResponse    = types.ErrEmptyResponse
	ErrInvalidURL       = types.ErrInvalidURL
	ErrResponseTooLarge = types.ErrResponseTooLarge
	ErrClosed           = types.ErrClosed
)

// APIError represents a non-2xx response from the remote service.
type APIError = types.APIError

// DecodeError wraps a payload deserialization failure.
type DecodeError = types.DecodeError

// IsNoData returns true if the error indicates nothing cached.
func IsNoData(err error) bool {
	return types.IsNoData(err)
}

// IsCircuitOpen returns true if the error indicates the breaker refused the
// attempt.
func IsCircuitOpen(err error) bool {
	return types.IsCircuitOpen(err)
}

// IsDataCorrupted returns true if a durable cache entry failed validation.
func IsDataCorrupted(err error) bool {
	return types.IsDataCorrupted(err)
}

// IsRetryable reports whether an error is transient per the client's retry
// classification.
func IsRetryable(err error) bool {
	return types.IsRetryable(err)
}
