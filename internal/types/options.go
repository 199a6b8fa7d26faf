package types

import "net/http"

// ClientOptions holds construction-time overrides for the client.
type ClientOptions struct {
	// Logger is the structured logger to use.
	Logger Logger

	// Metrics is the metrics recorder.
	Metrics MetricsRecorder

	// HTTPClient overrides the transport used for remote fetches.
	HTTPClient *http.Client

	// APIKey overrides the service key from config.
	// Uses SecretString to prevent accidental logging of sensitive values.
	APIKey SecretString

	// BaseURL overrides the remote endpoint from config.
	BaseURL string

	// CacheDir overrides the durable cache directory from config.
	CacheDir string

	// DisableResilience disables circuit breaker and retry patterns.
	DisableResilience bool
}
