package stargaze

import (
	"net/http"

	"github.com/duskrise/stargaze/internal/types"
)

// ClientOption configures a Client at construction time.
type ClientOption func(*types.ClientOptions)

// WithLogger sets the structured logger.
func WithLogger(logger Logger) ClientOption {
	return func(o *types.ClientOptions) {
		o.Logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(metrics MetricsRecorder) ClientOption {
	return func(o *types.ClientOptions) {
		o.Metrics = metrics
	}
}

// WithHTTPClient overrides the HTTP transport used for remote fetches.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(o *types.ClientOptions) {
		o.HTTPClient = client
	}
}

// WithAPIKey overrides the service key from config.
func WithAPIKey(key string) ClientOption {
	return func(o *types.ClientOptions) {
		o.APIKey = types.NewSecretString(key)
	}
}

// WithBaseURL overrides the remote endpoint from config.
func WithBaseURL(url string) ClientOption {
	return func(o *types.ClientOptions) {
		o.BaseURL = url
	}
}

// WithCacheDir overrides the durable cache directory from config.
func WithCacheDir(dir string) ClientOption {
	return func(o *types.ClientOptions) {
		o.CacheDir = dir
	}
}

// WithoutResilience disables the circuit breaker and retry patterns.
func WithoutResilience() ClientOption {
	return func(o *types.ClientOptions) {
		o.DisableResilience = true
	}
}
