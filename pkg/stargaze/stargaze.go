package stargaze

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/duskrise/stargaze/internal/apod"
	"github.com/duskrise/stargaze/internal/cache"
	"github.com/duskrise/stargaze/internal/config"
	"github.com/duskrise/stargaze/internal/repo"
	"github.com/duskrise/stargaze/internal/resilience"
	"github.com/duskrise/stargaze/internal/types"
)

// Client is the caller-facing surface: fetch-for-date with provenance,
// availability, and reset. It is safe for concurrent use.
type Client struct {
	cfg     *config.Config
	repo    *repo.Repository
	records types.ContentStore
	blobs   types.ContentStore
	logger  *slog.Logger
	closed  atomic.Bool
}

// New creates a client with default configuration.
func New(opts ...ClientOption) (*Client, error) {
	return NewFromConfig(config.DefaultConfig(), opts...)
}

// NewFromFile creates a client from a JSON config file with environment
// overrides applied.
func NewFromFile(path string, opts ...ClientOption) (*Client, error) {
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(cfg, opts...)
}

// NewFromConfig creates a client from configuration.
func NewFromConfig(cfg *config.Config, opts ...ClientOption) (*Client, error) {
	options := &types.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.BaseURL != "" {
		cfg.API.BaseURL = options.BaseURL
	}
	if !options.APIKey.IsEmpty() {
		cfg.API.Key = options.APIKey
	}
	if options.CacheDir != "" {
		cfg.Cache.Dir = options.CacheDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := slog.Default()
	if options.Logger != nil {
		logger = slog.New(slogAdapter{logger: options.Logger})
	}
	logger = logger.With("component", "stargaze")

	fetcher, err := apod.NewClient(cfg.API, options.HTTPClient, logger)
	if err != nil {
		return nil, err
	}

	records, err := cache.NewStore(cache.StoreConfig{
		Name:     "records",
		Dir:      filepath.Join(cfg.Cache.Dir, "records"),
		Ext:      ".json",
		Memory:   cfg.Cache.Memory,
		Validate: validateRecordBytes,
	}, logger, options.Metrics)
	if err != nil {
		return nil, err
	}

	blobs, err := cache.NewStore(cache.StoreConfig{
		Name:                        "blobs",
		Dir:                         filepath.Join(cfg.Cache.Dir, "blobs"),
		Ext:                         ".img",
		Memory:                      cfg.Cache.Memory,
		EvictOthersOnLastSuccessful: !cfg.Cache.RetainHistory,
	}, logger, options.Metrics)
	if err != nil {
		records.Close()
		return nil, err
	}

	var breaker resilience.Breaker
	var retry resilience.Retrier

	if cfg.CircuitBreaker.Enabled && !options.DisableResilience {
		cb := resilience.NewCircuitBreaker(cfg.CircuitBreaker)
		cb.SetOnStateChange(func(from, to resilience.State) {
			logger.Info("Circuit breaker state changed",
				"from", from.String(),
				"to", to.String(),
			)
			if options.Metrics != nil {
				options.Metrics.RecordCircuitBreakerStateChange(from.String(), to.String())
			}
		})
		breaker = cb
	} else {
		breaker = resilience.NewDisabledCircuitBreaker()
	}

	if cfg.Retry.Enabled && !options.DisableResilience {
		retry = resilience.NewRetryPolicy(cfg.Retry)
	} else {
		retry = resilience.NewDisabledRetryPolicy()
	}

	repository, err := repo.New(repo.Options{
		Fetcher:    fetcher,
		Records:    records,
		Blobs:      blobs,
		Breaker:    breaker,
		Retry:      retry,
		Serializer: cache.NewJSONSerializer(),
		Logger:     logger,
		Metrics:    options.Metrics,
	})
	if err != nil {
		records.Close()
		blobs.Close()
		return nil, err
	}

	return &Client{
		cfg:     cfg,
		repo:    repository,
		records: records,
		blobs:   blobs,
		logger:  logger,
	}, nil
}

// FetchForDate fetches the record for a YYYY-MM-DD date, serving cached data
// on qualifying network failures. The result's Source tells the caller
// whether the data is live or stale.
func (c *Client) FetchForDate(ctx context.Context, date string) (*FetchResult, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	return c.repo.FetchForDate(ctx, date)
}

// FetchToday fetches the current record.
func (c *Client) FetchToday(ctx context.Context) (*FetchResult, error) {
	return c.FetchForDate(ctx, "")
}

// FetchImage returns the binary asset for a record, preferring the local
// blob cache.
func (c *Client) FetchImage(ctx context.Context, picture *Picture) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	return c.repo.FetchImage(ctx, picture)
}

// IsAvailable reports whether a fetch attempt would currently be permitted.
// Querying availability never mutates circuit breaker state.
func (c *Client) IsAvailable() bool {
	if c.closed.Load() {
		return false
	}
	return c.repo.IsAvailable()
}

// Reset forces the circuit breaker back to closed. Intended for
// caller-driven recovery such as a user-triggered manual refresh.
func (c *Client) Reset() {
	c.repo.Reset()
}

// ClearCache empties both content caches. Used by explicit cache-reset flows.
func (c *Client) ClearCache(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := c.records.Clear(ctx); err != nil {
		return err
	}
	return c.blobs.Clear(ctx)
}

// Health returns a snapshot of the client's internals.
func (c *Client) Health(ctx context.Context) *HealthSnapshot {
	breaker := c.repo.Breaker()

	snapshot := &HealthSnapshot{
		Timestamp:     time.Now(),
		CircuitState:  breaker.State().String(),
		FailureCount:  breaker.FailureCount(),
		RemoteAllowed: breaker.Peek(),
		Records:       c.records.Stats(),
		Blobs:         c.blobs.Stats(),
	}

	switch {
	case c.closed.Load():
		snapshot.Status = HealthStatusUnhealthy
	case breaker.IsOpen():
		snapshot.Status = HealthStatusDegraded
	default:
		snapshot.Status = HealthStatusHealthy
	}

	return snapshot
}

// Close releases cache resources. Durable entries remain on disk.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	recErr := c.records.Close()
	blobErr := c.blobs.Close()
	if recErr != nil {
		return recErr
	}
	return blobErr
}

// validateRecordBytes checks that durable record bytes decode to a valid
// record before they are served from cache.
func validateRecordBytes(data []byte) error {
	var picture types.Picture
	if err := cache.NewJSONSerializer().Unmarshal(data, &picture); err != nil {
		return err
	}
	return picture.Validate()
}

// Config returns a default configuration that can be modified before
// creating a client.
func Config() *config.Config {
	return config.DefaultConfig()
}
