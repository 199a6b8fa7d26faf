// Package repo composes the circuit breaker, retry policy, content caches,
// and remote client into a single fetch-with-fallback operation.
package repo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/duskrise/stargaze/internal/cache"
	"github.com/duskrise/stargaze/internal/resilience"
	"github.com/duskrise/stargaze/internal/types"
)

// Repository is the fetch orchestrator. It owns one circuit breaker and
// holds references to the remote fetcher and the content stores.
type Repository struct {
	fetcher    types.RemoteFetcher
	records    types.ContentStore
	blobs      types.ContentStore
	breaker    resilience.Breaker
	retry      resilience.Retrier
	serializer types.Serializer
	logger     *slog.Logger
	metrics    types.MetricsRecorder

	sfGroup singleflight.Group
}

// Options configures a Repository.
type Options struct {
	Fetcher    types.RemoteFetcher
	Records    types.ContentStore
	Blobs      types.ContentStore
	Breaker    resilience.Breaker
	Retry      resilience.Retrier
	Serializer types.Serializer
	Logger     *slog.Logger
	Metrics    types.MetricsRecorder
}

// New creates a Repository.
func New(opts Options) (*Repository, error) {
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("repo: fetcher is required")
	}
	if opts.Records == nil {
		return nil, fmt.Errorf("repo: record store is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Repository{
		fetcher:    opts.Fetcher,
		records:    opts.Records,
		blobs:      opts.Blobs,
		breaker:    opts.Breaker,
		retry:      opts.Retry,
		serializer: opts.Serializer,
		logger:     logger.With("component", "repository"),
		metrics:    opts.Metrics,
	}

	if r.breaker == nil {
		r.breaker = resilience.NewDisabledCircuitBreaker()
	}
	if r.retry == nil {
		r.retry = resilience.NewDisabledRetryPolicy()
	}
	if r.serializer == nil {
		r.serializer = cache.NewJSONSerializer()
	}

	return r, nil
}

// FetchForDate fetches the record for a YYYY-MM-DD date; an empty date
// requests the current record. The result carries provenance: Fresh for a
// live fetch, Cache when a qualifying network failure was answered from the
// local cache. Concurrent calls for the same date share one remote fetch.
func (r *Repository) FetchForDate(ctx context.Context, date string) (*types.FetchResult, error) {
	if date != "" {
		if _, err := types.ParseDate(date); err != nil {
			return nil, err
		}
	}

	sfKey := date
	if sfKey == "" {
		sfKey = "today"
	}

	// The shared fetch is detached from the initiating caller's context so
	// one caller's cancellation cannot fail everyone coalesced onto it; each
	// caller waits under its own context instead. The fetch itself stays
	// bounded by the HTTP client timeout and the retry budget.
	ch := r.sfGroup.DoChan(sfKey, func() (any, error) {
		return r.fetch(context.WithoutCancel(ctx), date)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*types.FetchResult), nil
	}
}

func (r *Repository) fetch(ctx context.Context, date string) (*types.FetchResult, error) {
	start := time.Now()

	if !r.breaker.CanAttempt() {
		r.logger.Debug("Circuit open, skipping network", "date", date)
		return r.fallback(ctx, date, types.ErrCircuitOpen)
	}

	result, err := r.retry.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
		return r.fetcher.Fetch(ctx, date)
	})

	if err == nil {
		picture := result.(*types.Picture)
		r.persist(ctx, picture)
		r.breaker.RecordSuccess()

		if r.metrics != nil {
			r.metrics.RecordFetch(types.SourceFresh.String(), time.Since(start))
		}

		return &types.FetchResult{Picture: picture, Source: types.SourceFresh}, nil
	}

	if !types.IsFallbackEligible(err) {
		// Server-response and data errors surface directly; masking them
		// with stale data would hide an actionable problem. The response
		// still proves the service is reachable, which a half-open probe
		// must report or the breaker never leaves half-open.
		if types.IsRemoteResponse(err) {
			r.breaker.RecordSuccess()
		}
		r.logger.Debug("Fetch failed, not fallback eligible", "date", date, "error", err)
		return nil, err
	}

	r.breaker.RecordFailure()
	return r.fallback(ctx, date, err)
}

// fallback serves the cached record for date, or the last successful record,
// or re-surfaces cause, the original triggering error, never a cache miss.
func (r *Repository) fallback(ctx context.Context, date string, cause error) (*types.FetchResult, error) {
	if date != "" {
		if picture, err := r.loadRecord(ctx, date); err == nil {
			r.logger.Info("Serving cached record", "date", date, "cause", cause)
			if r.metrics != nil {
				r.metrics.RecordFetch(types.SourceCache.String(), 0)
			}
			return &types.FetchResult{Picture: picture, Source: types.SourceCache}, nil
		}
	}

	data, err := r.records.LoadLastSuccessful(ctx)
	if err == nil {
		if picture, decErr := r.decodeRecord(data); decErr == nil {
			r.logger.Info("Serving last successful record", "cause", cause)
			if r.metrics != nil {
				r.metrics.RecordFetch(types.SourceCache.String(), 0)
			}
			return &types.FetchResult{Picture: picture, Source: types.SourceCache}, nil
		}
	}

	if r.metrics != nil {
		r.metrics.RecordError("repository", "fetch", cause)
	}
	return nil, cause
}

// persist saves the record under its date key and into the last-successful
// slot. Best-effort: a persistence failure here is logged, not propagated,
// so a successful fetch is never reported as an error.
func (r *Repository) persist(ctx context.Context, picture *types.Picture) {
	data, err := r.serializer.Marshal(picture)
	if err != nil {
		r.logger.Warn("Failed to encode record for caching", "date", picture.Date, "error", err)
		return
	}

	if err := r.records.Save(ctx, picture.Date, data); err != nil {
		r.logger.Warn("Failed to cache record", "date", picture.Date, "error", err)
	}

	if err := r.records.SaveLastSuccessful(ctx, data); err != nil {
		r.logger.Warn("Failed to update last successful record", "date", picture.Date, "error", err)
	}
}

// FetchImage returns the binary asset for a record, preferring the blob
// cache. A fresh download replaces the blob cache's last-successful slot.
func (r *Repository) FetchImage(ctx context.Context, picture *types.Picture) ([]byte, error) {
	if picture == nil || picture.URL == "" {
		return nil, fmt.Errorf("%w: record has no media url", types.ErrInvalidURL)
	}
	if r.blobs == nil {
		return r.fetcher.FetchImage(ctx, picture.URL)
	}

	if data, err := r.blobs.Load(ctx, picture.Date); err == nil {
		return data, nil
	}

	if !r.breaker.CanAttempt() {
		return r.imageFallback(ctx, types.ErrCircuitOpen)
	}

	result, err := r.retry.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
		return r.fetcher.FetchImage(ctx, picture.URL)
	})
	if err != nil {
		if !types.IsFallbackEligible(err) {
			if types.IsRemoteResponse(err) {
				r.breaker.RecordSuccess()
			}
			return nil, err
		}
		r.breaker.RecordFailure()
		return r.imageFallback(ctx, err)
	}

	data := result.([]byte)
	r.breaker.RecordSuccess()

	if err := r.blobs.SaveLastSuccessful(ctx, data); err != nil {
		r.logger.Warn("Failed to update last successful asset", "date", picture.Date, "error", err)
	}
	if err := r.blobs.Save(ctx, picture.Date, data); err != nil {
		r.logger.Warn("Failed to cache asset", "date", picture.Date, "error", err)
	}

	return data, nil
}

func (r *Repository) imageFallback(ctx context.Context, cause error) ([]byte, error) {
	if data, err := r.blobs.LoadLastSuccessful(ctx); err == nil {
		r.logger.Info("Serving last successful asset", "cause", cause)
		return data, nil
	}
	return nil, cause
}

// IsAvailable reports whether a fetch attempt would currently be permitted.
// It must not mutate breaker state; only an actual fetch may move an open
// circuit to half-open.
func (r *Repository) IsAvailable() bool {
	return r.breaker.Peek()
}

// Reset forces the circuit breaker back to closed. Intended for
// caller-driven recovery such as a manual refresh.
func (r *Repository) Reset() {
	r.breaker.Reset()
}

// Breaker exposes the circuit breaker for health reporting.
func (r *Repository) Breaker() resilience.Breaker {
	return r.breaker
}

func (r *Repository) loadRecord(ctx context.Context, date string) (*types.Picture, error) {
	data, err := r.records.Load(ctx, date)
	if err != nil {
		return nil, err
	}
	return r.decodeRecord(data)
}

func (r *Repository) decodeRecord(data []byte) (*types.Picture, error) {
	var picture types.Picture
	if err := r.serializer.Unmarshal(data, &picture); err != nil {
		return nil, &types.DecodeError{Err: err}
	}
	return &picture, nil
}
