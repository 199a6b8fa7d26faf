// Package stargaze provides a resilient client for a daily astronomy picture
// service.
//
// stargaze wraps the remote HTTPS API with the resilience patterns an
// unreliable network demands: a circuit breaker, retries with exponential
// backoff, and a two-tier local cache that keeps previously fetched data
// available when the service is not.
//
// # Features
//
//   - Circuit Breaker: stops hammering a failing service and probes for recovery
//   - Classified Retries: transient failures retry with exponential backoff,
//     permanent ones fail fast
//   - Two-Tier Cache: in-memory (bigcache) over a durable on-disk store with
//     atomic writes
//   - Stale Fallback: network failures are answered from cache, with the
//     result marked so the caller can show a staleness indicator
//   - Observability: metrics tracking with pluggable publishers
//
// # Quick Start
//
// Create a client with default configuration:
//
//	client, err := stargaze.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
// # Fetching
//
// Fetch today's record, or one for a specific date:
//
//	result, err := client.FetchToday(ctx)
//
//	result, err := client.FetchForDate(ctx, "2024-01-01")
//
// The result carries provenance. A live fetch yields SourceFresh; a fetch
// answered from cache after a network failure yields SourceCache:
//
//	if result.IsFromCache() {
//	    fmt.Println("showing cached data, service unreachable")
//	}
//
// Only connectivity-class failures fall back to cache. A 404 or other
// definitive server response surfaces as an error so callers never mistake
// stale data for a live answer to a bad request.
//
// # Binary Assets
//
// Download the image behind a record, cached durably alongside it:
//
//	data, err := client.FetchImage(ctx, result.Picture)
//
// # Availability
//
// Ask whether a fetch would currently be allowed, without disturbing the
// circuit breaker:
//
//	if !client.IsAvailable() {
//	    // show offline indicator
//	}
//
// Reset forces the breaker closed for caller-driven recovery, e.g. a manual
// refresh button:
//
//	client.Reset()
//
// # Configuration
//
// Load configuration from a JSON file with environment overrides:
//
//	client, err := stargaze.NewFromFile("config.json")
//
// Or customize the default configuration:
//
//	cfg := stargaze.Config()
//	cfg.Retry.MaxAttempts = 5
//	client, err := stargaze.NewFromConfig(cfg)
//
// Functional options override config at construction:
//
//	client, err := stargaze.New(
//	    stargaze.WithAPIKey(os.Getenv("STARGAZE_API_KEY")),
//	    stargaze.WithCacheDir("/var/cache/stargaze"),
//	)
//
// # Observability
//
// Wire a MetricsRecorder to observe fetch outcomes and cache behavior:
//
//	client, err := stargaze.New(stargaze.WithMetrics(recorder))
//
// See examples/basic for a recorder that tracks hit ratios and latency
// percentiles.
//
// # Thread Safety
//
// All client operations are safe for concurrent use. Concurrent fetches for
// the same date are coalesced into a single remote request.
package stargaze
