package stargaze

import (
	"time"

	"github.com/duskrise/stargaze/internal/types"
)

type (
	// Picture is the daily record returned by the remote service.
	Picture = types.Picture
	// FetchResult carries a Picture together with its provenance.
	FetchResult = types.FetchResult
	// Source indicates where a fetch result came from.
	Source = types.Source
	// StoreStats contains counters for one cache store.
	StoreStats = types.StoreStats
	// HealthSnapshot is a point-in-time view of the client's internals.
	HealthSnapshot = types.HealthSnapshot
	// HealthStatus is an overall health classification.
	HealthStatus = types.HealthStatus
	// Serializer provides serialization and deserialization operations.
	Serializer = types.Serializer
	// MetricsRecorder provides operations for recording fetch and cache metrics.
	MetricsRecorder = types.MetricsRecorder
	// Logger provides logging operations.
	Logger = types.Logger
	// SecretString redacts its value when logged or marshaled.
	SecretString = types.SecretString
)

const (
	// SourceFresh marks a result returned by a live remote call.
	SourceFresh = types.SourceFresh
	// SourceCache marks a stale result served from the local cache.
	SourceCache = types.SourceCache
)

const (
	HealthStatusHealthy   = types.HealthStatusHealthy
	HealthStatusDegraded  = types.HealthStatusDegraded
	HealthStatusUnhealthy = types.HealthStatusUnhealthy
)

// DateFormat is the calendar-date key format used by the service.
const DateFormat = types.DateFormat

// MetricsSnapshot is a point-in-time aggregate of recorded metrics.
type MetricsSnapshot struct {
	Timestamp           time.Time
	FreshFetches        int64
	CacheFallbacks      int64
	MemoryHits          int64
	MemoryMisses        int64
	DiskHits            int64
	DiskMisses          int64
	SetCount            int64
	ErrorCount          int64
	CircuitStateChanges int64
	AvgLatencyMs        float64
	P50LatencyMs        float64
	P95LatencyMs        float64
	P99LatencyMs        float64
}

// HitRatio returns the combined cache hit ratio across tiers.
func (s MetricsSnapshot) HitRatio() float64 {
	hits := s.MemoryHits + s.DiskHits
	total := hits + s.MemoryMisses + s.DiskMisses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// PublisherHealthMetrics is the batch of health gauges pushed by a
// background publisher.
type PublisherHealthMetrics struct {
	CircuitState     string
	FailureCount     int
	RemoteAllowed    bool
	FreshFetches     int64
	CacheFallbacks   int64
	HitRatio         float64
	AverageLatencyMs float64
}

// Publisher pushes metrics to an external sink.
type Publisher interface {
	Gauge(name string, value float64, tags ...string)
	Incr(name string, tags ...string)
	Count(name string, value int64, tags ...string)
	Histogram(name string, value float64, tags ...string)
	Timing(name string, duration time.Duration, tags ...string)
	Event(title, text, alertType string, tags ...string)
	PublishHealthMetrics(m *PublisherHealthMetrics)
	Close() error
}
