// Package types provides shared types for the stargaze client library.
// This package breaks import cycles between pkg/stargaze and the internal
// cache, resilience, and repository packages.
package types

import "time"

// DateFormat is the calendar-date key format used by the remote service
// and as the cache identity key.
const DateFormat = "2006-01-02"

// EarliestDate is the first date the remote archive has a record for.
var EarliestDate = time.Date(1995, time.June, 16, 0, 0, 0, 0, time.UTC)

// Picture is the daily record returned by the remote service.
// Immutable once constructed; validated on ingress.
type Picture struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	MediaType   string `json:"media_type"`
	URL         string `json:"url"`
	HDURL       string `json:"hdurl,omitempty"`
	Copyright   string `json:"copyright,omitempty"`
}

// Source indicates where a fetch result came from.
type Source int

const (
	// SourceFresh marks a result returned by a live remote call.
	SourceFresh Source = iota + 1
	// SourceCache marks a stale result served from the local cache.
	SourceCache
)

func (s Source) String() string {
	switch s {
	case SourceFresh:
		return "fresh"
	case SourceCache:
		return "cache"
	default:
		return "unknown"
	}
}

// FetchResult carries a Picture together with its provenance so callers can
// distinguish live data from a cached fallback without re-deriving it.
type FetchResult struct {
	Picture *Picture
	Source  Source
}

// IsFresh returns true if the result came from a live remote call.
func (r *FetchResult) IsFresh() bool {
	return r.Source == SourceFresh
}

// IsFromCache returns true if the result was served from the local cache.
func (r *FetchResult) IsFromCache() bool {
	return r.Source == SourceCache
}

// StoreStats contains counters for one cache store.
type StoreStats struct {
	MemoryHits   int64
	MemoryMisses int64
	DiskHits     int64
	DiskMisses   int64
	Sets         int64
	Deletes      int64
	Corruptions  int64
}

// HealthStatus is an overall health classification.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthSnapshot is a point-in-time view of the client's internals.
type HealthSnapshot struct {
	Timestamp     time.Time
	Status        HealthStatus
	CircuitState  string
	FailureCount  int
	RemoteAllowed bool
	Records       StoreStats
	Blobs         StoreStats
}
