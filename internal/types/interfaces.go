package types

import (
	"context"
	"time"
)

// ContentStore is the two-tier cache contract consumed by the repository.
type ContentStore interface {
	Save(ctx context.Context, key string, payload []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	SaveLastSuccessful(ctx context.Context, payload []byte) error
	LoadLastSuccessful(ctx context.Context) ([]byte, error)
	Clear(ctx context.Context) error
	Stats() StoreStats
	Close() error
}

// RemoteFetcher is the remote-fetch collaborator boundary. An empty date
// requests the current record.
type RemoteFetcher interface {
	Fetch(ctx context.Context, date string) (*Picture, error)
	FetchImage(ctx context.Context, url string) ([]byte, error)
}

// Serializer provides serialization and deserialization operations.
type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, dest any) error
}

// MetricsRecorder provides operations for recording fetch and cache metrics.
type MetricsRecorder interface {
	RecordFetch(source string, latency time.Duration)
	RecordHit(store, tier, key string, latency time.Duration)
	RecordMiss(store, tier, key string, latency time.Duration)
	RecordSet(store, key string, size int, latency time.Duration)
	RecordError(component, operation string, err error)
	RecordCircuitBreakerStateChange(from, to string)
}

// Logger provides logging operations.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
