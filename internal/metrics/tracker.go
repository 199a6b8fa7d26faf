// Package metrics provides fetch and cache metrics collection and publishing.
package metrics

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/duskrise/stargaze/pkg/stargaze"
)

const (
	defaultLatencyBufferSize = 10000
)

type Tracker struct {
	freshFetches   atomic.Int64
	cacheFallbacks atomic.Int64

	memoryHits   atomic.Int64
	memoryMisses atomic.Int64
	diskHits     atomic.Int64
	diskMisses   atomic.Int64

	setCount atomic.Int64

	errorCount atomic.Int64

	latencyMu     sync.RWMutex
	latencyBuffer []time.Duration
	latencyIndex  int
	latencyCount  int

	totalBytesWritten atomic.Int64

	cbStateChanges atomic.Int64
}

func NewTracker() *Tracker {
	return &Tracker{
		latencyBuffer: make([]time.Duration, defaultLatencyBufferSize),
	}
}

func (t *Tracker) RecordFetch(source string, latency time.Duration) {
	switch source {
	case "fresh":
		t.freshFetches.Add(1)
		t.recordLatency(latency)
	case "cache":
		t.cacheFallbacks.Add(1)
	}
}

func (t *Tracker) RecordHit(store, tier, key string, latency time.Duration) {
	switch tier {
	case "memory":
		t.memoryHits.Add(1)
	case "disk":
		t.diskHits.Add(1)
	}
	t.recordLatency(latency)
}

func (t *Tracker) RecordMiss(store, tier, key string, latency time.Duration) {
	switch tier {
	case "memory":
		t.memoryMisses.Add(1)
	case "disk":
		t.diskMisses.Add(1)
	}
	t.recordLatency(latency)
}

func (t *Tracker) RecordSet(store, key string, size int, latency time.Duration) {
	t.setCount.Add(1)
	t.totalBytesWritten.Add(int64(size))
	t.recordLatency(latency)
}

// RecordError records an error.
func (t *Tracker) RecordError(component string, operation string, err error) {
	t.errorCount.Add(1)
}

// RecordCircuitBreakerStateChange records circuit breaker state transitions.
func (t *Tracker) RecordCircuitBreakerStateChange(from, to string) {
	t.cbStateChanges.Add(1)
}

// recordLatency adds a latency measurement using a circular buffer.
// This is O(1) time complexity with no memory allocations.
func (t *Tracker) recordLatency(latency time.Duration) {
	t.latencyMu.Lock()
	t.latencyBuffer[t.latencyIndex] = latency
	t.latencyIndex = (t.latencyIndex + 1) % len(t.latencyBuffer)
	if t.latencyCount < len(t.latencyBuffer) {
		t.latencyCount++
	}
	t.latencyMu.Unlock()
}

// Snapshot returns current metrics snapshot.
func (t *Tracker) Snapshot() stargaze.MetricsSnapshot {
	// Use RLock for reading - allows concurrent snapshots
	t.latencyMu.RLock()
	count := t.latencyCount
	latencyCopy := make([]time.Duration, count)
	// Copy from circular buffer in correct order
	if count > 0 {
		if count < len(t.latencyBuffer) {
			// Buffer not full yet - data starts at 0
			copy(latencyCopy, t.latencyBuffer[:count])
		} else {
			// Buffer is full - oldest data starts at latencyIndex
			firstPart := len(t.latencyBuffer) - t.latencyIndex
			copy(latencyCopy[:firstPart], t.latencyBuffer[t.latencyIndex:])
			copy(latencyCopy[firstPart:], t.latencyBuffer[:t.latencyIndex])
		}
	}
	t.latencyMu.RUnlock()

	snapshot := stargaze.MetricsSnapshot{
		Timestamp:           time.Now(),
		FreshFetches:        t.freshFetches.Load(),
		CacheFallbacks:      t.cacheFallbacks.Load(),
		MemoryHits:          t.memoryHits.Load(),
		MemoryMisses:        t.memoryMisses.Load(),
		DiskHits:            t.diskHits.Load(),
		DiskMisses:          t.diskMisses.Load(),
		SetCount:            t.setCount.Load(),
		ErrorCount:          t.errorCount.Load(),
		CircuitStateChanges: t.cbStateChanges.Load(),
	}

	// Calculate latency percentiles
	if len(latencyCopy) > 0 {
		snapshot.AvgLatencyMs = float64(avgDuration(latencyCopy).Milliseconds())
		snapshot.P50LatencyMs = float64(percentile(latencyCopy, 50).Milliseconds())
		snapshot.P95LatencyMs = float64(percentile(latencyCopy, 95).Milliseconds())
		snapshot.P99LatencyMs = float64(percentile(latencyCopy, 99).Milliseconds())
	}

	return snapshot
}

// Reset clears all metrics.
func (t *Tracker) Reset() {
	t.freshFetches.Store(0)
	t.cacheFallbacks.Store(0)
	t.memoryHits.Store(0)
	t.memoryMisses.Store(0)
	t.diskHits.Store(0)
	t.diskMisses.Store(0)
	t.setCount.Store(0)
	t.errorCount.Store(0)
	t.totalBytesWritten.Store(0)
	t.cbStateChanges.Store(0)

	t.latencyMu.Lock()
	t.latencyIndex = 0
	t.latencyCount = 0
	t.latencyMu.Unlock()
}

// Helper functions for latency calculations

func avgDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return total / time.Duration(len(durations))
}

func percentile(durations []time.Duration, p int) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	// Sort a copy
	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	slices.Sort(sorted)

	idx := (len(sorted) - 1) * p / 100
	return sorted[idx]
}

// Ensure Tracker implements MetricsRecorder
var _ stargaze.MetricsRecorder = (*Tracker)(nil)
