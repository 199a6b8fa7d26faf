package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/duskrise/stargaze/pkg/stargaze"
)

func TestTrackerCounters(t *testing.T) {
	tr := NewTracker()

	tr.RecordFetch("fresh", 10*time.Millisecond)
	tr.RecordFetch("fresh", 20*time.Millisecond)
	tr.RecordFetch("cache", 0)

	tr.RecordHit("records", "memory", "2024-01-01", time.Millisecond)
	tr.RecordHit("records", "disk", "2024-01-02", time.Millisecond)
	tr.RecordMiss("records", "memory", "2024-01-03", time.Millisecond)
	tr.RecordMiss("records", "disk", "2024-01-03", time.Millisecond)
	tr.RecordSet("records", "2024-01-03", 128, time.Millisecond)
	tr.RecordError("repository", "fetch", errors.New("boom"))
	tr.RecordCircuitBreakerStateChange("closed", "open")

	s := tr.Snapshot()

	if s.FreshFetches != 2 {
		t.Errorf("FreshFetches = %d, want 2", s.FreshFetches)
	}
	if s.CacheFallbacks != 1 {
		t.Errorf("CacheFallbacks = %d, want 1", s.CacheFallbacks)
	}
	if s.MemoryHits != 1 || s.DiskHits != 1 {
		t.Errorf("hits = (%d, %d), want (1, 1)", s.MemoryHits, s.DiskHits)
	}
	if s.MemoryMisses != 1 || s.DiskMisses != 1 {
		t.Errorf("misses = (%d, %d), want (1, 1)", s.MemoryMisses, s.DiskMisses)
	}
	if s.SetCount != 1 {
		t.Errorf("SetCount = %d, want 1", s.SetCount)
	}
	if s.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", s.ErrorCount)
	}
	if s.CircuitStateChanges != 1 {
		t.Errorf("CircuitStateChanges = %d, want 1", s.CircuitStateChanges)
	}
}

func TestTrackerHitRatio(t *testing.T) {
	tr := NewTracker()

	if got := tr.Snapshot().HitRatio(); got != 0 {
		t.Errorf("HitRatio() on empty tracker = %v, want 0", got)
	}

	for i := 0; i < 3; i++ {
		tr.RecordHit("records", "memory", "k", 0)
	}
	tr.RecordMiss("records", "disk", "k", 0)

	if got := tr.Snapshot().HitRatio(); got != 0.75 {
		t.Errorf("HitRatio() = %v, want 0.75", got)
	}
}

func TestTrackerLatencyPercentiles(t *testing.T) {
	tr := NewTracker()

	for i := 1; i <= 100; i++ {
		tr.RecordFetch("fresh", time.Duration(i)*time.Millisecond)
	}

	s := tr.Snapshot()
	if s.P50LatencyMs < 45 || s.P50LatencyMs > 55 {
		t.Errorf("P50LatencyMs = %v, want ~50", s.P50LatencyMs)
	}
	if s.P95LatencyMs < 90 || s.P95LatencyMs > 100 {
		t.Errorf("P95LatencyMs = %v, want ~95", s.P95LatencyMs)
	}
	if s.P99LatencyMs < 95 || s.P99LatencyMs > 100 {
		t.Errorf("P99LatencyMs = %v, want ~99", s.P99LatencyMs)
	}
	if s.AvgLatencyMs < 45 || s.AvgLatencyMs > 55 {
		t.Errorf("AvgLatencyMs = %v, want ~50", s.AvgLatencyMs)
	}
}

func TestTrackerLatencyBufferWraps(t *testing.T) {
	tr := NewTracker()

	// Overfill the circular buffer
	for i := 0; i < defaultLatencyBufferSize+500; i++ {
		tr.RecordFetch("fresh", time.Millisecond)
	}

	s := tr.Snapshot()
	if s.FreshFetches != int64(defaultLatencyBufferSize+500) {
		t.Errorf("FreshFetches = %d, want %d", s.FreshFetches, defaultLatencyBufferSize+500)
	}
	if s.AvgLatencyMs != 1 {
		t.Errorf("AvgLatencyMs = %v, want 1", s.AvgLatencyMs)
	}
}

func TestTrackerReset(t *testing.T) {
	tr := NewTracker()

	tr.RecordFetch("fresh", time.Millisecond)
	tr.RecordHit("records", "memory", "k", 0)
	tr.Reset()

	s := tr.Snapshot()
	if s.FreshFetches != 0 || s.MemoryHits != 0 || s.AvgLatencyMs != 0 {
		t.Errorf("Snapshot() after reset = %+v, want zeros", s)
	}
}

func TestTrackerConcurrency(t *testing.T) {
	tr := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.RecordFetch("fresh", time.Millisecond)
				tr.RecordHit("records", "memory", "k", time.Millisecond)
				_ = tr.Snapshot()
			}
		}()
	}
	wg.Wait()

	s := tr.Snapshot()
	if s.FreshFetches != 1000 {
		t.Errorf("FreshFetches = %d, want 1000", s.FreshFetches)
	}
	if s.MemoryHits != 1000 {
		t.Errorf("MemoryHits = %d, want 1000", s.MemoryHits)
	}
}

func TestNoOpTracker(t *testing.T) {
	tr := NewNoOpTracker()

	tr.RecordFetch("fresh", time.Millisecond)
	tr.RecordHit("records", "memory", "k", 0)
	tr.RecordError("repository", "fetch", errors.New("boom"))

	s := tr.Snapshot()
	if s.FreshFetches != 0 || s.MemoryHits != 0 || s.ErrorCount != 0 {
		t.Errorf("NoOpTracker recorded something: %+v", s)
	}
}

func TestLoggingPublisher(t *testing.T) {
	// Mostly a does-not-panic test; output goes through slog
	p := NewLoggingPublisher(nil, "service:test")

	p.Gauge("gauge", 1.5)
	p.Incr("incr", "extra:tag")
	p.Count("count", 42)
	p.Histogram("histogram", 0.5)
	p.Timing("timing", time.Second)
	p.Event("title", "text", "info")
	p.PublishHealthMetrics(nil)
	p.PublishHealthMetrics(&stargaze.PublisherHealthMetrics{
		CircuitState:  "closed",
		RemoteAllowed: true,
		HitRatio:      0.9,
	})

	if err := p.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestBackgroundPublisher(t *testing.T) {
	t.Run("publishes on interval and final flush", func(t *testing.T) {
		var mu sync.Mutex
		published := 0

		recorder := &countingPublisher{onHealth: func() {
			mu.Lock()
			published++
			mu.Unlock()
		}}

		bp := NewBackgroundPublisher(recorder, 10*time.Millisecond, func() *stargaze.PublisherHealthMetrics {
			return &stargaze.PublisherHealthMetrics{CircuitState: "closed"}
		}, nil)

		bp.Start(context.Background())
		time.Sleep(35 * time.Millisecond)
		bp.Stop()

		mu.Lock()
		defer mu.Unlock()
		if published < 2 {
			t.Errorf("published = %d, want at least 2 (interval ticks plus final flush)", published)
		}
	})

	t.Run("nil health source is safe", func(t *testing.T) {
		bp := NewBackgroundPublisher(NewNoOpPublisher(), 5*time.Millisecond, nil, nil)
		bp.Start(context.Background())
		time.Sleep(15 * time.Millisecond)
		bp.Stop()
	})

	t.Run("recovers from panicking health source", func(t *testing.T) {
		bp := NewBackgroundPublisher(NewNoOpPublisher(), 5*time.Millisecond, func() *stargaze.PublisherHealthMetrics {
			panic("boom")
		}, nil)
		bp.Start(context.Background())
		time.Sleep(15 * time.Millisecond)
		bp.Stop()
	})
}

func TestNewBackgroundService(t *testing.T) {
	tr := NewTracker()
	tr.RecordFetch("fresh", time.Millisecond)
	tr.RecordHit("records", "memory", "k", 0)

	var got *stargaze.PublisherHealthMetrics
	recorder := &capturingPublisher{capture: func(m *stargaze.PublisherHealthMetrics) { got = m }}

	bp := NewBackgroundService(tr, recorder, time.Hour, nil)
	bp.PublishNow()

	if got == nil {
		t.Fatal("PublishNow() did not publish")
	}
	if got.FreshFetches != 1 {
		t.Errorf("FreshFetches = %d, want 1", got.FreshFetches)
	}
	if got.HitRatio != 1 {
		t.Errorf("HitRatio = %v, want 1", got.HitRatio)
	}
}

func TestTagHelpers(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{Tag("key", "value"), "key:value"},
		{SourceTag("fresh"), "source:fresh"},
		{TierTag("memory"), "tier:memory"},
		{StoreTag("records"), "store:records"},
		{StatusTag("hit"), "status:hit"},
		{OperationTag("load"), "operation:load"},
		{CircuitStateTag("open"), "circuit_state:open"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("tag = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestTimer(t *testing.T) {
	recorder := &countingPublisher{}
	timer := NewTimer(recorder, "op.duration", "store:records")

	time.Sleep(5 * time.Millisecond)
	d := timer.Stop()

	if d < 5*time.Millisecond {
		t.Errorf("Stop() = %v, want at least 5ms", d)
	}
	if recorder.timings != 1 {
		t.Errorf("timings = %d, want 1", recorder.timings)
	}
	if timer.Elapsed() < d {
		t.Errorf("Elapsed() = %v, want >= %v", timer.Elapsed(), d)
	}
}

// countingPublisher counts publish calls for assertions.
type countingPublisher struct {
	timings  int
	onHealth func()
}

func (p *countingPublisher) Gauge(name string, value float64, tags ...string) {}

func (p *countingPublisher) Incr(name string, tags ...string) {}

func (p *countingPublisher) Count(name string, value int64, tags ...string) {}

func (p *countingPublisher) Histogram(name string, value float64, tags ...string) {}

func (p *countingPublisher) Timing(name string, d time.Duration, tags ...string) { p.timings++ }

func (p *countingPublisher) Event(title, text, alertType string, tags ...string) {}

func (p *countingPublisher) PublishHealthMetrics(m *stargaze.PublisherHealthMetrics) {
	if p.onHealth != nil {
		p.onHealth()
	}
}
func (p *countingPublisher) Close() error { return nil }

// capturingPublisher records the last published health batch.
type capturingPublisher struct {
	capture func(*stargaze.PublisherHealthMetrics)
}

func (p *capturingPublisher) Gauge(name string, value float64, tags ...string) {}

func (p *capturingPublisher) Incr(name string, tags ...string) {}

func (p *capturingPublisher) Count(name string, value int64, tags ...string) {}

func (p *capturingPublisher) Histogram(name string, value float64, tags ...string) {}

func (p *capturingPublisher) Timing(name string, d time.Duration, tags ...string) {}

func (p *capturingPublisher) Event(title, text, alertType string, tags ...string) {}

func (p *capturingPublisher) PublishHealthMetrics(m *stargaze.PublisherHealthMetrics) {
	p.capture(m)
}

func (p *capturingPublisher) Close() error { return nil }
