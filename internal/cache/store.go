// Package cache implements the two-tier content cache: a fast in-memory map
// backed by a durable on-disk store with atomic write semantics.
package cache

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/duskrise/stargaze/internal/config"
	"github.com/duskrise/stargaze/internal/types"
)

// lastSuccessfulKey is the reserved identifier for the single slot holding
// the most recent successful fetch result.
const lastSuccessfulKey = "last-successful"

// StoreConfig describes one cache instance. Two instances exist over the
// same design: one for structured records (.json) and one for binary blobs.
type StoreConfig struct {
	// Name identifies the store in logs and metrics ("records", "blobs").
	Name string

	// Dir is the durable directory for this store.
	Dir string

	// Ext is the fixed file extension for durable entries.
	Ext string

	// Memory configures the in-memory tier.
	Memory config.MemoryConfig

	// Validate checks durable bytes on read. Entries failing validation are
	// deleted and reported as corrupted. Nil skips validation.
	Validate func([]byte) error

	// EvictOthersOnLastSuccessful clears every other durable entry before
	// the last-successful slot is written, so only the most recent
	// successful result is retained on disk.
	EvictOthersOnLastSuccessful bool
}

// Store is a two-tier keyed payload cache. All operations are safe for
// concurrent use; the durable tier relies on atomic rename so readers never
// observe partial writes.
type Store struct {
	name     string
	memory   memoryTier
	disk     *diskStore
	validate func([]byte) error
	evict    bool
	logger   *slog.Logger
	metrics  types.MetricsRecorder

	memoryHits   atomic.Int64
	memoryMisses atomic.Int64
	diskHits     atomic.Int64
	diskMisses   atomic.Int64
	sets         atomic.Int64
	deletes      atomic.Int64
	corruptions  atomic.Int64

	closed atomic.Bool
}

// NewStore creates a two-tier store from the given configuration.
func NewStore(cfg StoreConfig, logger *slog.Logger, metrics types.MetricsRecorder) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "content-cache", "store", cfg.Name)

	disk, err := newDiskStore(cfg.Dir, cfg.Ext, logger)
	if err != nil {
		return nil, err
	}

	s := &Store{
		name:     cfg.Name,
		disk:     disk,
		validate: cfg.Validate,
		evict:    cfg.EvictOthersOnLastSuccessful,
		logger:   logger,
		metrics:  metrics,
	}

	if cfg.Memory.Enabled {
		mem, err := NewMemoryCache(cfg.Memory, logger)
		if err != nil {
			return nil, err
		}
		s.memory = mem
	} else {
		s.memory = NewDisabledMemoryCache()
	}

	return s, nil
}

// Save writes payload through the memory tier and persists it durably.
func (s *Store) Save(ctx context.Context, key string, payload []byte) error {
	if s.closed.Load() {
		return types.ErrClosed
	}

	if err := types.ValidateKey(key); err != nil {
		return err
	}

	start := time.Now()

	if err := s.memory.Set(key, payload); err != nil {
		s.logger.Debug("Memory set failed", "key", key, "error", err)
	}

	if err := s.disk.Write(key, payload); err != nil {
		return err
	}

	s.sets.Add(1)
	if s.metrics != nil {
		s.metrics.RecordSet(s.name, key, len(payload), time.Since(start))
	}

	return nil
}

// Load returns the payload for key, checking memory first and falling back
// to the durable tier. A durable hit repopulates the memory tier. Corrupted
// durable entries are deleted as a repair side effect.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, types.ErrClosed
	}

	if err := types.ValidateKey(key); err != nil {
		return nil, err
	}

	start := time.Now()

	if data, err := s.memory.Get(key); err == nil {
		s.memoryHits.Add(1)
		if s.metrics != nil {
			s.metrics.RecordHit(s.name, "memory", key, time.Since(start))
		}
		return data, nil
	}
	s.memoryMisses.Add(1)

	data, err := s.disk.Read(key)
	if err != nil {
		if types.IsNoData(err) {
			s.diskMisses.Add(1)
			if s.metrics != nil {
				s.metrics.RecordMiss(s.name, "disk", key, time.Since(start))
			}
		}
		return nil, err
	}

	if err := s.checkPayload(data); err != nil {
		s.corruptions.Add(1)
		s.logger.Warn("Corrupted cache entry deleted", "key", key, "error", err)
		if delErr := s.disk.Delete(key); delErr != nil {
			s.logger.Warn("Failed to delete corrupted entry", "key", key, "error", delErr)
		}
		return nil, types.ErrDataCorrupted
	}

	if setErr := s.memory.Set(key, data); setErr != nil {
		s.logger.Debug("Failed to repopulate memory tier", "key", key, "error", setErr)
	}

	s.diskHits.Add(1)
	if s.metrics != nil {
		s.metrics.RecordHit(s.name, "disk", key, time.Since(start))
	}

	return data, nil
}

// SaveLastSuccessful overwrites the reserved last-successful slot. When the
// store is configured to evict, every other durable entry is removed first;
// the prior slot value survives until the new one replaces it atomically.
func (s *Store) SaveLastSuccessful(ctx context.Context, payload []byte) error {
	if s.closed.Load() {
		return types.ErrClosed
	}

	if s.evict {
		if err := s.memory.Clear(); err != nil {
			s.logger.Debug("Memory clear before last-successful write failed", "error", err)
		}
		if err := s.disk.ClearExcept(lastSuccessfulKey); err != nil {
			return err
		}
	}

	return s.Save(ctx, lastSuccessfulKey, payload)
}

// LoadLastSuccessful returns the payload in the reserved last-successful slot.
func (s *Store) LoadLastSuccessful(ctx context.Context) ([]byte, error) {
	return s.Load(ctx, lastSuccessfulKey)
}

// Delete removes the entry for key from both tiers.
func (s *Store) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return types.ErrClosed
	}

	if err := types.ValidateKey(key); err != nil {
		return err
	}

	if err := s.memory.Delete(key); err != nil {
		s.logger.Debug("Memory delete failed", "key", key, "error", err)
	}

	if err := s.disk.Delete(key); err != nil {
		return err
	}

	s.deletes.Add(1)
	return nil
}

// Contains reports whether key is present in either tier.
func (s *Store) Contains(ctx context.Context, key string) (bool, error) {
	if s.closed.Load() {
		return false, types.ErrClosed
	}

	if err := types.ValidateKey(key); err != nil {
		return false, err
	}

	if _, err := s.memory.Get(key); err == nil {
		return true, nil
	}
	return s.disk.Exists(key), nil
}

// Keys enumerates the identifiers currently stored durably.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, types.ErrClosed
	}
	return s.disk.Keys()
}

// Clear empties the memory tier and removes all durable entries.
func (s *Store) Clear(ctx context.Context) error {
	if s.closed.Load() {
		return types.ErrClosed
	}

	if err := s.memory.Clear(); err != nil {
		s.logger.Debug("Memory clear failed", "error", err)
	}
	return s.disk.Clear()
}

// Stats returns counters for this store.
func (s *Store) Stats() types.StoreStats {
	return types.StoreStats{
		MemoryHits:   s.memoryHits.Load(),
		MemoryMisses: s.memoryMisses.Load(),
		DiskHits:     s.diskHits.Load(),
		DiskMisses:   s.diskMisses.Load(),
		Sets:         s.sets.Load(),
		Deletes:      s.deletes.Load(),
		Corruptions:  s.corruptions.Load(),
	}
}

// Close releases the memory tier. Durable entries remain on disk.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.memory.Close()
}

func (s *Store) checkPayload(data []byte) error {
	if len(data) == 0 {
		return types.ErrEmptyResponse
	}
	if s.validate == nil {
		return nil
	}
	return s.validate(data)
}

var _ types.ContentStore = (*Store)(nil)
