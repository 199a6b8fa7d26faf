package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/allegro/bigcache/v3"

	"github.com/duskrise/stargaze/internal/config"
	"github.com/duskrise/stargaze/internal/types"
)

// memoryTier is the in-memory fast path consumed by Store.
type memoryTier interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Clear() error
	Close() error
}

// MemoryCache implements the in-memory tier using BigCache.
type MemoryCache struct {
	cache  *bigcache.BigCache
	logger *slog.Logger

	closed atomic.Bool
}

// NewMemoryCache creates a new memory cache with the given configuration.
func NewMemoryCache(cfg config.MemoryConfig, logger *slog.Logger) (*MemoryCache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	mc := &MemoryCache{
		logger: logger.With("component", "memory-cache"),
	}

	bcConfig := bigcache.Config{
		Shards:             cfg.Shards,
		LifeWindow:         cfg.DefaultTTL,
		CleanWindow:        cfg.CleanupInterval,
		MaxEntriesInWindow: 1000,
		MaxEntrySize:       cfg.MaxEntrySize,
		HardMaxCacheSize:   cfg.MaxSizeMB,
		Verbose:            false,
		Logger:             &bigcacheLogger{logger: mc.logger},
	}

	bc, err := bigcache.New(context.Background(), bcConfig)
	if err != nil {
		return nil, err
	}

	mc.cache = bc
	return mc, nil
}

// Get retrieves a value from the memory tier.
func (c *MemoryCache) Get(key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, types.ErrClosed
	}

	data, err := c.cache.Get(key)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return nil, types.ErrNoData
		}
		return nil, types.NewStoreError("Get", key, "memory", err)
	}

	return data, nil
}

// Set stores a value in the memory tier.
func (c *MemoryCache) Set(key string, value []byte) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	if err := c.cache.Set(key, value); err != nil {
		return types.NewStoreError("Set", key, "memory", err)
	}
	return nil
}

// Delete removes a value from the memory tier.
func (c *MemoryCache) Delete(key string) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	if err := c.cache.Delete(key); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return types.NewStoreError("Delete", key, "memory", err)
	}
	return nil
}

// Clear removes all entries from the memory tier.
func (c *MemoryCache) Clear() error {
	if c.closed.Load() {
		return types.ErrClosed
	}
	return c.cache.Reset()
}

// Close closes the memory tier and releases resources.
func (c *MemoryCache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.cache.Close()
}

type bigcacheLogger struct {
	logger *slog.Logger
}

func (l *bigcacheLogger) Printf(format string, args ...any) {
	l.logger.Debug("bigcache: " + format)
}

// DisabledMemoryCache is a pass-through tier used when the memory cache is
// disabled; every read misses.
type DisabledMemoryCache struct{}

func NewDisabledMemoryCache() *DisabledMemoryCache { return &DisabledMemoryCache{} }

func (c *DisabledMemoryCache) Get(key string) ([]byte, error) { return nil, types.ErrNoData }

func (c *DisabledMemoryCache) Set(key string, value []byte) error { return nil }

func (c *DisabledMemoryCache) Delete(key string) error { return nil }

func (c *DisabledMemoryCache) Clear() error { return nil }

func (c *DisabledMemoryCache) Close() error { return nil }

var (
	_ memoryTier = (*MemoryCache)(nil)
	_ memoryTier = (*DisabledMemoryCache)(nil)
)
