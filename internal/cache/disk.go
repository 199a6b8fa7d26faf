package cache

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/duskrise/stargaze/internal/types"
)

// diskStore is the durable tier: a directory of files keyed by sanitized
// identifier with a fixed extension. Writes go through a temporary file and
// an atomic rename so a concurrent reader never observes a partial entry.
type diskStore struct {
	dir    string
	ext    string
	logger *slog.Logger
}

func newDiskStore(dir, ext string, logger *slog.Logger) (*diskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, types.NewStoreError("Init", "", "disk", err)
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &diskStore{
		dir:    dir,
		ext:    ext,
		logger: logger.With("component", "disk-cache"),
	}, nil
}

// Write persists payload under key atomically.
func (d *diskStore) Write(key string, payload []byte) error {
	target := d.path(key)

	tmp, err := os.CreateTemp(d.dir, "."+sanitizeKey(key)+".tmp-*")
	if err != nil {
		return types.NewStoreError("Write", key, "disk", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return types.NewStoreError("Write", key, "disk", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return types.NewStoreError("Write", key, "disk", err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return types.NewStoreError("Write", key, "disk", err)
	}

	return nil
}

// Read returns the payload stored under key, or ErrNoData.
func (d *diskStore) Read(key string) ([]byte, error) {
	data, err := os.ReadFile(d.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.ErrNoData
		}
		return nil, types.NewStoreError("Read", key, "disk", err)
	}
	return data, nil
}

// Exists reports whether an entry is present for key.
func (d *diskStore) Exists(key string) bool {
	_, err := os.Stat(d.path(key))
	return err == nil
}

// Delete removes the entry for key. Missing entries are not an error.
func (d *diskStore) Delete(key string) error {
	err := os.Remove(d.path(key))
	if err != nil && !os.IsNotExist(err) {
		return types.NewStoreError("Delete", key, "disk", err)
	}
	return nil
}

// Clear removes every entry in the store's directory.
func (d *diskStore) Clear() error {
	return d.clearExcept("")
}

// ClearExcept removes every entry except the one stored under keep. Used by
// the last-successful eviction so the prior value survives until the new one
// replaces it atomically.
func (d *diskStore) ClearExcept(keep string) error {
	return d.clearExcept(sanitizeKey(keep) + d.ext)
}

func (d *diskStore) clearExcept(keepName string) error {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return types.NewStoreError("Clear", "", "disk", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if keepName != "" && name == keepName {
			continue
		}
		if !strings.HasSuffix(name, d.ext) && !strings.Contains(name, ".tmp-") {
			continue
		}
		if err := os.Remove(filepath.Join(d.dir, name)); err != nil && !os.IsNotExist(err) {
			d.logger.Warn("Failed to remove cache entry", "file", name, "error", err)
		}
	}

	return nil
}

// Keys enumerates the identifiers currently stored.
func (d *diskStore) Keys() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, types.NewStoreError("Keys", "", "disk", err)
	}

	var keys []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, d.ext) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, d.ext))
	}
	return keys, nil
}

func (d *diskStore) path(key string) string {
	return filepath.Join(d.dir, sanitizeKey(key)+d.ext)
}

// sanitizeKey maps an arbitrary identifier to a safe file name. Date keys
// pass through unchanged.
func sanitizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	s := b.String()
	// Guard against path traversal via dot-only names
	if strings.Trim(s, ".") == "" {
		return fmt.Sprintf("key-%x", key)
	}
	return s
}
