package cache

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/andresuchdata/inventory-balance/internal/balance"
)

// LoadFunc reads a dataset from path.
type LoadFunc func(ctx context.Context, path string) (*balance.Dataset, error)

type datasetEntry struct {
	modTime time.Time
	size    int64
	ds      *balance.Dataset
}

// DatasetCache memoizes loaded snapshots per path. An entry is reused while
// the file's modification time and size are unchanged. Concurrent loads of
// the same path share a single read.
type DatasetCache struct {
	load    LoadFunc
	mu      sync.RWMutex
	entries map[string]datasetEntry
	group   singleflight.Group
}

// NewDatasetCache wraps load with memoization.
func NewDatasetCache(load LoadFunc) *DatasetCache {
	return &DatasetCache{load: load, entries: make(map[string]datasetEntry)}
}

// Get returns the cached dataset for path, loading it when the file changed.
// The second return value reports a cache hit.
func (c *DatasetCache) Get(ctx context.Context, path string) (*balance.Dataset, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		// Let the loader produce its own descriptive error.
		ds, loadErr := c.load(ctx, path)
		return ds, false, loadErr
	}

	c.mu.RLock()
	entry, ok := c.entries[path]
	c.mu.RUnlock()
	if ok && entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
		return entry.ds, true, nil
	}

	key := fmt.Sprintf("%s|%d|%d", path, info.ModTime().UnixNano(), info.Size())
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		ds, err := c.load(ctx, path)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[path] = datasetEntry{modTime: info.ModTime(), size: info.Size(), ds: ds}
		c.mu.Unlock()
		return ds, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*balance.Dataset), false, nil
}

// Invalidate drops the entry for path, or every entry when path is empty.
func (c *DatasetCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if path == "" {
		c.entries = make(map[string]datasetEntry)
		return
	}
	delete(c.entries, path)
}
