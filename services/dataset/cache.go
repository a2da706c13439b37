package dataset

import (
	"container/list"
	"context"
	"sync"

	"github.com/dunderai/auditcore/models"
	"go.uber.org/zap"
)

// DefaultCapacity keeps exactly one dataset resident, which preserves the
// observable behavior of the previous single-slot cache: loading a second
// path evicts the first.
const DefaultCapacity = 1

// cacheEntry is one resident dataset.
type cacheEntry struct {
	path    string
	rs      *models.RecordSet
	element *list.Element // For LRU tracking
}

// Cache memoizes parsed datasets keyed by source path. It is an explicit
// LRU cache with a small capacity rather than a package-level global;
// entries are invalidated only by capacity eviction, Evict or process
// restart.
type Cache struct {
	mu       sync.Mutex
	loader   *Loader
	logger   *zap.Logger
	entries  map[string]*cacheEntry
	lruList  *list.List
	capacity int
	hits     uint64
	misses   uint64
}

// CacheStats reports cache effectiveness counters.
type CacheStats struct {
	Size   int
	Hits   uint64
	Misses uint64
}

// NewCache creates a cache over the given loader. Capacity values below 1
// are clamped to DefaultCapacity.
func NewCache(loader *Loader, capacity int, logger *zap.Logger) *Cache {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Cache{
		loader:   loader,
		logger:   logger,
		entries:  make(map[string]*cacheEntry),
		lruList:  list.New(),
		capacity: capacity,
	}
}

// Load returns the dataset for the given source path, fetching and
// parsing it on the first call and serving the memoized RecordSet on
// subsequent calls. Fetch or parse failures propagate as data_source
// errors and leave the cache unchanged.
func (c *Cache) Load(ctx context.Context, path string) (*models.RecordSet, error) {
	c.mu.Lock()
	if entry, ok := c.entries[path]; ok {
		c.lruList.MoveToFront(entry.element)
		c.hits++
		rs := entry.rs
		c.mu.Unlock()
		return rs, nil
	}
	c.misses++
	c.mu.Unlock()

	// Fetch outside the lock; a hung source must not block cache hits
	// for other paths.
	c.logger.Info("loading dataset", zap.String("path", path))
	rs, err := c.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another request may have loaded the same path meanwhile; last
	// writer wins, matching the accepted weakness of the design.
	if entry, ok := c.entries[path]; ok {
		entry.rs = rs
		c.lruList.MoveToFront(entry.element)
		return rs, nil
	}

	for len(c.entries) >= c.capacity {
		c.evictOldest()
	}

	entry := &cacheEntry{path: path, rs: rs}
	entry.element = c.lruList.PushFront(entry)
	c.entries[path] = entry

	c.logger.Info("dataset cached",
		zap.String("path", path),
		zap.Int("rows", rs.Len()),
		zap.Int("columns", len(rs.Columns)))
	return rs, nil
}

// Peek returns the resident dataset for a path without loading.
func (c *Cache) Peek(path string) (*models.RecordSet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[path]
	if !ok {
		return nil, false
	}
	return entry.rs, true
}

// Evict removes the entry for the given path if resident.
func (c *Cache) Evict(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[path]
	if !ok {
		return false
	}
	c.lruList.Remove(entry.element)
	delete(c.entries, path)
	return true
}

// Stats returns the current cache counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{
		Size:   len(c.entries),
		Hits:   c.hits,
		Misses: c.misses,
	}
}

// evictOldest removes the least recently used entry. Caller holds the lock.
func (c *Cache) evictOldest() {
	oldest := c.lruList.Back()
	if oldest == nil {
		return
	}
	entry := oldest.Value.(*cacheEntry)
	c.lruList.Remove(oldest)
	delete(c.entries, entry.path)
	c.logger.Debug("dataset evicted", zap.String("path", entry.path))
}
