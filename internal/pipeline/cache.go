package pipeline

import (
	"sync"
	"sync/atomic"
	"time"
)

// CachedBuild is the replayable outcome of one successful directory build.
// A cache hit restores these counts without touching the source files again;
// Outputs lists every artifact the hit promises to exist.
type CachedBuild struct {
	Outputs   []string
	Processed int
	Skipped   int
	Mapping   map[string]rune
}

// cacheEntry is one LRU node. Entries form a doubly-linked list between the
// cache's dummy head and tail, most recently used first.
type cacheEntry struct {
	key       string
	build     CachedBuild
	createdAt time.Time
	prev      *cacheEntry
	next      *cacheEntry
}

// ResultCache remembers build results keyed by source fingerprint, with LRU
// eviction and TTL expiry. It is shared across the pipelines of a batch run
// and safe for concurrent use.
type ResultCache struct {
	mutex      sync.Mutex
	entries    map[string]*cacheEntry
	maxEntries int
	ttl        time.Duration

	// Dummy head and tail keep list surgery branch-free.
	head *cacheEntry
	tail *cacheEntry

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// DefaultCacheEntries bounds the cache when no limit is configured. Batch
// runs hold one entry per source directory, so a few hundred is generous.
const DefaultCacheEntries = 256

// DefaultCacheTTL expires entries that outlive a typical watch session.
const DefaultCacheTTL = time.Hour

// NewResultCache creates a cache holding at most maxEntries results for at
// most ttl each. Non-positive arguments select the defaults.
func NewResultCache(maxEntries int, ttl time.Duration) *ResultCache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &ResultCache{
		entries:    make(map[string]*cacheEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
		head:       &cacheEntry{},
		tail:       &cacheEntry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Lookup returns the cached build for key. Expired entries are removed and
// reported as misses; hits move the entry to the front of the LRU list.
func (c *ResultCache) Lookup(key string) (CachedBuild, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return CachedBuild{}, false
	}
	if time.Since(entry.createdAt) > c.ttl {
		c.removeFromList(entry)
		delete(c.entries, key)
		c.misses.Add(1)
		return CachedBuild{}, false
	}

	c.moveToFront(entry)
	c.hits.Add(1)
	return entry.build, true
}

// Store records the build for key, replacing any previous entry and evicting
// from the least recently used end when the cache is full.
func (c *ResultCache) Store(key string, build CachedBuild) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if entry, ok := c.entries[key]; ok {
		entry.build = build
		entry.createdAt = time.Now()
		c.moveToFront(entry)
		return
	}

	for len(c.entries) >= c.maxEntries && c.tail.prev != c.head {
		lru := c.tail.prev
		c.removeFromList(lru)
		delete(c.entries, lru.key)
		c.evictions.Add(1)
	}

	entry := &cacheEntry{key: key, build: build, createdAt: time.Now()}
	c.entries[key] = entry
	c.addToFront(entry)
}

// Remove drops the entry for key, reporting whether one existed. The
// pipeline uses it to invalidate hits whose promised outputs are gone.
func (c *ResultCache) Remove(key string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeFromList(entry)
	delete(c.entries, key)
	return true
}

// Clear drops all entries and resets the statistics.
func (c *ResultCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.head.next = c.tail
	c.tail.prev = c.head
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
}

// Len reports how many results are currently cached.
func (c *ResultCache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.entries)
}

// Hits reports the number of successful lookups.
func (c *ResultCache) Hits() int64 { return c.hits.Load() }

// Misses reports the number of failed lookups, expiries included.
func (c *ResultCache) Misses() int64 { return c.misses.Load() }

// Evictions reports how many entries were displaced by newer ones.
func (c *ResultCache) Evictions() int64 { return c.evictions.Load() }

// HitRate reports hits as a fraction of all lookups, zero when idle.
func (c *ResultCache) HitRate() float64 {
	hits := c.hits.Load()
	total := hits + c.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

func (c *ResultCache) addToFront(entry *cacheEntry) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *ResultCache) removeFromList(entry *cacheEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
}

func (c *ResultCache) moveToFront(entry *cacheEntry) {
	c.removeFromList(entry)
	c.addToFront(entry)
}
