package chain

import (
	"sync"
	"sync/atomic"
	"time"
)

// stepCache is a TTL-based in-memory cache with stale-while-revalidate for
// chain step lists, keyed by source tool name. Uses sync.Map for lock-free
// reads on the hot path.
type stepCache struct {
	store sync.Map // map[string]*stepCacheEntry
	ttl   time.Duration
}

type stepCacheEntry struct {
	steps      []Step // nil slice = negative cache (no rules for tool)
	expiresAt  time.Time
	refreshing atomic.Bool
}

// cacheGetResult holds the result of a cache lookup.
type cacheGetResult struct {
	steps        []Step
	hit          bool // true if a value was found (fresh or stale)
	needsRefresh bool // true if expired — caller should refresh in background
}

func newStepCache(ttl time.Duration) *stepCache {
	return &stepCache{ttl: ttl}
}

// get performs a non-blocking cache lookup.
// Returns stale entries with needsRefresh=true when expired.
func (c *stepCache) get(sourceTool string) cacheGetResult {
	val, ok := c.store.Load(sourceTool)
	if !ok {
		return cacheGetResult{hit: false}
	}

	entry := val.(*stepCacheEntry)
	now := time.Now()

	if now.Before(entry.expiresAt) {
		return cacheGetResult{steps: entry.steps, hit: true}
	}

	// Stale hit — signal refresh needed (only one goroutine wins the CAS)
	needsRefresh := entry.refreshing.CompareAndSwap(false, true)
	return cacheGetResult{
		steps:        entry.steps,
		hit:          true,
		needsRefresh: needsRefresh,
	}
}

// set stores a step list with a fresh TTL. An empty list is a valid
// negative entry for tools with no rules.
func (c *stepCache) set(sourceTool string, steps []Step) {
	c.store.Store(sourceTool, &stepCacheEntry{
		steps:     steps,
		expiresAt: time.Now().Add(c.ttl),
	})
}

// delete removes an entry from the cache.
func (c *stepCache) delete(sourceTool string) {
	c.store.Delete(sourceTool)
}
