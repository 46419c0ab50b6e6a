package suggest

import (
	"sync"

	"github.com/charmbracelet/log"
)

// CacheKey identifies one computed suggestion list.
type CacheKey struct {
	Category Category
	Status   string
	Limit    int
	Query    string
}

// NewCacheKey builds a key with the query normalized the same way the
// index normalizes it.
func NewCacheKey(c Category, status string, limit int, query string) CacheKey {
	return CacheKey{
		Category: c,
		Status:   status,
		Limit:    limit,
		Query:    NormalizeQuery(query),
	}
}

// ResultCache memoizes suggestion lists for one widget. Entries are never
// evicted; the cache lives and dies with its owner.
type ResultCache struct {
	entries map[CacheKey][]string
	hits    int64
	misses  int64
	mu      sync.RWMutex
}

// NewResultCache creates an empty cache.
func NewResultCache() *ResultCache {
	return &ResultCache{
		entries: make(map[CacheKey][]string),
	}
}

// Get returns the cached list for key.
func (rc *ResultCache) Get(key CacheKey) ([]string, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	values, ok := rc.entries[key]
	if ok {
		rc.hits++
	} else {
		rc.misses++
	}
	return values, ok
}

// Put stores values under key.
func (rc *ResultCache) Put(key CacheKey, values []string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if _, exists := rc.entries[key]; !exists && len(rc.entries)%1000 == 999 {
		log.Debugf("Result cache grew to %d entries", len(rc.entries)+1)
	}
	rc.entries[key] = values
}

// Len returns the number of cached entries.
func (rc *ResultCache) Len() int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return len(rc.entries)
}

// Stats reports size and hit counters.
func (rc *ResultCache) Stats() map[string]int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	return map[string]int{
		"entries": len(rc.entries),
		"hits":    int(rc.hits),
		"misses":  int(rc.misses),
	}
}
