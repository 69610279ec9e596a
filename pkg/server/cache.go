package server

import (
	"encoding/json"
	"net/url"
	"sort"
	"sync"
	"time"
)

// DefaultCacheTTL is how long a successful upstream response is reused
const DefaultCacheTTL = 24 * time.Hour

type cacheEntry struct {
	data   []byte
	stored time.Time
}

// ResponseCache keeps upstream responses keyed by their query parameters
type ResponseCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewResponseCache creates a cache; ttl <= 0 uses DefaultCacheTTL
func NewResponseCache(ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResponseCache{ttl: ttl, entries: make(map[string]cacheEntry), now: time.Now}
}

// CacheKey builds an order-independent key from the first value of each
// parameter
func CacheKey(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([][2]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, [2]string{k, params.Get(k)})
	}
	b, _ := json.Marshal(pairs)
	return string(b)
}

// Get returns a fresh entry. Expired entries are dropped.
func (c *ResponseCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.stored) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.data, true
}

// Put stores data under key
func (c *ResponseCache) Put(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{data: data, stored: c.now()}
}

// Len returns the number of stored entries, fresh or not
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
