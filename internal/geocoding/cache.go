package geocoding

import (
	"strings"
	"sync"
	"time"

	"github.com/indicrafts/api/internal/domain"
)

const (
	// DefaultCacheTTL bounds how long a resolved location stays valid.
	DefaultCacheTTL = 30 * 24 * time.Hour
	// DefaultCacheMaxEntries caps the cache to keep memory bounded.
	DefaultCacheMaxEntries = 5000
)

type cacheRecord struct {
	location   domain.Location
	insertedAt time.Time
}

// Cache is a bounded TTL cache for resolved postal code locations. When full,
// the oldest inserted entry is evicted regardless of access recency.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]cacheRecord
	order      []string
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// CacheOption customises Cache construction.
type CacheOption func(*Cache)

// WithCacheClock overrides the time source used for TTL checks (tests).
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCache constructs a Cache with the provided TTL and capacity. Non-positive
// values fall back to the defaults.
func NewCache(ttl time.Duration, maxEntries int, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	c := &Cache{
		entries:    make(map[string]cacheRecord),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns the cached location for the key when present and unexpired.
func (c *Cache) Get(key string) (*domain.Location, bool) {
	key = normalizeCacheKey(key)
	if key == "" {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	record, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(record.insertedAt) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return nil, false
	}

	location := record.location
	return &location, true
}

// Put stores the location under the key, evicting the oldest entry when full.
func (c *Cache) Put(key string, location *domain.Location) {
	key = normalizeCacheKey(key)
	if key == "" || location == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}

	c.entries[key] = cacheRecord{
		location:   *location,
		insertedAt: c.now(),
	}
}

// Len reports the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) removeFromOrder(key string) {
	for i, candidate := range c.order {
		if candidate == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func normalizeCacheKey(key string) string {
	return strings.TrimSpace(key)
}
