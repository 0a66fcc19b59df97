package waqi

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/aqi-predictor/internal/domain"
	"github.com/couchcryptid/aqi-predictor/internal/observability"
	"github.com/jonboulle/clockwork"
)

// CachedFetcher wraps a Fetcher with an in-memory LRU cache whose entries
// expire after a fixed TTL.
type CachedFetcher struct {
	inner   domain.Fetcher
	cache   *lruCache
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// NewCachedFetcher creates a cache decorator around a fetcher.
func NewCachedFetcher(inner domain.Fetcher, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedFetcher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CachedFetcher{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		ttl:     ttl,
		clock:   clock,
		metrics: metrics,
	}
}

func (c *CachedFetcher) Fetch(ctx context.Context, location string) (domain.AirQualitySample, error) {
	key := strings.ToLower(strings.TrimSpace(location))
	now := c.clock.Now()
	if sample, ok := c.cache.get(key, now); ok {
		c.metrics.FetchCache.WithLabelValues("hit").Inc()
		return sample, nil
	}
	c.metrics.FetchCache.WithLabelValues("miss").Inc()

	sample, err := c.inner.Fetch(ctx, location)
	if err != nil {
		// Failures are never cached so an unknown station can be retried.
		return sample, err
	}
	c.cache.put(key, sample, now.Add(c.ttl))
	return sample, nil
}

// lruCache is a simple thread-safe LRU cache for samples with per-entry expiry.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key       string
	value     domain.AirQualitySample
	expiresAt time.Time
	prev      *entry
	next      *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string, now time.Time) (domain.AirQualitySample, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.AirQualitySample{}, false
	}
	if !now.Before(e.expiresAt) {
		delete(c.entries, key)
		c.remove(e)
		return domain.AirQualitySample{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.AirQualitySample, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
