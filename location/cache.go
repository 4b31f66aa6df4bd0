package location

import (
	"context"
	"log"
	"sync"
	"time"

	"aprsnoop/clock"
	"aprsnoop/metrics"
)

// DefaultTTL is how long a resolved place is reused.
const DefaultTTL = time.Hour

// minPurgeSize is the map size at which stores start purging expired pairs.
const minPurgeSize = 1024

type coord struct {
	lat, lon float64
}

type cacheEntry struct {
	place *Place
	exp   time.Time
}

// Cache memoizes a Geocoder by exact coordinate pair for a fixed TTL.
//
// The lock is not held while the geocoder runs, so concurrent misses on the
// same coordinates each call the geocoder. Failed lookups are never stored;
// the next lookup for the same pair retries.
//
// An expired pair is replaced when it is looked up again. Pairs that are
// never looked up again are purged by a store once the map has doubled
// since the last purge.
type Cache struct {
	mu       sync.Mutex
	entries  map[coord]cacheEntry
	purgeAt  int
	ttl      time.Duration
	clock    clock.Clock
	geocoder Geocoder
}

// NewCache wraps g. A zero ttl selects DefaultTTL, a nil clock wall time.
func NewCache(g Geocoder, ttl time.Duration, clk clock.Clock) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Cache{
		entries:  make(map[coord]cacheEntry),
		purgeAt:  minPurgeSize,
		ttl:      ttl,
		clock:    clk,
		geocoder: g,
	}
}

// Lookup returns the place at lat, lon, or nil if the geocoder failed.
func (c *Cache) Lookup(ctx context.Context, lat, lon float64) *Place {
	key := coord{lat, lon}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		if c.clock.Now().Before(e.exp) {
			c.mu.Unlock()
			metrics.GeoCacheHitsTotal.Inc()
			return e.place
		}
		delete(c.entries, key)
	}
	c.mu.Unlock()
	metrics.GeoCacheMissesTotal.Inc()

	place, err := c.geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		metrics.GeocoderFailTotal.Inc()
		log.Printf("Warning: geo lookup failed for %v,%v: %v", lat, lon, err)
		return nil
	}

	c.mu.Lock()
	now := c.clock.Now()
	c.entries[key] = cacheEntry{place: place, exp: now.Add(c.ttl)}
	if len(c.entries) >= c.purgeAt {
		c.purgeExpired(now)
	}
	c.mu.Unlock()
	return place
}

// purgeExpired drops every expired pair and sets the next purge threshold.
// The caller holds c.mu.
func (c *Cache) purgeExpired(now time.Time) {
	for k, e := range c.entries {
		if !now.Before(e.exp) {
			delete(c.entries, k)
		}
	}
	c.purgeAt = max(2*len(c.entries), minPurgeSize)
}

// Len returns the number of cached pairs, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
