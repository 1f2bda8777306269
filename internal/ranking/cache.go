package ranking

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultDistanceTTL is how long a computed distance stays memoized: 7 days.
const DefaultDistanceTTL = 7 * 24 * time.Hour

// DistanceCache memoizes restaurant-to-order distances by address pair.
// A nil distance is a valid cached value: it records that one of the
// addresses failed to resolve, so the pair is not retried against the
// provider until the entry expires. Readers and writers may race on a key;
// last-writer-wins is fine because the value is deterministic for a pair.
type DistanceCache struct {
	mu      sync.RWMutex
	entries map[string]distanceEntry
	ttl     time.Duration

	logger   zerolog.Logger
	stopChan chan struct{}
	stopOnce sync.Once

	now func() time.Time
}

type distanceEntry struct {
	distance  *float64
	expiresAt time.Time
}

// NewDistanceCache creates a distance cache with the given TTL.
// A non-positive TTL falls back to DefaultDistanceTTL.
func NewDistanceCache(ttl time.Duration) *DistanceCache {
	if ttl <= 0 {
		ttl = DefaultDistanceTTL
	}
	return &DistanceCache{
		entries:  make(map[string]distanceEntry),
		ttl:      ttl,
		logger:   log.With().Str("component", "distance_cache").Logger(),
		stopChan: make(chan struct{}),
		now:      time.Now,
	}
}

// CacheKey builds the memoization key for a restaurant/order address pair.
func CacheKey(restaurantAddress, orderAddress string) string {
	return restaurantAddress + " — " + orderAddress
}

// Get returns the cached distance for a key.
// The second return value reports whether a live entry exists; the first may
// still be nil for a memoized resolution failure.
func (c *DistanceCache) Get(key string) (*float64, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expiresAt) {
		distanceCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	distanceCacheLookups.WithLabelValues("hit").Inc()
	return entry.distance, true
}

// Set stores a distance (or nil for "unknown") for the TTL window.
func (c *DistanceCache) Set(key string, distance *float64) {
	c.mu.Lock()
	c.entries[key] = distanceEntry{
		distance:  distance,
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Len returns the number of entries currently held, expired ones included.
func (c *DistanceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// StartSweeper periodically evicts expired entries until the context is
// cancelled or Stop is called.
func (c *DistanceCache) StartSweeper(ctx context.Context, interval time.Duration) {
	c.logger.Info().Dur("interval", interval).Msg("Starting distance cache sweeper")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("Distance cache sweeper stopping (context cancelled)")
			return
		case <-c.stopChan:
			c.logger.Info().Msg("Distance cache sweeper stopping (stop signal)")
			return
		case <-ticker.C:
			removed := c.Sweep()
			if removed > 0 {
				c.logger.Debug().Int("removed", removed).Msg("Swept expired distance entries")
			}
		}
	}
}

// Stop signals the sweeper to stop.
func (c *DistanceCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

// Sweep removes expired entries and returns how many were evicted.
func (c *DistanceCache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}
