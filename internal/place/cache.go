// SPDX-FileCopyrightText: The toolatlas authors
//
// SPDX-License-Identifier: MIT

package place

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/toolatlas/toolatlas/internal/geo"
)

// coordPrecision is the precision used to quantize coordinates (0.01 degrees ≈ 1.1 km)
const coordPrecision = 1e-2

type cacheKey struct {
	Provider string
	LatQ     int32
	LonQ     int32
}

type cacheEntry struct {
	Place  Place
	Expiry time.Time
}

// CachedGeocoder wraps a Geocoder with a quantized reverse-geocoding cache.
// Nearby coordinates share a cache slot so that small position jitter does not
// trigger new provider calls. Forward searches are never cached, candidates
// are ephemeral by contract.
type CachedGeocoder struct {
	coder   Geocoder
	ttlHit  time.Duration
	ttlMiss time.Duration

	mu    sync.RWMutex
	cache map[cacheKey]cacheEntry
}

// NewCachedGeocoder wraps the given geocoder. Successful lookups live for
// ttlHit, failed ones are remembered for ttlMiss before the provider is asked
// again.
func NewCachedGeocoder(coder Geocoder, ttlHit, ttlMiss time.Duration) *CachedGeocoder {
	return &CachedGeocoder{
		coder:   coder,
		ttlHit:  ttlHit,
		ttlMiss: ttlMiss,
		cache:   make(map[cacheKey]cacheEntry),
	}
}

func (c *CachedGeocoder) Name() string {
	return "geocoder cache using " + c.coder.Name()
}

func (c *CachedGeocoder) Reverse(ctx context.Context, coord geo.Coordinate) (Place, error) {
	key := newKey(c.coder.Name(), coord.Lat, coord.Lon)

	c.mu.RLock()
	entry, ok := c.cache[key]
	if ok && time.Now().Before(entry.Expiry) {
		cached := entry.Place
		c.mu.RUnlock()
		cached.CacheHit = true
		return cached, nil
	}
	c.mu.RUnlock()

	raw, err := c.coder.Reverse(ctx, coord)
	if err != nil {
		return raw, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ttl := c.ttlHit
	if raw.DisplayName == "" {
		ttl = c.ttlMiss
	}
	c.cache[key] = cacheEntry{
		Place:  raw,
		Expiry: time.Now().Add(ttl),
	}

	return raw, nil
}

func (c *CachedGeocoder) Search(ctx context.Context, query string, box *geo.BoundingBox, limit int) ([]Place, error) {
	return c.coder.Search(ctx, query, box, limit)
}

// Sweep drops expired entries. Intended to be run periodically by the service
// scheduler.
func (c *CachedGeocoder) Sweep() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.cache {
		if now.After(entry.Expiry) {
			delete(c.cache, key)
		}
	}
}

func quantizeCoord(val float64) int32 {
	return int32(math.Round(val / coordPrecision))
}

func newKey(provider string, lat, lon float64) cacheKey {
	return cacheKey{
		Provider: provider,
		LatQ:     quantizeCoord(lat),
		LonQ:     quantizeCoord(lon),
	}
}
