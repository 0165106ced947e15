package nws

import (
	"context"
	"sync"

	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/nws-alert-map/internal/domain"
	"github.com/couchcryptid/nws-alert-map/internal/observability"
)

// CachedZoneResolver wraps a ZoneResolver with a process-lifetime cache.
// Entries are never evicted; zone boundaries do not change between polls.
// Concurrent misses for the same zone share one inner call.
type CachedZoneResolver struct {
	inner   domain.ZoneResolver
	metrics *observability.Metrics

	mu      sync.RWMutex
	entries map[string]*geojson.Geometry
	group   singleflight.Group
}

// NewCachedZoneResolver creates a cache decorator around a zone resolver.
func NewCachedZoneResolver(inner domain.ZoneResolver, metrics *observability.Metrics) *CachedZoneResolver {
	return &CachedZoneResolver{
		inner:   inner,
		metrics: metrics,
		entries: make(map[string]*geojson.Geometry),
	}
}

// ResolveZone returns the cached geometry for zoneRef, fetching it on first
// use. Failed fetches are not cached. The returned geometry is shared and
// must not be modified.
func (c *CachedZoneResolver) ResolveZone(ctx context.Context, zoneRef string) (*geojson.Geometry, error) {
	if g, ok := c.lookup(zoneRef); ok {
		c.metrics.ZoneCacheLookups.WithLabelValues("hit").Inc()
		return g, nil
	}

	v, err, _ := c.group.Do(zoneRef, func() (any, error) {
		// Another caller may have filled the entry between lookup and Do.
		if g, ok := c.lookup(zoneRef); ok {
			return g, nil
		}
		g, err := c.inner.ResolveZone(ctx, zoneRef)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[zoneRef] = g
		n := len(c.entries)
		c.mu.Unlock()
		c.metrics.ZoneCacheEntries.Set(float64(n))
		return g, nil
	})
	if err != nil {
		c.metrics.ZoneCacheLookups.WithLabelValues("error").Inc()
		return nil, err
	}
	c.metrics.ZoneCacheLookups.WithLabelValues("miss").Inc()
	return v.(*geojson.Geometry), nil
}

// Len reports the number of cached zones.
func (c *CachedZoneResolver) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *CachedZoneResolver) lookup(zoneRef string) (*geojson.Geometry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, ok := c.entries[zoneRef]
	return g, ok
}
