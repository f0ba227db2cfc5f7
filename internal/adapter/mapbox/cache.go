package mapbox

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/tick-tracker/internal/domain"
	"github.com/couchcryptid/tick-tracker/internal/observability"
)

// NegativeTTL is how long an empty geocoding result is remembered.
const NegativeTTL = time.Hour

type cacheEntry struct {
	result  domain.GeocodingResult
	expires time.Time // zero for resolved names
}

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache keyed by the
// case-folded place name. Names the geocoder cannot resolve are remembered
// for NegativeTTL.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lru.Cache[string, cacheEntry]
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) (*CachedGeocoder, error) {
	cache, err := lru.New[string, cacheEntry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &CachedGeocoder{inner: inner, cache: cache, clock: clockwork.NewRealClock(), metrics: metrics}, nil
}

// ForwardGeocode returns a cached result when one exists, otherwise asks the
// wrapped geocoder.
func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, name string) (domain.GeocodingResult, error) {
	key := domain.LocationKey(name)
	if entry, ok := c.cache.Get(key); ok {
		if entry.expires.IsZero() || c.clock.Now().Before(entry.expires) {
			c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
			return entry.result, nil
		}
		c.cache.Remove(key)
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result, err := c.inner.ForwardGeocode(ctx, name)
	if err != nil {
		return result, err
	}
	entry := cacheEntry{result: result}
	if result.PlaceName == "" {
		entry.expires = c.clock.Now().Add(NegativeTTL)
	}
	c.cache.Add(key, entry)
	return result, nil
}
