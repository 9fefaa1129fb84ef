package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mmcloughlin/geohash"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
	"github.com/samirrijal/wayfinder/internal/pkg/metrics"
)

const (
	// routeCacheTTL is how long cached directions stay valid, in seconds.
	routeCacheTTL = 120

	// Precision 7 is a ~150m cell: close enough that a cached route is still
	// a fair answer for a nearby origin.
	routeGeohashPrecision = 7
)

// CachedDirections wraps a Directions provider with a read-through cache keyed
// by geohash cells of the request's points.
type CachedDirections struct {
	inner ports.Directions
	cache ports.CacheService
}

// NewCachedDirections wraps inner with cache.
func NewCachedDirections(inner ports.Directions, cache ports.CacheService) *CachedDirections {
	return &CachedDirections{inner: inner, cache: cache}
}

// Directions satisfies ports.Directions.
func (c *CachedDirections) Directions(ctx context.Context, req domain.RouteRequest) ([]domain.RouteLeg, error) {
	key := routeCacheKey(req)

	if data, err := c.cache.Get(ctx, key); err == nil {
		var legs []domain.RouteLeg
		if err := json.Unmarshal(data, &legs); err == nil && len(legs) > 0 {
			metrics.CacheHits.WithLabelValues("directions").Inc()
			return legs, nil
		}
	}
	metrics.CacheMisses.WithLabelValues("directions").Inc()

	legs, err := c.inner.Directions(ctx, req)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(legs); err == nil {
		_ = c.cache.Set(ctx, key, data, routeCacheTTL)
	}
	return legs, nil
}

func routeCacheKey(req domain.RouteRequest) string {
	var b strings.Builder
	b.WriteString("route:")
	b.WriteString(cell(req.Origin))
	b.WriteByte(':')
	b.WriteString(cell(req.Destination))
	for _, wp := range req.Waypoints {
		b.WriteByte('+')
		b.WriteString(cell(wp))
	}
	fmt.Fprintf(&b, ":%s:%t:%t:%t:%t:%q:%q", req.TravelMode,
		req.AvoidHighways, req.AvoidTolls, req.OptimizeWaypoints, req.WantAlternatives,
		req.OriginLabel, req.DestinationLabel)
	return b.String()
}

func cell(c domain.Coordinate) string {
	return geohash.EncodeWithPrecision(c.Lat, c.Lon, routeGeohashPrecision)
}
