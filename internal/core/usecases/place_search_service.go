package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mmcloughlin/geohash"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
	"github.com/samirrijal/wayfinder/internal/pkg/metrics"
	"github.com/samirrijal/wayfinder/internal/pkg/telemetry"
)

// PlaceSearchService resolves places through the provider or, offline, the gazetteer.
type PlaceSearchService struct {
	providers ProviderState
	gazetteer *Gazetteer
	cache     ports.CacheService
	warn      WarningFunc
}

// PlaceOption configures a PlaceSearchService.
type PlaceOption func(*PlaceSearchService)

// WithPlaceCache caches online search and details results.
func WithPlaceCache(cache ports.CacheService) PlaceOption {
	return func(s *PlaceSearchService) { s.cache = cache }
}

// WithPlaceWarnings replaces the default slog warning sink.
func WithPlaceWarnings(fn WarningFunc) PlaceOption {
	return func(s *PlaceSearchService) { s.warn = fn }
}

// NewPlaceSearchService creates a new PlaceSearchService. A nil gazetteer
// uses the bundled one.
func NewPlaceSearchService(providers ProviderState, gazetteer *Gazetteer, opts ...PlaceOption) *PlaceSearchService {
	if gazetteer == nil {
		gazetteer = DefaultGazetteer()
	}
	s := &PlaceSearchService{providers: providers, gazetteer: gazetteer, warn: logWarning("places")}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Gazetteer exposes the offline table.
func (s *PlaceSearchService) Gazetteer() *Gazetteer { return s.gazetteer }

// Search returns place candidates for query. Provider failures yield an empty
// result and a warning.
func (s *PlaceSearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) []domain.PlaceCandidate {
	ctx, span := telemetry.Tracer().Start(ctx, "PlaceSearchService.Search")
	defer span.End()

	p, ok := s.providers.Provider()
	if !ok {
		metrics.PlaceSearches.WithLabelValues("offline").Inc()
		return s.gazetteer.Search(query)
	}
	metrics.PlaceSearches.WithLabelValues("online").Inc()

	bias := s.providers.MapCenter()
	cacheKey := fmt.Sprintf("places:search:%s:%s:%d:%s",
		strings.ToLower(query), geohash.EncodeWithPrecision(bias.Lat, bias.Lon, 5),
		opts.RadiusMeters, strings.Join(opts.Types, "|"))
	var cached []domain.PlaceCandidate
	if s.cacheGet(ctx, "place_search", cacheKey, &cached) {
		return cached
	}

	candidates, err := p.Autocomplete(ctx, query, bias, opts)
	if err != nil {
		s.providerFailed(ctx, "autocomplete", err)
		span.RecordError(err)
		return []domain.PlaceCandidate{}
	}
	if candidates == nil {
		candidates = []domain.PlaceCandidate{}
	}
	s.cacheSet(ctx, cacheKey, candidates, 300)
	return candidates
}

// Details resolves a place id. Unknown ids and provider failures yield nil.
func (s *PlaceSearchService) Details(ctx context.Context, placeID string) *domain.PlaceCandidate {
	p, ok := s.providers.Provider()
	if !ok {
		c, _ := s.gazetteer.Lookup(placeID)
		return c
	}

	cacheKey := "places:id:" + placeID
	var cached domain.PlaceCandidate
	if s.cacheGet(ctx, "place_details", cacheKey, &cached) {
		return &cached
	}

	place, err := p.PlaceDetails(ctx, placeID)
	if err != nil {
		s.providerFailed(ctx, "details", err)
		return nil
	}
	if place != nil {
		s.cacheSet(ctx, cacheKey, place, 600)
	}
	return place
}

func (s *PlaceSearchService) providerFailed(ctx context.Context, op string, err error) {
	metrics.ProviderErrors.WithLabelValues(op).Inc()
	if errors.Is(err, domain.ErrProviderUnavailable) {
		s.providers.Degrade(err)
	}
	s.warn(ctx, fmt.Errorf("place %s: %w", op, err))
}

func (s *PlaceSearchService) cacheGet(ctx context.Context, op, key string, out any) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err == nil && json.Unmarshal(data, out) == nil {
		metrics.CacheHits.WithLabelValues(op).Inc()
		return true
	}
	metrics.CacheMisses.WithLabelValues(op).Inc()
	return false
}

func (s *PlaceSearchService) cacheSet(ctx context.Context, key string, v any, ttl int) {
	if s.cache == nil {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		_ = s.cache.Set(ctx, key, data, ttl)
	}
}
