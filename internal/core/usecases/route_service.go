package usecases

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
	"github.com/samirrijal/wayfinder/internal/pkg/geospatial"
	"github.com/samirrijal/wayfinder/internal/pkg/metrics"
	"github.com/samirrijal/wayfinder/internal/pkg/telemetry"
)

// RouteService computes routes through the provider, falling back to a
// straight-line estimate when the provider is offline or fails.
type RouteService struct {
	providers ProviderState
	cache     ports.CacheService
	warn      WarningFunc
}

// RouteOption configures a RouteService.
type RouteOption func(*RouteService)

// WithRouteCache caches provider directions in cache.
func WithRouteCache(cache ports.CacheService) RouteOption {
	return func(s *RouteService) { s.cache = cache }
}

// WithRouteWarnings replaces the default slog warning sink.
func WithRouteWarnings(fn WarningFunc) RouteOption {
	return func(s *RouteService) { s.warn = fn }
}

// NewRouteService creates a new RouteService.
func NewRouteService(providers ProviderState, opts ...RouteOption) *RouteService {
	s := &RouteService{providers: providers, warn: logWarning("routing")}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ComputeRoute returns a route for req. Invalid coordinates and a cancelled
// context are the only errors; provider failures degrade to an approximation.
func (s *RouteService) ComputeRoute(ctx context.Context, req domain.RouteRequest) (domain.RouteResult, error) {
	if req.TravelMode == "" {
		req.TravelMode = domain.TravelDriving
	}
	if err := req.Validate(); err != nil {
		return domain.RouteResult{}, err
	}

	ctx, span := telemetry.Tracer().Start(ctx, "RouteService.ComputeRoute")
	defer span.End()
	start := time.Now()

	path := "offline"
	if p, ok := s.providers.Provider(); ok {
		legs, err := s.directions(p).Directions(ctx, req)
		if err == nil && len(legs) > 0 {
			s.observe(span, "online", start)
			return domain.RouteResult{Legs: legs}, nil
		}
		if err == nil {
			err = &domain.ProviderAPIError{Operation: "directions", Status: "ZERO_RESULTS"}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			span.SetStatus(codes.Error, ctxErr.Error())
			return domain.RouteResult{}, ctxErr
		}

		metrics.ProviderErrors.WithLabelValues("directions").Inc()
		if errors.Is(err, domain.ErrProviderUnavailable) {
			s.providers.Degrade(err)
		}
		s.warn(ctx, fmt.Errorf("directions failed, using straight-line estimate: %w", err))
		span.RecordError(err)
		path = "fallback"
	}

	result := approximateRoute(req)
	s.observe(span, path, start)
	return result, nil
}

func (s *RouteService) directions(p ports.Directions) ports.Directions {
	if s.cache == nil {
		return p
	}
	return NewCachedDirections(p, s.cache)
}

func (s *RouteService) observe(span trace.Span, path string, start time.Time) {
	metrics.RoutesComputed.WithLabelValues(path).Inc()
	metrics.RouteDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.String("route.path", path),
		attribute.Bool("route.approximate", path != "online"),
	)
}

// Distance returns the great-circle distance in kilometres.
func (s *RouteService) Distance(a, b domain.Coordinate) float64 {
	return geospatial.HaversineKm(a, b)
}

// EstimateTravelTimeMinutes converts a distance to minutes at avgSpeedKmh.
func (s *RouteService) EstimateTravelTimeMinutes(distanceKm, avgSpeedKmh float64) float64 {
	return geospatial.EstimateTravelTimeMinutes(distanceKm, avgSpeedKmh)
}

// approximateRoute builds the single-leg offline estimate: the distance is
// rounded to whole kilometres, the duration uses the unrounded distance.
func approximateRoute(req domain.RouteRequest) domain.RouteResult {
	km := geospatial.HaversineKm(req.Origin, req.Destination)
	minutes := geospatial.EstimateTravelTimeMinutes(km, geospatial.DefaultAvgSpeedKmh)

	start := req.OriginLabel
	if start == "" {
		start = req.Origin.String()
	}
	end := req.DestinationLabel
	if end == "" {
		end = req.Destination.String()
	}

	return domain.RouteResult{
		Legs: []domain.RouteLeg{{
			DistanceMeters:  math.Round(km) * 1000,
			DurationSeconds: minutes * 60,
			StartLabel:      start,
			EndLabel:        end,
		}},
		IsApproximate: true,
	}
}
