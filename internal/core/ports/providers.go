package ports

import (
	"context"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

// ProviderLoader loads the mapping backend. Swappable for a fake in tests.
type ProviderLoader interface {
	Load(ctx context.Context) (MapProvider, error)
}

// MapProvider is the capability surface of a loaded mapping backend.
type MapProvider interface {
	MapFactory
	Directions
	Places
}

// MapFactory builds map surfaces.
type MapFactory interface {
	NewMap(surface RenderTarget, opts domain.MapOptions) (MapHandle, error)
}

// Directions computes routes. Returns one leg per routed segment.
type Directions interface {
	Directions(ctx context.Context, req domain.RouteRequest) ([]domain.RouteLeg, error)
}

// Places provides autocomplete and place details.
type Places interface {
	Autocomplete(ctx context.Context, query string, bias domain.Coordinate, opts domain.SearchOptions) ([]domain.PlaceCandidate, error)
	PlaceDetails(ctx context.Context, placeID string) (*domain.PlaceCandidate, error)
}

// MapHandle is a live map bound to a render target.
type MapHandle interface {
	Center() domain.Coordinate
	SetLayer(layer domain.Layer, on bool) error
	AddMarker(m domain.Marker) (string, error)
	RemoveMarker(id string) error
	AddHeatmap(points []domain.HeatmapPoint) error
}

// RenderTarget is the surface a map draws into.
type RenderTarget interface {
	ID() string
	Render(view domain.MapView) error
	RenderPlaceholder(message string) error
}
