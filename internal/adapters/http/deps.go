package http

import (
	"context"

	"github.com/nats-io/nats.go"
	"github.com/samirrijal/wayfinder/internal/adapters/postgres"
	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/usecases"
)

// PositionSink accepts device fixes pushed over HTTP.
type PositionSink interface {
	PublishPosition(ctx context.Context, deviceID string, sample *domain.LocationSample) error
}

// RouteFeed streams the route updates of one navigation session.
type RouteFeed interface {
	SubscribeSession(sessionID string, handler func([]byte)) (func(), error)
}

// Pinger is a dependency whose liveness can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Providers  *usecases.ProviderBootstrapper
	Maps       *usecases.MapRegistry
	Surfaces   *SurfaceStore
	Routes     *usecases.RouteService
	Places     *usecases.PlaceSearchService
	Navigation *usecases.NavigationManager
	Positions  PositionSink
	RouteFeed  RouteFeed
	NATS       *nats.Conn
	DB         *postgres.DB
	Cache      Pinger
}
