package ports

import (
	"context"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishRouteUpdate(ctx context.Context, update *domain.RouteUpdate) error
	PublishPosition(ctx context.Context, deviceID string, sample *domain.LocationSample) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
