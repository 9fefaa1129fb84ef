package ports

import (
	"context"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

// DeviceLocator is the device geolocation capability.
type DeviceLocator interface {
	// Locate performs a one-shot position request.
	Locate(ctx context.Context, deviceID string, cfg domain.LocateConfig) (domain.LocationSample, error)
	// Watch subscribes to continuous position updates.
	Watch(ctx context.Context, deviceID string, cfg domain.LocateConfig) (PositionStream, error)
}

// PositionEvent carries either a sample or an error.
type PositionEvent struct {
	Sample domain.LocationSample
	Err    error
}

// PositionStream delivers events in chronological order until closed.
type PositionStream interface {
	Events() <-chan PositionEvent
	Close() error
}
