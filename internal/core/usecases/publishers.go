package usecases

import (
	"context"
	"errors"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
)

// Publishers fans events out to several brokers. Every broker is tried; the
// failures are joined.
type Publishers []ports.EventPublisher

// PublishRouteUpdate satisfies ports.EventPublisher.
func (ps Publishers) PublishRouteUpdate(ctx context.Context, update *domain.RouteUpdate) error {
	var errs []error
	for _, p := range ps {
		if err := p.PublishRouteUpdate(ctx, update); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishPosition satisfies ports.EventPublisher.
func (ps Publishers) PublishPosition(ctx context.Context, deviceID string, sample *domain.LocationSample) error {
	var errs []error
	for _, p := range ps {
		if err := p.PublishPosition(ctx, deviceID, sample); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
