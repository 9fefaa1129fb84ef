package usecases

import (
	"context"
	"sync"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
)

// MapRegistry tracks the map surfaces opened by clients and their layer managers.
type MapRegistry struct {
	bootstrap *ProviderBootstrapper

	mu     sync.Mutex
	layers map[string]*LayerManager
}

// NewMapRegistry creates a registry backed by bootstrap.
func NewMapRegistry(bootstrap *ProviderBootstrapper) *MapRegistry {
	return &MapRegistry{bootstrap: bootstrap, layers: make(map[string]*LayerManager)}
}

// Open initializes a map on surface, replacing any previous map on the same
// surface. The returned manager is degraded when the provider is offline.
func (r *MapRegistry) Open(ctx context.Context, surface ports.RenderTarget, opts domain.MapOptions) (*LayerManager, bool) {
	handle := r.bootstrap.Initialize(ctx, surface, opts)
	lm := NewLayerManager(r.bootstrap, handle)

	r.mu.Lock()
	prev, ok := r.layers[surface.ID()]
	r.layers[surface.ID()] = lm
	r.mu.Unlock()

	// Whichever concurrent Open lands last wins; every displaced manager is
	// released exactly once.
	if ok {
		prev.release()
	}
	return lm, handle != nil
}

// Layers returns the manager of an open surface.
func (r *MapRegistry) Layers(surfaceID string) (*LayerManager, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lm, ok := r.layers[surfaceID]
	return lm, ok
}

// Close releases the markers of a surface before forgetting it.
func (r *MapRegistry) Close(surfaceID string) {
	r.mu.Lock()
	lm, ok := r.layers[surfaceID]
	delete(r.layers, surfaceID)
	r.mu.Unlock()

	if ok {
		lm.release()
	}
}
