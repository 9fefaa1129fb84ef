package usecases

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
)

// LayerManager toggles overlays and owns the markers of one map.
type LayerManager struct {
	providers ProviderState
	handle    ports.MapHandle

	mu       sync.Mutex
	layers   map[domain.Layer]bool
	markers  []string
	released bool
}

// NewLayerManager binds a manager to handle. handle may be nil (degraded map).
func NewLayerManager(providers ProviderState, handle ports.MapHandle) *LayerManager {
	return &LayerManager{
		providers: providers,
		handle:    handle,
		layers:    make(map[domain.Layer]bool),
	}
}

func (m *LayerManager) online() bool {
	return m.handle != nil && m.providers.Mode() == domain.ModeOnline
}

// ToggleLayer flips the layer and returns its new state. Offline it is a
// no-op that reports the layer as off.
func (m *LayerManager) ToggleLayer(layer domain.Layer) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.online() {
		clear(m.layers)
		return false
	}

	next := !m.layers[layer]
	if err := m.handle.SetLayer(layer, next); err != nil {
		slog.Warn("toggle layer", "layer", layer, "error", err)
		return m.layers[layer]
	}
	m.layers[layer] = next
	return next
}

// LayerState reports whether layer is on.
func (m *LayerManager) LayerState(layer domain.Layer) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online() && m.layers[layer]
}

// AddMarker places a marker owned by this manager.
func (m *LayerManager) AddMarker(marker domain.Marker) (string, error) {
	if err := marker.Position.Validate(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.released {
		return "", fmt.Errorf("add marker: %w: map was replaced or closed", domain.ErrInvalidState)
	}
	if !m.online() {
		return "", fmt.Errorf("add marker: %w", domain.ErrProviderUnavailable)
	}
	id, err := m.handle.AddMarker(marker)
	if err != nil {
		return "", fmt.Errorf("add marker: %w", err)
	}
	m.markers = append(m.markers, id)
	return id, nil
}

// Markers lists the ids of markers created by this manager.
func (m *LayerManager) Markers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.markers...)
}

// ClearMarkers detaches and releases every marker created by this manager.
func (m *LayerManager) ClearMarkers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked()
}

// release clears the markers and refuses new ones. The registry calls it
// when the map is replaced or closed.
func (m *LayerManager) release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = true
	m.clearLocked()
}

func (m *LayerManager) clearLocked() {
	if m.handle != nil {
		for _, id := range m.markers {
			if err := m.handle.RemoveMarker(id); err != nil {
				slog.Warn("remove marker", "marker", id, "error", err)
			}
		}
	}
	m.markers = nil
}

// AddHeatmap draws a heatmap. Offline it does nothing.
func (m *LayerManager) AddHeatmap(points []domain.HeatmapPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.online() {
		return nil
	}
	for i, p := range points {
		if err := p.Coordinate.Validate(); err != nil {
			return fmt.Errorf("heatmap point %d: %w", i, err)
		}
	}
	return m.handle.AddHeatmap(points)
}
