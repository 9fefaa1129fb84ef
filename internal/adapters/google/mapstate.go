package google

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
)

const (
	defaultZoom    = 13
	defaultMapType = "roadmap"
)

// Map is server-side map state. Every change is pushed to its render target,
// which hands it to the client-side Maps JavaScript renderer.
type Map struct {
	surface ports.RenderTarget

	mu      sync.Mutex
	options domain.MapOptions
	layers  map[domain.Layer]bool
	markers map[string]domain.Marker
	heatmap []domain.HeatmapPoint
}

func newMap(surface ports.RenderTarget, opts domain.MapOptions) (*Map, error) {
	if err := opts.Center.Validate(); err != nil {
		return nil, fmt.Errorf("map center: %w", err)
	}
	if opts.Zoom <= 0 {
		opts.Zoom = defaultZoom
	}
	if opts.MapTypeID == "" {
		opts.MapTypeID = defaultMapType
	}
	if opts.GestureHandling == "" {
		opts.GestureHandling = domain.GestureCooperative
	}

	m := &Map{
		surface: surface,
		options: opts,
		layers:  make(map[domain.Layer]bool),
		markers: make(map[string]domain.Marker),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.render(); err != nil {
		return nil, err
	}
	return m, nil
}

// Center returns the map center.
func (m *Map) Center() domain.Coordinate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.options.Center
}

// SetLayer attaches or detaches an overlay layer.
func (m *Map) SetLayer(layer domain.Layer, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.layers[layer] == on {
		return nil
	}
	m.layers[layer] = on
	if err := m.render(); err != nil {
		m.layers[layer] = !on
		return err
	}
	return nil
}

// AddMarker places a marker and returns its id.
func (m *Map) AddMarker(marker domain.Marker) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	m.markers[id] = marker
	if err := m.render(); err != nil {
		delete(m.markers, id)
		return "", err
	}
	return id, nil
}

// RemoveMarker releases a marker. Unknown ids are ignored.
func (m *Map) RemoveMarker(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.markers[id]; !ok {
		return nil
	}
	delete(m.markers, id)
	return m.render()
}

// AddHeatmap replaces the heatmap data.
func (m *Map) AddHeatmap(points []domain.HeatmapPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.heatmap = append([]domain.HeatmapPoint(nil), points...)
	return m.render()
}

// render pushes a copy of the state. Callers hold mu.
func (m *Map) render() error {
	view := domain.MapView{
		Options: m.options,
		Markers: make(map[string]domain.Marker, len(m.markers)),
		Heatmap: append([]domain.HeatmapPoint(nil), m.heatmap...),
	}
	for l, on := range m.layers {
		if on {
			view.Layers = append(view.Layers, l)
		}
	}
	sort.Slice(view.Layers, func(i, j int) bool { return view.Layers[i] < view.Layers[j] })
	for id, mk := range m.markers {
		view.Markers[id] = mk
	}

	if err := m.surface.Render(view); err != nil {
		return fmt.Errorf("render surface %s: %w", m.surface.ID(), err)
	}
	return nil
}
