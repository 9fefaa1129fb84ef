package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
)

// --- Mock ProviderLoader ---

type mockLoader struct {
	loadFn func(ctx context.Context) (ports.MapProvider, error)
	calls  atomic.Int32
}

func (m *mockLoader) Load(ctx context.Context) (ports.MapProvider, error) {
	m.calls.Add(1)
	if m.loadFn != nil {
		return m.loadFn(ctx)
	}
	return nil, errors.New("no provider")
}

// --- Mock MapProvider ---

type mockProvider struct {
	newMapFn       func(surface ports.RenderTarget, opts domain.MapOptions) (ports.MapHandle, error)
	directionsFn   func(ctx context.Context, req domain.RouteRequest) ([]domain.RouteLeg, error)
	autocompleteFn func(ctx context.Context, query string, bias domain.Coordinate, opts domain.SearchOptions) ([]domain.PlaceCandidate, error)
	detailsFn      func(ctx context.Context, id string) (*domain.PlaceCandidate, error)
}

func (m *mockProvider) NewMap(surface ports.RenderTarget, opts domain.MapOptions) (ports.MapHandle, error) {
	if m.newMapFn != nil {
		return m.newMapFn(surface, opts)
	}
	return &mockHandle{center: opts.Center}, nil
}

func (m *mockProvider) Directions(ctx context.Context, req domain.RouteRequest) ([]domain.RouteLeg, error) {
	if m.directionsFn != nil {
		return m.directionsFn(ctx, req)
	}
	return nil, nil
}

func (m *mockProvider) Autocomplete(ctx context.Context, query string, bias domain.Coordinate, opts domain.SearchOptions) ([]domain.PlaceCandidate, error) {
	if m.autocompleteFn != nil {
		return m.autocompleteFn(ctx, query, bias, opts)
	}
	return nil, nil
}

func (m *mockProvider) PlaceDetails(ctx context.Context, id string) (*domain.PlaceCandidate, error) {
	if m.detailsFn != nil {
		return m.detailsFn(ctx, id)
	}
	return nil, nil
}

// --- Mock MapHandle ---

type mockHandle struct {
	center     domain.Coordinate
	setLayerFn func(layer domain.Layer, on bool) error

	mu       sync.Mutex
	next     int
	markers  map[string]domain.Marker
	removed  []string
	heatmaps int
}

func (h *mockHandle) Center() domain.Coordinate { return h.center }

func (h *mockHandle) SetLayer(layer domain.Layer, on bool) error {
	if h.setLayerFn != nil {
		return h.setLayerFn(layer, on)
	}
	return nil
}

func (h *mockHandle) AddMarker(m domain.Marker) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.markers == nil {
		h.markers = make(map[string]domain.Marker)
	}
	h.next++
	id := fmt.Sprintf("m%d", h.next)
	h.markers[id] = m
	return id, nil
}

func (h *mockHandle) RemoveMarker(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.markers, id)
	h.removed = append(h.removed, id)
	return nil
}

func (h *mockHandle) AddHeatmap(points []domain.HeatmapPoint) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.heatmaps++
	return nil
}

// --- Mock RenderTarget ---

type mockSurface struct {
	id          string
	mu          sync.Mutex
	placeholder string
}

func (s *mockSurface) ID() string { return s.id }

func (s *mockSurface) Render(domain.MapView) error { return nil }

func (s *mockSurface) RenderPlaceholder(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placeholder = message
	return nil
}

// --- Mock ProviderState ---

type mockProviders struct {
	mu       sync.Mutex
	mode     domain.ProviderMode
	provider ports.MapProvider
	center   domain.Coordinate
	degraded []error
}

func onlineProviders(p ports.MapProvider) *mockProviders {
	return &mockProviders{mode: domain.ModeOnline, provider: p}
}

func offlineProviders() *mockProviders {
	return &mockProviders{mode: domain.ModeOffline}
}

func (m *mockProviders) Mode() domain.ProviderMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

func (m *mockProviders) Provider() (ports.MapProvider, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode != domain.ModeOnline || m.provider == nil {
		return nil, false
	}
	return m.provider, true
}

func (m *mockProviders) Degrade(reason error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = domain.ModeOffline
	m.degraded = append(m.degraded, reason)
}

func (m *mockProviders) MapCenter() domain.Coordinate { return m.center }

// --- Mock DeviceLocator ---

type mockLocator struct {
	locateFn func(ctx context.Context, deviceID string, cfg domain.LocateConfig) (domain.LocationSample, error)
	watchFn  func(ctx context.Context, deviceID string, cfg domain.LocateConfig) (ports.PositionStream, error)
	locates  atomic.Int32
}

func (m *mockLocator) Locate(ctx context.Context, deviceID string, cfg domain.LocateConfig) (domain.LocationSample, error) {
	m.locates.Add(1)
	if m.locateFn != nil {
		return m.locateFn(ctx, deviceID, cfg)
	}
	return domain.LocationSample{}, &domain.GeolocationError{Code: domain.GeoUnavailable}
}

func (m *mockLocator) Watch(ctx context.Context, deviceID string, cfg domain.LocateConfig) (ports.PositionStream, error) {
	if m.watchFn != nil {
		return m.watchFn(ctx, deviceID, cfg)
	}
	return newMockStream(), nil
}

// mockStream is a PositionStream the test feeds by hand.
type mockStream struct {
	events chan ports.PositionEvent
	closed chan struct{}
	once   sync.Once
}

func newMockStream() *mockStream {
	return &mockStream{events: make(chan ports.PositionEvent, 16), closed: make(chan struct{})}
}

func (s *mockStream) Events() <-chan ports.PositionEvent { return s.events }

func (s *mockStream) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

// push delivers ev unless the stream was closed. It reports whether ev was queued.
func (s *mockStream) push(ev ports.PositionEvent) bool {
	select {
	case <-s.closed:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	case <-s.closed:
		return false
	}
}

func (s *mockStream) pushAt(c domain.Coordinate) bool {
	return s.push(ports.PositionEvent{Sample: domain.LocationSample{Coordinate: c, Timestamp: time.Now()}})
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMockCache() *mockCache { return &mockCache{data: make(map[string][]byte)} }

func (c *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return v, nil
}

func (c *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
	return nil
}

func (c *mockCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	err error

	mu        sync.Mutex
	updates   []domain.RouteUpdate
	positions []string
}

func (p *mockPublisher) PublishRouteUpdate(ctx context.Context, u *domain.RouteUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, *u)
	return p.err
}

func (p *mockPublisher) PublishPosition(ctx context.Context, deviceID string, s *domain.LocationSample) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.positions = append(p.positions, deviceID)
	return p.err
}

func (p *mockPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.updates)
}

// --- Helpers ---

// warnings collects recovered failures.
type warnings struct {
	mu   sync.Mutex
	errs []error
}

func (w *warnings) record(ctx context.Context, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errs = append(w.errs, err)
}

func (w *warnings) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.errs)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

var (
	conakry = domain.Coordinate{Lat: 9.6412, Lon: -13.5784}
	kaloum  = domain.Coordinate{Lat: 9.55, Lon: -13.6}
)
