package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
)

const publishTimeout = 3 * time.Second

// NavigationManager owns the navigation sessions of all devices.
// A device has at most one session; starting again replaces it.
type NavigationManager struct {
	locator       ports.DeviceLocator
	routes        RouteComputer
	publisher     ports.EventPublisher
	cache         ports.CacheService
	fallback      domain.Coordinate
	allowFallback bool
	newID         func() string

	mu       sync.Mutex
	sessions map[string]*NavigationSession
	byDevice map[string]string
}

// ManagerOption configures a NavigationManager.
type ManagerOption func(*NavigationManager)

// WithPublisher publishes every applied route.
func WithPublisher(p ports.EventPublisher) ManagerOption {
	return func(m *NavigationManager) { m.publisher = p }
}

// WithManagerFixCache lets trackers reuse recent fixes.
func WithManagerFixCache(c ports.CacheService) ManagerOption {
	return func(m *NavigationManager) { m.cache = c }
}

// WithFallbackNavigation allows sessions to start from a fallback fix.
func WithFallbackNavigation(allow bool) ManagerOption {
	return func(m *NavigationManager) { m.allowFallback = allow }
}

// WithIDGenerator overrides uuid session ids.
func WithIDGenerator(fn func() string) ManagerOption {
	return func(m *NavigationManager) { m.newID = fn }
}

// NewNavigationManager creates a manager. locator may be nil.
func NewNavigationManager(locator ports.DeviceLocator, routes RouteComputer, fallback domain.Coordinate, opts ...ManagerOption) *NavigationManager {
	m := &NavigationManager{
		locator:       locator,
		routes:        routes,
		fallback:      fallback,
		allowFallback: true,
		newID:         uuid.NewString,
		sessions:      make(map[string]*NavigationSession),
		byDevice:      make(map[string]string),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Tracker builds a geolocation tracker for deviceID.
func (m *NavigationManager) Tracker(deviceID string) *GeolocationTracker {
	var opts []TrackerOption
	if m.cache != nil {
		opts = append(opts, WithFixCache(m.cache))
	}
	return NewGeolocationTracker(m.locator, deviceID, m.fallback, opts...)
}

// Start begins navigation for deviceID, stopping its previous session.
func (m *NavigationManager) Start(ctx context.Context, deviceID string, destination domain.Coordinate) (domain.NavigationSnapshot, error) {
	if deviceID == "" {
		return domain.NavigationSnapshot{}, fmt.Errorf("device id is required")
	}
	if prev, ok := m.sessionForDevice(deviceID); ok {
		m.remove(prev)
	}

	id := m.newID()
	session := NewNavigationSession(id, m.Tracker(deviceID), m.routes,
		WithFallbackPolicy(m.allowFallback),
		WithRouteListener(m.publish),
		WithErrorListener(func(err error) {
			slog.Warn("device position error", "session", id, "device", deviceID, "error", err)
		}),
	)

	m.mu.Lock()
	m.sessions[id] = session
	m.byDevice[deviceID] = id
	m.mu.Unlock()

	if err := session.Start(ctx, destination); err != nil {
		m.remove(session)
		return domain.NavigationSnapshot{}, err
	}
	return session.Snapshot(), nil
}

// Get returns the snapshot of a session.
func (m *NavigationManager) Get(id string) (domain.NavigationSnapshot, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return domain.NavigationSnapshot{}, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return s.Snapshot(), nil
}

// Stop ends a session and returns its final state.
func (m *NavigationManager) Stop(id string) (domain.NavigationSnapshot, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return domain.NavigationSnapshot{}, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	m.remove(s)
	return s.Snapshot(), nil
}

// StopAll ends every session and waits for in-flight recomputations.
func (m *NavigationManager) StopAll() {
	m.mu.Lock()
	all := make([]*NavigationSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.Unlock()

	for _, s := range all {
		m.remove(s)
		s.Wait()
	}
}

func (m *NavigationManager) sessionForDevice(deviceID string) (*NavigationSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byDevice[deviceID]
	if !ok {
		return nil, false
	}
	s, ok := m.sessions[id]
	return s, ok
}

func (m *NavigationManager) remove(s *NavigationSession) {
	s.Stop()

	m.mu.Lock()
	delete(m.sessions, s.ID())
	if m.byDevice[s.tracker.DeviceID()] == s.ID() {
		delete(m.byDevice, s.tracker.DeviceID())
	}
	m.mu.Unlock()
}

func (m *NavigationManager) publish(update domain.RouteUpdate) {
	if m.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := m.publisher.PublishRouteUpdate(ctx, &update); err != nil {
		slog.Warn("publish route update", "session", update.SessionID, "seq", update.Sequence, "error", err)
	}
}
