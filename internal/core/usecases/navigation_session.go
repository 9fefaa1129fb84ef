package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/pkg/metrics"
)

// RouteComputer is the routing dependency of a navigation session.
type RouteComputer interface {
	ComputeRoute(ctx context.Context, req domain.RouteRequest) (domain.RouteResult, error)
}

// NavigationSession follows one device to one destination.
// Lifecycle: IDLE -> ACTIVE -> STOPPED; a stopped session cannot be restarted.
//
// Every watch update triggers a full route recomputation. Recomputations run
// concurrently and carry a sequence number; a result is applied only when it
// is newer than the last applied one.
type NavigationSession struct {
	id            string
	tracker       *GeolocationTracker
	router        RouteComputer
	allowFallback bool
	onRoute       func(domain.RouteUpdate)
	onError       func(error)

	ctx    context.Context
	cancel context.CancelFunc
	seq    atomic.Uint64
	wg     sync.WaitGroup

	// deliverMu serialises listener calls so Stop can wait them out.
	deliverMu sync.Mutex

	mu          sync.Mutex
	status      domain.NavigationStatus
	starting    bool
	destination domain.Coordinate
	last        *domain.LocationSample
	route       *domain.RouteResult
	appliedSeq  uint64
	watch       *WatchHandle
}

// SessionOption configures a NavigationSession.
type SessionOption func(*NavigationSession)

// WithRouteListener is called with every applied route, in sequence order.
// It must not call Stop synchronously.
func WithRouteListener(fn func(domain.RouteUpdate)) SessionOption {
	return func(s *NavigationSession) { s.onRoute = fn }
}

// WithErrorListener receives watch errors. It must not call Stop synchronously.
func WithErrorListener(fn func(error)) SessionOption {
	return func(s *NavigationSession) { s.onError = fn }
}

// WithFallbackPolicy decides whether a fallback fix may seed navigation.
func WithFallbackPolicy(allow bool) SessionOption {
	return func(s *NavigationSession) { s.allowFallback = allow }
}

// NewNavigationSession creates an IDLE session.
func NewNavigationSession(id string, tracker *GeolocationTracker, router RouteComputer, opts ...SessionOption) *NavigationSession {
	ctx, cancel := context.WithCancel(context.Background())
	s := &NavigationSession{
		id:            id,
		tracker:       tracker,
		router:        router,
		allowFallback: true,
		ctx:           ctx,
		cancel:        cancel,
		status:        domain.NavIdle,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ID returns the session id.
func (s *NavigationSession) ID() string { return s.id }

// Start seeds the location and route, becomes ACTIVE and opens the watch.
func (s *NavigationSession) Start(ctx context.Context, destination domain.Coordinate) error {
	if err := destination.Validate(); err != nil {
		return fmt.Errorf("destination: %w", err)
	}

	s.mu.Lock()
	if s.status != domain.NavIdle || s.starting {
		status := s.status
		s.mu.Unlock()
		return fmt.Errorf("%w: start from %s", domain.ErrInvalidState, status)
	}
	s.starting = true
	s.destination = destination
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.starting = false
		s.mu.Unlock()
	}()

	// Seed steps stop early when either the caller or Stop cancels.
	sctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopCancel := context.AfterFunc(s.ctx, cancel)
	defer stopCancel()

	sample := s.tracker.CurrentLocation(sctx, domain.DefaultLocateConfig())
	if sample.IsFallback && !s.allowFallback {
		return fmt.Errorf("navigation needs a device fix: %w", domain.ErrPositionUnavailable)
	}

	route, err := s.router.ComputeRoute(sctx, s.request(sample.Coordinate, destination))
	if err != nil {
		return fmt.Errorf("seed route: %w", err)
	}

	s.mu.Lock()
	if s.status != domain.NavIdle {
		s.mu.Unlock()
		return fmt.Errorf("%w: stopped while starting", domain.ErrInvalidState)
	}
	s.last = &sample
	s.route = &route
	s.status = domain.NavActive
	s.mu.Unlock()
	metrics.ActiveNavigations.Inc()

	s.deliver(domain.RouteUpdate{SessionID: s.id, Sequence: 0, Location: sample, Route: route}, 0)

	watch, err := s.tracker.StartWatch(s.ctx, domain.NavigationWatchConfig(), s.handleLocation, s.handleLocationError)
	if err != nil {
		s.Stop()
		return fmt.Errorf("start navigation watch: %w", err)
	}

	s.mu.Lock()
	if s.status != domain.NavActive {
		s.mu.Unlock()
		s.tracker.StopWatch(watch)
		return fmt.Errorf("%w: stopped while starting", domain.ErrInvalidState)
	}
	s.watch = watch
	s.mu.Unlock()

	slog.Info("navigation started", "session", s.id, "device", s.tracker.DeviceID(),
		"destination", destination.String(), "fallback_origin", sample.IsFallback)
	return nil
}

func (s *NavigationSession) request(origin, destination domain.Coordinate) domain.RouteRequest {
	return domain.RouteRequest{
		Origin:           origin,
		Destination:      destination,
		TravelMode:       domain.TravelDriving,
		WantAlternatives: true,
	}
}

func (s *NavigationSession) handleLocation(sample domain.LocationSample) {
	s.mu.Lock()
	if s.status != domain.NavActive {
		s.mu.Unlock()
		return
	}
	s.last = &sample
	dest := s.destination
	seq := s.seq.Add(1)
	s.wg.Add(1)
	s.mu.Unlock()

	go s.recompute(seq, sample, dest)
}

func (s *NavigationSession) recompute(seq uint64, sample domain.LocationSample, dest domain.Coordinate) {
	defer s.wg.Done()

	route, err := s.router.ComputeRoute(s.ctx, s.request(sample.Coordinate, dest))
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Warn("route recomputation failed", "session", s.id, "seq", seq, "error", err)
		}
		return
	}
	s.deliver(domain.RouteUpdate{SessionID: s.id, Sequence: seq, Location: sample, Route: route}, seq)
}

// deliver applies update when it is the newest result and notifies the listener.
func (s *NavigationSession) deliver(update domain.RouteUpdate, seq uint64) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	if s.status != domain.NavActive {
		s.mu.Unlock()
		return
	}
	if seq > 0 {
		if seq <= s.appliedSeq {
			s.mu.Unlock()
			metrics.StaleRoutesDiscarded.Inc()
			return
		}
		s.appliedSeq = seq
		route := update.Route
		s.route = &route
	}
	s.mu.Unlock()

	if s.onRoute != nil {
		s.onRoute(update)
	}
}

func (s *NavigationSession) handleLocationError(err error) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	active := s.status == domain.NavActive
	s.mu.Unlock()
	if !active {
		return
	}

	slog.Warn("navigation watch error", "session", s.id, "error", err)
	if s.onError != nil {
		s.onError(err)
	}
}

// Stop ends the session. It is idempotent; once it returns no listener is
// called again and in-flight recomputations are cancelled or discarded.
func (s *NavigationSession) Stop() {
	s.mu.Lock()
	if s.status == domain.NavStopped {
		s.mu.Unlock()
		return
	}
	wasActive := s.status == domain.NavActive
	s.status = domain.NavStopped
	watch := s.watch
	s.watch = nil
	s.mu.Unlock()

	s.cancel()
	s.tracker.StopWatch(watch)

	// Wait out a listener call that passed its status check before Stop.
	s.deliverMu.Lock()
	s.deliverMu.Unlock()

	if wasActive {
		metrics.ActiveNavigations.Dec()
		slog.Info("navigation stopped", "session", s.id)
	}
}

// Wait blocks until in-flight recomputations have returned.
func (s *NavigationSession) Wait() {
	s.wg.Wait()
}

// Snapshot returns a copy of the session state.
func (s *NavigationSession) Snapshot() domain.NavigationSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := domain.NavigationSnapshot{
		ID:          s.id,
		DeviceID:    s.tracker.DeviceID(),
		Status:      s.status,
		Destination: s.destination,
		Sequence:    s.appliedSeq,
	}
	if s.last != nil {
		l := *s.last
		snap.LastKnownLocation = &l
	}
	if s.route != nil {
		r := *s.route
		r.Legs = append([]domain.RouteLeg(nil), s.route.Legs...)
		snap.CurrentRoute = &r
	}
	return snap
}
