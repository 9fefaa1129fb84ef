package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
	"github.com/samirrijal/wayfinder/internal/pkg/metrics"
)

// lastFixTTL bounds how long a cached fix is kept, independent of MaxAge.
const lastFixTTL = 600

// GeolocationTracker locates a single device, one-shot or continuously.
type GeolocationTracker struct {
	locator  ports.DeviceLocator
	deviceID string
	fallback domain.Coordinate
	cache    ports.CacheService
	warn     WarningFunc
	now      func() time.Time
}

// TrackerOption configures a GeolocationTracker.
type TrackerOption func(*GeolocationTracker)

// WithFixCache serves one-shot requests from the last fix while it is younger than MaxAge.
func WithFixCache(cache ports.CacheService) TrackerOption {
	return func(t *GeolocationTracker) { t.cache = cache }
}

// WithTrackerWarnings replaces the default slog warning sink.
func WithTrackerWarnings(fn WarningFunc) TrackerOption {
	return func(t *GeolocationTracker) { t.warn = fn }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *GeolocationTracker) { t.now = now }
}

// NewGeolocationTracker creates a tracker for deviceID. A nil locator behaves
// like a platform without geolocation support.
func NewGeolocationTracker(locator ports.DeviceLocator, deviceID string, fallback domain.Coordinate, opts ...TrackerOption) *GeolocationTracker {
	t := &GeolocationTracker{
		locator:  locator,
		deviceID: deviceID,
		fallback: fallback,
		warn:     logWarning("geolocation"),
		now:      time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// DeviceID returns the tracked device.
func (t *GeolocationTracker) DeviceID() string { return t.deviceID }

// CurrentLocation performs a one-shot position request. It never fails: any
// geolocation error yields the fallback coordinate with IsFallback set.
func (t *GeolocationTracker) CurrentLocation(ctx context.Context, cfg domain.LocateConfig) domain.LocationSample {
	cfg = withLocateDefaults(cfg, domain.DefaultLocateConfig())

	if t.locator == nil {
		return t.fallbackSample(ctx, &domain.GeolocationError{Code: domain.GeoUnsupported})
	}
	if s, ok := t.cachedFix(ctx, cfg.MaxAge); ok {
		return s
	}

	lctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	sample, err := t.locator.Locate(lctx, t.deviceID, cfg)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = &domain.GeolocationError{Code: domain.GeoTimeout, Message: err.Error()}
		}
		return t.fallbackSample(ctx, err)
	}
	if err := sample.Coordinate.Validate(); err != nil {
		return t.fallbackSample(ctx, &domain.GeolocationError{Code: domain.GeoUnavailable, Message: err.Error()})
	}

	sample.IsFallback = false
	if sample.Timestamp.IsZero() {
		sample.Timestamp = t.now()
	}
	t.storeFix(ctx, sample)
	return sample
}

func (t *GeolocationTracker) fallbackSample(ctx context.Context, cause error) domain.LocationSample {
	metrics.LocationFallbacks.Inc()
	t.warn(ctx, fmt.Errorf("device %s: using fallback location: %w", t.deviceID, cause))
	return domain.LocationSample{
		Coordinate: t.fallback,
		Timestamp:  t.now(),
		IsFallback: true,
	}
}

func (t *GeolocationTracker) fixKey() string {
	return "geo:last:" + t.deviceID
}

func (t *GeolocationTracker) cachedFix(ctx context.Context, maxAge time.Duration) (domain.LocationSample, bool) {
	if t.cache == nil || maxAge <= 0 {
		return domain.LocationSample{}, false
	}
	data, err := t.cache.Get(ctx, t.fixKey())
	if err != nil {
		metrics.CacheMisses.WithLabelValues("last_fix").Inc()
		return domain.LocationSample{}, false
	}
	var s domain.LocationSample
	if err := json.Unmarshal(data, &s); err != nil || t.now().Sub(s.Timestamp) > maxAge {
		metrics.CacheMisses.WithLabelValues("last_fix").Inc()
		return domain.LocationSample{}, false
	}
	metrics.CacheHits.WithLabelValues("last_fix").Inc()
	return s, true
}

func (t *GeolocationTracker) storeFix(ctx context.Context, s domain.LocationSample) {
	if t.cache == nil {
		return
	}
	if data, err := json.Marshal(s); err == nil {
		_ = t.cache.Set(ctx, t.fixKey(), data, lastFixTTL)
	}
}

// WatchHandle is a live position subscription.
type WatchHandle struct {
	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	stream  ports.PositionStream
	done    chan struct{}
}

// Done is closed once the dispatch goroutine has exited.
func (h *WatchHandle) Done() <-chan struct{} { return h.done }

// StartWatch subscribes to continuous updates. Each position produces exactly
// one onUpdate call, in order; errors go to onError and do not end the watch.
// Callbacks run on the watch's dispatch goroutine and must not call StopWatch
// synchronously. The watch lives until StopWatch or until ctx is done.
func (t *GeolocationTracker) StartWatch(
	ctx context.Context,
	cfg domain.LocateConfig,
	onUpdate func(domain.LocationSample),
	onError func(error),
) (*WatchHandle, error) {
	if t.locator == nil {
		return nil, &domain.GeolocationError{Code: domain.GeoUnsupported}
	}
	cfg = withLocateDefaults(cfg, domain.NavigationWatchConfig())

	wctx, cancel := context.WithCancel(ctx)
	stream, err := t.locator.Watch(wctx, t.deviceID, cfg)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("start watch for device %s: %w", t.deviceID, err)
	}

	h := &WatchHandle{cancel: cancel, stream: stream, done: make(chan struct{})}
	go t.dispatch(wctx, h, onUpdate, onError)
	return h, nil
}

func (t *GeolocationTracker) dispatch(ctx context.Context, h *WatchHandle, onUpdate func(domain.LocationSample), onError func(error)) {
	defer close(h.done)

	events := h.stream.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				ev = ports.PositionEvent{Err: &domain.GeolocationError{
					Code:    domain.GeoUnavailable,
					Message: "position stream closed",
				}}
			}

			h.mu.Lock()
			if h.stopped {
				h.mu.Unlock()
				return
			}
			if ev.Err != nil {
				metrics.WatchErrors.WithLabelValues(errorCode(ev.Err)).Inc()
				if onError != nil {
					onError(ev.Err)
				}
			} else {
				if ev.Sample.Timestamp.IsZero() {
					ev.Sample.Timestamp = t.now()
				}
				ev.Sample.IsFallback = false
				if onUpdate != nil {
					onUpdate(ev.Sample)
				}
			}
			h.mu.Unlock()

			if !ok {
				return
			}
		}
	}
}

// StopWatch cancels the subscription. It is idempotent and, once it returns,
// no further callbacks are delivered for h.
func (t *GeolocationTracker) StopWatch(h *WatchHandle) {
	if h == nil {
		return
	}
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	h.cancel()
	if err := h.stream.Close(); err != nil {
		slog.Warn("close position stream", "device", t.deviceID, "error", err)
	}
}

func withLocateDefaults(cfg, def domain.LocateConfig) domain.LocateConfig {
	if cfg == (domain.LocateConfig{}) {
		return def
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxAge < 0 {
		cfg.MaxAge = def.MaxAge
	}
	return cfg
}

func errorCode(err error) string {
	var geoErr *domain.GeolocationError
	if errors.As(err, &geoErr) {
		return string(geoErr.Code)
	}
	return "UNKNOWN"
}
