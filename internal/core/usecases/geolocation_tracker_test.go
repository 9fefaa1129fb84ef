package usecases_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
	"github.com/samirrijal/wayfinder/internal/core/usecases"
)

func TestGeolocationTracker_PermissionDeniedFallsBack(t *testing.T) {
	loc := &mockLocator{
		locateFn: func(ctx context.Context, deviceID string, cfg domain.LocateConfig) (domain.LocationSample, error) {
			return domain.LocationSample{}, &domain.GeolocationError{Code: domain.GeoPermissionDenied}
		},
	}
	w := &warnings{}
	tracker := usecases.NewGeolocationTracker(loc, "phone-1", conakry, usecases.WithTrackerWarnings(w.record))

	s := tracker.CurrentLocation(context.Background(), domain.LocateConfig{})
	if !s.IsFallback {
		t.Error("expected fallback sample")
	}
	if s.Coordinate != conakry {
		t.Errorf("expected fallback coordinate %v, got %v", conakry, s.Coordinate)
	}
	if w.count() != 1 {
		t.Fatalf("expected 1 warning, got %d", w.count())
	}
	if !errors.Is(w.errs[0], domain.ErrPermissionDenied) {
		t.Errorf("expected permission denied warning, got %v", w.errs[0])
	}
}

func TestGeolocationTracker_NoLocatorFallsBack(t *testing.T) {
	tracker := usecases.NewGeolocationTracker(nil, "phone-1", conakry, usecases.WithTrackerWarnings(func(context.Context, error) {}))
	if s := tracker.CurrentLocation(context.Background(), domain.DefaultLocateConfig()); !s.IsFallback {
		t.Error("expected fallback sample")
	}
}

func TestGeolocationTracker_TimeoutFallsBack(t *testing.T) {
	loc := &mockLocator{
		locateFn: func(ctx context.Context, deviceID string, cfg domain.LocateConfig) (domain.LocationSample, error) {
			<-ctx.Done()
			return domain.LocationSample{}, ctx.Err()
		},
	}
	w := &warnings{}
	tracker := usecases.NewGeolocationTracker(loc, "phone-1", conakry, usecases.WithTrackerWarnings(w.record))

	start := time.Now()
	s := tracker.CurrentLocation(context.Background(), domain.LocateConfig{HighAccuracy: true, Timeout: 20 * time.Millisecond})
	if !s.IsFallback {
		t.Error("expected fallback sample")
	}
	if time.Since(start) > time.Second {
		t.Error("timeout was not applied")
	}
	if w.count() != 1 || !errors.Is(w.errs[0], domain.ErrTimeout) {
		t.Errorf("expected timeout warning, got %v", w.errs)
	}
}

func TestGeolocationTracker_InvalidFixFallsBack(t *testing.T) {
	loc := &mockLocator{
		locateFn: func(ctx context.Context, deviceID string, cfg domain.LocateConfig) (domain.LocationSample, error) {
			return domain.LocationSample{Coordinate: domain.Coordinate{Lat: 120, Lon: 0}}, nil
		},
	}
	tracker := usecases.NewGeolocationTracker(loc, "phone-1", conakry, usecases.WithTrackerWarnings(func(context.Context, error) {}))
	if s := tracker.CurrentLocation(context.Background(), domain.LocateConfig{}); !s.IsFallback {
		t.Error("expected fallback sample")
	}
}

func TestGeolocationTracker_Success(t *testing.T) {
	var gotCfg domain.LocateConfig
	loc := &mockLocator{
		locateFn: func(ctx context.Context, deviceID string, cfg domain.LocateConfig) (domain.LocationSample, error) {
			if deviceID != "phone-1" {
				t.Errorf("expected phone-1, got %s", deviceID)
			}
			gotCfg = cfg
			return domain.LocationSample{Coordinate: kaloum}, nil
		},
	}
	tracker := usecases.NewGeolocationTracker(loc, "phone-1", conakry)

	s := tracker.CurrentLocation(context.Background(), domain.LocateConfig{})
	if s.IsFallback || s.Coordinate != kaloum {
		t.Errorf("unexpected sample %+v", s)
	}
	if s.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
	if gotCfg != domain.DefaultLocateConfig() {
		t.Errorf("expected default config, got %+v", gotCfg)
	}
}

func TestGeolocationTracker_ServesCachedFix(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	loc := &mockLocator{
		locateFn: func(ctx context.Context, deviceID string, cfg domain.LocateConfig) (domain.LocationSample, error) {
			return domain.LocationSample{Coordinate: kaloum, Timestamp: now}, nil
		},
	}
	tracker := usecases.NewGeolocationTracker(loc, "phone-1", conakry,
		usecases.WithFixCache(newMockCache()),
		usecases.WithClock(func() time.Time { return now }),
	)

	cfg := domain.LocateConfig{HighAccuracy: true, Timeout: time.Second, MaxAge: time.Minute}
	tracker.CurrentLocation(context.Background(), cfg)
	s := tracker.CurrentLocation(context.Background(), cfg)
	if s.Coordinate != kaloum {
		t.Errorf("unexpected sample %+v", s)
	}
	if n := loc.locates.Load(); n != 1 {
		t.Errorf("expected 1 device round trip, got %d", n)
	}

	// MaxAge 0 always asks the device.
	tracker.CurrentLocation(context.Background(), domain.LocateConfig{HighAccuracy: true, Timeout: time.Second})
	if n := loc.locates.Load(); n != 2 {
		t.Errorf("expected 2 device round trips, got %d", n)
	}
}

func TestGeolocationTracker_WatchDeliversInOrder(t *testing.T) {
	stream := newMockStream()
	loc := &mockLocator{
		watchFn: func(ctx context.Context, deviceID string, cfg domain.LocateConfig) (ports.PositionStream, error) {
			return stream, nil
		},
	}
	tracker := usecases.NewGeolocationTracker(loc, "phone-1", conakry)

	var mu sync.Mutex
	var got []float64
	var errs []error
	h, err := tracker.StartWatch(context.Background(), domain.NavigationWatchConfig(),
		func(s domain.LocationSample) {
			mu.Lock()
			got = append(got, s.Coordinate.Lat)
			mu.Unlock()
		},
		func(err error) {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer tracker.StopWatch(h)

	stream.pushAt(domain.Coordinate{Lat: 1, Lon: 1})
	stream.push(ports.PositionEvent{Err: &domain.GeolocationError{Code: domain.GeoTimeout}})
	stream.pushAt(domain.Coordinate{Lat: 2, Lon: 1})
	stream.pushAt(domain.Coordinate{Lat: 3, Lon: 1})

	waitFor(t, "three updates", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	})

	mu.Lock()
	defer mu.Unlock()
	for i, lat := range got {
		if lat != float64(i+1) {
			t.Errorf("update %d: expected lat %d, got %v", i, i+1, lat)
		}
	}
	if len(errs) != 1 || !errors.Is(errs[0], domain.ErrTimeout) {
		t.Errorf("expected one timeout error, got %v", errs)
	}
}

func TestGeolocationTracker_NoCallbacksAfterStopWatch(t *testing.T) {
	stream := newMockStream()
	loc := &mockLocator{
		watchFn: func(ctx context.Context, deviceID string, cfg domain.LocateConfig) (ports.PositionStream, error) {
			return stream, nil
		},
	}
	tracker := usecases.NewGeolocationTracker(loc, "phone-1", conakry)

	var mu sync.Mutex
	stopped := false
	late := 0
	record := func() {
		mu.Lock()
		if stopped {
			late++
		}
		mu.Unlock()
	}
	h, err := tracker.StartWatch(context.Background(), domain.LocateConfig{},
		func(domain.LocationSample) { record() },
		func(error) { record() },
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stream.pushAt(kaloum)
	tracker.StopWatch(h)
	mu.Lock()
	stopped = true
	mu.Unlock()
	tracker.StopWatch(h)

	// The platform keeps trying to deliver.
	stream.events <- ports.PositionEvent{Sample: domain.LocationSample{Coordinate: conakry}}
	stream.events <- ports.PositionEvent{Err: errors.New("late")}

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch goroutine did not exit")
	}
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if late != 0 {
		t.Errorf("expected no callbacks after StopWatch, got %d", late)
	}
}

func TestGeolocationTracker_WatchUnsupported(t *testing.T) {
	tracker := usecases.NewGeolocationTracker(nil, "phone-1", conakry)
	_, err := tracker.StartWatch(context.Background(), domain.LocateConfig{}, nil, nil)
	if !errors.Is(err, domain.ErrGeolocationUnsupported) {
		t.Errorf("expected ErrGeolocationUnsupported, got %v", err)
	}
	tracker.StopWatch(nil)
}
