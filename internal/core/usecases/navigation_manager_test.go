package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/usecases"
)

func sequentialIDs() func() string {
	ids := []string{"nav-1", "nav-2", "nav-3"}
	i := 0
	return func() string {
		id := ids[i]
		i++
		return id
	}
}

func TestNavigationManager_StartPublishesAndStops(t *testing.T) {
	stream := newMockStream()
	pub := &mockPublisher{}
	m := usecases.NewNavigationManager(fixedLocator(stream), &mockRouter{}, conakry,
		usecases.WithPublisher(pub),
		usecases.WithIDGenerator(sequentialIDs()),
	)
	defer m.StopAll()

	snap, err := m.Start(context.Background(), "phone-1", kaloum)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.ID != "nav-1" || snap.DeviceID != "phone-1" || snap.Status != domain.NavActive {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if pub.count() != 1 {
		t.Errorf("expected seed route published, got %d", pub.count())
	}

	stream.pushAt(domain.Coordinate{Lat: 9.6, Lon: -13.6})
	waitFor(t, "published recomputation", func() bool { return pub.count() == 2 })

	final, err := m.Stop("nav-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if final.Status != domain.NavStopped {
		t.Errorf("expected STOPPED, got %s", final.Status)
	}
	if _, err := m.Get("nav-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNavigationManager_RestartReplacesSession(t *testing.T) {
	m := usecases.NewNavigationManager(fixedLocator(newMockStream()), &mockRouter{}, conakry,
		usecases.WithIDGenerator(sequentialIDs()),
	)
	defer m.StopAll()

	if _, err := m.Start(context.Background(), "phone-1", kaloum); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap, err := m.Start(context.Background(), "phone-1", conakry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.ID != "nav-2" {
		t.Errorf("expected new session id, got %s", snap.ID)
	}
	if _, err := m.Get("nav-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected replaced session to be gone, got %v", err)
	}
}

func TestNavigationManager_StrictFallback(t *testing.T) {
	m := usecases.NewNavigationManager(nil, &mockRouter{}, conakry,
		usecases.WithFallbackNavigation(false),
		usecases.WithIDGenerator(sequentialIDs()),
	)
	if _, err := m.Start(context.Background(), "phone-1", kaloum); !errors.Is(err, domain.ErrPositionUnavailable) {
		t.Errorf("expected ErrPositionUnavailable, got %v", err)
	}
	if _, err := m.Get("nav-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected failed session to be dropped, got %v", err)
	}
}

func TestNavigationManager_UnknownSession(t *testing.T) {
	m := usecases.NewNavigationManager(nil, &mockRouter{}, conakry)
	if _, err := m.Stop("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := m.Start(context.Background(), "", kaloum); err == nil {
		t.Error("expected error for empty device id")
	}
}
