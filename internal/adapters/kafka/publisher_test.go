package kafkaadapter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

// mockWriter records written messages.
type mockWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *mockWriter) Close() error {
	w.closed = true
	return nil
}

var testTopics = Topics{Routes: "wayfinder.routes", Positions: "wayfinder.positions"}

func TestPublishRouteUpdate(t *testing.T) {
	w := &mockWriter{}
	p := NewPublisherWithWriter(w, testTopics)

	update := &domain.RouteUpdate{
		SessionID: "nav-1",
		Sequence:  3,
		Route:     domain.RouteResult{Legs: []domain.RouteLeg{{DistanceMeters: 1200}}},
	}
	if err := p.PublishRouteUpdate(context.Background(), update); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if msg.Topic != "wayfinder.routes" || string(msg.Key) != "nav-1" {
		t.Errorf("unexpected topic/key %s/%s", msg.Topic, msg.Key)
	}
	var got domain.RouteUpdate
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Sequence != 3 || got.Route.TotalDistanceMeters() != 1200 {
		t.Errorf("unexpected payload %+v", got)
	}
}

func TestPublishPosition_KeyedByDevice(t *testing.T) {
	w := &mockWriter{}
	p := NewPublisherWithWriter(w, testTopics)

	sample := &domain.LocationSample{Coordinate: domain.Coordinate{Lat: 9.52, Lon: -13.7}}
	if err := p.PublishPosition(context.Background(), "phone-1", sample); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.msgs[0].Topic != "wayfinder.positions" || string(w.msgs[0].Key) != "phone-1" {
		t.Errorf("unexpected topic/key %s/%s", w.msgs[0].Topic, w.msgs[0].Key)
	}
}

func TestPublish_WriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewPublisherWithWriter(&mockWriter{err: boom}, testTopics)

	err := p.PublishRouteUpdate(context.Background(), &domain.RouteUpdate{SessionID: "nav-1"})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped write error, got %v", err)
	}
}

func TestClose(t *testing.T) {
	w := &mockWriter{}
	if err := NewPublisherWithWriter(w, testTopics).Close(); err != nil || !w.closed {
		t.Errorf("expected writer closed, err=%v", err)
	}
}
