package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher enables JetStream on conn and makes sure the streams exist.
func NewPublisher(conn *nats.Conn) (*Publisher, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist. Only position subjects are captured so that
	// device.<id>.locate requests keep reaching the device.
	streams := []nats.StreamConfig{
		{
			Name:      "NAV_ROUTES",
			Subjects:  []string{"nav.session.*.route"},
			Retention: nats.LimitsPolicy,
			MaxAge:    1 * time.Hour,
			Storage:   nats.MemoryStorage,
		},
		{
			Name:      "DEVICE_POSITIONS",
			Subjects:  []string{"device.*.position"},
			Retention: nats.LimitsPolicy,
			MaxAge:    15 * time.Minute,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishRouteUpdate publishes an applied route on nav.session.<id>.route.
func (p *Publisher) PublishRouteUpdate(ctx context.Context, update *domain.RouteUpdate) error {
	data, err := json.Marshal(update)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(RouteSubject(update.SessionID), data, nats.Context(ctx))
	return err
}

// PublishPosition ingests a device fix reported out of band (e.g. over HTTP).
func (p *Publisher) PublishPosition(ctx context.Context, deviceID string, sample *domain.LocationSample) error {
	data, err := json.Marshal(newPositionMessage(sample))
	if err != nil {
		return err
	}
	_, err = p.js.Publish(positionSubject(deviceID), data, nats.Context(ctx))
	return err
}

// Connect opens a NATS connection that keeps reconnecting.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("wayfinder"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}
