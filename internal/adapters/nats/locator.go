package natsadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
)

// watchBuffer is how many positions may queue before the NATS callback blocks.
const watchBuffer = 64

// Locator implements ports.DeviceLocator over NATS. Devices answer one-shot
// requests on device.<id>.locate and stream fixes on device.<id>.position.
type Locator struct {
	conn *nats.Conn
}

// NewLocator creates a locator on conn.
func NewLocator(conn *nats.Conn) *Locator {
	return &Locator{conn: conn}
}

// Locate asks the device for a single fix.
func (l *Locator) Locate(ctx context.Context, deviceID string, cfg domain.LocateConfig) (domain.LocationSample, error) {
	data, err := json.Marshal(newLocateRequest(cfg))
	if err != nil {
		return domain.LocationSample{}, err
	}

	msg, err := l.conn.RequestWithContext(ctx, locateSubject(deviceID), data)
	switch {
	case errors.Is(err, nats.ErrNoResponders):
		return domain.LocationSample{}, &domain.GeolocationError{Code: domain.GeoUnsupported, Message: "device not connected"}
	case errors.Is(err, nats.ErrTimeout):
		return domain.LocationSample{}, &domain.GeolocationError{Code: domain.GeoTimeout, Message: err.Error()}
	case err != nil:
		return domain.LocationSample{}, fmt.Errorf("locate %s: %w", deviceID, err)
	}

	var pm positionMessage
	if err := json.Unmarshal(msg.Data, &pm); err != nil {
		return domain.LocationSample{}, &domain.GeolocationError{Code: domain.GeoUnavailable, Message: "malformed reply"}
	}
	return pm.event()
}

// Watch subscribes to the device's position subject and asks the device to
// start streaming. The stream ends when ctx is done or Close is called.
func (l *Locator) Watch(ctx context.Context, deviceID string, cfg domain.LocateConfig) (ports.PositionStream, error) {
	s := &positionStream{
		conn:     l.conn,
		deviceID: deviceID,
		events:   make(chan ports.PositionEvent, watchBuffer),
		closed:   make(chan struct{}),
	}

	// One subscription keeps fixes and errors in publish order.
	sub, err := l.conn.Subscribe(positionSubject(deviceID), func(msg *nats.Msg) {
		var pm positionMessage
		var ev ports.PositionEvent
		if err := json.Unmarshal(msg.Data, &pm); err != nil {
			ev.Err = &domain.GeolocationError{Code: domain.GeoUnavailable, Message: "malformed position"}
		} else {
			ev.Sample, ev.Err = pm.event()
		}
		select {
		case s.events <- ev:
		case <-s.closed:
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", positionSubject(deviceID), err)
	}
	s.sub = sub

	if err := s.control(cfg, true); err != nil {
		_ = sub.Unsubscribe()
		return nil, err
	}

	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.closed:
		}
	}()
	return s, nil
}

type positionStream struct {
	conn     *nats.Conn
	deviceID string
	sub      *nats.Subscription
	events   chan ports.PositionEvent
	closed   chan struct{}
	once     sync.Once
}

func (s *positionStream) Events() <-chan ports.PositionEvent { return s.events }

// Close unsubscribes and tells the device to stop streaming. Idempotent.
func (s *positionStream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.closed)
		err = s.sub.Unsubscribe()
		if cerr := s.control(domain.LocateConfig{}, false); cerr != nil {
			slog.Debug("watch stop not delivered", "device", s.deviceID, "error", cerr)
		}
	})
	return err
}

func (s *positionStream) control(cfg domain.LocateConfig, active bool) error {
	req := newLocateRequest(cfg)
	req.Active = &active
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return s.conn.Publish(watchSubject(s.deviceID), data)
}
