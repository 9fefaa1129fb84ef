package natsadapter

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

// RouteSubscriber relays published navigation routes to live clients.
type RouteSubscriber struct {
	conn *nats.Conn
}

// NewRouteSubscriber creates a subscriber sharing a NATS connection.
func NewRouteSubscriber(conn *nats.Conn) *RouteSubscriber {
	return &RouteSubscriber{conn: conn}
}

// SubscribeSession calls handler with the raw JSON of every route update of
// a session. The returned func unsubscribes.
func (s *RouteSubscriber) SubscribeSession(sessionID string, handler func(data []byte)) (func(), error) {
	sub, err := s.conn.Subscribe(RouteSubject(sessionID), func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe session %s: %w", sessionID, err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

