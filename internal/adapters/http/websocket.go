package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/pkg/metrics"
)

const wsPingInterval = 30 * time.Second

// wsMessage is sent by clients to follow or unfollow a navigation session.
type wsMessage struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Session string `json:"session"` // navigation session id
}

// WebSocketHandler relays the route updates of navigation sessions to the
// client. ?session=<id> subscribes on connect; further sessions can be
// followed with {"action":"subscribe","session":"<id>"}. The current
// snapshot of a session is sent first so the client never starts blank.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		log := slog.Default().With("remote", remoteAddr)
		log.Info("ws client connected")
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		writeJSON := func(v any) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		// session id -> unsubscribe
		subs := make(map[string]func())
		defer func() {
			for _, unsub := range subs {
				unsub()
			}
		}()

		subscribe := func(id string) {
			if _, exists := subs[id]; exists {
				_ = writeJSON(map[string]string{"status": "already subscribed", "session": id})
				return
			}
			snap, err := deps.Navigation.Get(id)
			if err != nil {
				_ = writeJSON(map[string]string{"error": err.Error(), "session": id})
				return
			}
			if deps.RouteFeed == nil {
				_ = writeJSON(map[string]string{"error": "live updates are not configured"})
				return
			}
			unsub, err := deps.RouteFeed.SubscribeSession(id, func(data []byte) {
				_ = writeJSON(json.RawMessage(data))
			})
			if err != nil {
				log.Warn("ws subscribe", "session", id, "error", err)
				_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
				return
			}
			subs[id] = unsub
			_ = writeJSON(map[string]string{"status": "subscribed", "session": id})
			if snap.CurrentRoute != nil && snap.LastKnownLocation != nil {
				_ = writeJSON(domain.RouteUpdate{
					SessionID: snap.ID,
					Sequence:  snap.Sequence,
					Location:  *snap.LastKnownLocation,
					Route:     *snap.CurrentRoute,
				})
			}
		}

		if id := c.Query("session"); id != "" {
			subscribe(id)
		}

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(wsPingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			if m.Session == "" {
				_ = writeJSON(map[string]string{"error": "session is required"})
				continue
			}

			switch m.Action {
			case "subscribe":
				subscribe(m.Session)
			case "unsubscribe":
				if unsub, exists := subs[m.Session]; exists {
					unsub()
					delete(subs, m.Session)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "session": m.Session})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + m.Session})
				}
			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		log.Info("ws client disconnected")
	}
}
