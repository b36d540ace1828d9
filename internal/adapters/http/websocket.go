package http

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/freightline/tracker/internal/adapters/nats"
	"github.com/freightline/tracker/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to feeds.
type wsMessage struct {
	Action   string `json:"action"`   // "subscribe" | "unsubscribe"
	Contract string `json:"contract"` // contract ID filter (optional, "" = all)
	Channel  string `json:"channel"`  // "positions" | "rejections" (default: positions)
}

// wsSubject maps a channel and optional contract to a NATS subject.
func wsSubject(channel, contract string) (string, bool) {
	var root string
	switch channel {
	case "", "positions":
		root = natsadapter.SubjectPositions
	case "rejections":
		root = natsadapter.SubjectRejections
	default:
		return "", false
	}
	if contract == "" {
		return root + ".>", true
	}
	// A contract ID is one subject token.
	if strings.ContainsAny(contract, ".*> \t") {
		return "", false
	}
	return root + "." + contract, true
}

// WebSocketHandler returns a handler that upgrades to WebSocket
// and relays live driver positions from NATS to connected clients.
// Clients send JSON: {"action":"subscribe","contract":"c-1","channel":"positions"}
// Without a subscription, a client receives nothing; the map page subscribes
// to the contract it is showing.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		log := slog.With("remote", remoteAddr)
		log.Info("ws client connected")
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // subject -> subscription

		// Helper: thread-safe write
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
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

			subject, ok := wsSubject(m.Channel, m.Contract)
			if !ok {
				_ = writeJSON(map[string]string{"error": "invalid channel or contract"})
				continue
			}

			switch m.Action {
			case "subscribe":
				if nc == nil {
					_ = writeJSON(map[string]string{"error": "live feed unavailable"})
					continue
				}
				if _, exists := subs[subject]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				s, err := nc.Subscribe(subject, func(msg *nats.Msg) {
					_ = writeJSON(json.RawMessage(msg.Data))
				})
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				subs[subject] = s
				_ = writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				if s, exists := subs[subject]; exists {
					_ = s.Unsubscribe()
					delete(subs, subject)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		log.Info("ws client disconnected", "subscriptions", len(subs))
	}
}
