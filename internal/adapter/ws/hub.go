// Package ws streams breaker state to connected operations dashboards.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/mblcrm/lendgate/internal/resilience"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// conn wraps a single WebSocket connection.
type conn struct {
	ws     *websocket.Conn
	cancel context.CancelFunc
}

// Hub manages the active dashboard connections. New connections receive a
// full status snapshot; after that, breaker transitions are pushed as they
// happen.
type Hub struct {
	mu     sync.RWMutex
	conns  map[*conn]struct{}
	status func() []resilience.Status
}

// NewHub creates a hub. status supplies the snapshot sent to each new
// connection.
func NewHub(status func() []resilience.Status) *Hub {
	return &Hub{
		conns:  make(map[*conn]struct{}),
		status: status,
	}
}

// HandleWS upgrades the connection and registers it with the hub.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled by middleware
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	c := &conn{ws: ws, cancel: cancel}

	if snap, err := json.Marshal(h.status()); err == nil {
		data, _ := json.Marshal(Message{Type: "status", Payload: snap})
		if err := ws.Write(ctx, websocket.MessageText, data); err != nil {
			cancel()
			_ = ws.Close(websocket.StatusNormalClosure, "")
			return
		}
	}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	slog.Info("websocket connected", "remote", r.RemoteAddr)

	// Read loop (to detect disconnects and consume pings)
	go func() {
		defer func() {
			h.remove(c)
			_ = ws.Close(websocket.StatusNormalClosure, "")
		}()
		for {
			_, _, err := ws.Read(ctx)
			if err != nil {
				return
			}
		}
	}()
}

// writeTimeout bounds one push to a dashboard client. A client that cannot
// drain a small JSON frame in this long is treated as gone.
const writeTimeout = 5 * time.Second

// BroadcastTransition pushes one breaker state change to every connection.
// It satisfies resilience.TransitionListener.
func (h *Hub) BroadcastTransition(ev resilience.TransitionEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Error("websocket marshal failed", "error", err)
		return
	}
	data, _ := json.Marshal(Message{Type: "breaker_transition", Payload: payload})

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.conns {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := c.ws.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			slog.Debug("websocket write failed", "error", err)
			go h.remove(c)
		}
	}
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; ok {
		c.cancel()
		delete(h.conns, c)
		slog.Info("websocket disconnected")
	}
}
