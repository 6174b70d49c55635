// Package presence counts connected browsers over websockets and pushes the
// count to every one of them.
package presence

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oshokin/lost-alarm/internal/logger"
	"github.com/oshokin/lost-alarm/internal/metrics"
)

const (
	// UpdateType is the "type" of every pushed event.
	UpdateType = "updateOnlineUsers"

	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	sendBufferSize = 8
)

// Update is pushed to every client when the count changes.
type Update struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// client is one connected socket.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks connected clients.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	metrics  *metrics.Metrics
}

// NewHub creates an empty hub. m may be nil.
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The counter is public; any origin may connect.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		metrics: m,
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// ServeHTTP upgrades the request and holds the connection until the peer leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithName(r.Context(), "presence")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		logger.DebugKV(ctx, "Websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	h.add(ctx, c)

	go c.writeLoop()

	c.readLoop()

	h.remove(ctx, c)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		_ = c.conn.Close()
	}
}

func (h *Hub) add(ctx context.Context, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = struct{}{}
	h.publishLocked(ctx)
}

func (h *Hub) remove(ctx context.Context, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}

	delete(h.clients, c)
	close(c.send)
	h.publishLocked(ctx)
}

// publishLocked pushes the current count. Slow clients miss updates.
func (h *Hub) publishLocked(ctx context.Context) {
	count := len(h.clients)
	h.metrics.SetOnlineUsers(count)

	logger.DebugKV(ctx, "Online users changed", "count", count)

	payload, err := json.Marshal(Update{Type: UpdateType, Count: count})
	if err != nil {
		logger.ErrorKV(ctx, "Failed to encode presence update", "error", err)
		return
	}

	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
		}
	}
}

// readLoop discards inbound frames and returns when the connection drops.
func (c *client) readLoop() {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop sends queued updates and pings until send is closed.
func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
