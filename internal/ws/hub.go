package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rallypc/pccalc/pkg/timing"
)

const (
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong before treating the client as gone.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16

	// EventReport is the event name of report messages.
	EventReport = "report"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Origin checks belong to the reverse proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the JSON envelope sent to clients.
type Message struct {
	Event string         `json:"event"`
	Data  *timing.Report `json:"data"`
}

// LatestFunc returns the report to broadcast, or false when there is none yet.
type LatestFunc func() (*timing.Report, bool)

// Hub manages WebSocket clients and broadcasts the latest report to them.
type Hub struct {
	latest   LatestFunc
	interval time.Duration
	kick     chan struct{}

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub that reads from latest and broadcasts every interval.
func New(latest LatestFunc, interval time.Duration) *Hub {
	return &Hub{
		latest:   latest,
		interval: interval,
		kick:     make(chan struct{}, 1),
		clients:  make(map[*client]struct{}),
	}
}

// Run broadcasts on every tick and on every Publish until ctx is cancelled,
// then closes all connections.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			h.broadcast()
		case <-h.kick:
			h.broadcast()
		}
	}
}

// Publish requests an immediate broadcast. It never blocks; publishes that
// arrive while one is pending are merged.
func (h *Hub) Publish() {
	select {
	case h.kick <- struct{}{}:
	default:
	}
}

// ServeHTTP upgrades the connection, sends the current report and then keeps
// the client registered until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBufSize)}
	h.register(c)
	defer h.unregister(c)

	if data, ok := h.buildMessage(); ok && !h.enqueue(c, data) {
		slog.Debug("ws: initial report not queued", "remote", conn.RemoteAddr().String())
	}

	go c.writePump()
	c.readPump()
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) broadcast() {
	data, ok := h.buildMessage()
	if !ok {
		return
	}

	// Sends happen under the read lock so unregister cannot close a channel
	// mid-send. Clients with a full buffer are dropped afterwards.
	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		if !c.trySend(data) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		slog.Debug("ws: dropping slow client", "remote", c.conn.RemoteAddr().String())
		h.unregister(c)
	}
}

// enqueue queues data for c if it is still registered and has buffer room.
// It never blocks.
func (h *Hub) enqueue(c *client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, live := h.clients[c]; !live {
		return false
	}
	return c.trySend(data)
}

// trySend is a non-blocking send. Caller holds h.mu so send is not closed.
func (c *client) trySend(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (h *Hub) buildMessage() ([]byte, bool) {
	r, ok := h.latest()
	if !ok {
		return nil, false
	}
	data, err := json.Marshal(Message{Event: EventReport, Data: r})
	if err != nil {
		slog.Error("ws: encode report", "err", err)
		return nil, false
	}
	return data, true
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// writePump forwards queued messages and periodic pings to the connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes control frames and returns when the connection closes.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
