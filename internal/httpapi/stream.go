package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/finpulse/finpulse/internal/signal"
)

const (
	writeWait      = 10 * time.Second
	clientSendSize = 8
)

// FeedEvent is one generated feed pushed to stream subscribers.
type FeedEvent struct {
	BusinessID string          `json:"businessId"`
	Signals    []signal.Signal `json:"signals"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Hub fans generated feeds out to websocket subscribers. Slow clients
// are dropped rather than allowed to block the broadcast.
type Hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	log     zerolog.Logger
	gauge   func(delta float64)
}

type wsClient struct {
	conn *websocket.Conn
	send chan FeedEvent
}

// NewHub creates an empty hub. gauge receives +1/-1 on client
// connect/disconnect and may be nil.
func NewHub(log zerolog.Logger, gauge func(delta float64)) *Hub {
	if gauge == nil {
		gauge = func(float64) {}
	}
	return &Hub{
		clients: make(map[*wsClient]struct{}),
		log:     log,
		gauge:   gauge,
	}
}

// Broadcast sends the event to every connected client.
func (h *Hub) Broadcast(ev FeedEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			// Client cannot keep up; cut it loose.
			h.dropLocked(c)
		}
	}
}

func (h *Hub) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.gauge(1)
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	h.dropLocked(c)
	h.mu.Unlock()
}

func (h *Hub) dropLocked(c *wsClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.gauge(-1)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// ServeWS upgrades the request and streams feed events until the
// client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &wsClient{conn: conn, send: make(chan FeedEvent, clientSendSize)}
	h.add(client)

	go h.writeLoop(client)
	go h.readLoop(client)
}

func (h *Hub) writeLoop(c *wsClient) {
	defer c.conn.Close()
	for ev := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(ev); err != nil {
			h.remove(c)
			return
		}
	}
	// Channel closed by the hub: say goodbye politely.
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
}

func (h *Hub) readLoop(c *wsClient) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
