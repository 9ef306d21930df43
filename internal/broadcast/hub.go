// Package broadcast streams engine events to spectators over WebSocket.
//
// A Hub is both a game.Observer and an http.Handler. Subscribe it to a
// controller and mount it on a server; every event is forwarded to every
// connected spectator as a JSON envelope:
//
//	{"type": "card_dealt", "timestamp": "...", "data": {...}}
//
// Spectators are read-only. A spectator that cannot keep up is dropped
// rather than allowed to stall the game.
package broadcast

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/blackjack/internal/game"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Spectators only send control frames
	maxMessageSize = 512

	defaultBufferSize = 64
)

// Message is the envelope sent to spectators
type Message struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewMessage wraps an engine event in an envelope
func NewMessage(event game.Event) (Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s event: %w", event.EventType(), err)
	}
	return Message{
		Type:      event.EventType().String(),
		Timestamp: event.Timestamp(),
		Data:      data,
	}, nil
}

// Option configures a Hub
type Option func(*Hub)

// WithLogger sets the hub logger
func WithLogger(logger *log.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger.WithPrefix("broadcast")
		}
	}
}

// WithBufferSize sets how many messages may queue per spectator before it
// is dropped
func WithBufferSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

// Hub fans events out to connected spectators
type Hub struct {
	upgrader   websocket.Upgrader
	mux        *http.ServeMux
	logger     *log.Logger
	bufferSize int

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates a hub with no spectators
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			// Spectating is public
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:     log.New(io.Discard),
		bufferSize: defaultBufferSize,
		clients:    make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.mux = http.NewServeMux()
	h.mux.HandleFunc("/ws", h.handleWebSocket)
	h.mux.HandleFunc("/health", h.handleHealth)
	return h
}

// ServeHTTP implements http.Handler
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// OnEvent implements game.Observer
func (h *Hub) OnEvent(event game.Event) {
	msg, err := NewMessage(event)
	if err != nil {
		h.logger.Error("Failed to encode event", "error", err)
		return
	}
	h.Broadcast(msg)
}

// Broadcast sends a message to every spectator
func (h *Hub) Broadcast(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to encode message", "type", msg.Type, "error", err)
		return
	}

	h.mu.RLock()
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("Spectator send buffer full, dropping connection", "remote", c.remote)
		h.remove(c)
	}
}

// Clients returns the number of connected spectators
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every spectator and refuses new ones
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.remove(c)
	}
	return nil
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "broadcast closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	c := &client{
		conn:   conn,
		send:   make(chan []byte, h.bufferSize),
		remote: r.RemoteAddr,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("Spectator connected", "remote", c.remote, "total", total)

	go c.writePump()
	go func() {
		c.readPump()
		h.remove(c)
	}()
}

func (h *Hub) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK") // Ignore write errors for health check
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		c.close()
		h.logger.Info("Spectator disconnected", "remote", c.remote, "total", total)
	}
}

type client struct {
	conn      *websocket.Conn
	send      chan []byte
	remote    string
	closeOnce sync.Once
}

// close stops the write pump, which sends a close frame and releases the
// connection. Only the hub calls it, after removing the client under lock,
// so no sender can race the channel close.
func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// readPump discards spectator input and returns once the peer goes away
func (c *client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
