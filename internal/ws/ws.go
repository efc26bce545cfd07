// Package ws streams store events to connected extension windows over a
// websocket. It runs on its own net/http listener because the fasthttp
// stack serving the REST API cannot hand over the underlying connection.
package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lexilens/lexilens-go/internal/event"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The daemon serves extension windows on the same machine only.
		host := r.Host
		if i := strings.LastIndex(host, ":"); i >= 0 {
			host = host[:i]
		}
		return host == "localhost" || host == "127.0.0.1" || host == "[::1]"
	},
}

// client is one connected window. Slow clients are dropped rather than
// allowed to back-pressure the hub.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	mu    sync.Mutex
	kinds map[event.Kind]bool // empty means every kind
}

// Hub fans store events out to every connected window.
type Hub struct {
	log        zerolog.Logger
	register   chan *client
	unregister chan *client
	broadcast  chan event.Event
	done       chan struct{}

	mu      sync.RWMutex
	clients map[string]*client
}

func NewHub(log zerolog.Logger) *Hub {
	h := &Hub{
		log:        log,
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan event.Event, sendBufferSize),
		done:       make(chan struct{}),
		clients:    make(map[string]*client),
	}
	go h.run()
	return h
}

// Attach registers the hub as a tap on the bus, so every event the store
// emits or reconciles reaches connected windows.
func (h *Hub) Attach(bus *event.Bus) {
	bus.Tap(func(ev event.Event) {
		select {
		case h.broadcast <- ev:
		default:
			h.log.Warn().Str("kind", string(ev.Type)).Msg("ws: event feed full, dropping")
		}
	})
}

// Close disconnects every client and stops the run loop.
func (h *Hub) Close() {
	close(h.done)
}

// ClientCount reports connected windows, for the readiness probe.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for id, c := range h.clients {
				close(c.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info().Str("client_id", c.id).Int("total", total).Msg("ws: client connected")

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.id]; ok {
				delete(h.clients, c.id)
				close(c.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info().Str("client_id", c.id).Int("total", total).Msg("ws: client disconnected")

		case ev := <-h.broadcast:
			payload, err := json.Marshal(ev)
			if err != nil {
				h.log.Error().Err(err).Str("kind", string(ev.Type)).Msg("ws: event not serializable")
				continue
			}
			h.mu.Lock()
			for id, c := range h.clients {
				if !c.wants(ev.Type) {
					continue
				}
				select {
				case c.send <- payload:
				default:
					// stalled client
					close(c.send)
					delete(h.clients, id)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Serve upgrades an HTTP request into a feed connection.
func (h *Hub) Serve() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warn().Err(err).Msg("ws: upgrade failed")
			return
		}

		c := &client{
			id:    uuid.New().String(),
			conn:  conn,
			send:  make(chan []byte, sendBufferSize),
			hub:   h,
			kinds: make(map[event.Kind]bool),
		}
		select {
		case h.register <- c:
		case <-h.done:
			conn.Close()
			return
		}

		go c.writePump()
		go c.readPump()
	}
}

func (c *client) wants(kind event.Kind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.kinds) == 0 || c.kinds[kind]
}

// clientCommand is what windows send upstream: subscription management and
// keepalives.
type clientCommand struct {
	Action string   `json:"action"`
	Kinds  []string `json:"kinds,omitempty"`
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug().Err(err).Str("client_id", c.id).Msg("ws: read error")
			}
			return
		}

		var cmd clientCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			continue
		}
		switch cmd.Action {
		case "subscribe":
			c.mu.Lock()
			for _, k := range cmd.Kinds {
				if kind := event.Kind(k); kind.Valid() {
					c.kinds[kind] = true
				}
			}
			c.mu.Unlock()
		case "unsubscribe":
			c.mu.Lock()
			for _, k := range cmd.Kinds {
				delete(c.kinds, event.Kind(k))
			}
			c.mu.Unlock()
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
