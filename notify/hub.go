package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans events out to connected websocket clients, e.g. a dashboard
// following the bot. Slow or broken clients are dropped.
type Hub struct {
	mu           sync.Mutex
	clients      map[*websocket.Conn]struct{}
	writeTimeout time.Duration
}

func NewHub() *Hub {
	return &Hub{
		clients:      make(map[*websocket.Conn]struct{}),
		writeTimeout: 5 * time.Second,
	}
}

func (h *Hub) Name() string { return "hub" }

// Handler upgrades requests to websocket connections and registers them.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.mu.Lock()
		h.clients[conn] = struct{}{}
		h.mu.Unlock()

		// drain reads so close frames are processed
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					h.remove(conn)
					return
				}
			}
		}()
	})
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Send(ctx context.Context, ev Event) error {
	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.Close()
			delete(h.clients, c)
		}
	}
	return nil
}

// Close disconnects every client.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
	return nil
}

func (h *Hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		c.Close()
		delete(h.clients, c)
	}
}
