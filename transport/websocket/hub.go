package websocket

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/Srijit23/Chessify/game/config"
	"github.com/Srijit23/Chessify/game/service"
	"github.com/Srijit23/Chessify/game/session"
)

// Dispatcher applies inbound frames and connection teardown. The returned
// membership replaces the connection's previous one.
type Dispatcher interface {
	Dispatch(conn session.Member, m service.Membership, raw []byte) service.Membership
	Disconnect(conn session.Member, m service.Membership)
}

// Hub tracks every open connection so they can be counted and closed on
// shutdown. Room membership is not its concern.
type Hub struct {
	dispatcher Dispatcher
	cfg        config.Config
	upgrader   websocket.Upgrader

	clients  map[*Client]struct{}
	mu       sync.RWMutex
	wg       sync.WaitGroup
	shutdown bool
}

// NewHub creates a new WebSocket hub
func NewHub(dispatcher Dispatcher, cfg config.Config) *Hub {
	h := &Hub{
		dispatcher: dispatcher,
		cfg:        cfg,
		clients:    make(map[*Client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// ServeWS upgrades the request and starts the connection's pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		id:      uuid.NewString(),
		hub:     h,
		conn:    conn,
		addr:    r.RemoteAddr,
		send:    make(chan []byte, h.cfg.SendBuffer),
		limiter: rate.NewLimiter(rate.Limit(h.cfg.RateLimit.PerSecond), h.cfg.RateLimit.Burst),
	}

	if !h.register(client) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown stops accepting connections, closes every open one, and waits
// until each has run its disconnect handling or ctx is done.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.shutdown = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	log.Printf("Closing %d WebSocket connections", len(clients))
	for _, c := range clients {
		c.closeConn()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.shutdown {
		return false
	}
	h.clients[c] = struct{}{}
	h.wg.Add(1)
	log.Printf("Client %s connected from %s (total clients: %d)", c.id, c.addr, len(h.clients))
	return true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	remaining := len(h.clients)
	h.mu.Unlock()

	if ok {
		log.Printf("Client %s disconnected (remaining clients: %d)", c.id, remaining)
		h.wg.Done()
	}
}

// checkOrigin accepts requests without an Origin header (non-browser
// clients) and otherwise consults the configured allow-list.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.cfg.AllowAllOrigins() {
		return true
	}

	normalized, ok := config.NormalizeOrigin(origin)
	if ok {
		for _, allowed := range h.cfg.AllowedOrigins {
			if allowed == normalized {
				return true
			}
		}
	}

	log.Printf("Blocked WebSocket connection from disallowed origin: %q", origin)
	return false
}
