package websocket

import (
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/Srijit23/Chessify/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

var (
	ErrClientClosed   = errors.New("client connection closed")
	ErrSendBufferFull = errors.New("client send buffer full")
)

// Client is one WebSocket connection. It satisfies session.Member.
type Client struct {
	id      string
	hub     *Hub
	conn    *websocket.Conn
	addr    string
	limiter *rate.Limiter

	// membership is only touched by readPump.
	membership service.Membership

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// ID returns the connection identifier.
func (c *Client) ID() string {
	return c.id
}

// Send queues payload for the write pump without blocking. It fails when the
// queue is full or the connection is gone; the caller logs and moves on.
func (c *Client) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// closeSend stops the write pump after it drains what is queued.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) closeConn() {
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		log.Printf("Error closing connection %s: %v", c.id, err)
	}
}

// readPump pumps frames from the connection into the dispatcher. On exit it
// runs disconnect handling before the connection is torn down.
func (c *Client) readPump() {
	defer func() {
		c.hub.dispatcher.Disconnect(c, c.membership)
		c.closeSend()
		c.closeConn()
		c.hub.unregister(c)
	}()

	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}
		if messageType != websocket.TextMessage {
			log.Printf("Ignoring non-text frame from %s", c.id)
			continue
		}
		if !c.limiter.Allow() {
			log.Printf("Rate limit exceeded for %s; discarding message", c.id)
			continue
		}

		c.membership = c.hub.dispatcher.Dispatch(c, c.membership, data)
	}
}

// writePump writes queued payloads, one text frame each, and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConn()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// readPump closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("Error writing to %s: %v", c.id, err)
				}
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

func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		log.Printf("Message from %s exceeded maximum size of %d bytes", c.id, c.hub.cfg.MaxMessageSize)
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		// normal departure
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		// connection already gone
	case websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure):
		log.Printf("WebSocket error from %s: %v", c.id, err)
	default:
		log.Printf("WebSocket read error from %s: %v", c.id, err)
	}
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
