package gateway

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/estatehub/realtime/pkg/logger"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 16 * 1024

	sendBuffer = 256
)

// Conn is one websocket connection. It implements presence.Handle.
type Conn struct {
	id   string
	gw   *Gateway
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}

	closed    atomic.Bool
	closeOnce sync.Once

	mu     sync.Mutex
	userID string
}

func newConn(gw *Gateway, ws *websocket.Conn) *Conn {
	return &Conn{
		id:   uuid.NewString(),
		gw:   gw,
		ws:   ws,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// ID returns the connection id assigned at upgrade time.
func (c *Conn) ID() string { return c.id }

// Closed reports whether the connection has been torn down.
func (c *Conn) Closed() bool { return c.closed.Load() }

// UserID returns the last user id registered on this connection, or "".
func (c *Conn) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *Conn) setUserID(userID string) {
	c.mu.Lock()
	c.userID = userID
	c.mu.Unlock()
}

// Emit sends an event to this connection only.
func (c *Conn) Emit(event string, payload interface{}) bool {
	msg, err := encodeFrame(event, payload)
	if err != nil {
		logger.Log.Warnf("Dropping %s for connection %s: %v", event, c.id, err)
		return false
	}
	return c.enqueue(msg)
}

func (c *Conn) enqueue(msg []byte) bool {
	if c.closed.Load() {
		return false
	}
	select {
	case c.send <- msg:
		return true
	case <-c.done:
		return false
	default:
		logger.Log.Warnf("Send buffer full for connection %s, dropping message", c.id)
		return false
	}
}

func (c *Conn) close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
		_ = c.ws.Close()
	})
}

// readPump processes frames in arrival order until the peer goes away.
func (c *Conn) readPump() {
	defer c.gw.disconnect(c)

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Warnf("WebSocket read error on %s: %v", c.id, err)
			}
			return
		}
		c.gw.dispatch(c, msg)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
