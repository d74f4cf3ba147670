// Package gateway accepts websocket connections, associates them with users
// and pushes events to online users. It is the only writer of the presence
// registry.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/estatehub/realtime/internal/metrics"
	"github.com/estatehub/realtime/internal/presence"
	"github.com/estatehub/realtime/pkg/logger"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// ErrNotStarted is the panic value raised when the gateway is used before
// Start. It signals a startup ordering bug, not a runtime condition.
var ErrNotStarted = errors.New("gateway: not started")

// HandlerFunc handles one client event. Handlers for a single connection run
// sequentially on that connection's read loop.
type HandlerFunc func(ctx context.Context, c *Conn, data []byte)

// Options configures the gateway.
type Options struct {
	// Path the websocket endpoint is mounted on. Defaults to /socket.
	Path string
	// AllowedOrigins lists accepted Origin headers. "*" accepts any origin.
	// Requests without an Origin header are always accepted.
	AllowedOrigins []string
}

type Gateway struct {
	opts     Options
	registry *presence.Registry
	upgrader websocket.Upgrader
	ctx      context.Context

	mu       sync.RWMutex
	handlers map[string]HandlerFunc

	once    sync.Once
	started atomic.Bool
}

// New builds a gateway around registry. A nil registry gets a fresh one.
func New(registry *presence.Registry, opts Options) *Gateway {
	if registry == nil {
		registry = presence.NewRegistry()
	}
	if opts.Path == "" {
		opts.Path = "/socket"
	}

	g := &Gateway{
		opts:     opts,
		registry: registry,
		ctx:      context.Background(),
		handlers: make(map[string]HandlerFunc),
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     g.checkOrigin,
	}
	return g
}

// Start mounts the websocket endpoint on router. Only the first call has an
// effect; later calls return the same gateway so event handlers are never
// wired twice.
func (g *Gateway) Start(router *mux.Router) *Gateway {
	g.once.Do(func() {
		router.Handle(g.opts.Path, g)
		g.started.Store(true)
		logger.Log.Infof("WebSocket gateway listening on %s", g.opts.Path)
	})
	return g
}

// On registers the handler for a client event, replacing any previous one.
func (g *Gateway) On(event string, fn HandlerFunc) {
	g.mu.Lock()
	g.handlers[event] = fn
	g.mu.Unlock()
}

// ServeHTTP upgrades the request and runs the connection pumps.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warnf("WebSocket upgrade failed: %v", err)
		return
	}

	c := newConn(g, ws)
	metrics.OpenConnections.Inc()
	logger.Log.Infof("WebSocket connected: %s", c.id)

	go c.writePump()
	go c.readPump()
}

// Publish sends payload tagged event to userID's connection. It reports
// whether a live connection accepted the message; an offline user is a
// normal outcome.
func (g *Gateway) Publish(userID, event string, payload interface{}) bool {
	return g.publish(userID, event, payload, "")
}

// PublishExcept is Publish, but returns false without sending when the
// user's connection is exceptConnID.
func (g *Gateway) PublishExcept(userID, event string, payload interface{}, exceptConnID string) bool {
	return g.publish(userID, event, payload, exceptConnID)
}

func (g *Gateway) publish(userID, event string, payload interface{}, exceptConnID string) bool {
	g.mustBeStarted()

	h, ok := g.registry.Lookup(userID)
	if !ok {
		metrics.EventsPublished.WithLabelValues(event, "offline").Inc()
		return false
	}
	if exceptConnID != "" && h.ID() == exceptConnID {
		return false
	}

	c, ok := h.(*Conn)
	if !ok || !c.Emit(event, payload) {
		metrics.EventsPublished.WithLabelValues(event, "dropped").Inc()
		return false
	}
	metrics.EventsPublished.WithLabelValues(event, "delivered").Inc()
	return true
}

// IsOnline reports whether userID has a registered connection.
func (g *Gateway) IsOnline(userID string) bool {
	g.mustBeStarted()
	_, ok := g.registry.Lookup(userID)
	return ok
}

// OnlineUsers returns a snapshot of the online user ids.
func (g *Gateway) OnlineUsers() []string {
	g.mustBeStarted()
	return g.registry.ListOnline()
}

// Sweep evicts registrations whose connection is already closed.
func (g *Gateway) Sweep() []string {
	evicted := g.registry.Sweep()
	metrics.OnlineUsers.Set(float64(g.registry.Len()))
	return evicted
}

func (g *Gateway) mustBeStarted() {
	if !g.started.Load() {
		panic(ErrNotStarted)
	}
}

func (g *Gateway) dispatch(c *Conn, msg []byte) {
	f, err := decodeFrame(msg)
	if err != nil {
		logger.Log.Warnf("Dropping frame from %s: %v", c.id, err)
		return
	}
	metrics.EventsReceived.WithLabelValues(f.Event).Inc()

	switch f.Event {
	case EventRegisterUser:
		g.register(c, f.Data)
		return
	case EventGetOnlineUsers:
		c.Emit(EventOnlineUsers, g.registry.ListOnline())
		return
	}

	g.mu.RLock()
	fn, ok := g.handlers[f.Event]
	g.mu.RUnlock()
	if !ok {
		logger.Log.Debugf("No handler for event %q from %s", f.Event, c.id)
		return
	}
	fn(g.ctx, c, f.Data)
}

func (g *Gateway) register(c *Conn, data []byte) {
	userID := parseUserID(data)
	if userID == "" {
		logger.Log.Warnf("registerUser without user id on %s", c.id)
		return
	}
	if c.Closed() {
		return
	}

	g.registry.Register(userID, c)
	c.setUserID(userID)
	metrics.OnlineUsers.Set(float64(g.registry.Len()))
	logger.Log.Infof("User registered: %s on %s", userID, c.id)
}

func (g *Gateway) disconnect(c *Conn) {
	c.close()
	evicted := g.registry.Unregister(c)
	metrics.OpenConnections.Dec()
	metrics.OnlineUsers.Set(float64(g.registry.Len()))
	logger.Log.Infof("WebSocket disconnected: %s (users offline: %v)", c.id, evicted)
}

func (g *Gateway) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(g.opts.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range g.opts.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
