package preview

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/logging"
	"github.com/coder/websocket"
)

// Message types pushed to connected preview pages.
const (
	TypeReload      = "reload"
	TypeBuildFailed = "build-failed"
)

const (
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// ReloadMessage is the JSON payload broadcast to browsers.
type ReloadMessage struct {
	Type      string    `json:"type"`
	Target    string    `json:"target,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// client couples a connection with its buffered outbound queue.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// ReloadHub fans build notifications out to every connected preview
// page. A single hub goroutine owns the client set; HTTP handlers talk
// to it through buffered channels so broadcasting never blocks a build.
type ReloadHub struct {
	clients      map[*websocket.Conn]*client
	clientsMutex sync.RWMutex

	broadcast  chan []byte
	register   chan *client
	unregister chan *websocket.Conn

	logger logging.Logger

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
}

// NewReloadHub starts the hub goroutine and returns the running hub.
func NewReloadHub(logger logging.Logger) *ReloadHub {
	if logger == nil {
		logger = logging.Discard()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &ReloadHub{
		clients:    make(map[*websocket.Conn]*client),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *client, 16),
		unregister: make(chan *websocket.Conn, 16),
		logger:     logger.WithComponent("reload-hub"),
		ctx:        ctx,
		cancel:     cancel,
	}
	go h.run()
	return h
}

// ServeHTTP upgrades the request and pumps reload messages until the
// client goes away. Origins are restricted to loopback hosts: the
// preview server is a development tool, not a public endpoint.
func (h *ReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*", "[::1]:*"},
	})
	if err != nil {
		h.logger.Warn(r.Context(), err, "websocket upgrade failed", "remote", r.RemoteAddr)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 64)}
	select {
	case h.register <- c:
	case <-h.ctx.Done():
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	go h.writePump(c)
	h.readPump(c)
}

// Broadcast queues msg for every connected client. Messages are dropped
// when the hub is shut down or the queue is full; a missed reload only
// costs a manual refresh.
func (h *ReloadHub) Broadcast(msg ReloadMessage) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn(h.ctx, err, "marshalling reload message")
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.ctx.Done():
	default:
		h.logger.Warn(h.ctx, nil, "broadcast queue full, dropping message")
	}
}

// ClientCount reports the number of connected preview pages.
func (h *ReloadHub) ClientCount() int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()
	return len(h.clients)
}

// Shutdown disconnects every client and stops the hub goroutine.
func (h *ReloadHub) Shutdown() {
	h.shutdownOnce.Do(func() {
		h.cancel()
		h.clientsMutex.Lock()
		for conn, c := range h.clients {
			close(c.send)
			conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
		h.clients = make(map[*websocket.Conn]*client)
		h.clientsMutex.Unlock()
	})
}

func (h *ReloadHub) run() {
	for {
		select {
		case c := <-h.register:
			h.clientsMutex.Lock()
			h.clients[c.conn] = c
			n := len(h.clients)
			h.clientsMutex.Unlock()
			h.logger.Debug(h.ctx, "preview client connected", "clients", n)

		case conn := <-h.unregister:
			h.clientsMutex.Lock()
			c, ok := h.clients[conn]
			if ok {
				delete(h.clients, conn)
				close(c.send)
			}
			n := len(h.clients)
			h.clientsMutex.Unlock()
			if ok {
				conn.Close(websocket.StatusNormalClosure, "")
				h.logger.Debug(h.ctx, "preview client disconnected", "clients", n)
			}

		case msg := <-h.broadcast:
			h.clientsMutex.RLock()
			clients := make([]*client, 0, len(h.clients))
			for _, c := range h.clients {
				clients = append(clients, c)
			}
			h.clientsMutex.RUnlock()
			for _, c := range clients {
				select {
				case c.send <- msg:
				default:
					// Slow page; drop it rather than stall the rest.
					select {
					case h.unregister <- c.conn:
					default:
					}
				}
			}

		case <-h.ctx.Done():
			return
		}
	}
}

// readPump discards inbound frames. Reading is still required to notice
// the peer closing and to answer control frames.
func (h *ReloadHub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c.conn:
		case <-h.ctx.Done():
		}
	}()
	for {
		if _, _, err := c.conn.Read(h.ctx); err != nil {
			return
		}
	}
}

func (h *ReloadHub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(h.ctx, writeTimeout)
			err := c.conn.Write(ctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(h.ctx, writeTimeout)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}

		case <-h.ctx.Done():
			return
		}
	}
}
