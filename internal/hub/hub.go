// Package hub keeps the set of websocket subscribers and fans messages out to them.
package hub

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"solana-token-feed/internal/observability"
)

const (
	DefaultHeartbeat  = 30 * time.Second
	DefaultSendBuffer = 64

	// maxMissedPongs is the number of unanswered pings that drops a connection.
	maxMissedPongs = 2
	writeWait      = 10 * time.Second
	maxRequestSize = 4096
)

// Hub is the subscriber registry.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	closed  bool

	heartbeat  time.Duration
	sendBuffer int
	upgrader   websocket.Upgrader
	logger     logrus.FieldLogger
	now        func() time.Time
}

// Option configures Hub.
type Option func(*Hub)

// WithHeartbeat sets the ping interval.
func WithHeartbeat(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.heartbeat = d
		}
	}
}

// WithSendBuffer sets the per-connection outbound queue length.
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(h *Hub) {
		h.logger = l
	}
}

// WithCheckOrigin overrides the upgrade origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = fn
	}
}

// New creates a Hub.
func New(opts ...Option) *Hub {
	h := &Hub{
		clients:    make(map[string]*client),
		heartbeat:  DefaultHeartbeat,
		sendBuffer: DefaultSendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logrus.StandardLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.WithField("component", "hub")
	return h
}

// ServeHTTP upgrades the request and registers the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Debug("websocket upgrade failed")
		return
	}

	c := &client{
		id:       uuid.NewString(),
		conn:     conn,
		send:     make(chan []byte, h.sendBuffer),
		done:     make(chan struct{}),
		channels: map[string]struct{}{ChannelTokens: {}},
	}
	if !h.add(c) {
		_ = conn.Close()
		return
	}

	h.direct(c, TypeConnected, Welcome{ClientID: c.id, Channels: []string{ChannelTokens}})
	go h.writePump(c)
	go h.readPump(c)
}

// Broadcast sends a message to every connection subscribed to channel and
// returns how many accepted it. A connection whose queue is full is dropped.
func (h *Hub) Broadcast(channel, msgType string, data any) (int, error) {
	msg, err := encode(msgType, data, h.now())
	if err != nil {
		return 0, err
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		if c.subscribed(channel) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	var delivered int
	for _, c := range targets {
		if c.enqueue(msg) {
			delivered++
			continue
		}
		h.remove(c, "send queue full")
	}
	observability.RecordBroadcast(msgType)
	return delivered, nil
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.remove(c, "hub closed")
	}
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	observability.SetSubscribers(len(h.clients))
	h.logger.WithFields(logrus.Fields{"client_id": c.id, "subscribers": len(h.clients)}).Info("subscriber connected")
	return true
}

// remove unregisters c and closes its connection. Safe to call more than once.
func (h *Hub) remove(c *client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	n := len(h.clients)
	h.mu.Unlock()

	c.close()
	if !ok {
		return
	}
	observability.SetSubscribers(n)
	if reason != "hub closed" {
		observability.RecordDroppedConnection()
	}
	h.logger.WithFields(logrus.Fields{"client_id": c.id, "reason": reason, "subscribers": n}).Info("subscriber disconnected")
}

// direct queues a message for one client.
func (h *Hub) direct(c *client, msgType string, data any) {
	msg, err := encode(msgType, data, h.now())
	if err != nil {
		h.logger.WithError(err).Error("encode message")
		return
	}
	if !c.enqueue(msg) {
		h.remove(c, "send queue full")
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.remove(c, "write failed")
				return
			}
		case <-ticker.C:
			if c.missed.Load() >= maxMissedPongs {
				h.remove(c, "heartbeat timeout")
				return
			}
			c.missed.Add(1)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				h.remove(c, "ping failed")
				return
			}
		}
	}
}

func (h *Hub) readPump(c *client) {
	c.conn.SetReadLimit(maxRequestSize)
	c.conn.SetPongHandler(func(string) error {
		c.missed.Store(0)
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			h.remove(c, "read closed")
			return
		}
		c.missed.Store(0)
		h.handle(c, data)
	}
}

func (h *Hub) handle(c *client, data []byte) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		h.direct(c, TypeError, ErrorPayload{Message: "invalid message"})
		return
	}

	switch req.Type {
	case RequestPing:
		h.direct(c, TypePong, nil)
	case RequestSubscribe, RequestUnsubscribe:
		channel := req.Channel
		if channel == "" {
			channel = ChannelTokens
		}
		if channel != ChannelTokens {
			h.direct(c, TypeError, ErrorPayload{Message: "unknown channel: " + channel})
			return
		}
		if req.Type == RequestSubscribe {
			c.join(channel)
			h.direct(c, TypeSubscribed, ChannelAck{Channel: channel})
		} else {
			c.leave(channel)
			h.direct(c, TypeUnsubscribed, ChannelAck{Channel: channel})
		}
	default:
		h.direct(c, TypeError, ErrorPayload{Message: "unknown message type: " + req.Type})
	}
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once

	missed atomic.Int32

	mu       sync.Mutex
	channels map[string]struct{}
}

// enqueue reports false when the queue is full or the client is closed.
func (c *client) enqueue(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) subscribed(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.channels[channel]
	return ok
}

func (c *client) join(channel string) {
	c.mu.Lock()
	c.channels[channel] = struct{}{}
	c.mu.Unlock()
}

func (c *client) leave(channel string) {
	c.mu.Lock()
	delete(c.channels, channel)
	c.mu.Unlock()
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}
