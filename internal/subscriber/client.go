// Package subscriber consumes the websocket update feed. A Client keeps one
// connection open, reconnects with exponential backoff and delivers every
// token update on a channel.
package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"solana-token-feed/internal/broadcast"
	"solana-token-feed/internal/hub"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("subscriber closed")

// Config configures Client behavior.
type Config struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// ReadTimeout must exceed the server heartbeat; every ping extends it.
	ReadTimeout time.Duration
	// WriteTimeout bounds each outbound frame.
	WriteTimeout time.Duration
	// Buffer is the Updates channel capacity.
	Buffer int
}

// DefaultConfig returns default Client configuration.
func DefaultConfig() Config {
	return Config{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		ReadTimeout:       90 * time.Second,
		WriteTimeout:      10 * time.Second,
		Buffer:            256,
	}
}

// Client is a feed subscriber.
type Client struct {
	endpoint string
	config   Config
	logger   logrus.FieldLogger

	conn   *websocket.Conn
	connMu sync.Mutex

	clientID   atomic.Value // string
	reconnects atomic.Int64
	closed     atomic.Bool

	updates chan broadcast.Update
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Dial connects to endpoint (ws:// or wss://) and starts reading.
func Dial(ctx context.Context, endpoint string, config *Config, logger logrus.FieldLogger) (*Client, error) {
	cfg := DefaultConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	c := &Client{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger.WithField("component", "subscriber"),
		updates:  make(chan broadcast.Update, cfg.Buffer),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	if err := c.connect(ctx); err != nil {
		c.cancel()
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()

	return c, nil
}

// Updates delivers token updates in arrival order. It is closed after Close.
func (c *Client) Updates() <-chan broadcast.Update {
	return c.updates
}

// ClientID returns the id assigned by the server on the current connection.
func (c *Client) ClientID() string {
	id, _ := c.clientID.Load().(string)
	return id
}

// Reconnects returns how many times the connection was re-established.
func (c *Client) Reconnects() int64 {
	return c.reconnects.Load()
}

// Send writes a request to the server.
func (c *Client) Send(req hub.Request) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.closed.Load() || c.conn == nil {
		return ErrClosed
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write request: %w", err)
	}
	return nil
}

// Ping sends an application-level ping; the server answers with pong.
func (c *Client) Ping() error {
	return c.Send(hub.Request{Type: hub.RequestPing})
}

// Close closes the connection and waits for the reader to exit.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.cancel()

	c.connMu.Lock()
	if c.conn != nil {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.config.WriteTimeout))
		_ = c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	return nil
}

func (c *Client) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(c.config.WriteTimeout))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	return nil
}

// readLoop reads until Close, reconnecting on any read error.
func (c *Client) readLoop() {
	defer c.wg.Done()
	defer close(c.updates)

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		_ = conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			c.logger.WithError(err).Warn("feed connection lost; reconnecting")
			if !c.reconnect() {
				return
			}
			continue
		}

		c.handleMessage(message)
	}
}

// reconnect retries until connected or closed. Reports false once closed.
func (c *Client) reconnect() bool {
	c.connMu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.connMu.Unlock()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.config.ReconnectDelay
	b.MaxInterval = c.config.MaxReconnectDelay
	b.MaxElapsedTime = 0

	err := backoff.RetryNotify(func() error {
		if c.closed.Load() {
			return backoff.Permanent(ErrClosed)
		}
		ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
		defer cancel()
		if err := c.connect(ctx); err != nil {
			return err
		}
		if c.closed.Load() {
			c.connMu.Lock()
			_ = c.conn.Close()
			c.connMu.Unlock()
			return backoff.Permanent(ErrClosed)
		}
		return nil
	}, backoff.WithContext(b, c.ctx), func(err error, d time.Duration) {
		c.logger.WithError(err).WithField("backoff", d).Debug("reconnect failed")
	})
	if err != nil {
		return false
	}

	c.reconnects.Add(1)
	c.logger.WithField("endpoint", c.endpoint).Info("feed connection re-established")
	return true
}

type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (c *Client) handleMessage(message []byte) {
	var msg inbound
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.WithError(err).Warn("undecodable feed message")
		return
	}

	switch msg.Type {
	case hub.TypeConnected:
		var w hub.Welcome
		if err := json.Unmarshal(msg.Data, &w); err == nil {
			c.clientID.Store(w.ClientID)
			c.logger.WithField("client_id", w.ClientID).Info("subscribed to feed")
		}
	case hub.TypeTokenUpdate:
		var u broadcast.Update
		if err := json.Unmarshal(msg.Data, &u); err != nil {
			c.logger.WithError(err).Warn("undecodable token update")
			return
		}
		// Block until consumed; updates are never dropped client-side.
		select {
		case c.updates <- u:
		case <-c.ctx.Done():
		}
	case hub.TypeError:
		var p hub.ErrorPayload
		_ = json.Unmarshal(msg.Data, &p)
		c.logger.WithField("message", p.Message).Warn("feed error")
	default:
		c.logger.WithField("type", msg.Type).Debug("feed message")
	}
}
