// Package wsconn provides a WebSocket client with reconnection.
package wsconn

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

// ErrNotConnected is returned by Send while no connection is up.
var ErrNotConnected = errors.New("wsconn: not connected")

// Config holds WebSocket client configuration.
type Config struct {
	URL            string
	Name           string
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite
	PingInterval   time.Duration
	PongTimeout    time.Duration
	MaxMessageSize int64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:            url,
		Name:           name,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		MaxReconnects:  0,
		PingInterval:   30 * time.Second,
		PongTimeout:    10 * time.Second,
		MaxMessageSize: 4 << 20, // the Binance all-market arrays run to a few hundred KB
	}
}

// MessageHandler receives every data frame.
type MessageHandler func(ctx context.Context, msg []byte)

// StateHandler observes state transitions. err is set when the transition
// was caused by a failure.
type StateHandler func(state State, err error)

// Client is a WebSocket client that redials after read failures.
type Client struct {
	config Config

	mu         sync.RWMutex
	conn       *websocket.Conn
	state      State
	onMessage  MessageHandler
	onState    StateHandler
	reconnects int

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// New creates a new WebSocket client.
func New(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("wsconn: url is required")
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = time.Second
	}
	if config.MaxBackoff < config.InitialBackoff {
		config.MaxBackoff = config.InitialBackoff
	}
	if config.PongTimeout <= 0 {
		config.PongTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		config: config,
		state:  StateDisconnected,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// OnMessage sets the message handler. Set it before Connect.
func (c *Client) OnMessage(h MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = h
}

// OnStateChange sets the state handler. Set it before Connect.
func (c *Client) OnStateChange(h StateHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = h
}

// Connect dials once. On success a reader goroutine delivers messages and
// redials with exponential backoff whenever the connection drops.
func (c *Client) Connect(ctx context.Context) error {
	c.setState(StateConnecting, nil)

	conn, err := c.dial(ctx)
	if err != nil {
		c.setState(StateDisconnected, err)
		return err
	}

	if !c.attach(conn) {
		return ErrNotConnected
	}
	go c.run(conn)
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, c.config.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("wsconn %s: dial: %w", c.config.Name, err)
	}
	if c.config.MaxMessageSize > 0 {
		conn.SetReadLimit(c.config.MaxMessageSize)
	}
	return conn, nil
}

func (c *Client) attach(conn *websocket.Conn) bool {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		conn.CloseNow()
		return false
	}
	c.conn = conn
	c.mu.Unlock()
	c.setState(StateConnected, nil)
	return true
}

// run reads from conn until it fails, then redials until a connection is up
// again, the client is closed, or MaxReconnects is exhausted.
func (c *Client) run(conn *websocket.Conn) {
	for {
		err := c.readLoop(conn)
		if c.ctx.Err() != nil || c.State() == StateClosed {
			return
		}

		c.setState(StateReconnecting, err)
		next, ok := c.reconnect()
		if !ok {
			return
		}
		conn = next
	}
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	if c.config.PingInterval > 0 {
		pingCtx, stop := context.WithCancel(c.ctx)
		defer stop()
		go c.pingLoop(pingCtx, conn)
	}

	for {
		_, data, err := conn.Read(c.ctx)
		if err != nil {
			if c.State() != StateClosed {
				conn.CloseNow()
			}
			return err
		}

		c.mu.RLock()
		h := c.onMessage
		c.mu.RUnlock()
		if h != nil {
			h(c.ctx, data)
		}
	}
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, c.config.PongTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil && ctx.Err() == nil {
				conn.Close(websocket.StatusGoingAway, "pong timeout")
				return
			}
		}
	}
}

func (c *Client) reconnect() (*websocket.Conn, bool) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.config.InitialBackoff
	b.MaxInterval = c.config.MaxBackoff

	for {
		c.mu.Lock()
		c.reconnects++
		attempts := c.reconnects
		c.mu.Unlock()

		if c.config.MaxReconnects > 0 && attempts > c.config.MaxReconnects {
			c.setState(StateDisconnected, fmt.Errorf("wsconn %s: gave up after %d reconnects", c.config.Name, c.config.MaxReconnects))
			return nil, false
		}

		select {
		case <-time.After(b.NextBackOff()):
		case <-c.ctx.Done():
			return nil, false
		}

		conn, err := c.dial(c.ctx)
		if err == nil {
			c.mu.Lock()
			c.reconnects = 0
			c.mu.Unlock()
			return conn, c.attach(conn)
		}
		if c.ctx.Err() != nil {
			return nil, false
		}
		c.setState(StateReconnecting, err)
	}
}

// Send writes a text frame.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	conn, err := c.current()
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, msg)
}

// SendJSON writes v as a JSON text frame.
func (c *Client) SendJSON(ctx context.Context, v any) error {
	conn, err := c.current()
	if err != nil {
		return err
	}
	return wsjson.Write(ctx, conn, v)
}

func (c *Client) current() (*websocket.Conn, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateConnected || c.conn == nil {
		return nil, ErrNotConnected
	}
	return c.conn, nil
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsConnected reports whether a connection is up.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Close stops reconnecting and closes the connection. It is idempotent.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		// Closed first so the reader cannot report a reconnect on the way down.
		c.setState(StateClosed, nil)

		c.mu.Lock()
		conn := c.conn
		c.conn = nil
		c.mu.Unlock()

		if conn != nil {
			err = conn.Close(websocket.StatusNormalClosure, "")
			var ce websocket.CloseError
			if errors.As(err, &ce) || errors.Is(err, net.ErrClosed) {
				err = nil
			}
		}
		c.cancel()
	})
	return err
}

func (c *Client) setState(state State, err error) {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = state
	h := c.onState
	c.mu.Unlock()

	if h != nil {
		h(state, err)
	}
}
