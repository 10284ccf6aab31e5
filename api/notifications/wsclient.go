package notifications

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ConnState is the explicit connection state of a reconnecting client.
type ConnState int

// Client connection states.
const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateFailed
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

const (
	defaultBackoffBase = 2 * time.Second
	defaultBackoffMax  = time.Minute
	defaultMaxAttempts = 10
)

// ClientOptions tune the reconnect behaviour of a Client.
type ClientOptions struct {
	BackoffBase time.Duration
	BackoffMax  time.Duration
	MaxAttempts int
	Dialer      *websocket.Dialer
}

// Client is a reconnecting websocket client for headless integrations
// and tests. Connection establishment retries with exponential backoff
// up to a ceiling of attempts, after which the client parks in the
// failed state; Close tears everything down.
type Client struct {
	url   string
	token string
	opts  ClientOptions

	// OnEnvelope, when set, receives every server envelope.
	OnEnvelope func(Envelope)

	mu       sync.Mutex
	state    ConnState
	conn     *websocket.Conn
	attempts int

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient creates a client for the given websocket URL and auth
// token. Zero option fields fall back to defaults.
func NewClient(url, token string, opts ClientOptions) *Client {
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = defaultBackoffBase
	}
	if opts.BackoffMax <= 0 {
		opts.BackoffMax = defaultBackoffMax
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	return &Client{
		url:   url,
		token: token,
		opts:  opts,
		state: StateDisconnected,
		done:  make(chan struct{}),
	}
}

// State returns the current connection state.
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts returns how many dial attempts have been made in total.
func (c *Client) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

func (c *Client) setState(s ConnState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Start runs the connect loop in a goroutine.
func (c *Client) Start() {
	go c.Run()
}

// Run connects and reconnects until Close is called or the attempt
// ceiling is hit.
func (c *Client) Run() {
	failures := 0
	for {
		select {
		case <-c.done:
			c.setState(StateDisconnected)
			return
		default:
		}

		c.setState(StateConnecting)
		c.mu.Lock()
		c.attempts++
		c.mu.Unlock()

		conn, resp, err := c.opts.Dialer.Dial(c.url, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			failures++
			zap.S().Warnw("websocket dial failed", "url", c.url, "attempt", failures, "error", err)
			if failures >= c.opts.MaxAttempts {
				zap.S().Errorw("websocket retry ceiling reached, giving up", "url", c.url, "attempts", failures)
				c.setState(StateFailed)
				return
			}
			c.setState(StateDisconnected)
			select {
			case <-time.After(c.backoff(failures)):
			case <-c.done:
				c.setState(StateDisconnected)
				return
			}
			continue
		}

		failures = 0
		c.mu.Lock()
		c.conn = conn
		c.state = StateConnected
		c.mu.Unlock()

		if err := conn.WriteJSON(Envelope{Type: TypeIdentify, Payload: map[string]interface{}{"token": c.token}}); err != nil {
			zap.S().Warnw("identify write failed", "error", err)
			conn.Close()
			continue
		}

		c.readLoop(conn)
		c.setState(StateDisconnected)

		select {
		case <-c.done:
			return
		case <-time.After(c.backoff(1)):
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer conn.Close()
	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return
		}
		if c.OnEnvelope != nil {
			c.OnEnvelope(env)
		}
	}
}

// backoff doubles per consecutive failure, capped at BackoffMax.
func (c *Client) backoff(failures int) time.Duration {
	d := c.opts.BackoffBase
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= c.opts.BackoffMax {
			return c.opts.BackoffMax
		}
	}
	if d > c.opts.BackoffMax {
		return c.opts.BackoffMax
	}
	return d
}

// Close stops the connect loop and closes any open connection.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.mu.Unlock()
	})
}
