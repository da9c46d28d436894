// Package realtime maintains the persistent duplex connection that
// delivers order push events, independent of the GraphQL request
// transport. The channel owns its reconnection policy: a fixed interval
// between attempts (unlike the transport's exponential retry) and a
// bounded number of consecutive failures before giving up.
package realtime

import (
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Reconnect policy defaults.
const (
	DefaultReconnectInterval    = 3 * time.Second
	DefaultMaxReconnectAttempts = 5
)

// State is the connection state of the channel.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
	StateGivenUp
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateGivenUp:
		return "given_up"
	default:
		return "unknown"
	}
}

// Channel is the realtime connection. Events() delivers validated push
// events in the order frames arrive from the socket.
type Channel struct {
	url    string
	header http.Header
	dialer *websocket.Dialer
	logger *slog.Logger

	reconnectInterval    time.Duration
	maxReconnectAttempts int

	onOpen        func()
	onClose       func()
	onError       func(error)
	onUnavailable func()

	state     atomic.Int32
	lastEvent atomic.Int64

	events chan Event
	done   chan struct{}

	mu   sync.Mutex
	conn *websocket.Conn

	closeOnce       sync.Once
	unavailableOnce sync.Once
	wg              sync.WaitGroup
}

// Option configures a Channel.
type Option func(*Channel)

// WithReconnectInterval sets the fixed delay between reconnect attempts.
func WithReconnectInterval(d time.Duration) Option {
	return func(c *Channel) { c.reconnectInterval = d }
}

// WithMaxReconnectAttempts bounds consecutive failed reconnects before the
// channel gives up.
func WithMaxReconnectAttempts(n int) Option {
	return func(c *Channel) { c.maxReconnectAttempts = n }
}

// WithDialer sets a custom websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Channel) { c.dialer = d }
}

// WithHeader sets headers sent on the websocket handshake.
func WithHeader(h http.Header) Option {
	return func(c *Channel) { c.header = h }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Channel) { c.logger = logger }
}

// OnOpen registers a callback invoked each time the connection opens.
func OnOpen(fn func()) Option {
	return func(c *Channel) { c.onOpen = fn }
}

// OnClose registers a callback invoked each time the connection closes.
func OnClose(fn func()) Option {
	return func(c *Channel) { c.onClose = fn }
}

// OnError registers a callback for transport-level errors.
func OnError(fn func(error)) Option {
	return func(c *Channel) { c.onError = fn }
}

// OnUnavailable registers the callback fired exactly once when the channel
// gives up reconnecting. It is the UI's persistent "realtime unavailable"
// signal.
func OnUnavailable(fn func()) Option {
	return func(c *Channel) { c.onUnavailable = fn }
}

// Dial starts the channel toward url and begins connecting immediately.
func Dial(url string, opts ...Option) *Channel {
	c := &Channel{
		url:                  url,
		dialer:               &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
		logger:               slog.Default(),
		reconnectInterval:    DefaultReconnectInterval,
		maxReconnectAttempts: DefaultMaxReconnectAttempts,
		events:               make(chan Event, 16),
		done:                 make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.state.Store(int32(StateConnecting))
	c.wg.Add(1)
	go c.run()
	return c
}

// Events returns the inbound event stream. It is closed when the channel
// terminates.
func (c *Channel) Events() <-chan Event {
	return c.events
}

// State returns the current connection state.
func (c *Channel) State() State {
	return State(c.state.Load())
}

// LastEventAt returns the arrival time of the most recent event, or the
// zero time when none arrived yet.
func (c *Channel) LastEventAt() time.Time {
	n := c.lastEvent.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Send writes an outbound frame as JSON. Messages are fire-and-forget: if
// the channel is not open the message is dropped with a warning, never
// queued.
func (c *Channel) Send(v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.State() != StateOpen || c.conn == nil {
		c.logger.Warn("realtime channel not open, dropping outbound message")
		return
	}
	if err := c.conn.WriteJSON(v); err != nil {
		c.logger.Warn("failed to send realtime message", slog.String("error", err.Error()))
	}
}

// Close tears the channel down: it stops any pending reconnect timer,
// closes the connection and waits for the run loop to exit. Safe to call
// more than once.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.mu.Unlock()
	})
	c.wg.Wait()
}

func (c *Channel) setState(s State) {
	c.state.Store(int32(s))
}

func (c *Channel) stopping() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Channel) run() {
	defer c.wg.Done()
	defer close(c.events)

	attempts := 0
	for {
		if c.stopping() {
			c.setState(StateClosed)
			return
		}

		c.setState(StateConnecting)
		conn, resp, err := c.dialer.Dial(c.url, c.header)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			c.logger.Warn("realtime dial failed",
				slog.String("url", c.url),
				slog.Int("attempt", attempts+1),
				slog.String("error", err.Error()),
			)
			if c.onError != nil {
				c.onError(err)
			}
			c.setState(StateClosed)
			if c.onClose != nil {
				c.onClose()
			}
			attempts++
			if attempts >= c.maxReconnectAttempts {
				c.setState(StateGivenUp)
				c.logger.Error("realtime channel giving up",
					slog.Int("attempts", attempts))
				c.signalUnavailable()
				return
			}
			if !c.waitReconnect() {
				return
			}
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		attempts = 0
		c.setState(StateOpen)
		c.logger.Info("realtime channel open", slog.String("url", c.url))
		if c.onOpen != nil {
			c.onOpen()
		}

		c.readLoop(conn)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()

		if c.stopping() {
			c.setState(StateClosed)
			return
		}
		c.setState(StateClosed)
		c.logger.Warn("realtime channel closed, reconnecting")
		if c.onClose != nil {
			c.onClose()
		}
		if !c.waitReconnect() {
			return
		}
	}
}

// waitReconnect sleeps the fixed reconnect interval. It returns false when
// the channel is being torn down, so the timer never leaks a reconnect
// loop past Close.
func (c *Channel) waitReconnect() bool {
	t := time.NewTimer(c.reconnectInterval)
	defer t.Stop()
	select {
	case <-c.done:
		c.setState(StateClosed)
		return false
	case <-t.C:
		return true
	}
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.stopping() {
				return
			}
			if c.onError != nil && !websocket.IsCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.onError(err)
			}
			return
		}

		ev, err := ParseEvent(data)
		if err != nil {
			// Malformed frames never crash the channel.
			c.logger.Warn("dropping malformed realtime frame",
				slog.String("error", err.Error()))
			continue
		}
		c.lastEvent.Store(time.Now().UnixNano())

		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}

func (c *Channel) signalUnavailable() {
	c.unavailableOnce.Do(func() {
		if c.onUnavailable != nil {
			c.onUnavailable()
		}
	})
}
