package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/AgentOS/deskview/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/protocol"
	"go.uber.org/zap"
)

var (
	// ErrClosed is returned by Connect after Close
	ErrClosed = errors.New("transport client closed")
)

// Observer sees the client's internal events, typically for metrics.
// Calls are made with the client lock held and must not block.
type Observer interface {
	OnStatus(status Status)
	OnFrame(kind string, decoded bool)
	OnReconnectScheduled(attempt int, delay time.Duration)
}

type noopObserver struct{}

func (noopObserver) OnStatus(Status)                         {}
func (noopObserver) OnFrame(string, bool)                    {}
func (noopObserver) OnReconnectScheduled(int, time.Duration) {}

// Config configures a Client
type Config struct {
	URL              string
	BaseBackoff      time.Duration
	MaxBackoff       time.Duration
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	Dialer           Dialer
	Clock            Clock
	Logger           *logging.Logger
	Observer         Observer
}

// Client owns one logical connection to a desktop server
type Client struct {
	url      string
	base     time.Duration
	max      time.Duration
	dialer   Dialer
	clock    Clock
	observer Observer
	log      *logging.Logger
	bus      *bus

	mu          sync.Mutex
	status      Status
	desktopID   string
	attempts    int
	intentional bool
	closed      bool
	gen         uint64 // bumped on every dial and teardown
	conn        Conn
	timer       Timer
	cancelDial  context.CancelFunc
}

// New creates a disconnected client
func New(cfg Config) *Client {
	log := logging.OrNop(cfg.Logger).Named("transport")

	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = DefaultBaseBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	if cfg.Dialer == nil {
		cfg.Dialer = &WebSocketDialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
			WriteTimeout:     cfg.WriteTimeout,
		}
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}
	if cfg.Observer == nil {
		cfg.Observer = noopObserver{}
	}

	return &Client{
		url:      protocol.ResolveURL(cfg.URL),
		base:     cfg.BaseBackoff,
		max:      cfg.MaxBackoff,
		dialer:   cfg.Dialer,
		clock:    cfg.Clock,
		observer: cfg.Observer,
		log:      log,
		bus:      newBus(log),
		status:   StatusDisconnected,
	}
}

// OnMessage registers a listener for decoded server messages
func (c *Client) OnMessage(fn MessageListener) *Subscription {
	return subscribe(c.bus, &c.bus.messages, fn)
}

// OnStatusChange registers a listener for status transitions
func (c *Client) OnStatusChange(fn StatusListener) *Subscription {
	return subscribe(c.bus, &c.bus.statuses, fn)
}

// OnError registers a listener for transport errors
func (c *Client) OnError(fn ErrorListener) *Subscription {
	return subscribe(c.bus, &c.bus.errors, fn)
}

// URL returns the resolved endpoint
func (c *Client) URL() string {
	return c.url
}

// Status returns the current connection status
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// DesktopID returns the desktop the client subscribes to
func (c *Client) DesktopID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.desktopID
}

// Attempts returns the number of reconnects since the last successful open
func (c *Client) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// Connect opens a connection and subscribes to desktopID. Connecting to the
// same desktop while connecting or connected does nothing.
func (c *Client) Connect(desktopID string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if desktopID == c.desktopID && (c.status == StatusConnecting || c.status == StatusConnected) {
		c.mu.Unlock()
		return nil
	}

	stale := c.teardownLocked()
	c.desktopID = desktopID
	c.intentional = false
	c.dialLocked()
	c.mu.Unlock()

	closeQuietly(stale)
	return nil
}

// Disconnect closes the connection and cancels any pending reconnect
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.intentional = true
	stale := c.teardownLocked()
	c.setStatusLocked(StatusDisconnected)
	c.mu.Unlock()

	closeQuietly(stale)
}

// Ping sends a keep-alive. It does nothing unless connected.
func (c *Client) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != StatusConnected || c.conn == nil {
		return nil
	}
	if err := c.sendLocked(protocol.Ping{}); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close disconnects and stops event delivery. Queued events are still
// delivered. Close is idempotent.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.intentional = true
	stale := c.teardownLocked()
	c.setStatusLocked(StatusDisconnected)
	c.closed = true
	c.mu.Unlock()

	closeQuietly(stale)
	c.bus.stop()
}

// dialLocked starts a new connection generation
func (c *Client) dialLocked() {
	c.gen++
	gen := c.gen

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelDial = cancel
	c.setStatusLocked(StatusConnecting)

	go c.dial(ctx, gen)
}

func (c *Client) dial(ctx context.Context, gen uint64) {
	conn, err := c.dialer.Dial(ctx, c.url)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		closeQuietly(conn)
		return
	}
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}

	if err != nil {
		c.emitErrorLocked(fmt.Errorf("dial %s: %w", c.url, err))
		c.scheduleReconnectLocked()
		c.mu.Unlock()
		return
	}

	c.conn = conn
	c.attempts = 0
	c.setStatusLocked(StatusConnected)

	// Subscribe goes out under the lock so no ping can overtake it
	if err := c.sendLocked(protocol.Subscribe{DesktopID: c.desktopID}); err != nil {
		c.emitErrorLocked(fmt.Errorf("subscribe: %w", err))
		c.conn = nil
		c.scheduleReconnectLocked()
		c.mu.Unlock()
		closeQuietly(conn)
		return
	}
	c.log.Info("subscribed", zap.String("desktop_id", c.desktopID), zap.String("url", c.url))
	c.mu.Unlock()

	go c.readLoop(conn, gen)
}

func (c *Client) readLoop(conn Conn, gen uint64) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			c.handleReadError(gen, err)
			return
		}
		if !c.handleFrame(gen, data) {
			return
		}
	}
}

// handleFrame decodes and publishes one frame, then waits until listeners
// have seen it. It returns false when the connection is stale.
func (c *Client) handleFrame(gen uint64, data []byte) bool {
	msg := protocol.Decode(data)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return false
	}
	c.observer.OnFrame(protocol.Kind(data), msg != nil)
	if msg == nil {
		c.mu.Unlock()
		c.log.Debug("dropped frame", zap.Int("bytes", len(data)))
		return true
	}
	done := make(chan struct{})
	published := c.bus.publish(event{msg: msg, done: done})
	c.mu.Unlock()

	if published {
		select {
		case <-done:
		case <-c.bus.done:
		}
	}
	return true
}

func (c *Client) handleReadError(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}

	if !closedCleanly(err) {
		c.emitErrorLocked(fmt.Errorf("read: %w", err))
	}
	stale := c.conn
	c.conn = nil
	c.log.Info("connection closed", zap.Error(err))
	c.scheduleReconnectLocked()
	c.mu.Unlock()

	closeQuietly(stale)
}

func (c *Client) scheduleReconnectLocked() {
	if c.intentional || c.closed {
		return
	}

	delay := Backoff(c.attempts, c.base, c.max)
	c.attempts++
	attempt := c.attempts
	c.setStatusLocked(StatusReconnecting)

	gen := c.gen
	c.timer = c.clock.AfterFunc(delay, func() { c.reconnect(gen) })
	c.observer.OnReconnectScheduled(attempt, delay)
	c.log.Info("reconnect scheduled",
		zap.Int("attempt", attempt),
		zap.Duration("delay", delay),
	)
}

func (c *Client) reconnect(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.intentional || c.status != StatusReconnecting {
		return
	}
	c.timer = nil
	c.dialLocked()
}

// teardownLocked detaches the current connection, timer and dial. The
// returned conn must be closed after the lock is released.
func (c *Client) teardownLocked() Conn {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
	conn := c.conn
	c.conn = nil
	return conn
}

func (c *Client) sendLocked(msg protocol.ClientMessage) error {
	frame, err := protocol.EncodeClient(msg)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(frame)
}

func (c *Client) setStatusLocked(status Status) {
	if c.status == status {
		return
	}
	prev := c.status
	c.status = status
	c.observer.OnStatus(status)
	c.log.Info("status changed",
		zap.Stringer("from", prev),
		zap.Stringer("to", status),
	)
	c.bus.publish(event{status: &status})
}

func (c *Client) emitErrorLocked(err error) {
	c.log.Warn("transport error", zap.Error(err))
	c.bus.publish(event{err: err})
}

func closeQuietly(conn Conn) {
	if conn != nil {
		_ = conn.Close()
	}
}
