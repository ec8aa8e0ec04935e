package transport

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"
)

const waitTimeout = 2 * time.Second

// manualClock fires timers only when advanced
type manualClock struct {
	mu        sync.Mutex
	now       time.Duration
	timers    []*manualTimer
	scheduled chan time.Duration
}

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func newManualClock() *manualClock {
	return &manualClock{scheduled: make(chan time.Duration, 64)}
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	t := &manualTimer{clock: c, at: c.now + d, fn: f}
	c.timers = append(c.timers, t)
	c.mu.Unlock()

	c.scheduled <- d
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t.fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range due {
		fn()
	}
}

func (c *manualClock) nextDelay(t *testing.T) time.Duration {
	t.Helper()
	select {
	case d := <-c.scheduled:
		return d
	case <-time.After(waitTimeout):
		t.Fatal("no reconnect scheduled")
		return 0
	}
}

func (c *manualClock) expectNothingScheduled(t *testing.T) {
	t.Helper()
	select {
	case d := <-c.scheduled:
		t.Fatalf("unexpected reconnect scheduled after %s", d)
	case <-time.After(100 * time.Millisecond):
	}
}

// scriptedDialer hands each dial to the test, which decides the outcome
type scriptedDialer struct {
	dials chan *pendingDial
}

type pendingDial struct {
	url    string
	result chan dialResult
}

type dialResult struct {
	conn Conn
	err  error
}

func newScriptedDialer() *scriptedDialer {
	return &scriptedDialer{dials: make(chan *pendingDial, 16)}
}

func (d *scriptedDialer) Dial(ctx context.Context, url string) (Conn, error) {
	p := &pendingDial{url: url, result: make(chan dialResult, 1)}
	d.dials <- p
	select {
	case r := <-p.result:
		return r.conn, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *scriptedDialer) next(t *testing.T) *pendingDial {
	t.Helper()
	select {
	case p := <-d.dials:
		return p
	case <-time.After(waitTimeout):
		t.Fatal("expected a dial")
		return nil
	}
}

func (d *scriptedDialer) expectNoDial(t *testing.T) {
	t.Helper()
	select {
	case p := <-d.dials:
		t.Fatalf("unexpected dial to %s", p.url)
	case <-time.After(100 * time.Millisecond):
	}
}

func (p *pendingDial) open(conn Conn) { p.result <- dialResult{conn: conn} }
func (p *pendingDial) fail(err error) { p.result <- dialResult{err: err} }

// memConn is an in-memory Conn
type memConn struct {
	frames    chan readResult
	closed    chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	written []string
}

type readResult struct {
	data []byte
	err  error
}

func newMemConn() *memConn {
	return &memConn{
		frames: make(chan readResult, 64),
		closed: make(chan struct{}),
	}
}

func (c *memConn) ReadMessage() ([]byte, error) {
	select {
	case r := <-c.frames:
		return r.data, r.err
	case <-c.closed:
		return nil, net.ErrClosed
	}
}

func (c *memConn) WriteMessage(data []byte) error {
	select {
	case <-c.closed:
		return net.ErrClosed
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, string(data))
	return nil
}

func (c *memConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *memConn) push(frame string) { c.frames <- readResult{data: []byte(frame)} }
func (c *memConn) drop(err error)    { c.frames <- readResult{err: err} }

func (c *memConn) Written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.written...)
}

func (c *memConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// recorder collects bus events on channels
type recorder struct {
	statuses chan Status
	errs     chan error
}

func record(c *Client) *recorder {
	r := &recorder{
		statuses: make(chan Status, 64),
		errs:     make(chan error, 64),
	}
	c.OnStatusChange(func(s Status) { r.statuses <- s })
	c.OnError(func(err error) { r.errs <- err })
	return r
}

func (r *recorder) expectStatus(t *testing.T, want Status) {
	t.Helper()
	select {
	case got := <-r.statuses:
		if got != want {
			t.Fatalf("status = %s, want %s", got, want)
		}
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for status %s", want)
	}
}

func (r *recorder) expectError(t *testing.T) error {
	t.Helper()
	select {
	case err := <-r.errs:
		return err
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for error")
		return nil
	}
}
