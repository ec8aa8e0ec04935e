package transport

import (
	"slices"
	"sync"

	"github.com/GriffinCanCode/AgentOS/deskview/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/protocol"
	"go.uber.org/zap"
)

// MessageListener receives decoded server messages in arrival order
type MessageListener func(msg protocol.ServerMessage)

// StatusListener receives every status transition
type StatusListener func(status Status)

// ErrorListener receives transport-level errors
type ErrorListener func(err error)

// Subscription detaches a listener. Unsubscribe is safe to call repeatedly.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe removes the listener before the next dispatch
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

type event struct {
	msg    protocol.ServerMessage
	status *Status
	err    error
	done   chan struct{}
}

type listenerEntry[F any] struct {
	id uint64
	fn F
}

type registry[F any] struct {
	entries []listenerEntry[F]
}

func (r *registry[F]) add(id uint64, fn F) {
	r.entries = append(r.entries, listenerEntry[F]{id: id, fn: fn})
}

func (r *registry[F]) remove(id uint64) {
	r.entries = slices.DeleteFunc(r.entries, func(e listenerEntry[F]) bool { return e.id == id })
}

func (r *registry[F]) has(id uint64) bool {
	return slices.ContainsFunc(r.entries, func(e listenerEntry[F]) bool { return e.id == id })
}

func (r *registry[F]) snapshot() []listenerEntry[F] {
	return slices.Clone(r.entries)
}

// bus is an ordered event queue drained by one dispatcher goroutine
type bus struct {
	log *logging.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []event
	nextID  uint64
	stopped bool
	done    chan struct{}

	messages registry[MessageListener]
	statuses registry[StatusListener]
	errors   registry[ErrorListener]
}

func newBus(log *logging.Logger) *bus {
	b := &bus{
		log:  log,
		done: make(chan struct{}),
	}
	b.cond = sync.NewCond(&b.mu)
	go b.run()
	return b
}

func subscribe[F any](b *bus, r *registry[F], fn F) *Subscription {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	r.add(id, fn)
	b.mu.Unlock()

	return &Subscription{cancel: func() {
		b.mu.Lock()
		r.remove(id)
		b.mu.Unlock()
	}}
}

// publish queues an event. It returns false once the bus is stopped.
func (b *bus) publish(ev event) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return false
	}
	b.queue = append(b.queue, ev)
	b.cond.Signal()
	return true
}

// stop lets the dispatcher drain what is queued and exit. It does not wait,
// so a listener may stop the bus it is running on.
func (b *bus) stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	b.stopped = true
	close(b.done)
	b.cond.Broadcast()
}

func (b *bus) run() {
	for {
		b.mu.Lock()
		for len(b.queue) == 0 && !b.stopped {
			b.cond.Wait()
		}
		if len(b.queue) == 0 {
			b.mu.Unlock()
			return
		}
		ev := b.queue[0]
		b.queue[0] = event{}
		b.queue = b.queue[1:]
		b.mu.Unlock()

		b.dispatch(ev)
		if ev.done != nil {
			close(ev.done)
		}
	}
}

func (b *bus) dispatch(ev event) {
	switch {
	case ev.msg != nil:
		deliver(b, &b.messages, "message", func(fn MessageListener) { fn(ev.msg) })
	case ev.status != nil:
		deliver(b, &b.statuses, "status", func(fn StatusListener) { fn(*ev.status) })
	case ev.err != nil:
		deliver(b, &b.errors, "error", func(fn ErrorListener) { fn(ev.err) })
	}
}

// deliver re-checks each listener right before calling it so an
// unsubscribe made by an earlier listener takes effect immediately
func deliver[F any](b *bus, r *registry[F], kind string, call func(F)) {
	b.mu.Lock()
	entries := r.snapshot()
	b.mu.Unlock()

	for _, e := range entries {
		b.mu.Lock()
		active := r.has(e.id)
		b.mu.Unlock()
		if !active {
			continue
		}
		b.safely(kind, func() { call(e.fn) })
	}
}

func (b *bus) safely(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("listener panicked",
				zap.String("event", kind),
				zap.Any("panic", r),
			)
		}
	}()
	fn()
}
