package session

import (
	"context"
	"sync"
)

type command struct {
	op       string
	windowID string
	// latestWins marks geometry intents: a newer one replaces a queued one
	// for the same window and op instead of queuing behind it
	latestWins bool
	run        func(ctx context.Context) error
}

// commandQueue is a bounded FIFO drained by one worker. A drag queues at most
// its latest position, and when the queue is full the oldest entry makes room.
type commandQueue struct {
	mu    sync.Mutex
	items []command
	limit int
	ready chan struct{}
}

func newCommandQueue(limit int) *commandQueue {
	return &commandQueue{
		limit: limit,
		ready: make(chan struct{}, 1),
	}
}

// push queues cmd and returns the entry evicted to make room, if any
func (q *commandQueue) push(cmd command) (evicted command, dropped bool) {
	q.mu.Lock()
	if !q.replaceLocked(cmd) {
		if len(q.items) >= q.limit {
			evicted, dropped = q.items[0], true
			q.items[0] = command{}
			q.items = q.items[1:]
		}
		q.items = append(q.items, cmd)
	}
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return evicted, dropped
}

// replaceLocked overwrites the window's most recent queued command when it is
// the same geometry op, so nothing for that window is reordered
func (q *commandQueue) replaceLocked(cmd command) bool {
	if !cmd.latestWins {
		return false
	}
	for i := len(q.items) - 1; i >= 0; i-- {
		if q.items[i].windowID != cmd.windowID {
			continue
		}
		if q.items[i].op != cmd.op {
			return false
		}
		q.items[i] = cmd
		return true
	}
	return false
}

func (q *commandQueue) pop() (command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return command{}, false
	}
	cmd := q.items[0]
	q.items[0] = command{}
	q.items = q.items[1:]
	return cmd, true
}

func (q *commandQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
