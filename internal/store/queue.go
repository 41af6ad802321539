package store

import (
	"sync"

	"github.com/roach88/jobstate/internal/action"
)

// actionQueue is an unbounded FIFO of posted actions.
//
// Post may be called from any goroutine, including a subscriber running
// inside a notification. Run is the only consumer.
//
// The signal channel (buffered, size 1) lets Run wait with select on both
// new work and context cancellation.
type actionQueue struct {
	mu      sync.Mutex
	actions []action.Action
	closed  bool
	signal  chan struct{}
}

func newActionQueue() *actionQueue {
	return &actionQueue{
		actions: make([]action.Action, 0, 16),
		signal:  make(chan struct{}, 1),
	}
}

// enqueue appends a. Returns false if the queue is closed.
func (q *actionQueue) enqueue(a action.Action) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.actions = append(q.actions, a)

	// Non-blocking; the size-1 buffer coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// tryDequeue removes the front action without blocking.
func (q *actionQueue) tryDequeue() (action.Action, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.actions) == 0 {
		return action.Action{}, false
	}
	a := q.actions[0]
	// Release the payload for GC; the backing array outlives the slot.
	q.actions[0] = action.Action{}
	if len(q.actions) == 1 {
		q.actions = q.actions[:0]
	} else {
		q.actions = q.actions[1:]
	}
	return a, true
}

// wait returns a channel that fires when actions may be available.
// It is closed by close, which wakes Run.
func (q *actionQueue) wait() <-chan struct{} {
	return q.signal
}

func (q *actionQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}

func (q *actionQueue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// close stops further enqueues. Already queued actions can still be drained.
func (q *actionQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
