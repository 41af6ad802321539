package store

import (
	"sync"

	"github.com/roach88/jobstate/internal/action"
	"github.com/roach88/jobstate/internal/state"
)

// Listener is called after every committed dispatch with the new state and
// the action that produced it.
type Listener func(s state.State, a action.Action)

type subscription struct {
	id uint64
	fn Listener
}

// subscribers is an ordered listener set. Listeners are called in
// subscription order.
type subscribers struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscription
}

func (r *subscribers) add(fn Listener) func() {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.subs = append(r.subs, subscription{id: id, fn: fn})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(id) })
	}
}

func (r *subscribers) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.subs {
		if s.id == id {
			r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
			return
		}
	}
}

func (r *subscribers) snapshot() []Listener {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Listener, len(r.subs))
	for i, s := range r.subs {
		out[i] = s.fn
	}
	return out
}

func (r *subscribers) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// notify calls every listener registered at the time of the call. A listener
// that unsubscribes another during notification does not stop that other
// listener from receiving the current notification.
func (r *subscribers) notify(s state.State, a action.Action) {
	for _, fn := range r.snapshot() {
		fn(s, a)
	}
}
