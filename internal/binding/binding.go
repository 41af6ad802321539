// Package binding adapts store notifications to derived values, the way a
// view layer consumes them: subscribe to a slice of state and react only
// when that slice changes.
package binding

import (
	"reflect"
	"sync"

	"github.com/roach88/jobstate/internal/action"
	"github.com/roach88/jobstate/internal/state"
	"github.com/roach88/jobstate/internal/store"
)

// Source is the read and subscribe surface of a store.
type Source interface {
	GetState() state.State
	Subscribe(fn store.Listener) (unsubscribe func())
}

var _ Source = (*store.Store)(nil)

// Selector derives a value from state.
type Selector[T any] func(state.State) T

// EqualFunc reports whether two derived values are the same.
type EqualFunc[T any] func(a, b T) bool

// DeepEqual is the default EqualFunc.
func DeepEqual[T any](a, b T) bool {
	return reflect.DeepEqual(a, b)
}

// Watch calls onChange with the new derived value whenever a notification
// changes it according to equal (DeepEqual when nil). The value at the time
// of the call is the baseline and is not reported.
//
// The returned function unsubscribes; calling it more than once is a no-op.
func Watch[T any](src Source, sel Selector[T], equal EqualFunc[T], onChange func(T)) (stop func()) {
	_, stop = watch(src, sel, equal, onChange)
	return stop
}

// watch subscribes before reading the baseline, so no commit can fall
// between the two. Notifications wait on mu until the baseline is set.
func watch[T any](src Source, sel Selector[T], equal EqualFunc[T], onChange func(T)) (T, func()) {
	if equal == nil {
		equal = DeepEqual[T]
	}
	var mu sync.Mutex
	var last T

	mu.Lock()
	stop := src.Subscribe(func(s state.State, _ action.Action) {
		next := sel(s)
		mu.Lock()
		changed := !equal(last, next)
		if changed {
			last = next
		}
		mu.Unlock()
		if changed {
			onChange(next)
		}
	})
	last = sel(src.GetState())
	baseline := last
	mu.Unlock()
	return baseline, stop
}

// Binding holds the latest derived value of a slice of state.
//
// Thread-safety: Get and Close are safe for concurrent use.
type Binding[T any] struct {
	mu      sync.RWMutex
	value   T
	version uint64
	stop    func()
}

// Bind starts tracking sel on src.
func Bind[T any](src Source, sel Selector[T], equal EqualFunc[T]) *Binding[T] {
	b := &Binding[T]{}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.value, b.stop = watch(src, sel, equal, func(v T) {
		b.mu.Lock()
		b.value = v
		b.version++
		b.mu.Unlock()
	})
	return b
}

// Get returns the latest value.
func (b *Binding[T]) Get() T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.value
}

// Version counts the changes observed since Bind.
func (b *Binding[T]) Version() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// Close stops tracking. The last value stays readable.
func (b *Binding[T]) Close() {
	b.stop()
}
