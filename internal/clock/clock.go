// Package clock provides the time sources used by the store.
//
// Two kinds of time flow through a dispatch:
//   - Wall time (Clock.Now) stamps entity timestamps, ui.lastUpdated and the
//     persisted record. It is injected so tests run with fixed instants.
//   - Logical time (Sequence.Next) numbers dispatches in the order the store
//     applied them. It never goes backwards and never depends on wall time.
package clock

import (
	"sync/atomic"
	"time"
)

// Clock returns the current wall time.
type Clock interface {
	Now() time.Time
}

// System is the production Clock. Times are returned in UTC with the
// monotonic reading stripped so they survive a JSON round trip unchanged.
type System struct{}

// Now implements Clock.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Func adapts a plain function to the Clock interface.
type Func func() time.Time

// Now implements Clock.
func (f Func) Now() time.Time {
	return f()
}

// Sequence is a monotonic logical counter for dispatch ordering.
//
// Thread-safety: Sequence is safe for concurrent use (atomic operations).
type Sequence struct {
	seq atomic.Int64
}

// NewSequence creates a sequence starting at 0.
func NewSequence() *Sequence {
	return &Sequence{}
}

// NewSequenceAt creates a sequence resuming from start.
func NewSequenceAt(start int64) *Sequence {
	s := &Sequence{}
	s.seq.Store(start)
	return s
}

// Next increments the sequence and returns the new value.
func (s *Sequence) Next() int64 {
	return s.seq.Add(1)
}

// Current returns the current value without incrementing.
func (s *Sequence) Current() int64 {
	return s.seq.Load()
}
