// Package reducer computes the next state from the current state and an action.
//
// Reduce is pure and total:
//   - It never mutates its inputs. Every touched branch (the job, its material
//     list, its upload list, the jobs slice itself) is rebuilt as a new value,
//     so identity comparisons in bindings detect exactly what changed.
//   - It never panics or returns an error. Unknown types and references to
//     missing parents are no-ops reported through Outcome.
//   - Every call stamps ui.lastUpdated, including no-ops.
//   - After every call CurrentJob is either nil or a copy of the jobs entry
//     with the same id.
package reducer

import (
	"github.com/roach88/jobstate/internal/action"
	"github.com/roach88/jobstate/internal/clock"
	"github.com/roach88/jobstate/internal/state"
)

// Outcome tells the caller what a reduce did.
type Outcome int

const (
	// Applied means the action was understood and applied.
	Applied Outcome = iota
	// NotFound means the action referenced a job, material or upload that does not exist.
	NotFound
	// Ignored means the action type is not handled by the reducer.
	Ignored
	// Invalid means the payload had the wrong Go type for the action type.
	Invalid
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case NotFound:
		return "not_found"
	case Ignored:
		return "ignored"
	case Invalid:
		return "invalid"
	}
	return "unknown"
}

// Reducer applies actions to state using an injected clock.
type Reducer struct {
	clock clock.Clock
}

// New creates a Reducer. A nil clock defaults to clock.System.
func New(clk clock.Clock) *Reducer {
	if clk == nil {
		clk = clock.System{}
	}
	return &Reducer{clock: clk}
}

// Reduce returns the next state for a applied to s.
func (r *Reducer) Reduce(s state.State, a action.Action) (state.State, Outcome) {
	now := r.clock.Now()
	t := transition{prev: s, next: s, now: now}

	outcome := t.apply(a)

	t.next.UI.LastUpdated = now
	t.refreshCurrent()
	return t.next, outcome
}
