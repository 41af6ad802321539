package store

import (
	"github.com/roach88/jobstate/internal/action"
	"github.com/roach88/jobstate/internal/reducer"
)

// Status is the tagged outcome of a Dispatch.
type Status int

const (
	// StatusOK means the action was applied.
	StatusOK Status = iota
	// StatusVetoed means a middleware stopped the action. Nothing changed.
	StatusVetoed
	// StatusNotFound means the action referenced a missing job, material or
	// upload. Only ui.lastUpdated changed.
	StatusNotFound
	// StatusIgnored means the reducer does not handle the action type.
	StatusIgnored
	// StatusInvalid means the payload had the wrong type for the action.
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusVetoed:
		return "vetoed"
	case StatusNotFound:
		return "not_found"
	case StatusIgnored:
		return "ignored"
	case StatusInvalid:
		return "invalid"
	}
	return "unknown"
}

// Result reports what a Dispatch did.
type Result struct {
	Status Status
	// Action is the action as the reducer saw it, after middleware.
	Action action.Action
	// Err is the veto for StatusVetoed. For any other status it is a
	// persistence failure; the in-memory change was kept.
	Err error
}

// OK reports whether the action was applied and persisted.
func (r Result) OK() bool {
	return r.Status == StatusOK && r.Err == nil
}

func statusOf(o reducer.Outcome) Status {
	switch o {
	case reducer.Applied:
		return StatusOK
	case reducer.NotFound:
		return StatusNotFound
	case reducer.Ignored:
		return StatusIgnored
	default:
		return StatusInvalid
	}
}
