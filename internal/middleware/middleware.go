// Package middleware implements the ordered interceptor chain that every
// action passes through before it reaches the reducer.
//
// A middleware is a pure function of (action, state). It returns the action
// later stages should see, possibly annotated, or an error that vetoes the
// dispatch. A vetoed action never reaches the reducer, storage is not written
// and subscribers are not notified.
package middleware

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/jobstate/internal/action"
	"github.com/roach88/jobstate/internal/state"
)

// ErrVeto is matched by every veto returned from a Pipeline.
var ErrVeto = errors.New("action vetoed")

// VetoError records which middleware stopped an action and why.
type VetoError struct {
	Middleware string
	Type       action.Type
	Reason     string
	Err        error
}

func (e *VetoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s vetoed %s: %s: %v", e.Middleware, e.Type, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s vetoed %s: %s", e.Middleware, e.Type, e.Reason)
}

// Is makes errors.Is(err, ErrVeto) true for every VetoError.
func (e *VetoError) Is(target error) bool {
	return target == ErrVeto
}

func (e *VetoError) Unwrap() error {
	return e.Err
}

// Veto builds a veto error for use inside a HandlerFunc. The pipeline fills
// in the middleware name and action type.
func Veto(reason string, err error) error {
	return &VetoError{Reason: reason, Err: err}
}

// IsVeto reports whether err is a veto.
func IsVeto(err error) bool {
	return errors.Is(err, ErrVeto)
}

// HandlerFunc inspects a and returns the action to pass on, or a veto.
type HandlerFunc func(a action.Action, s state.State) (action.Action, error)

// Middleware is a named HandlerFunc.
type Middleware struct {
	Name   string
	Handle HandlerFunc
}

// Pipeline is an immutable ordered list of middlewares.
type Pipeline struct {
	stages []Middleware
}

// New creates a pipeline running stages in the given order.
// The slice is copied so later changes by the caller cannot reorder it.
func New(stages ...Middleware) *Pipeline {
	return &Pipeline{stages: slices.Clone(stages)}
}

// With returns a new pipeline with stages appended.
func (p *Pipeline) With(stages ...Middleware) *Pipeline {
	return &Pipeline{stages: append(slices.Clone(p.stages), stages...)}
}

// Names returns the stage names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, m := range p.stages {
		names[i] = m.Name
	}
	return names
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Run folds a through every stage. The first error stops the fold and is
// returned as a *VetoError; any non-veto error is treated as a veto too.
func (p *Pipeline) Run(a action.Action, s state.State) (action.Action, error) {
	for _, m := range p.stages {
		next, err := m.Handle(a, s)
		if err != nil {
			return a, asVeto(m.Name, a.Type, err)
		}
		a = next
	}
	return a, nil
}

func asVeto(name string, typ action.Type, err error) *VetoError {
	var ve *VetoError
	if errors.As(err, &ve) {
		out := *ve
		if out.Middleware == "" {
			out.Middleware = name
		}
		if out.Type == "" {
			out.Type = typ
		}
		return &out
	}
	return &VetoError{Middleware: name, Type: typ, Reason: "middleware error", Err: err}
}
