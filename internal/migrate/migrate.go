// Package migrate moves raw persisted state between schema versions.
//
// A Registry holds Migrations, each an exact From -> To pair with a pure
// transform over the decoded JSON object. Migrate hops from the stored
// version toward the target, always taking the first registered migration
// whose From equals the current version:
//
//	0.8.0 --(0.8.0->0.9.0)--> 0.9.0 --(0.9.0->1.0.0)--> 1.0.0
//
// When no migration matches the current version before the target is
// reached, the state is accepted as-is under the target tag and the Result
// reports a Gap. Revisiting a version is a cycle and fails.
package migrate

import (
	"errors"
	"fmt"
	"slices"
)

// ErrCycle is returned when a migration chain revisits a version.
var ErrCycle = errors.New("migration cycle")

// Transform rewrites a raw state. It receives a private deep copy and may
// modify it in place.
type Transform func(raw map[string]any) (map[string]any, error)

// Migration is one registered schema step.
type Migration struct {
	From      string
	To        string
	Transform Transform
}

func (m Migration) String() string { return m.From + "->" + m.To }

// Result describes one Migrate call.
type Result struct {
	State   map[string]any
	Version string
	// Applied lists the steps taken, in order ("0.9.0->1.0.0").
	Applied []string
	// Gap is set when the chain stopped short of the target and the state
	// was relabeled without a transform.
	Gap bool
}

// Migrated reports whether the state differs in version from the input.
func (r Result) Migrated() bool { return len(r.Applied) > 0 || r.Gap }

// Registry is an ordered set of migrations. The zero value is empty and ready.
//
// Thread-safety: Register is not safe to call concurrently with Migrate.
// Registries are built once at startup.
type Registry struct {
	migrations []Migration
}

// NewRegistry creates a registry holding ms in order.
func NewRegistry(ms ...Migration) (*Registry, error) {
	r := &Registry{}
	for _, m := range ms {
		if err := r.Register(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends m.
func (r *Registry) Register(m Migration) error {
	switch {
	case m.From == "" || m.To == "":
		return fmt.Errorf("register migration %q: empty version", m)
	case m.From == m.To:
		return fmt.Errorf("register migration %q: from equals to", m)
	case m.Transform == nil:
		return fmt.Errorf("register migration %q: nil transform", m)
	}
	r.migrations = append(r.migrations, m)
	return nil
}

// Migrations returns a copy of the registered migrations.
func (r *Registry) Migrations() []Migration {
	return slices.Clone(r.migrations)
}

func (r *Registry) next(from string) (Migration, bool) {
	for _, m := range r.migrations {
		if m.From == from {
			return m, true
		}
	}
	return Migration{}, false
}

// Migrate moves raw from version from to version target. raw is never
// modified. The returned state always carries "version": target.
func (r *Registry) Migrate(raw map[string]any, from, target string) (Result, error) {
	state := deepCopyMap(raw)
	if state == nil {
		state = map[string]any{}
	}
	res := Result{Version: target}

	visited := map[string]bool{}
	cur := from
	for cur != target {
		if visited[cur] {
			return Result{}, fmt.Errorf("%w: %s revisited after %v", ErrCycle, cur, res.Applied)
		}
		visited[cur] = true

		m, ok := r.next(cur)
		if !ok {
			res.Gap = true
			break
		}
		out, err := m.Transform(state)
		if err != nil {
			return Result{}, fmt.Errorf("migration %s: %w", m, err)
		}
		if out == nil {
			return Result{}, fmt.Errorf("migration %s: transform returned nil state", m)
		}
		state = out
		res.Applied = append(res.Applied, m.String())
		cur = m.To
	}

	state["version"] = target
	res.State = state
	return res, nil
}

func deepCopyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}
		return out
	default:
		return v
	}
}
