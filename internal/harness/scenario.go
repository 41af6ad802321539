package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted run of the store: an optional saved record, setup
// actions, a flow of checked steps and assertions over the result.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Key overrides the storage key. Defaults to store.DefaultKey.
	Key string `yaml:"key,omitempty"`

	// MaxAge overrides the staleness limit, e.g. "720h" or "-1s" to disable.
	MaxAge string `yaml:"max_age,omitempty"`

	// Seed is written to storage before the store is initialized.
	Seed *Seed `yaml:"seed,omitempty"`

	// Setup actions are dispatched after load and must be applied.
	Setup []ActionStep `yaml:"setup,omitempty"`

	// Flow is the main sequence of dispatches and store operations.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// Seed is a raw saved record. State is written verbatim, so it may use
// shapes from older schema versions.
type Seed struct {
	Version string         `yaml:"version"`
	State   map[string]any `yaml:"state"`
	// Age is how old the record is when the store loads it.
	Age string `yaml:"age,omitempty"`
}

// ActionStep is an action type plus its payload. The payload is converted
// to JSON and decoded with action.Parse.
type ActionStep struct {
	Type    string `yaml:"type"`
	Payload any    `yaml:"payload"`
}

// FlowStep is exactly one of a dispatch, a store operation or a clock move.
type FlowStep struct {
	// Dispatch is the action type to dispatch.
	Dispatch string `yaml:"dispatch,omitempty"`

	// Payload for Dispatch.
	Payload any `yaml:"payload,omitempty"`

	// Op is a store operation: reload, clear or export_import.
	Op string `yaml:"op,omitempty"`

	// Advance moves the clock by a duration, e.g. "744h".
	Advance string `yaml:"advance,omitempty"`

	// Expect checks the outcome of Dispatch or Op.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause is the expected outcome of a flow step.
type ExpectClause struct {
	// Status is a dispatch status name: ok, vetoed, not_found, ignored, invalid.
	Status string `yaml:"status,omitempty"`

	// Error, for ops, is the expected store error code (e.g. CORRUPT), or
	// "none".
	Error string `yaml:"error,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type is trace_contains, trace_order, trace_count or final_state.
	Type string `yaml:"type"`

	// Action is the action type (trace_contains, trace_count).
	Action string `yaml:"action,omitempty"`

	// Kind restricts trace matching to "dispatch" or "notify" events.
	// Defaults to "dispatch".
	Kind string `yaml:"kind,omitempty"`

	// Status optionally narrows trace_contains to one outcome.
	Status string `yaml:"status,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Actions is the expected order (trace_order).
	Actions []string `yaml:"actions,omitempty"`

	// Table is the state table (final_state).
	Table string `yaml:"table,omitempty"`

	// Where selects the row (final_state). All fields must match.
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected field values (final_state). Subset match.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Rows, when set, is the expected number of rows matching Where.
	Rows *int `yaml:"rows,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// Store operations available to flow steps.
const (
	OpReload       = "reload"
	OpClear        = "clear"
	OpExportImport = "export_import"
)

// Tables available to final_state assertions.
var stateTables = map[string]bool{
	"jobs": true, "materials": true, "uploads": true, "ui": true, "current": true, "state": true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict: catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if s.MaxAge != "" {
		if _, err := time.ParseDuration(s.MaxAge); err != nil {
			return fmt.Errorf("max_age: %w", err)
		}
	}

	if s.Seed != nil {
		if s.Seed.State == nil {
			return fmt.Errorf("seed: state is required")
		}
		if s.Seed.Age != "" {
			if _, err := time.ParseDuration(s.Seed.Age); err != nil {
				return fmt.Errorf("seed.age: %w", err)
			}
		}
	}

	for i, step := range s.Setup {
		if step.Type == "" {
			return fmt.Errorf("setup[%d]: type is required", i)
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, step FlowStep) error {
	set := 0
	for _, v := range []string{step.Dispatch, step.Op, step.Advance} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("flow[%d]: exactly one of dispatch, op or advance is required", i)
	}

	switch {
	case step.Op != "":
		switch step.Op {
		case OpReload, OpClear, OpExportImport:
		default:
			return fmt.Errorf("flow[%d]: unknown op %q", i, step.Op)
		}
		if step.Expect != nil && step.Expect.Status != "" {
			return fmt.Errorf("flow[%d].expect: status applies to dispatch steps only", i)
		}
	case step.Advance != "":
		if _, err := time.ParseDuration(step.Advance); err != nil {
			return fmt.Errorf("flow[%d]: advance: %w", i, err)
		}
		if step.Expect != nil {
			return fmt.Errorf("flow[%d]: advance steps take no expect", i)
		}
	default:
		if step.Expect != nil && step.Expect.Error != "" {
			return fmt.Errorf("flow[%d].expect: error applies to op steps only", i)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Kind != "" && a.Kind != KindDispatch && a.Kind != KindNotify {
		return fmt.Errorf("assertions[%d]: kind must be %q or %q", index, KindDispatch, KindNotify)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if !stateTables[a.Table] {
			return fmt.Errorf("assertions[%d]: unknown table %q for final_state", index, a.Table)
		}
		if len(a.Expect) == 0 && a.Rows == nil {
			return fmt.Errorf("assertions[%d]: expect or rows is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
