package harness

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %s\n", i+1, event.Kind, event.Action, event.Status)
		}
	}
	return buf.String()
}

func kindOf(a Assertion) string {
	if a.Kind == "" {
		return KindDispatch
	}
	return a.Kind
}

// assertTraceContains checks that an event of the assertion's kind and
// action occurred, with the given status when one is set.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	kind := kindOf(assertion)
	for _, event := range trace {
		if event.Kind != kind || event.Action != assertion.Action {
			continue
		}
		if assertion.Status == "" || event.Status == assertion.Status {
			return nil
		}
	}

	expected := fmt.Sprintf("%s of %s", kind, assertion.Action)
	if assertion.Status != "" {
		expected += " with status " + assertion.Status
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if actions appear in the specified order.
// Actions don't need to be consecutive (intervening actions are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	kind := kindOf(assertion)

	// First position of each expected action, 1-indexed
	positions := make(map[string]int)
	for i, event := range trace {
		if event.Kind != kind {
			continue
		}
		if slices.Contains(assertion.Actions, event.Action) && positions[event.Action] == 0 {
			positions[event.Action] = i + 1
		}
	}

	for _, a := range assertion.Actions {
		if positions[a] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all actions present: %v", assertion.Actions),
				Actual:   fmt.Sprintf("missing action: %s", a),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Actions); i++ {
		prev := assertion.Actions[i-1]
		curr := assertion.Actions[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("actions in order: %v", assertion.Actions),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks if the action appears exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	kind := kindOf(assertion)
	count := 0
	for _, event := range trace {
		if event.Kind == kind && event.Action == assertion.Action {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Action),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// tableRows flattens the final state into the rows of one table.
func tableRows(st map[string]any, table string) []map[string]any {
	jobs := asRows(st["jobs"])
	switch table {
	case "jobs":
		return jobs
	case "materials":
		return childRows(jobs, "jobMaterials")
	case "uploads":
		// Uploads carry no back-reference; expose the owner for where clauses.
		var rows []map[string]any
		for _, j := range jobs {
			for _, u := range asRows(j["uploads"]) {
				u["jobId"] = j["id"]
				rows = append(rows, u)
			}
		}
		return rows
	case "ui":
		if ui, ok := st["ui"].(map[string]any); ok {
			return []map[string]any{ui}
		}
	case "current":
		if cj, ok := st["currentJob"].(map[string]any); ok {
			return []map[string]any{cj}
		}
	case "state":
		return []map[string]any{st}
	}
	return nil
}

func asRows(v any) []map[string]any {
	list, _ := v.([]any)
	rows := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			rows = append(rows, maps.Clone(m))
		}
	}
	return rows
}

func childRows(parents []map[string]any, field string) []map[string]any {
	var rows []map[string]any
	for _, p := range parents {
		rows = append(rows, asRows(p[field])...)
	}
	return rows
}

// assertFinalState checks that exactly one row of the table matches Where
// and carries the Expect fields. With Rows set it checks the match count,
// and Expect may be empty.
func assertFinalState(st map[string]any, assertion Assertion) error {
	var matched []map[string]any
	for _, row := range tableRows(st, assertion.Table) {
		if matchFields(row, assertion.Where) {
			matched = append(matched, row)
		}
	}
	whereDesc := formatWhereClause(assertion.Where)

	if assertion.Rows != nil {
		if len(matched) != *assertion.Rows {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%d rows in %s where %s", *assertion.Rows, assertion.Table, whereDesc),
				Actual:   fmt.Sprintf("%d rows", len(matched)),
			}
		}
		if len(assertion.Expect) == 0 {
			return nil
		}
	}

	switch len(matched) {
	case 0:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, whereDesc),
			Actual:   "row not found",
		}
	case 1:
	default:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, whereDesc),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	row := matched[0]
	for _, key := range sortedKeys(assertion.Expect) {
		expectedValue := assertion.Expect[key]
		actualValue, exists := row[key]
		if !exists && expectedValue != nil {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in row: %v", key, sortedKeys(row)),
			}
		}
		if !valuesEqual(actualValue, expectedValue) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v", key, expectedValue),
				Actual:   fmt.Sprintf("field %q = %v", key, actualValue),
			}
		}
	}
	return nil
}

// matchFields reports whether actual contains every expected field (subset match).
func matchFields(actual, expected map[string]any) bool {
	for key, expectedVal := range expected {
		if !valuesEqual(actual[key], expectedVal) {
			return false
		}
	}
	return true
}

// valuesEqual compares a JSON-decoded actual value with a YAML-decoded
// expected value. Expected values are normalized through JSON first so
// YAML ints compare equal to JSON float64s.
func valuesEqual(actual, expected any) bool {
	norm, err := normalize(expected)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(actual, norm)
}

func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	err = json.Unmarshal(data, &out)
	return out, err
}

// formatWhereClause creates a human-readable description of WHERE conditions.
func formatWhereClause(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}
	parts := make([]string, 0, len(where))
	for _, k := range sortedKeys(where) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			if result.State == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires a final state", i)
			} else {
				err = assertFinalState(result.State, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}
