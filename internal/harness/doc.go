// Package harness runs YAML action scenarios against a real store.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	seed:                           # optional saved record present before load
//	  version: "0.9.0"
//	  state: { jobs: [], materials: [] }
//	setup:                          # dispatched after load; must apply
//	  - type: jobs/add
//	    payload: { id: j1, title: SRE }
//	flow:
//	  - dispatch: jobs/update
//	    payload: { id: j1, updates: { title: Staff SRE } }
//	    expect: { status: ok }
//	  - op: reload                  # reload | clear | export_import
//	  - advance: 720h               # move the clock
//	assertions:
//	  - type: trace_contains
//	    action: jobs/update
//	    status: ok
//	  - type: final_state
//	    table: jobs
//	    where: { id: j1 }
//	    expect: { title: Staff SRE }
//
// # Assertion Types
//
//   - trace_contains: an event with the action (and status, when given) occurred
//   - trace_order: actions occurred in the given order
//   - trace_count: an action occurred exactly N times
//   - final_state: one row of a state table matches the expected fields
//
// final_state tables are jobs, materials, uploads, ui and current. Materials
// and uploads are flattened across jobs; ui, current and state hold one row.
//
// # Deterministic Testing
//
// Every scenario runs on in-memory storage with testutil.DeterministicClock
// and sequential ids, so traces and final state are identical across runs
// and can be compared against golden files.
package harness
