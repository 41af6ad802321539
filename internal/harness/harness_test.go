package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Scenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(strings.TrimSuffix(filepath.Base(path), ".yaml"), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "scenario failed:\n%s", strings.Join(result.Errors, "\n"))
		})
	}
}

func TestRun_Golden(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/job_lifecycle.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass)
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/materials_and_uploads.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.State, second.State)
}

func TestRun_StatusMismatchFails(t *testing.T) {
	scenario := mustParse(t, `
name: mismatch
description: expects ok from a miss
flow:
  - dispatch: jobs/delete
    payload: ghost
assertions:
  - type: trace_count
    action: jobs/delete
    count: 1
`)
	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected status ok, got not_found")
}

func TestRun_OpErrorMismatchFails(t *testing.T) {
	scenario := mustParse(t, `
name: op_mismatch
description: expects a corrupt record where there is none
flow:
  - op: reload
    expect: { error: CORRUPT }
assertions:
  - type: final_state
    table: jobs
    rows: 0
`)
	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected error CORRUPT, got none")
}

func TestRun_SetupMustApply(t *testing.T) {
	scenario := mustParse(t, `
name: bad_setup
description: setup that is vetoed
setup:
  - type: jobs/add
    payload: { id: j1, title: "" }
flow:
  - dispatch: ui/setLoading
    payload: false
assertions:
  - type: final_state
    table: jobs
    rows: 0
`)
	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup step 0")
	assert.Contains(t, err.Error(), "vetoed")
}

func TestRun_UnparseablePayloadIsAnError(t *testing.T) {
	scenario := mustParse(t, `
name: bad_payload
description: misspelled payload field
flow:
  - dispatch: jobs/update
    payload: { id: j1, updatez: {} }
assertions:
  - type: final_state
    table: jobs
    rows: 0
`)
	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flow step 0")
}

func TestRun_CustomKey(t *testing.T) {
	scenario := mustParse(t, `
name: custom_key
description: seed under a non-default key
key: other-key
seed:
  version: "1.0.0"
  state:
    jobs: [ { id: j9, title: Seeded } ]
flow:
  - op: reload
assertions:
  - type: final_state
    table: jobs
    where: { id: j9 }
    expect: { title: Seeded }
`)
	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
}

func mustParse(t *testing.T, src string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(src))
	require.NoError(t, err)
	return s
}
