package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: one dispatch
flow:
  - dispatch: ui/setLoading
    payload: true
assertions:
  - type: final_state
    table: ui
    expect: { isLoading: true }
`

func TestLoadScenario_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0o600))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
	require.Len(t, s.Flow, 1)
	assert.Equal(t, "ui/setLoading", s.Flow[0].Dispatch)
	assert.Equal(t, true, s.Flow[0].Payload)
	require.Len(t, s.Assertions, 1)
	assert.Equal(t, AssertFinalState, s.Assertions[0].Type)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "missing name",
			src:  "description: d\nflow: [{dispatch: ui/setLoading, payload: true}]\nassertions: [{type: trace_count, action: x}]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			src:  "name: n\nflow: [{dispatch: ui/setLoading, payload: true}]\nassertions: [{type: trace_count, action: x}]\n",
			want: "description is required",
		},
		{
			name: "empty flow",
			src:  "name: n\ndescription: d\nflow: []\nassertions: [{type: trace_count, action: x}]\n",
			want: "flow list is required",
		},
		{
			name: "no assertions",
			src:  "name: n\ndescription: d\nflow: [{op: reload}]\n",
			want: "assertions list is required",
		},
		{
			name: "two step kinds",
			src:  "name: n\ndescription: d\nflow: [{op: reload, advance: 1h}]\nassertions: [{type: trace_count, action: x}]\n",
			want: "exactly one of dispatch, op or advance",
		},
		{
			name: "unknown op",
			src:  "name: n\ndescription: d\nflow: [{op: rewind}]\nassertions: [{type: trace_count, action: x}]\n",
			want: `unknown op "rewind"`,
		},
		{
			name: "bad advance",
			src:  "name: n\ndescription: d\nflow: [{advance: soon}]\nassertions: [{type: trace_count, action: x}]\n",
			want: "advance",
		},
		{
			name: "status on op",
			src:  "name: n\ndescription: d\nflow: [{op: reload, expect: {status: ok}}]\nassertions: [{type: trace_count, action: x}]\n",
			want: "status applies to dispatch steps only",
		},
		{
			name: "seed without state",
			src:  "name: n\ndescription: d\nseed: {version: \"1.0.0\"}\nflow: [{op: reload}]\nassertions: [{type: trace_count, action: x}]\n",
			want: "seed: state is required",
		},
		{
			name: "setup without type",
			src:  "name: n\ndescription: d\nsetup: [{payload: 1}]\nflow: [{op: reload}]\nassertions: [{type: trace_count, action: x}]\n",
			want: "setup[0]: type is required",
		},
		{
			name: "unknown assertion",
			src:  "name: n\ndescription: d\nflow: [{op: reload}]\nassertions: [{type: vibes}]\n",
			want: `unknown assertion type "vibes"`,
		},
		{
			name: "unknown table",
			src:  "name: n\ndescription: d\nflow: [{op: reload}]\nassertions: [{type: final_state, table: users, expect: {id: x}}]\n",
			want: `unknown table "users"`,
		},
		{
			name: "final_state without expect",
			src:  "name: n\ndescription: d\nflow: [{op: reload}]\nassertions: [{type: final_state, table: jobs}]\n",
			want: "expect or rows is required",
		},
		{
			name: "bad kind",
			src:  "name: n\ndescription: d\nflow: [{op: reload}]\nassertions: [{type: trace_count, action: x, kind: both}]\n",
			want: "kind must be",
		},
		{
			name: "trace_order without actions",
			src:  "name: n\ndescription: d\nflow: [{op: reload}]\nassertions: [{type: trace_order}]\n",
			want: "actions list is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
