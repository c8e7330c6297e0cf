package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
steps:
  - op: create_list
    title: Work
  - op: set_todo
    list: Work
    todo: Email
    completed: false
assertions:
  - type: list_count
    count: 1
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	require.Len(t, scenario.Steps, 2)
	assert.Equal(t, OpCreateList, scenario.Steps[0].Op)
	assert.Equal(t, "Work", scenario.Steps[0].Title)
	require.NotNil(t, scenario.Steps[1].Completed)
	assert.False(t, *scenario.Steps[1].Completed)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, 1, *scenario.Assertions[0].Count)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: unknown key
steps:
  - op: create_list
    title: Work
assertion:
  - type: list_count
    count: 1
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\nsteps:\n  - op: create_list\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\nsteps:\n  - op: create_list\n",
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			yaml:    "name: n\ndescription: d\n",
			wantErr: "steps list is required",
		},
		{
			name:    "missing op",
			yaml:    "name: n\ndescription: d\nsteps:\n  - title: Work\n",
			wantErr: "steps[0]: op is required",
		},
		{
			name:    "unknown op",
			yaml:    "name: n\ndescription: d\nsteps:\n  - op: rename\n",
			wantErr: `steps[0]: unknown op "rename"`,
		},
		{
			name:    "create_todo without list",
			yaml:    "name: n\ndescription: d\nsteps:\n  - op: create_todo\n    title: Email\n",
			wantErr: "steps[0]: list is required for create_todo",
		},
		{
			name:    "set_todo without completed",
			yaml:    "name: n\ndescription: d\nsteps:\n  - op: set_todo\n    list: Work\n    todo: Email\n",
			wantErr: "steps[0]: completed is required for set_todo",
		},
		{
			name:    "unknown reject",
			yaml:    "name: n\ndescription: d\nsteps:\n  - op: create_list\n    reject: profanity\n",
			wantErr: `steps[0]: unknown reject reason "profanity"`,
		},
		{
			name:    "reject on op without validation",
			yaml:    "name: n\ndescription: d\nsteps:\n  - op: delete_list\n    list: Work\n    reject: length\n",
			wantErr: "steps[0]: delete_list does not validate",
		},
		{
			name:    "remaining without count",
			yaml:    "name: n\ndescription: d\nsteps:\n  - op: create_list\nassertions:\n  - type: remaining\n    list: Work\n",
			wantErr: "assertions[0]: list and count are required for remaining",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: n\ndescription: d\nsteps:\n  - op: create_list\nassertions:\n  - type: trace_contains\n",
			wantErr: `assertions[0]: unknown assertion type "trace_contains"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_Testdata(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		_, err := LoadScenario(f)
		assert.NoError(t, err, f)
	}
}
