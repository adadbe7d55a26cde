package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, doc string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(doc))
	require.NoError(t, err)
	return s
}

func TestRunWithGolden_ProfileApply(t *testing.T) {
	s, err := LoadScenario("testdata/profile_apply.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
}

func TestRunWithGolden_ColumnEditing(t *testing.T) {
	s, err := LoadScenario("testdata/column_editing.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
}

func TestRun_ProfileFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p.toml"), []byte(`
[toolbar]
fontSize = 15

[custom.gridOptions]
rowHeight = 33
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s.yaml"), []byte(`
name: from_file
description: "Profiles can come from files next to the scenario"
grid:
  columns: [{ colId: a }]
steps:
  - op: apply_profile
    profile_file: p.toml
    expect: { writes: 1 }
assertions:
  - type: json_path
    path: options.rowHeight
    equals: 33
  - type: json_path
    path: store.toolbar.fontSize
    equals: 15
`), 0o644))

	s, err := LoadScenario(filepath.Join(dir, "s.yaml"))
	require.NoError(t, err)
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
}

func TestRun_MissingProfileFileIsHarnessError(t *testing.T) {
	s := mustParse(t, `
name: missing_file
description: d
steps:
  - op: apply_profile
    profile_file: does-not-exist.json
`)
	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 0 (apply_profile)")
}

func TestRun_ResetDefaults(t *testing.T) {
	s := mustParse(t, `
name: reset
description: "Reset writes the default grid options and notifies every category"
grid:
  columns: [{ colId: price, cellDataType: number }]
steps:
  - op: apply_profile
    profile:
      toolbar: { density: compact }
      custom: { gridOptions: { rowHeight: 40 } }
  - op: reset_defaults
assertions:
  - type: json_path
    path: options.rowHeight
    equals: 28
  - type: json_path
    path: options.headerHeight
    equals: 32
  - type: json_path
    path: store.toolbar.density
    equals: normal
  - type: notification_count
    category: theme
    count: 1
  - type: report
    step: 1
    path: runId
    equals: run-2
  - type: write_order
    writes: ["option:rowHeight", "refreshCells", "option:rowHeight"]
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
	assert.Equal(t, "run-2", result.Trace[1].RunID)
}

func TestRun_UnboundRecordsStoreOnly(t *testing.T) {
	s := mustParse(t, `
name: unbound
description: "Without a grid the store still takes the profile"
grid:
  unbound: true
steps:
  - op: apply_profile
    profile: { toolbar: { fontSize: 18 } }
    expect: { writes: 0 }
  - op: edit_column
    column: price
    action: { type: reset }
    expect: { error: NOT_BOUND }
assertions:
  - type: write_count
    count: 0
  - type: json_path
    path: store.toolbar.fontSize
    equals: 18
  - type: report
    step: 0
    path: bound
    equals: false
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
}

func TestRun_FailingOptionContinues(t *testing.T) {
	s := mustParse(t, `
name: failing
description: "A rejected option write is reported and the rest still apply"
grid:
  columns: [{ colId: a }]
  failing_options: [rowHeight]
steps:
  - op: apply_profile
    profile:
      custom: { gridOptions: { rowHeight: 40, headerHeight: 50 } }
    expect: { error: NATIVE_WRITE_FAILED, writes: 1 }
assertions:
  - type: json_path
    path: options.headerHeight
    equals: 50
  - type: json_path
    path: options.rowHeight
    absent: true
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
	assert.Equal(t, []string{"NATIVE_WRITE_FAILED"}, result.Trace[0].Errors)
}

func TestRun_MissingCapabilities(t *testing.T) {
	s := mustParse(t, `
name: missing_caps
description: "Withheld capabilities are skipped and reported"
grid:
  columns: [{ colId: a }]
  without: [pivotMode, refresh]
steps:
  - op: apply_profile
    profile:
      grid: { pivotMode: true }
      custom: { gridOptions: { rowHeight: 40 } }
assertions:
  - type: report
    step: 0
    path: missing
    equals: [pivotMode, refresh]
  - type: write_count
    kind: refreshHeader
    count: 0
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
}

func TestRun_FailedAssertionsAreReported(t *testing.T) {
	s := mustParse(t, `
name: failures
description: "Assertion failures do not abort the run"
grid:
  columns: [{ colId: a }]
steps:
  - op: update_toolbar
    values: { fontSize: 20 }
    expect: { writes: 3 }
  - op: flush
assertions:
  - type: write_count
    count: 2
  - type: write_order
    writes: [columnDefs]
  - type: notification_count
    category: toolbar
    count: 5
  - type: json_path
    path: store.toolbar.fontSize
    equals: 21
  - type: json_path
    path: nowhere
    equals: 1
  - type: report
    step: 0
    path: writes
    equals: 0
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 7)
	assert.Contains(t, result.Errors[0], "expected 3 writes, got 0")
	assert.Contains(t, result.Errors[1], "Assertion failed: write_count")
	assert.Contains(t, result.Errors[2], "columnDefs not found")
	assert.Contains(t, result.Errors[3], "1 notifications")
	assert.Contains(t, result.Errors[4], "store.toolbar.fontSize = 21")
	assert.Contains(t, result.Errors[5], "path not found")
	assert.Contains(t, result.Errors[6], "step produced no report")
}

func TestRun_DebounceKeepsLastValue(t *testing.T) {
	s := mustParse(t, `
name: debounce
description: "Only the last edit inside the window is committed"
grid:
  columns: [{ colId: a }]
steps:
  - op: update_grid_options
    values: { rowHeight: 30 }
  - op: advance
    duration: 100ms
  - op: update_grid_options
    values: { rowHeight: 35 }
  - op: advance
    duration: 100ms
    expect: { writes: 0 }
  - op: advance
    duration: 100ms
    expect: { writes: 1 }
assertions:
  - type: notification_count
    category: gridOptions
    count: 1
  - type: json_path
    path: options.rowHeight
    equals: 35
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
}

func TestTraceSnapshot_Marshal(t *testing.T) {
	data, err := TraceSnapshot{
		Scenario: "x",
		Trace:    []TraceEvent{{Step: 0, Op: OpFlush, Writes: []string{}}},
	}.Marshal()
	require.NoError(t, err)
	assert.Equal(t, `{
  "scenario": "x",
  "trace": [
    {
      "op": "flush",
      "step": 0,
      "writes": []
    }
  ]
}
`, string(data))
}

func TestRunFiles(t *testing.T) {
	files, err := FindScenarios("testdata")
	require.NoError(t, err)
	outcomes := RunFiles(files)
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.True(t, o.Passed(), "%s: %v", o.Path, o.Err)
	}
}
