// Package harness runs YAML scenarios against a settings controller bound to
// an in-memory grid.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario checks"
//	grid:
//	  columns:
//	    - { colId: price, cellDataType: number }
//	  options: { rowHeight: 25 }
//	  without: [frames]
//	steps:
//	  - op: apply_profile
//	    profile: { toolbar: { fontSize: 14 } }
//	  - op: update_grid_options
//	    values: { rowHeight: 30 }
//	  - op: advance
//	    duration: 200ms
//	  - op: edit_column
//	    column: price
//	    action: { type: set_formatter, formatter: { type: currency, decimals: 2 } }
//	    expect: { error: E230 }
//	assertions:
//	  - type: write_count
//	    count: 4
//	  - type: write_order
//	    writes: ["option:rowHeight", "columnDefs"]
//	  - type: notification_count
//	    category: toolbar
//	    count: 1
//	  - type: json_path
//	    path: columns.#(colId=="price").style.textAlign
//	    equals: right
//	  - type: report
//	    step: 0
//	    path: writes
//	    equals: 3
//
// # Step Operations
//
//   - apply_profile: runs the full pipeline with an inline profile or a file
//   - update_toolbar, update_grid_options: debounced edits
//   - advance: moves the manual scheduler forward
//   - flush: commits pending debounced edits
//   - edit_column, reset_column: column editor operations
//   - reset_defaults: restores defaults in the store and on the grid
//   - collect: captures the current profile for json_path assertions
//
// # Deterministic Runs
//
// Every scenario gets a fresh store, grid and controller. Run ids are
// sequential, timestamps are fixed and debounce timers only fire on advance,
// so traces are stable enough for golden comparison.
package harness
