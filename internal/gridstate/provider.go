// Package gridstate extracts and applies the structural state of a grid:
// column order, widths and sort, the filter model, row grouping, column-group
// open state and pivot mode.
//
// Both directions are defensive. A capability the handle does not declare is
// skipped, and a panic raised by a half-initialized handle is recovered, so a
// failure in one sub-state never blocks the others.
package gridstate

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/gridprefs/internal/canon"
	"github.com/roach88/gridprefs/internal/grid"
)

// Sub-state names.
const (
	ColumnState      = "columnState"
	FilterModel      = "filterModel"
	RowGroupColumns  = "rowGroupColumns"
	ColumnGroupState = "columnGroupState"
	PivotMode        = "pivotMode"
)

// Outcome of applying one sub-state.
type Outcome string

const (
	// Applied means the sub-state differed and was written.
	Applied Outcome = "applied"
	// Unchanged means the grid already held the value; nothing was written.
	Unchanged Outcome = "unchanged"
	// Absent means the snapshot did not capture the sub-state.
	Absent Outcome = "absent"
	// Missing means the handle does not offer the capability.
	Missing Outcome = "missing"
	// Failed means the write returned an error or panicked.
	Failed Outcome = "failed"
)

// Result is the outcome of one sub-state.
type Result struct {
	SubState string
	Outcome  Outcome
	Err      error
}

// Report lists the outcome of every sub-state in apply order.
type Report struct {
	Results []Result
}

// Writes returns how many sub-states were written.
func (r Report) Writes() int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == Applied {
			n++
		}
	}
	return n
}

// Failures returns the failed sub-states.
func (r Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Outcome == Failed {
			out = append(out, res)
		}
	}
	return out
}

// Outcome returns the outcome recorded for subState.
func (r Report) Outcome(subState string) Outcome {
	for _, res := range r.Results {
		if res.SubState == subState {
			return res.Outcome
		}
	}
	return ""
}

// Provider reads and writes structural state.
type Provider struct {
	logger *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = l
	}
}

// New creates a Provider.
func New(opts ...Option) *Provider {
	p := &Provider{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Extract returns a best-effort snapshot. Sub-states whose capability is
// missing or whose read panics are left nil.
func (p *Provider) Extract(h grid.Handle) grid.StateSnapshot {
	var snap grid.StateSnapshot
	if h == nil {
		return snap
	}
	s := h.Surface()

	if s.ColumnState != nil {
		p.read(ColumnState, func() { snap.ColumnState = s.ColumnState.ColumnState() })
	}
	if s.Filter != nil {
		p.read(FilterModel, func() {
			snap.FilterModel = s.Filter.FilterModel()
			if snap.FilterModel == nil {
				snap.FilterModel = map[string]any{}
			}
		})
	}
	if s.RowGroups != nil {
		p.read(RowGroupColumns, func() {
			snap.RowGroupColumns = s.RowGroups.RowGroupColumns()
			if snap.RowGroupColumns == nil {
				snap.RowGroupColumns = []string{}
			}
		})
	}
	if s.ColumnGroups != nil {
		p.read(ColumnGroupState, func() { snap.ColumnGroupState = s.ColumnGroups.ColumnGroupState() })
	}
	if s.Pivot != nil {
		p.read(PivotMode, func() { snap.PivotMode = grid.Bool(s.Pivot.PivotMode()) })
	}
	return snap.Clone()
}

func (p *Provider) read(subState string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Debug("grid state read panicked", "step", subState, "error", fmt.Sprint(r))
		}
	}()
	fn()
}

// Apply writes every captured sub-state independently, skipping those the
// grid already holds. Column order is applied explicitly.
func (p *Provider) Apply(h grid.Handle, snap grid.StateSnapshot) Report {
	var rep Report
	if h == nil {
		return rep
	}
	s := h.Surface()

	rep.Results = append(rep.Results, p.apply(ColumnState, snap.ColumnState != nil, s.ColumnState != nil,
		func() (bool, error) {
			if columnStateMatches(s.ColumnState.ColumnState(), snap.ColumnState) {
				return false, nil
			}
			return true, s.ColumnState.ApplyColumnState(snap.ColumnState, true)
		}))

	rep.Results = append(rep.Results, p.apply(FilterModel, snap.FilterModel != nil, s.Filter != nil,
		func() (bool, error) {
			if canon.Equal(nonNilMap(s.Filter.FilterModel()), nonNilMap(snap.FilterModel)) {
				return false, nil
			}
			return true, s.Filter.SetFilterModel(snap.FilterModel)
		}))

	rep.Results = append(rep.Results, p.apply(RowGroupColumns, snap.RowGroupColumns != nil, s.RowGroups != nil,
		func() (bool, error) {
			if slices.Equal(s.RowGroups.RowGroupColumns(), snap.RowGroupColumns) {
				return false, nil
			}
			return true, s.RowGroups.SetRowGroupColumns(snap.RowGroupColumns)
		}))

	rep.Results = append(rep.Results, p.apply(ColumnGroupState, snap.ColumnGroupState != nil, s.ColumnGroups != nil,
		func() (bool, error) {
			if groupStateMatches(s.ColumnGroups.ColumnGroupState(), snap.ColumnGroupState) {
				return false, nil
			}
			return true, s.ColumnGroups.SetColumnGroupState(snap.ColumnGroupState)
		}))

	rep.Results = append(rep.Results, p.apply(PivotMode, snap.PivotMode != nil, s.Pivot != nil,
		func() (bool, error) {
			if s.Pivot.PivotMode() == *snap.PivotMode {
				return false, nil
			}
			return true, s.Pivot.SetPivotMode(*snap.PivotMode)
		}))

	return rep
}

// apply runs one sub-state. fn reports whether it attempted a write.
func (p *Provider) apply(subState string, captured, capable bool, fn func() (bool, error)) (res Result) {
	res.SubState = subState
	switch {
	case !captured:
		res.Outcome = Absent
		return res
	case !capable:
		p.logger.Debug("grid capability missing", "step", subState)
		res.Outcome = Missing
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			res.Outcome = Failed
			res.Err = fmt.Errorf("%s: panic: %v", subState, r)
			p.logger.Warn("grid state write failed", "step", subState, "error", res.Err)
		}
	}()

	wrote, err := fn()
	switch {
	case err != nil:
		res.Outcome = Failed
		res.Err = fmt.Errorf("%s: %w", subState, err)
		p.logger.Warn("grid state write failed", "step", subState, "error", err)
	case wrote:
		res.Outcome = Applied
	default:
		res.Outcome = Unchanged
	}
	return res
}

// columnStateMatches compares the grid's column state projected onto the
// columns the snapshot lists, including their relative order.
func columnStateMatches(current, want []grid.ColumnState) bool {
	byID := make(map[string]int, len(current))
	for i, cs := range current {
		byID[cs.ColID] = i
	}

	last := -1
	for _, w := range want {
		idx, ok := byID[w.ColID]
		if !ok {
			continue
		}
		if idx < last {
			return false
		}
		last = idx
		if !canon.Equal(current[idx], w) {
			return false
		}
	}
	return true
}

func groupStateMatches(current, want []grid.ColumnGroupState) bool {
	open := make(map[string]bool, len(current))
	for _, g := range current {
		open[g.GroupID] = g.Open
	}
	for _, w := range want {
		cur, ok := open[w.GroupID]
		if !ok || cur != w.Open {
			return false
		}
	}
	return true
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
