// Package memgrid is an in-memory grid component that records every native
// write. It backs tests, the scenario harness and the CLI simulator.
//
// Capabilities can be withheld (Without) or made to panic (WithPanicOn) to
// imitate a handle that is still initializing, option writes can be made to
// fail, and render frames can be queued for manual flushing.
package memgrid

import (
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/gridprefs/internal/grid"
)

// Write kinds recorded by Grid.
const (
	KindOption        = "option"
	KindColumnDefs    = "columnDefs"
	KindColumnState   = "columnState"
	KindFilterModel   = "filterModel"
	KindRowGroups     = "rowGroupColumns"
	KindColumnGroups  = "columnGroupState"
	KindPivot         = "pivotMode"
	KindRefreshHeader = "refreshHeader"
	KindRefreshCells  = "refreshCells"
)

// Write is one recorded native mutation.
type Write struct {
	Seq  int
	Kind string
	Key  string
}

// String renders the write as "kind" or "kind:key".
func (w Write) String() string {
	if w.Key == "" {
		return w.Kind
	}
	return w.Kind + ":" + w.Key
}

// IsRefresh reports whether the write is a header or cell refresh.
func (w Write) IsRefresh() bool {
	return w.Kind == KindRefreshHeader || w.Kind == KindRefreshCells
}

// Grid is a recording grid component. Safe for concurrent use.
type Grid struct {
	mu sync.Mutex

	options   grid.OptionBag
	defs      []grid.ColumnDef
	state     []grid.ColumnState
	filter    map[string]any
	rowGroups []string
	groups    []grid.ColumnGroupState
	pivot     bool

	withheld  map[grid.Capability]bool
	panicking map[grid.Capability]bool
	failing   map[string]error

	manualFrames bool
	frames       []func()

	seq    int
	writes []Write
}

// Option configures a Grid.
type Option func(*Grid)

// WithColumns seeds column definitions and one column state entry per column.
func WithColumns(defs ...grid.ColumnDef) Option {
	return func(g *Grid) {
		g.defs = hydrated(defs)
		g.state = make([]grid.ColumnState, len(defs))
		for i, d := range defs {
			g.state[i] = grid.ColumnState{ColID: d.ColID, Width: d.Width}
		}
	}
}

// WithOptions seeds grid options.
func WithOptions(bag grid.OptionBag) Option {
	return func(g *Grid) {
		for k, v := range bag {
			g.options[k] = v
		}
	}
}

// WithColumnGroups seeds column-group state.
func WithColumnGroups(state ...grid.ColumnGroupState) Option {
	return func(g *Grid) {
		g.groups = slices.Clone(state)
	}
}

// Without withholds capabilities from the surface.
func Without(caps ...grid.Capability) Option {
	return func(g *Grid) {
		for _, c := range caps {
			g.withheld[c] = true
		}
	}
}

// WithPanicOn makes every call through the given capabilities panic.
func WithPanicOn(caps ...grid.Capability) Option {
	return func(g *Grid) {
		for _, c := range caps {
			g.panicking[c] = true
		}
	}
}

// WithFailingOption makes SetOption(key) return err.
func WithFailingOption(key string, err error) Option {
	return func(g *Grid) {
		g.failing[key] = err
	}
}

// WithManualFrames queues ScheduleNextFrame callbacks until FlushFrames.
func WithManualFrames() Option {
	return func(g *Grid) {
		g.manualFrames = true
	}
}

// New creates a Grid.
func New(opts ...Option) *Grid {
	g := &Grid{
		options:   grid.OptionBag{},
		withheld:  map[grid.Capability]bool{},
		panicking: map[grid.Capability]bool{},
		failing:   map[string]error{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Surface implements grid.Handle.
func (g *Grid) Surface() grid.Surface {
	g.mu.Lock()
	defer g.mu.Unlock()

	var s grid.Surface
	if !g.withheld[grid.CapOptions] {
		s.Options = g
	}
	if !g.withheld[grid.CapColumnDefs] {
		s.ColumnDefs = g
	}
	if !g.withheld[grid.CapColumnState] {
		s.ColumnState = g
	}
	if !g.withheld[grid.CapFilter] {
		s.Filter = g
	}
	if !g.withheld[grid.CapRowGroups] {
		s.RowGroups = g
	}
	if !g.withheld[grid.CapColumnGroups] {
		s.ColumnGroups = g
	}
	if !g.withheld[grid.CapPivot] {
		s.Pivot = g
	}
	if !g.withheld[grid.CapRefresh] {
		s.Refresh = g
	}
	if !g.withheld[grid.CapFrames] {
		s.Frames = g
	}
	return s
}

// SetCapability withholds or restores a capability at runtime.
func (g *Grid) SetCapability(c grid.Capability, available bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if available {
		delete(g.withheld, c)
	} else {
		g.withheld[c] = true
	}
}

// checkPanic must be called with g.mu held; it releases the lock before panicking.
func (g *Grid) checkPanic(c grid.Capability) {
	if g.panicking[c] {
		g.mu.Unlock()
		panic(fmt.Sprintf("memgrid: %s not ready", c))
	}
}

func (g *Grid) record(kind, key string) {
	g.seq++
	g.writes = append(g.writes, Write{Seq: g.seq, Kind: kind, Key: key})
}

// GetOption implements grid.OptionAccessor.
func (g *Grid) GetOption(key string) (any, bool) {
	g.mu.Lock()
	g.checkPanic(grid.CapOptions)
	defer g.mu.Unlock()
	v, ok := g.options[key]
	return v, ok
}

// SetOption implements grid.OptionAccessor.
func (g *Grid) SetOption(key string, value any) error {
	g.mu.Lock()
	g.checkPanic(grid.CapOptions)
	defer g.mu.Unlock()
	if err, ok := g.failing[key]; ok {
		return err
	}
	g.options[key] = value
	g.record(KindOption, key)
	return nil
}

// ColumnDefs implements grid.ColumnDefAccessor.
func (g *Grid) ColumnDefs() []grid.ColumnDef {
	g.mu.Lock()
	g.checkPanic(grid.CapColumnDefs)
	defer g.mu.Unlock()
	return grid.CloneColumnDefs(g.defs)
}

// SetColumnDefs implements grid.ColumnDefAccessor.
func (g *Grid) SetColumnDefs(defs []grid.ColumnDef) error {
	g.mu.Lock()
	g.checkPanic(grid.CapColumnDefs)
	defer g.mu.Unlock()
	g.defs = hydrated(defs)
	g.record(KindColumnDefs, "")
	return nil
}

// ColumnState implements grid.ColumnStateAccessor.
func (g *Grid) ColumnState() []grid.ColumnState {
	g.mu.Lock()
	g.checkPanic(grid.CapColumnState)
	defer g.mu.Unlock()
	return grid.StateSnapshot{ColumnState: g.state}.Clone().ColumnState
}

// ApplyColumnState implements grid.ColumnStateAccessor. Entries for unknown
// columns are ignored. With applyOrder, listed columns move to the front in
// the given order and the rest keep their relative order.
func (g *Grid) ApplyColumnState(state []grid.ColumnState, applyOrder bool) error {
	g.mu.Lock()
	g.checkPanic(grid.CapColumnState)
	defer g.mu.Unlock()

	byID := make(map[string]grid.ColumnState, len(state))
	for _, cs := range state {
		byID[cs.ColID] = cs
	}
	for i, cur := range g.state {
		if next, ok := byID[cur.ColID]; ok {
			g.state[i] = next
		}
	}

	if applyOrder {
		ordered := make([]grid.ColumnState, 0, len(g.state))
		placed := map[string]bool{}
		for _, cs := range state {
			idx := slices.IndexFunc(g.state, func(c grid.ColumnState) bool { return c.ColID == cs.ColID })
			if idx < 0 || placed[cs.ColID] {
				continue
			}
			ordered = append(ordered, g.state[idx])
			placed[cs.ColID] = true
		}
		for _, cs := range g.state {
			if !placed[cs.ColID] {
				ordered = append(ordered, cs)
			}
		}
		g.state = ordered
	}

	g.record(KindColumnState, "")
	return nil
}

// FilterModel implements grid.FilterModelAccessor.
func (g *Grid) FilterModel() map[string]any {
	g.mu.Lock()
	g.checkPanic(grid.CapFilter)
	defer g.mu.Unlock()
	return grid.StateSnapshot{FilterModel: g.filter}.Clone().FilterModel
}

// SetFilterModel implements grid.FilterModelAccessor.
func (g *Grid) SetFilterModel(model map[string]any) error {
	g.mu.Lock()
	g.checkPanic(grid.CapFilter)
	defer g.mu.Unlock()
	g.filter = grid.StateSnapshot{FilterModel: model}.Clone().FilterModel
	g.record(KindFilterModel, "")
	return nil
}

// RowGroupColumns implements grid.RowGroupAccessor.
func (g *Grid) RowGroupColumns() []string {
	g.mu.Lock()
	g.checkPanic(grid.CapRowGroups)
	defer g.mu.Unlock()
	return slices.Clone(g.rowGroups)
}

// SetRowGroupColumns implements grid.RowGroupAccessor.
func (g *Grid) SetRowGroupColumns(colIDs []string) error {
	g.mu.Lock()
	g.checkPanic(grid.CapRowGroups)
	defer g.mu.Unlock()
	g.rowGroups = slices.Clone(colIDs)
	g.record(KindRowGroups, "")
	return nil
}

// ColumnGroupState implements grid.ColumnGroupAccessor.
func (g *Grid) ColumnGroupState() []grid.ColumnGroupState {
	g.mu.Lock()
	g.checkPanic(grid.CapColumnGroups)
	defer g.mu.Unlock()
	return slices.Clone(g.groups)
}

// SetColumnGroupState implements grid.ColumnGroupAccessor. Entries are merged
// by group id; unknown groups are added.
func (g *Grid) SetColumnGroupState(state []grid.ColumnGroupState) error {
	g.mu.Lock()
	g.checkPanic(grid.CapColumnGroups)
	defer g.mu.Unlock()
	for _, next := range state {
		idx := slices.IndexFunc(g.groups, func(c grid.ColumnGroupState) bool { return c.GroupID == next.GroupID })
		if idx < 0 {
			g.groups = append(g.groups, next)
			continue
		}
		g.groups[idx] = next
	}
	g.record(KindColumnGroups, "")
	return nil
}

// PivotMode implements grid.PivotAccessor.
func (g *Grid) PivotMode() bool {
	g.mu.Lock()
	g.checkPanic(grid.CapPivot)
	defer g.mu.Unlock()
	return g.pivot
}

// SetPivotMode implements grid.PivotAccessor.
func (g *Grid) SetPivotMode(on bool) error {
	g.mu.Lock()
	g.checkPanic(grid.CapPivot)
	defer g.mu.Unlock()
	g.pivot = on
	g.record(KindPivot, "")
	return nil
}

// RefreshHeader implements grid.Refresher.
func (g *Grid) RefreshHeader() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record(KindRefreshHeader, "")
}

// RefreshCells implements grid.Refresher.
func (g *Grid) RefreshCells(force bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record(KindRefreshCells, "")
}

// ScheduleNextFrame implements grid.FrameScheduler. Without manual frames the
// callback runs immediately on the caller's goroutine.
func (g *Grid) ScheduleNextFrame(fn func()) {
	g.mu.Lock()
	if g.manualFrames {
		g.frames = append(g.frames, fn)
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()
	fn()
}

// PendingFrames returns the number of queued frame callbacks.
func (g *Grid) PendingFrames() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.frames)
}

// FlushFrames runs every queued frame callback and returns how many ran.
func (g *Grid) FlushFrames() int {
	g.mu.Lock()
	frames := g.frames
	g.frames = nil
	g.mu.Unlock()

	for _, fn := range frames {
		fn()
	}
	return len(frames)
}

// Writes returns a copy of the recorded writes.
func (g *Grid) Writes() []Write {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.writes)
}

// DataWrites returns recorded writes excluding refreshes.
func (g *Grid) DataWrites() []Write {
	var out []Write
	for _, w := range g.Writes() {
		if !w.IsRefresh() {
			out = append(out, w)
		}
	}
	return out
}

// Refreshes returns how many header and cell refreshes were recorded.
func (g *Grid) Refreshes() (header, cells int) {
	for _, w := range g.Writes() {
		switch w.Kind {
		case KindRefreshHeader:
			header++
		case KindRefreshCells:
			cells++
		}
	}
	return header, cells
}

// ResetWrites clears the write log.
func (g *Grid) ResetWrites() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writes = nil
}

// Option returns the current value of a grid option without recording.
func (g *Grid) Option(key string) (any, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.options[key]
	return v, ok
}

// Options returns a copy of every grid option without recording.
func (g *Grid) Options() grid.OptionBag {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(grid.OptionBag, len(g.options))
	for k, v := range g.options {
		out[k] = v
	}
	return out
}

// Resolve returns the effective rendering of every column. samples maps a
// column id to the value used for the formatted preview.
func (g *Grid) Resolve(samples map[string]any) []grid.ResolvedColumn {
	g.mu.Lock()
	defer g.mu.Unlock()

	def, _ := grid.AsDefaultColumnDef(g.options[grid.OptionDefaultColDef])
	out := make([]grid.ResolvedColumn, len(g.defs))
	for i, col := range g.defs {
		out[i] = grid.Resolve(def, col, samples[col.ColID])
	}
	return out
}

// ResolveColumn returns the effective rendering of one column.
func (g *Grid) ResolveColumn(colID string, sample any) (grid.ResolvedColumn, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx := grid.FindColumn(g.defs, colID)
	if idx < 0 {
		return grid.ResolvedColumn{}, false
	}
	def, _ := grid.AsDefaultColumnDef(g.options[grid.OptionDefaultColDef])
	return grid.Resolve(def, g.defs[idx], sample), true
}

func hydrated(defs []grid.ColumnDef) []grid.ColumnDef {
	out := grid.CloneColumnDefs(defs)
	for i := range out {
		out[i].Hydrate()
	}
	return out
}
