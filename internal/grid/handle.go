package grid

// OptionBag is an arbitrary key/value option set. Unknown keys are preserved
// by every merge in the engine.
type OptionBag map[string]any

// Clone returns a shallow copy of the bag. A nil bag clones to an empty bag.
func (b OptionBag) Clone() OptionBag {
	out := make(OptionBag, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// OptionAccessor reads and writes grid options by key.
type OptionAccessor interface {
	GetOption(key string) (any, bool)
	SetOption(key string, value any) error
}

// ColumnDefAccessor reads and replaces column definitions.
type ColumnDefAccessor interface {
	ColumnDefs() []ColumnDef
	SetColumnDefs(defs []ColumnDef) error
}

// ColumnStateAccessor reads and applies per-column structural state.
// When applyOrder is true the given order is applied explicitly.
type ColumnStateAccessor interface {
	ColumnState() []ColumnState
	ApplyColumnState(state []ColumnState, applyOrder bool) error
}

// FilterModelAccessor reads and replaces the filter model.
type FilterModelAccessor interface {
	FilterModel() map[string]any
	SetFilterModel(model map[string]any) error
}

// RowGroupAccessor reads and replaces row-group columns.
type RowGroupAccessor interface {
	RowGroupColumns() []string
	SetRowGroupColumns(colIDs []string) error
}

// ColumnGroupAccessor reads and applies column-group open state.
type ColumnGroupAccessor interface {
	ColumnGroupState() []ColumnGroupState
	SetColumnGroupState(state []ColumnGroupState) error
}

// PivotAccessor reads and toggles pivot mode.
type PivotAccessor interface {
	PivotMode() bool
	SetPivotMode(on bool) error
}

// Refresher redraws the header and cells.
type Refresher interface {
	RefreshHeader()
	RefreshCells(force bool)
}

// FrameScheduler runs fn on the component's next render frame.
type FrameScheduler interface {
	ScheduleNextFrame(fn func())
}

// Surface is the capability descriptor of a handle at a point in time.
// A nil field means the capability is not available.
type Surface struct {
	Options      OptionAccessor
	ColumnDefs   ColumnDefAccessor
	ColumnState  ColumnStateAccessor
	Filter       FilterModelAccessor
	RowGroups    RowGroupAccessor
	ColumnGroups ColumnGroupAccessor
	Pivot        PivotAccessor
	Refresh      Refresher
	Frames       FrameScheduler
}

// Handle is a live grid component. Surface may return a different descriptor
// on each call while the component initializes.
type Handle interface {
	Surface() Surface
}

// Capability names a single Surface field.
type Capability string

const (
	CapOptions      Capability = "options"
	CapColumnDefs   Capability = "columnDefs"
	CapColumnState  Capability = "columnState"
	CapFilter       Capability = "filterModel"
	CapRowGroups    Capability = "rowGroupColumns"
	CapColumnGroups Capability = "columnGroupState"
	CapPivot        Capability = "pivotMode"
	CapRefresh      Capability = "refresh"
	CapFrames       Capability = "frames"
)

// AllCapabilities lists every capability in declaration order.
var AllCapabilities = []Capability{
	CapOptions, CapColumnDefs, CapColumnState, CapFilter, CapRowGroups,
	CapColumnGroups, CapPivot, CapRefresh, CapFrames,
}

// Has reports whether the surface exposes c.
func (s Surface) Has(c Capability) bool {
	switch c {
	case CapOptions:
		return s.Options != nil
	case CapColumnDefs:
		return s.ColumnDefs != nil
	case CapColumnState:
		return s.ColumnState != nil
	case CapFilter:
		return s.Filter != nil
	case CapRowGroups:
		return s.RowGroups != nil
	case CapColumnGroups:
		return s.ColumnGroups != nil
	case CapPivot:
		return s.Pivot != nil
	case CapRefresh:
		return s.Refresh != nil
	case CapFrames:
		return s.Frames != nil
	default:
		return false
	}
}

// Missing returns the capabilities the surface does not expose.
func (s Surface) Missing() []Capability {
	var out []Capability
	for _, c := range AllCapabilities {
		if !s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}
