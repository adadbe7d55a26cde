package grid

// ColumnState is the structural state of one column.
type ColumnState struct {
	ColID         string `json:"colId" yaml:"colId"`
	Width         int    `json:"width,omitempty" yaml:"width,omitempty"`
	Hide          bool   `json:"hide,omitempty" yaml:"hide,omitempty"`
	Pinned        string `json:"pinned,omitempty" yaml:"pinned,omitempty"`
	Sort          string `json:"sort,omitempty" yaml:"sort,omitempty"`
	SortIndex     *int   `json:"sortIndex,omitempty" yaml:"sortIndex,omitempty"`
	AggFunc       string `json:"aggFunc,omitempty" yaml:"aggFunc,omitempty"`
	RowGroup      bool   `json:"rowGroup,omitempty" yaml:"rowGroup,omitempty"`
	RowGroupIndex *int   `json:"rowGroupIndex,omitempty" yaml:"rowGroupIndex,omitempty"`
	Pivot         bool   `json:"pivot,omitempty" yaml:"pivot,omitempty"`
}

// ColumnGroupState is the open/closed state of a column group.
type ColumnGroupState struct {
	GroupID string `json:"groupId" yaml:"groupId"`
	Open    bool   `json:"open" yaml:"open"`
}

// StateSnapshot is the structural grid state persisted in a profile.
//
// Every field is optional: nil means "not captured" and is skipped on apply,
// which lets a partially-initialized handle produce a best-effort snapshot.
type StateSnapshot struct {
	ColumnState      []ColumnState      `json:"columnState,omitempty"`
	FilterModel      map[string]any     `json:"filterModel,omitempty"`
	RowGroupColumns  []string           `json:"rowGroupColumns,omitempty"`
	ColumnGroupState []ColumnGroupState `json:"columnGroupState,omitempty"`
	PivotMode        *bool              `json:"pivotMode,omitempty"`
}

// IsEmpty reports whether the snapshot captures nothing.
func (s StateSnapshot) IsEmpty() bool {
	return s.ColumnState == nil && s.FilterModel == nil && s.RowGroupColumns == nil &&
		s.ColumnGroupState == nil && s.PivotMode == nil
}

// Clone returns a copy that shares no slices or maps with s.
func (s StateSnapshot) Clone() StateSnapshot {
	out := StateSnapshot{}
	if s.ColumnState != nil {
		out.ColumnState = make([]ColumnState, len(s.ColumnState))
		for i, cs := range s.ColumnState {
			out.ColumnState[i] = cs
			out.ColumnState[i].SortIndex = cloneInt(cs.SortIndex)
			out.ColumnState[i].RowGroupIndex = cloneInt(cs.RowGroupIndex)
		}
	}
	if s.FilterModel != nil {
		out.FilterModel = make(map[string]any, len(s.FilterModel))
		for k, v := range s.FilterModel {
			out.FilterModel[k] = v
		}
	}
	if s.RowGroupColumns != nil {
		out.RowGroupColumns = append([]string{}, s.RowGroupColumns...)
	}
	if s.ColumnGroupState != nil {
		out.ColumnGroupState = append([]ColumnGroupState{}, s.ColumnGroupState...)
	}
	if s.PivotMode != nil {
		on := *s.PivotMode
		out.PivotMode = &on
	}
	return out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Bool returns a pointer to b, for building snapshots.
func Bool(b bool) *bool {
	return &b
}

// Int returns a pointer to n, for building column state.
func Int(n int) *int {
	return &n
}
