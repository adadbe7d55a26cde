package convert

import (
	"maps"
	"slices"

	"github.com/roach88/gridprefs/internal/grid"
)

// Native filter names.
const (
	NativeTextFilter   = "agTextColumnFilter"
	NativeNumberFilter = "agNumberColumnFilter"
	NativeDateFilter   = "agDateColumnFilter"
	NativeSetFilter    = "agSetColumnFilter"
)

// Native editor names.
const (
	NativeTextEditor      = "agTextCellEditor"
	NativeLargeTextEditor = "agLargeTextCellEditor"
	NativeSelectEditor    = "agSelectCellEditor"
	NativeNumberEditor    = "agNumberCellEditor"
	NativeDateEditor      = "agDateCellEditor"
	NativeCheckboxEditor  = "agCheckboxCellEditor"
)

var nativeFilters = map[string]string{
	FilterText:   NativeTextFilter,
	FilterNumber: NativeNumberFilter,
	FilterDate:   NativeDateFilter,
	FilterSet:    NativeSetFilter,
}

var nativeEditors = map[string]string{
	EditorText:      NativeTextEditor,
	EditorLargeText: NativeLargeTextEditor,
	EditorSelect:    NativeSelectEditor,
	EditorNumber:    NativeNumberEditor,
	EditorDate:      NativeDateEditor,
	EditorCheckbox:  NativeCheckboxEditor,
}

// Parameter keys owned by the conversion, per native filter/editor.
var (
	filterParamKeys = map[string][]string{
		NativeTextFilter:   {"debounceMs", "caseSensitive", "buttons"},
		NativeNumberFilter: {"debounceMs", "includeBlanksInEquals", "buttons"},
		NativeDateFilter:   {"debounceMs", "includeBlanksInEquals", "buttons"},
		NativeSetFilter:    {"values", "buttons"},
	}
	editorParamKeys = map[string][]string{
		NativeTextEditor:      {"maxLength"},
		NativeLargeTextEditor: {"maxLength", "rows"},
		NativeSelectEditor:    {"values"},
		NativeNumberEditor:    {"min", "max", "precision"},
	}
)

// Default-column alignment keys accepted in the defaultColDef option bag.
const (
	KeyVerticalAlign   = "verticalAlign"
	KeyHorizontalAlign = "horizontalAlign"
)

// ToNative expands settings into the native column fields it owns. Identity
// fields other than ColID are left empty; Overlay combines the result with a
// full column definition.
func ToNative(colID string, s ColumnSettings) grid.ColumnDef {
	s = s.normalized()
	def := grid.ColumnDef{
		ColID:       colID,
		HeaderClass: classList(HeaderClassPrefix, s.Header),
		HeaderStyle: staticStyle(s.Header),
		CellClass:   classList(CellClassPrefix, s.Cell),
		CellStyle:   cellPolicy(s.Cell),
	}

	if !s.Formatter.IsZero() {
		spec := s.Formatter
		def.ValueFormat = &spec
	}

	if name, ok := nativeFilters[s.Filter.Type]; ok {
		def.Filter = name
		def.FilterParams = filterParams(s.Filter)
	}

	if s.Editor.Editable {
		def.Editable = grid.Bool(true)
	}
	if name, ok := nativeEditors[s.Editor.Type]; ok {
		def.CellEditor = name
		def.CellEditorParams = editorParams(s.Editor)
	}

	Hydrate(&def)
	return def
}

// cellPolicy builds the computed-style policy for a cell. Columns without an
// explicit horizontal alignment keep numeric right-alignment.
func cellPolicy(s StyleSettings) *grid.StylePolicy {
	static := staticStyle(s)
	if s.VerticalAlign == AlignDefault && s.HorizontalAlign == AlignDefault && static == nil {
		return nil
	}
	return &grid.StylePolicy{
		VerticalAlign:   explicit(s.VerticalAlign),
		HorizontalAlign: explicit(s.HorizontalAlign),
		NumericRight:    s.HorizontalAlign == AlignDefault,
		Static:          static,
	}
}

func explicit(align string) string {
	if align == AlignDefault {
		return ""
	}
	return align
}

func orDefault(align string) string {
	if align == "" {
		return AlignDefault
	}
	return align
}

func filterParams(f FilterSettings) map[string]any {
	params := map[string]any{}
	switch f.Type {
	case FilterText:
		if f.CaseSensitive {
			params["caseSensitive"] = true
		}
	case FilterNumber, FilterDate:
		if f.IncludeBlanks {
			params["includeBlanksInEquals"] = true
		}
	case FilterSet:
		if len(f.Values) > 0 {
			params["values"] = slices.Clone(f.Values)
		}
	}
	if f.Type != FilterSet && f.DebounceMs > 0 {
		params["debounceMs"] = f.DebounceMs
	}
	if len(f.Buttons) > 0 {
		params["buttons"] = slices.Clone(f.Buttons)
	}
	if len(params) == 0 {
		return nil
	}
	return params
}

func editorParams(e EditorSettings) map[string]any {
	params := map[string]any{}
	switch e.Type {
	case EditorText:
		if e.MaxLength > 0 {
			params["maxLength"] = e.MaxLength
		}
	case EditorLargeText:
		if e.MaxLength > 0 {
			params["maxLength"] = e.MaxLength
		}
		if e.Rows > 0 {
			params["rows"] = e.Rows
		}
	case EditorSelect:
		if len(e.Values) > 0 {
			params["values"] = slices.Clone(e.Values)
		}
	case EditorNumber:
		if e.Min != nil {
			params["min"] = *e.Min
		}
		if e.Max != nil {
			params["max"] = *e.Max
		}
		if e.Precision > 0 {
			params["precision"] = e.Precision
		}
	}
	if len(params) == 0 {
		return nil
	}
	return params
}

// FromNative extracts fully-defaulted settings from a native column. When
// colID is empty the column's own id is used.
func FromNative(col grid.ColumnDef, colID string) ColumnSettings {
	if colID == "" {
		colID = col.ColID
	}
	s := Default(colID)

	parseClasses(HeaderClassPrefix, col.HeaderClass, &s.Header)
	parseStaticStyle(col.HeaderStyle, &s.Header)

	parseClasses(CellClassPrefix, col.CellClass, &s.Cell)
	if p := col.CellStyle; p != nil {
		parseStaticStyle(p.Static, &s.Cell)
		if p.VerticalAlign != "" {
			s.Cell.VerticalAlign = p.VerticalAlign
		}
		if p.HorizontalAlign != "" {
			s.Cell.HorizontalAlign = p.HorizontalAlign
		}
	}
	s.Header.VerticalAlign = orDefault(s.Header.VerticalAlign)
	s.Header.HorizontalAlign = orDefault(s.Header.HorizontalAlign)
	s.Cell.VerticalAlign = orDefault(s.Cell.VerticalAlign)
	s.Cell.HorizontalAlign = orDefault(s.Cell.HorizontalAlign)

	if col.ValueFormat != nil {
		s.Formatter = *col.ValueFormat
	}

	for typ, name := range nativeFilters {
		if col.Filter == name {
			s.Filter.Type = typ
		}
	}
	fp := col.FilterParams
	switch s.Filter.Type {
	case FilterText:
		s.Filter.CaseSensitive = paramBool(fp, "caseSensitive")
	case FilterNumber, FilterDate:
		s.Filter.IncludeBlanks = paramBool(fp, "includeBlanksInEquals")
	case FilterSet:
		s.Filter.Values = paramStrings(fp, "values")
	}
	if s.Filter.Type != FilterNone {
		if s.Filter.Type != FilterSet {
			s.Filter.DebounceMs = paramInt(fp, "debounceMs")
		}
		s.Filter.Buttons = paramStrings(fp, "buttons")
	}

	s.Editor.Editable = col.Editable != nil && *col.Editable
	for typ, name := range nativeEditors {
		if col.CellEditor == name {
			s.Editor.Type = typ
		}
	}
	ep := col.CellEditorParams
	switch s.Editor.Type {
	case EditorText:
		s.Editor.MaxLength = paramInt(ep, "maxLength")
	case EditorLargeText:
		s.Editor.MaxLength = paramInt(ep, "maxLength")
		s.Editor.Rows = paramInt(ep, "rows")
	case EditorSelect:
		s.Editor.Values = paramStrings(ep, "values")
	case EditorNumber:
		s.Editor.Min = paramFloat(ep, "min")
		s.Editor.Max = paramFloat(ep, "max")
		s.Editor.Precision = paramInt(ep, "precision")
	}

	return s
}

// Hydrate regenerates the callbacks of a column loaded from persisted data.
func Hydrate(col *grid.ColumnDef) {
	col.Hydrate()
}

// Overlay applies the conversion-owned fields of override onto base.
//
// Classes, inline style properties and filter/editor parameters that the
// conversion does not own are kept from base. Identity fields of base are
// replaced only where override sets them.
func Overlay(base, override grid.ColumnDef) grid.ColumnDef {
	out := base.Clone()

	if override.Field != "" {
		out.Field = override.Field
	}
	if override.HeaderName != "" {
		out.HeaderName = override.HeaderName
	}
	if override.Type != "" {
		out.Type = override.Type
	}
	if override.CellDataType != "" {
		out.CellDataType = override.CellDataType
	}
	if override.Width != 0 {
		out.Width = override.Width
	}

	out.HeaderClass = mergeClasses(HeaderClassPrefix, override.HeaderClass, base.HeaderClass)
	out.CellClass = mergeClasses(CellClassPrefix, override.CellClass, base.CellClass)
	out.HeaderStyle = mergeStyle(base.HeaderStyle, override.HeaderStyle)
	out.CellStyle = override.CellStyle.Clone()
	if override.ValueFormat != nil {
		spec := *override.ValueFormat
		out.ValueFormat = &spec
	} else {
		out.ValueFormat = nil
	}

	out.FilterParams = mergeParams(base.Filter, base.FilterParams, override.Filter, override.FilterParams, filterParamKeys)
	out.Filter = override.Filter
	if override.Filter == "" && base.Filter != "" && !isNativeFilter(base.Filter) {
		out.Filter = base.Filter
		out.FilterParams = cloneParams(base.FilterParams)
	}

	out.CellEditorParams = mergeParams(base.CellEditor, base.CellEditorParams, override.CellEditor, override.CellEditorParams, editorParamKeys)
	out.CellEditor = override.CellEditor
	if override.CellEditor == "" && base.CellEditor != "" && !isNativeEditor(base.CellEditor) {
		out.CellEditor = base.CellEditor
		out.CellEditorParams = cloneParams(base.CellEditorParams)
	}
	// Editing belongs to the converted settings: an override without Editable
	// means "not editable" and switches off a base column's editing.
	if override.Editable != nil {
		e := *override.Editable
		out.Editable = &e
	} else if base.Editable != nil && *base.Editable {
		out.Editable = grid.Bool(false)
	}

	Hydrate(&out)
	return out
}

func isNativeFilter(name string) bool {
	_, ok := filterParamKeys[name]
	return ok
}

func isNativeEditor(name string) bool {
	for _, n := range nativeEditors {
		if n == name {
			return true
		}
	}
	return false
}

// mergeClasses returns the classes the conversion owns, in override order,
// followed by every foreign class of override and base without duplicates.
func mergeClasses(prefix string, override, base []string) []string {
	var out []string
	for _, c := range override {
		if isOwnClass(prefix, c) {
			out = append(out, c)
		}
	}
	for _, c := range slices.Concat(foreignClasses(prefix, override), foreignClasses(prefix, base)) {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

func mergeStyle(base, own map[string]string) map[string]string {
	out := foreignStyle(base)
	for k, v := range own {
		if out == nil {
			out = map[string]string{}
		}
		out[k] = v
	}
	return out
}

// mergeParams keeps base parameters the conversion does not own when the
// native filter or editor is unchanged.
func mergeParams(baseName string, base map[string]any, name string, own map[string]any, owned map[string][]string) map[string]any {
	var out map[string]any
	if baseName == name && name != "" {
		for k, v := range base {
			if slices.Contains(owned[name], k) {
				continue
			}
			if out == nil {
				out = map[string]any{}
			}
			out[k] = v
		}
	}
	for k, v := range own {
		if out == nil {
			out = map[string]any{}
		}
		out[k] = v
	}
	return out
}

func cloneParams(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

// MergeColumnDefs applies column overrides to the live column list. Only
// columns named by an override change; each is rebuilt from its baseline
// definition (or the live one when no baseline exists) so repeated applies
// converge. Overrides for columns the grid does not have are returned in
// unknown.
func MergeColumnDefs(current, baseline, overrides []grid.ColumnDef) (merged []grid.ColumnDef, unknown []string) {
	byID := make(map[string]grid.ColumnDef, len(overrides))
	for _, o := range overrides {
		byID[o.ColID] = o
	}

	merged = make([]grid.ColumnDef, len(current))
	seen := map[string]bool{}
	for i, col := range current {
		o, ok := byID[col.ColID]
		if !ok {
			merged[i] = col.Clone()
			continue
		}
		seen[col.ColID] = true
		base := col
		if idx := grid.FindColumn(baseline, col.ColID); idx >= 0 {
			base = baseline[idx]
		}
		merged[i] = Overlay(base, o)
	}

	for _, o := range overrides {
		if !seen[o.ColID] && !slices.Contains(unknown, o.ColID) {
			unknown = append(unknown, o.ColID)
		}
	}
	return merged, unknown
}

// ExpandDefaultColumn turns the declarative defaultColDef option into its
// native form. The alignment pair becomes a computed style: an explicit
// horizontal alignment is followed as given, otherwise numeric columns are
// right-aligned. Every other key passes through as a column property.
func ExpandDefaultColumn(v any) (grid.DefaultColumnDef, bool) {
	var bag grid.OptionBag
	switch t := v.(type) {
	case grid.DefaultColumnDef:
		out := t
		out.CellStyleFunc = t.CellStyle.Func()
		return out, true
	case grid.OptionBag:
		bag = t
	case map[string]any:
		bag = grid.OptionBag(t)
	case nil:
		bag = grid.OptionBag{}
	default:
		return grid.DefaultColumnDef{}, false
	}

	props := grid.OptionBag{}
	for k, val := range bag {
		if k == KeyVerticalAlign || k == KeyHorizontalAlign {
			continue
		}
		props[k] = val
	}
	vertical, _ := bag[KeyVerticalAlign].(string)
	horizontal, _ := bag[KeyHorizontalAlign].(string)

	policy := &grid.StylePolicy{
		VerticalAlign:   explicit(orDefault(vertical)),
		HorizontalAlign: explicit(orDefault(horizontal)),
	}
	policy.NumericRight = policy.HorizontalAlign == ""

	return grid.DefaultColumnDef{
		Props:         props,
		CellStyle:     policy,
		CellStyleFunc: policy.Func(),
	}, true
}

// CollapseDefaultColumn is the inverse of ExpandDefaultColumn.
func CollapseDefaultColumn(def grid.DefaultColumnDef) grid.OptionBag {
	out := def.Props.Clone()
	if p := def.CellStyle; p != nil {
		if p.VerticalAlign != "" {
			out[KeyVerticalAlign] = p.VerticalAlign
		}
		if p.HorizontalAlign != "" {
			out[KeyHorizontalAlign] = p.HorizontalAlign
		}
	}
	return out
}

func paramBool(p map[string]any, key string) bool {
	b, _ := p[key].(bool)
	return b
}

func paramInt(p map[string]any, key string) int {
	switch n := p[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func paramFloat(p map[string]any, key string) *float64 {
	switch n := p[key].(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	default:
		return nil
	}
}

func paramStrings(p map[string]any, key string) []string {
	out := []string{}
	switch vs := p[key].(type) {
	case []string:
		out = append(out, vs...)
	case []any:
		for _, v := range vs {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}
