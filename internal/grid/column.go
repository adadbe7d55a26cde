package grid

import (
	"slices"

	"github.com/roach88/gridprefs/internal/format"
)

// Vertical alignments.
const (
	VAlignTop    = "top"
	VAlignMiddle = "middle"
	VAlignBottom = "bottom"
)

// Horizontal alignments.
const (
	HAlignLeft   = "left"
	HAlignCenter = "center"
	HAlignRight  = "right"
)

// Column data types that count as numeric.
const (
	DataTypeNumber    = "number"
	TypeNumericColumn = "numericColumn"
)

// OptionDefaultColDef is the grid option holding the default column shape.
const OptionDefaultColDef = "defaultColDef"

// ColumnDef is the native configuration of one column.
//
// CellStyleFunc and ValueFormatter are derived from CellStyle and ValueFormat
// by Hydrate and are never serialized.
type ColumnDef struct {
	ColID            string            `json:"colId" yaml:"colId"`
	Field            string            `json:"field,omitempty" yaml:"field,omitempty"`
	HeaderName       string            `json:"headerName,omitempty" yaml:"headerName,omitempty"`
	Type             string            `json:"type,omitempty" yaml:"type,omitempty"`
	CellDataType     string            `json:"cellDataType,omitempty" yaml:"cellDataType,omitempty"`
	Width            int               `json:"width,omitempty" yaml:"width,omitempty"`
	CellClass        []string          `json:"cellClass,omitempty" yaml:"cellClass,omitempty"`
	HeaderClass      []string          `json:"headerClass,omitempty" yaml:"headerClass,omitempty"`
	CellStyle        *StylePolicy      `json:"cellStyle,omitempty" yaml:"cellStyle,omitempty"`
	HeaderStyle      map[string]string `json:"headerStyle,omitempty" yaml:"headerStyle,omitempty"`
	ValueFormat      *format.Spec      `json:"valueFormat,omitempty" yaml:"valueFormat,omitempty"`
	Filter           string            `json:"filter,omitempty" yaml:"filter,omitempty"`
	FilterParams     map[string]any    `json:"filterParams,omitempty" yaml:"filterParams,omitempty"`
	Editable         *bool             `json:"editable,omitempty" yaml:"editable,omitempty"`
	CellEditor       string            `json:"cellEditor,omitempty" yaml:"cellEditor,omitempty"`
	CellEditorParams map[string]any    `json:"cellEditorParams,omitempty" yaml:"cellEditorParams,omitempty"`

	CellStyleFunc  StyleFunc   `json:"-" yaml:"-"`
	ValueFormatter format.Func `json:"-" yaml:"-"`
}

// IsNumeric reports whether the column holds numbers.
func (c ColumnDef) IsNumeric() bool {
	return c.CellDataType == DataTypeNumber || c.Type == TypeNumericColumn
}

// Hydrate regenerates the function-valued fields from their policies.
func (c *ColumnDef) Hydrate() {
	c.CellStyleFunc = c.CellStyle.Func()
	c.ValueFormatter = nil
	if c.ValueFormat != nil {
		c.ValueFormatter = format.Build(*c.ValueFormat)
	}
}

// Clone returns a deep copy of c. Callbacks are shared.
func (c ColumnDef) Clone() ColumnDef {
	out := c
	out.CellClass = slices.Clone(c.CellClass)
	out.HeaderClass = slices.Clone(c.HeaderClass)
	out.CellStyle = c.CellStyle.Clone()
	out.HeaderStyle = cloneStrings(c.HeaderStyle)
	if c.ValueFormat != nil {
		spec := *c.ValueFormat
		out.ValueFormat = &spec
	}
	out.FilterParams = cloneAnys(c.FilterParams)
	if c.Editable != nil {
		e := *c.Editable
		out.Editable = &e
	}
	out.CellEditorParams = cloneAnys(c.CellEditorParams)
	return out
}

// CloneColumnDefs deep-copies a column list.
func CloneColumnDefs(defs []ColumnDef) []ColumnDef {
	if defs == nil {
		return nil
	}
	out := make([]ColumnDef, len(defs))
	for i, d := range defs {
		out[i] = d.Clone()
	}
	return out
}

// FindColumn returns the index of colID in defs, or -1.
func FindColumn(defs []ColumnDef, colID string) int {
	return slices.IndexFunc(defs, func(d ColumnDef) bool { return d.ColID == colID })
}

// DefaultColumnDef is the native value of the defaultColDef option.
type DefaultColumnDef struct {
	Props         OptionBag    `json:"props,omitempty"`
	CellStyle     *StylePolicy `json:"cellStyle,omitempty"`
	CellStyleFunc StyleFunc    `json:"-"`
}

// AsDefaultColumnDef interprets a defaultColDef option value.
// Plain option bags are accepted as props without a style policy.
func AsDefaultColumnDef(v any) (DefaultColumnDef, bool) {
	switch d := v.(type) {
	case DefaultColumnDef:
		return d, true
	case *DefaultColumnDef:
		if d == nil {
			return DefaultColumnDef{}, false
		}
		return *d, true
	case OptionBag:
		return DefaultColumnDef{Props: d}, true
	case map[string]any:
		return DefaultColumnDef{Props: OptionBag(d)}, true
	default:
		return DefaultColumnDef{}, false
	}
}

func cloneStrings(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneAnys(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
