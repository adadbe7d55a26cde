package grid

import (
	"fmt"
	"slices"

	"github.com/roach88/gridprefs/internal/format"
)

// CellContext is what a computed style sees for one cell.
type CellContext struct {
	ColID   string
	Value   any
	Numeric bool
}

// StyleFunc computes the inline style of a cell.
type StyleFunc func(ctx CellContext) map[string]string

// StylePolicy is the persisted form of a computed cell style.
//
// Static holds properties that have no class representation (colors,
// borders, fonts). The alignment pair is expanded per cell; when
// HorizontalAlign is empty and NumericRight is set, numeric cells are
// right-aligned.
type StylePolicy struct {
	VerticalAlign   string            `json:"verticalAlign,omitempty" yaml:"verticalAlign,omitempty"`
	HorizontalAlign string            `json:"horizontalAlign,omitempty" yaml:"horizontalAlign,omitempty"`
	NumericRight    bool              `json:"numericRight,omitempty" yaml:"numericRight,omitempty"`
	Static          map[string]string `json:"static,omitempty" yaml:"static,omitempty"`
}

// Clone returns a deep copy of p.
func (p *StylePolicy) Clone() *StylePolicy {
	if p == nil {
		return nil
	}
	out := *p
	out.Static = cloneStrings(p.Static)
	return &out
}

// Func builds the style function for p. A nil policy yields nil.
func (p *StylePolicy) Func() StyleFunc {
	if p == nil {
		return nil
	}
	policy := *p.Clone()
	return func(ctx CellContext) map[string]string {
		style := make(map[string]string, len(policy.Static)+4)
		for k, v := range policy.Static {
			style[k] = v
		}

		horizontal := policy.HorizontalAlign
		if horizontal == "" && policy.NumericRight && ctx.Numeric {
			horizontal = HAlignRight
		}
		vertical := policy.VerticalAlign

		if vertical != "" || horizontal != "" {
			style["display"] = "flex"
		}
		if vertical != "" {
			style["alignItems"] = flexPosition(vertical)
		}
		if horizontal != "" {
			style["justifyContent"] = flexPosition(horizontal)
			style["textAlign"] = horizontal
		}
		return style
	}
}

func flexPosition(align string) string {
	switch align {
	case VAlignTop, HAlignLeft:
		return "flex-start"
	case VAlignBottom, HAlignRight:
		return "flex-end"
	default:
		return "center"
	}
}

// ResolvedColumn is the effective rendering of a column after the default
// column shape and the column's own config are combined.
type ResolvedColumn struct {
	ColID       string            `json:"colId"`
	HeaderName  string            `json:"headerName,omitempty"`
	CellClass   []string          `json:"cellClass,omitempty"`
	HeaderClass []string          `json:"headerClass,omitempty"`
	Style       map[string]string `json:"style,omitempty"`
	HeaderStyle map[string]string `json:"headerStyle,omitempty"`
	Filter      string            `json:"filter,omitempty"`
	CellEditor  string            `json:"cellEditor,omitempty"`
	Editable    bool              `json:"editable"`
	Formatted   string            `json:"formatted,omitempty"`
}

// Resolve computes the effective rendering of col for a sample value.
// The column's own computed style overrides the default column style key by key.
func Resolve(def DefaultColumnDef, col ColumnDef, sample any) ResolvedColumn {
	ctx := CellContext{ColID: col.ColID, Value: sample, Numeric: col.IsNumeric()}

	style := map[string]string{}
	defStyle := def.CellStyleFunc
	if defStyle == nil {
		defStyle = def.CellStyle.Func()
	}
	if defStyle != nil {
		for k, v := range defStyle(ctx) {
			style[k] = v
		}
	}
	colStyle := col.CellStyleFunc
	if colStyle == nil {
		colStyle = col.CellStyle.Func()
	}
	if colStyle != nil {
		for k, v := range colStyle(ctx) {
			style[k] = v
		}
	}
	if len(style) == 0 {
		style = nil
	}

	out := ResolvedColumn{
		ColID:       col.ColID,
		HeaderName:  col.HeaderName,
		CellClass:   slices.Clone(col.CellClass),
		HeaderClass: slices.Clone(col.HeaderClass),
		Style:       style,
		HeaderStyle: cloneStrings(col.HeaderStyle),
		Filter:      col.Filter,
		CellEditor:  col.CellEditor,
	}
	if out.Filter == "" {
		if f, ok := def.Props["filter"].(string); ok {
			out.Filter = f
		}
	}
	if col.Editable != nil {
		out.Editable = *col.Editable
	} else if e, ok := def.Props["editable"].(bool); ok {
		out.Editable = e
	}

	if sample != nil {
		formatter := col.ValueFormatter
		if formatter == nil && col.ValueFormat != nil {
			formatter = format.Build(*col.ValueFormat)
		}
		if formatter != nil {
			out.Formatted = formatter(sample)
		} else {
			out.Formatted = fmt.Sprint(sample)
		}
	}
	return out
}
