package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gridprefs/internal/format"
)

func TestStylePolicy_NilFunc(t *testing.T) {
	var p *StylePolicy
	assert.Nil(t, p.Func())
}

func TestStylePolicy_ExplicitPair(t *testing.T) {
	fn := (&StylePolicy{VerticalAlign: VAlignBottom, HorizontalAlign: HAlignCenter}).Func()
	require.NotNil(t, fn)

	assert.Equal(t, map[string]string{
		"display":        "flex",
		"alignItems":     "flex-end",
		"justifyContent": "center",
		"textAlign":      "center",
	}, fn(CellContext{ColID: "name"}))
}

func TestStylePolicy_NumericRightByDefault(t *testing.T) {
	fn := (&StylePolicy{NumericRight: true}).Func()

	assert.Equal(t, "flex-end", fn(CellContext{Numeric: true})["justifyContent"])
	assert.Empty(t, fn(CellContext{Numeric: false}))
}

func TestStylePolicy_ExplicitHorizontalWinsOverNumeric(t *testing.T) {
	fn := (&StylePolicy{HorizontalAlign: HAlignLeft, NumericRight: true}).Func()
	assert.Equal(t, "flex-start", fn(CellContext{Numeric: true})["justifyContent"])
}

func TestStylePolicy_StaticPropertiesKept(t *testing.T) {
	p := &StylePolicy{Static: map[string]string{"color": "#ff0000"}}
	fn := p.Func()

	// Mutating the policy after building must not leak into the function.
	p.Static["color"] = "#00ff00"
	assert.Equal(t, "#ff0000", fn(CellContext{})["color"])
}

func TestResolve_ColumnOverridesDefault(t *testing.T) {
	def := DefaultColumnDef{
		Props:     OptionBag{"filter": "agTextColumnFilter", "editable": true},
		CellStyle: &StylePolicy{VerticalAlign: VAlignMiddle, NumericRight: true},
	}
	col := ColumnDef{
		ColID:        "price",
		CellDataType: DataTypeNumber,
		CellStyle:    &StylePolicy{HorizontalAlign: HAlignCenter, Static: map[string]string{"color": "red"}},
		ValueFormat:  &format.Spec{Type: format.TypeNumber, Decimals: 1},
	}
	col.Hydrate()

	got := Resolve(def, col, 2.25)

	assert.Equal(t, "center", got.Style["justifyContent"], "column style must override default numeric alignment")
	assert.Equal(t, "center", got.Style["alignItems"], "default vertical alignment still applies")
	assert.Equal(t, "red", got.Style["color"])
	assert.Equal(t, "agTextColumnFilter", got.Filter)
	assert.True(t, got.Editable)
	assert.Equal(t, "2.3", got.Formatted)
}

func TestResolve_NoStyle(t *testing.T) {
	got := Resolve(DefaultColumnDef{}, ColumnDef{ColID: "a"}, nil)
	assert.Nil(t, got.Style)
	assert.Empty(t, got.Formatted)
	assert.False(t, got.Editable)
}

func TestResolve_UnhydratedColumnUsesPolicy(t *testing.T) {
	col := ColumnDef{ColID: "a", CellStyle: &StylePolicy{HorizontalAlign: HAlignRight}}
	got := Resolve(DefaultColumnDef{}, col, "x")
	assert.Equal(t, "flex-end", got.Style["justifyContent"])
	assert.Equal(t, "x", got.Formatted)
}
