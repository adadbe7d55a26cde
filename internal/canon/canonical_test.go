package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type optionBag map[string]any

type sample struct {
	Name     string            `json:"name"`
	Width    int               `json:"width,omitempty"`
	Callback func() string     `json:"-"`
	Style    map[string]string `json:"style,omitempty"`
}

func TestMarshal_SortsKeys(t *testing.T) {
	got, err := Marshal(map[string]any{"b": 1, "a": "x", "c": []any{true, nil}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":1,"c":[true,null]}`, string(got))
}

func TestMarshal_IntegralFloatsMatchInts(t *testing.T) {
	a, err := Marshal(map[string]any{"fontSize": 14})
	require.NoError(t, err)
	b, err := Marshal(map[string]any{"fontSize": 14.0})
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))

	c, err := Marshal(10000000.0)
	require.NoError(t, err)
	assert.Equal(t, "10000000", string(c))
}

func TestMarshal_Fractions(t *testing.T) {
	got, err := Marshal(0.42)
	require.NoError(t, err)
	assert.Equal(t, "0.42", string(got))
}

func TestMarshal_NoHTMLEscape(t *testing.T) {
	got, err := Marshal("<b>&</b>")
	require.NoError(t, err)
	assert.Equal(t, `"<b>&</b>"`, string(got))
}

func TestMarshal_NFCNormalization(t *testing.T) {
	composed := "\u00e9"
	decomposed := "e\u0301"
	assert.True(t, Equal(composed, decomposed))
}

func TestMarshal_NamedMapType(t *testing.T) {
	got, err := Marshal(optionBag{"z": 1, "a": 2})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"z":1}`, string(got))

	var nilBag optionBag
	got, err = Marshal(nilBag)
	require.NoError(t, err)
	assert.Equal(t, "null", string(got))
}

func TestMarshal_StructHonoursTags(t *testing.T) {
	v := sample{Name: "price", Callback: func() string { return "x" }}
	got, err := Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"price"}`, string(got))
}

func TestMarshal_FunctionRejected(t *testing.T) {
	_, err := Marshal(func() {})
	require.Error(t, err)

	_, err = Marshal(map[string]any{"cellStyle": func() {}})
	require.Error(t, err)
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"same scalars", 1, 1.0, true},
		{"different scalars", 1, 2, false},
		{"key order irrelevant", map[string]any{"a": 1, "b": 2}, map[string]any{"b": 2, "a": 1}, true},
		{"slice order matters", []any{1, 2}, []any{2, 1}, false},
		{"nil vs nil", nil, nil, true},
		{"nil vs missing value", nil, "", false},
		{"functions never equal", func() {}, func() {}, false},
		{"struct vs generic map", sample{Name: "a"}, map[string]any{"name": "a"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestString_Unserializable(t *testing.T) {
	assert.Equal(t, "<unserializable func()>", String(func() {}))
	assert.Equal(t, `{"a":1}`, String(map[string]any{"a": 1}))
}

func TestCompareKeysRFC8785(t *testing.T) {
	assert.Equal(t, -1, compareKeysRFC8785("a", "b"))
	assert.Equal(t, 1, compareKeysRFC8785("b", "a"))
	assert.Equal(t, 0, compareKeysRFC8785("a", "a"))
	assert.Equal(t, -1, compareKeysRFC8785("a", "ab"))
}
