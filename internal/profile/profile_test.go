package profile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gridprefs/internal/format"
	"github.com/roach88/gridprefs/internal/grid"
)

func TestSettings_UnknownKeysSurviveRoundTrip(t *testing.T) {
	in := `{
		"version": 2,
		"toolbar": {"fontSize": 14},
		"grid": {"pivotMode": true},
		"custom": {"gridOptions": {"rowHeight": 30}, "futureBlock": {"a": [1, 2]}}
	}`

	var s Settings
	require.NoError(t, json.Unmarshal([]byte(in), &s))

	assert.Equal(t, float64(14), s.Toolbar["fontSize"])
	require.NotNil(t, s.Grid.PivotMode)
	assert.True(t, *s.Grid.PivotMode)
	assert.Equal(t, float64(30), s.Custom.GridOptions["rowHeight"])
	assert.False(t, s.HasColumnDefs())
	assert.Contains(t, s.Extra, "version")
	assert.Contains(t, s.Custom.Extra, "futureBlock")

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"version": 2,
		"toolbar": {"fontSize": 14},
		"grid": {"pivotMode": true},
		"custom": {"gridOptions": {"rowHeight": 30}, "futureBlock": {"a": [1, 2]}}
	}`, string(out))
}

func TestSettings_EmptyDocumentDefaults(t *testing.T) {
	var s Settings
	require.NoError(t, json.Unmarshal([]byte(`{}`), &s))

	assert.NotNil(t, s.Toolbar)
	assert.NotNil(t, s.Custom.GridOptions)
	assert.True(t, s.Grid.IsEmpty())
	assert.Nil(t, s.Extra)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"toolbar":{},"grid":{},"custom":{"gridOptions":{}}}`, string(out))
}

func TestSettings_NullBlocks(t *testing.T) {
	var s Settings
	require.NoError(t, json.Unmarshal([]byte(`{"toolbar":null,"grid":null,"custom":{"columnDefs":null}}`), &s))
	assert.Empty(t, s.Toolbar)
	assert.False(t, s.HasColumnDefs())
}

func TestSettings_EmptyColumnDefsKept(t *testing.T) {
	var s Settings
	require.NoError(t, json.Unmarshal([]byte(`{"custom":{"columnDefs":[]}}`), &s))
	assert.True(t, s.HasColumnDefs())

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"toolbar":{},"grid":{},"custom":{"gridOptions":{},"columnDefs":[]}}`, string(out))
}

func TestSettings_MalformedBlock(t *testing.T) {
	var s Settings
	err := json.Unmarshal([]byte(`{"grid":{"columnState":"nope"}}`), &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grid")
}

func TestSettings_ColumnDefsHydrated(t *testing.T) {
	in := `{"custom":{"columnDefs":[{"colId":"p","valueFormat":{"type":"number","decimals":1},"cellStyle":{"horizontalAlign":"right"}}]}}`

	var s Settings
	require.NoError(t, json.Unmarshal([]byte(in), &s))
	require.Len(t, s.Custom.ColumnDefs, 1)

	col := s.Custom.ColumnDefs[0]
	require.NotNil(t, col.ValueFormatter)
	require.NotNil(t, col.CellStyleFunc)
	assert.Equal(t, "3.0", col.ValueFormatter(3))
	assert.Equal(t, "flex-end", col.CellStyleFunc(grid.CellContext{})["justifyContent"])
}

func TestSettings_Clone(t *testing.T) {
	s := Settings{
		Toolbar: grid.OptionBag{"a": 1},
		Custom: Custom{
			GridOptions: grid.OptionBag{"b": 2},
			ColumnDefs:  []grid.ColumnDef{{ColID: "x", ValueFormat: &format.Spec{Type: format.TypeNumber}}},
		},
	}
	c := s.Clone()
	c.Toolbar["a"] = 9
	c.Custom.GridOptions["b"] = 9
	c.Custom.ColumnDefs[0].ValueFormat.Decimals = 4

	assert.Equal(t, 1, s.Toolbar["a"])
	assert.Equal(t, 2, s.Custom.GridOptions["b"])
	assert.Equal(t, 0, s.Custom.ColumnDefs[0].ValueFormat.Decimals)
}

func TestLoadFile_YAML(t *testing.T) {
	s, err := LoadFile(filepath.Join("testdata", "desk.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "Inter", s.Toolbar["fontFamily"])
	assert.Equal(t, float64(13), s.Toolbar["fontSize"])
	require.Len(t, s.Grid.ColumnState, 1)
	assert.Equal(t, "desc", s.Grid.ColumnState[0].Sort)
	require.NotNil(t, s.Grid.ColumnState[0].SortIndex)
	assert.Equal(t, 0, *s.Grid.ColumnState[0].SortIndex)
	assert.Equal(t, map[string]any{"type": "equals", "filter": "EMEA"}, s.Grid.FilterModel["region"])

	defaultCol, ok := s.Custom.GridOptions["defaultColDef"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "middle", defaultCol["verticalAlign"])

	require.Len(t, s.Custom.ColumnDefs, 1)
	assert.Equal(t, []string{"ag-cell-custom", "cell-align-right"}, s.Custom.ColumnDefs[0].CellClass)
	assert.Equal(t, "$12.00", s.Custom.ColumnDefs[0].ValueFormatter(12))
	assert.Contains(t, s.Custom.Extra, "theme")
	assert.Contains(t, s.Extra, "version")
}

func TestLoadFile_TOML(t *testing.T) {
	s, err := LoadFile(filepath.Join("testdata", "desk.toml"))
	require.NoError(t, err)

	assert.Equal(t, "Inter", s.Toolbar["fontFamily"])
	assert.Equal(t, []string{"region"}, s.Grid.RowGroupColumns)
	assert.Equal(t, float64(32), s.Custom.GridOptions["rowHeight"])
	assert.JSONEq(t, `"dark"`, string(s.Custom.Extra["theme"]))
}

func TestLoadFile_UnknownExtension(t *testing.T) {
	_, err := LoadFile("profile.ini")
	assert.ErrorIs(t, err, ErrUnknownEncoding)
}

func TestWriteFile_RoundTripsAcrossEncodings(t *testing.T) {
	orig, err := LoadFile(filepath.Join("testdata", "desk.yaml"))
	require.NoError(t, err)
	want, err := json.Marshal(orig)
	require.NoError(t, err)

	dir := t.TempDir()
	for _, name := range []string{"p.json", "p.yaml", "p.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, WriteFile(path, orig))

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			require.NotEmpty(t, raw)

			back, err := LoadFile(path)
			require.NoError(t, err)
			got, err := json.Marshal(back)
			require.NoError(t, err)
			assert.JSONEq(t, string(want), string(got))
		})
	}
}

func TestToJSON_InvalidInput(t *testing.T) {
	_, err := ToJSON([]byte("{"), JSON)
	assert.Error(t, err)

	_, err = ToJSON([]byte("a: [1"), YAML)
	assert.Error(t, err)

	_, err = ToJSON([]byte("a = "), TOML)
	assert.Error(t, err)
}
