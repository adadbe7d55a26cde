package settings

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gridprefs/internal/grid"
	"github.com/roach88/gridprefs/internal/profile"
)

func newStore() *Store {
	return New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func record(t *testing.T, s *Store, c Category) *[]Change {
	t.Helper()
	var got []Change
	unsub, err := s.Subscribe(c, func(ch Change) { got = append(got, ch) })
	require.NoError(t, err)
	t.Cleanup(unsub)
	return &got
}

func TestNew_HoldsDefaults(t *testing.T) {
	s := newStore()
	for _, c := range Categories {
		assert.NotNil(t, s.Get(c), c)
	}
	assert.Equal(t, 13, s.Get(Toolbar)["fontSize"])
}

func TestWithDefaults(t *testing.T) {
	s := New(WithDefaults(map[Category]grid.OptionBag{Theme: {"mode": "dark"}}))
	assert.Equal(t, grid.OptionBag{"mode": "dark"}, s.Get(Theme))
}

func TestUpdateSettings_DiffGate(t *testing.T) {
	s := newStore()
	got := record(t, s, Toolbar)

	changed, err := s.UpdateSettings(Toolbar, grid.OptionBag{"fontSize": 13})
	require.NoError(t, err)
	assert.False(t, changed, "same value")

	changed, err = s.UpdateSettings(Toolbar, grid.OptionBag{"fontSize": 13.0})
	require.NoError(t, err)
	assert.False(t, changed, "canonically equal number")
	assert.Empty(t, *got)

	changed, err = s.UpdateSettings(Toolbar, grid.OptionBag{"fontSize": 14, "density": "normal", "custom": "x"})
	require.NoError(t, err)
	assert.True(t, changed)

	require.Len(t, *got, 1)
	ch := (*got)[0]
	assert.Equal(t, Toolbar, ch.Category)
	assert.Equal(t, []string{"custom", "fontSize"}, ch.Changed)
	assert.Equal(t, SourceUpdate, ch.Source)
	assert.Equal(t, "system-ui", ch.Values["fontFamily"], "shallow merge keeps other keys")
	assert.Equal(t, 14, ch.Values["fontSize"])
}

func TestUpdateSettings_OnlyThatCategoryNotified(t *testing.T) {
	s := newStore()
	toolbar := record(t, s, Toolbar)
	theme := record(t, s, Theme)

	_, err := s.UpdateSettings(Theme, grid.OptionBag{"mode": "dark"})
	require.NoError(t, err)

	assert.Empty(t, *toolbar)
	assert.Len(t, *theme, 1)
}

func TestUpdateSettings_UnknownCategory(t *testing.T) {
	s := newStore()
	_, err := s.UpdateSettings("layout", grid.OptionBag{"a": 1})
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, err = s.Subscribe("layout", func(Change) {})
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestUpdateAllToolbarSettings_AlwaysNotifies(t *testing.T) {
	s := newStore()
	got := record(t, s, Toolbar)

	s.UpdateAllToolbarSettings(grid.OptionBag{"fontSize": 13})
	s.UpdateAllToolbarSettings(grid.OptionBag{"fontSize": 13})

	require.Len(t, *got, 2)
	assert.Equal(t, []string{"density", "fontFamily"}, (*got)[0].Changed, "dropped keys are reported")
	assert.Empty(t, (*got)[1].Changed)
	assert.Equal(t, grid.OptionBag{"fontSize": 13}, s.Get(Toolbar))
}

func TestSubscribe_PanickingListenerIsolated(t *testing.T) {
	s := newStore()
	_, err := s.Subscribe(Theme, func(Change) { panic("boom") })
	require.NoError(t, err)
	got := record(t, s, Theme)

	_, err = s.UpdateSettings(Theme, grid.OptionBag{"mode": "dark"})
	require.NoError(t, err)
	assert.Len(t, *got, 1)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	s := newStore()
	calls := 0
	unsub, err := s.Subscribe(Theme, func(Change) { calls++ })
	require.NoError(t, err)
	assert.Equal(t, 1, s.ListenerCount(Theme))

	unsub()
	unsub()
	assert.Equal(t, 0, s.ListenerCount(Theme))

	_, _ = s.UpdateSettings(Theme, grid.OptionBag{"mode": "dark"})
	assert.Zero(t, calls)
}

func TestSubscribe_ListenerMayReenter(t *testing.T) {
	s := newStore()
	var seen grid.OptionBag
	_, err := s.Subscribe(Theme, func(Change) { seen = s.Get(Theme) })
	require.NoError(t, err)

	_, err = s.UpdateSettings(Theme, grid.OptionBag{"mode": "dark"})
	require.NoError(t, err)
	assert.Equal(t, "dark", seen["mode"])
}

func TestResetToDefaults(t *testing.T) {
	s := newStore()
	_, _ = s.UpdateSettings(Toolbar, grid.OptionBag{"fontSize": 20})
	_, _ = s.UpdateSettings(Export, grid.OptionBag{"format": "xlsx"})
	s.SetGridState(grid.StateSnapshot{PivotMode: grid.Bool(true)})

	toolbar := record(t, s, Toolbar)
	export := record(t, s, Export)

	s.ResetToDefaults()

	assert.Equal(t, 13, s.Get(Toolbar)["fontSize"])
	assert.Equal(t, "csv", s.Get(Export)["format"])
	assert.True(t, s.GridState().IsEmpty())

	require.Len(t, *toolbar, 1)
	require.Len(t, *export, 1)
	assert.Equal(t, SourceReset, (*toolbar)[0].Source)
	assert.Equal(t, []string{"fileName", "format"}, (*export)[0].Changed)
}

func TestApplyProfileSettings(t *testing.T) {
	s := newStore()
	toolbar := record(t, s, Toolbar)
	options := record(t, s, GridOptions)

	p := profile.Settings{
		Toolbar: grid.OptionBag{"fontSize": 15},
		Grid:    grid.StateSnapshot{RowGroupColumns: []string{"region"}},
		Custom:  profile.Custom{GridOptions: grid.OptionBag{"rowHeight": 40, "futureOption": "kept"}},
	}

	tc, oc := s.ApplyProfileSettings(p)
	assert.True(t, tc)
	assert.True(t, oc)
	assert.Equal(t, "kept", s.Get(GridOptions)["futureOption"])
	assert.Equal(t, []string{"region"}, s.GridState().RowGroupColumns)
	assert.Equal(t, SourceProfile, (*toolbar)[0].Source)

	tc, oc = s.ApplyProfileSettings(p)
	assert.False(t, tc)
	assert.False(t, oc)
	assert.Len(t, *toolbar, 1, "second apply is silent")
	assert.Len(t, *options, 1)

	s.ApplyProfileSettings(profile.Settings{})
	assert.True(t, s.GridState().IsEmpty(), "grid state is replaced wholesale")
}

func TestGet_ReturnsCopy(t *testing.T) {
	s := newStore()
	bag := s.Get(Theme)
	bag["mode"] = "mutated"
	assert.Equal(t, "light", s.Get(Theme)["mode"])
	assert.Nil(t, s.Get("nope"))
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("gridOptions")
	require.NoError(t, err)
	assert.Equal(t, GridOptions, c)

	_, err = ParseCategory("bogus")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}
