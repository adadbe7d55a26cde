package gridstate

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gridprefs/internal/grid"
	"github.com/roach88/gridprefs/internal/grid/memgrid"
)

func quiet() *Provider {
	return New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func newGrid(opts ...memgrid.Option) *memgrid.Grid {
	base := []memgrid.Option{memgrid.WithColumns(
		grid.ColumnDef{ColID: "name"},
		grid.ColumnDef{ColID: "price", Width: 100},
		grid.ColumnDef{ColID: "qty"},
	)}
	return memgrid.New(append(base, opts...)...)
}

func snapshot() grid.StateSnapshot {
	return grid.StateSnapshot{
		ColumnState: []grid.ColumnState{
			{ColID: "price", Width: 150, Sort: "desc", SortIndex: grid.Int(0)},
			{ColID: "name"},
		},
		FilterModel:      map[string]any{"name": map[string]any{"type": "contains", "filter": "a"}},
		RowGroupColumns:  []string{"qty"},
		ColumnGroupState: []grid.ColumnGroupState{{GroupID: "g", Open: true}},
		PivotMode:        grid.Bool(true),
	}
}

func TestExtract_FullHandle(t *testing.T) {
	g := newGrid()
	snap := quiet().Extract(g)

	require.Len(t, snap.ColumnState, 3)
	assert.Equal(t, 100, snap.ColumnState[1].Width)
	assert.Equal(t, map[string]any{}, snap.FilterModel)
	assert.Equal(t, []string{}, snap.RowGroupColumns)
	require.NotNil(t, snap.PivotMode)
	assert.False(t, *snap.PivotMode)
	assert.Empty(t, g.Writes(), "extract never writes")
}

func TestExtract_PartialHandle(t *testing.T) {
	g := newGrid(memgrid.Without(grid.CapPivot), memgrid.WithPanicOn(grid.CapFilter))
	snap := quiet().Extract(g)

	assert.Nil(t, snap.PivotMode)
	assert.Nil(t, snap.FilterModel)
	assert.Len(t, snap.ColumnState, 3)
}

func TestExtract_NilHandle(t *testing.T) {
	assert.True(t, quiet().Extract(nil).IsEmpty())
}

func TestApply_WritesThenIsIdempotent(t *testing.T) {
	g := newGrid()
	p := quiet()

	rep := p.Apply(g, snapshot())
	assert.Equal(t, 5, rep.Writes())
	assert.Empty(t, rep.Failures())

	state := g.ColumnState()
	assert.Equal(t, "price", state[0].ColID, "column order applied explicitly")
	assert.Equal(t, 150, state[0].Width)
	assert.Equal(t, []string{"qty"}, g.RowGroupColumns())
	assert.True(t, g.PivotMode())

	g.ResetWrites()
	rep = p.Apply(g, snapshot())
	assert.Equal(t, 0, rep.Writes())
	assert.Empty(t, g.Writes())
	for _, res := range rep.Results {
		assert.Equal(t, Unchanged, res.Outcome, res.SubState)
	}
}

func TestApply_OrderChangeIsAWrite(t *testing.T) {
	g := newGrid()
	p := quiet()
	p.Apply(g, grid.StateSnapshot{ColumnState: []grid.ColumnState{{ColID: "name"}, {ColID: "price", Width: 100}}})
	g.ResetWrites()

	rep := p.Apply(g, grid.StateSnapshot{ColumnState: []grid.ColumnState{{ColID: "price", Width: 100}, {ColID: "name"}}})
	assert.Equal(t, Applied, rep.Outcome(ColumnState))
	assert.Equal(t, "price", g.ColumnState()[0].ColID)
}

func TestApply_AbsentSubStatesSkipped(t *testing.T) {
	g := newGrid()
	rep := quiet().Apply(g, grid.StateSnapshot{PivotMode: grid.Bool(true)})

	assert.Equal(t, Absent, rep.Outcome(ColumnState))
	assert.Equal(t, Absent, rep.Outcome(FilterModel))
	assert.Equal(t, Applied, rep.Outcome(PivotMode))
	assert.Len(t, g.Writes(), 1)
}

func TestApply_MissingCapabilityIsNoOp(t *testing.T) {
	g := newGrid(memgrid.Without(grid.CapFilter, grid.CapRowGroups))
	rep := quiet().Apply(g, snapshot())

	assert.Equal(t, Missing, rep.Outcome(FilterModel))
	assert.Equal(t, Missing, rep.Outcome(RowGroupColumns))
	assert.Equal(t, 3, rep.Writes())
	assert.Empty(t, rep.Failures())
}

func TestApply_PanicDoesNotBlockOthers(t *testing.T) {
	g := newGrid(memgrid.WithPanicOn(grid.CapColumnState))
	rep := quiet().Apply(g, snapshot())

	require.Len(t, rep.Failures(), 1)
	assert.Equal(t, ColumnState, rep.Failures()[0].SubState)
	assert.Contains(t, rep.Failures()[0].Err.Error(), "panic")
	assert.Equal(t, 4, rep.Writes())
	assert.True(t, g.PivotMode())
}

type failingPivot struct{ *memgrid.Grid }

func (f failingPivot) Surface() grid.Surface {
	s := f.Grid.Surface()
	s.Pivot = f
	return s
}

func (failingPivot) PivotMode() bool         { return false }
func (failingPivot) SetPivotMode(bool) error { return errors.New("locked") }

func TestApply_WriteErrorRecorded(t *testing.T) {
	g := failingPivot{newGrid()}
	rep := quiet().Apply(g, grid.StateSnapshot{PivotMode: grid.Bool(true), RowGroupColumns: []string{"name"}})

	require.Len(t, rep.Failures(), 1)
	assert.EqualError(t, rep.Failures()[0].Err, "pivotMode: locked")
	assert.Equal(t, Applied, rep.Outcome(RowGroupColumns))
}

func TestApply_EmptyFilterMatchesNil(t *testing.T) {
	g := newGrid()
	rep := quiet().Apply(g, grid.StateSnapshot{FilterModel: map[string]any{}})
	assert.Equal(t, Unchanged, rep.Outcome(FilterModel))
}

func TestApply_ColumnGroupsProjection(t *testing.T) {
	g := newGrid(memgrid.WithColumnGroups(
		grid.ColumnGroupState{GroupID: "a", Open: true},
		grid.ColumnGroupState{GroupID: "b", Open: false},
	))
	rep := quiet().Apply(g, grid.StateSnapshot{ColumnGroupState: []grid.ColumnGroupState{{GroupID: "a", Open: true}}})
	assert.Equal(t, Unchanged, rep.Outcome(ColumnGroupState))
}
