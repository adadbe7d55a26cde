package controller

import (
	"maps"
	"slices"

	"github.com/roach88/gridprefs/internal/canon"
	"github.com/roach88/gridprefs/internal/convert"
	"github.com/roach88/gridprefs/internal/grid"
	"github.com/roach88/gridprefs/internal/profile"
	"github.com/roach88/gridprefs/internal/settings"
)

// CollectCurrentSettings assembles a profile from the current state.
// Buffered edits are committed first so the result includes them.
//
// Grid state is read from the bound grid, or from the Store when unbound.
// Column definitions are included only for columns that were edited or
// overridden by a profile. Unknown keys of the last applied profile are
// carried over.
func (c *Controller) CollectCurrentSettings() profile.Settings {
	c.FlushPending()

	out := profile.Settings{
		Toolbar: c.store.Get(settings.Toolbar),
		Custom: profile.Custom{
			GridOptions: c.store.Get(settings.GridOptions),
		},
	}

	c.mu.Lock()
	h, baseline := c.handle, c.baselineDefs
	columns := maps.Clone(c.columns)
	out.Extra = maps.Clone(c.extra.Extra)
	out.Custom.Extra = maps.Clone(c.extra.Custom.Extra)
	c.mu.Unlock()

	var live []grid.ColumnDef
	if h != nil {
		out.Grid = c.state.Extract(h)
		if s := h.Surface(); s.ColumnDefs != nil {
			var err error
			if live, err = safeColumnDefs(s.ColumnDefs); err != nil {
				c.logger.Warn("column definitions read failed, collecting from baseline",
					"step", StepCollect, "error", err)
			}
		}
	} else {
		out.Grid = c.store.GridState()
	}

	for _, id := range slices.Sorted(maps.Keys(columns)) {
		base := grid.ColumnDef{ColID: id}
		if i := grid.FindColumn(live, id); i >= 0 {
			base = live[i]
		} else if i := grid.FindColumn(baseline, id); i >= 0 {
			base = baseline[i]
		}
		out.Custom.ColumnDefs = append(out.Custom.ColumnDefs, convert.Overlay(base, convert.ToNative(id, columns[id])))
	}
	return out
}

// ResetToDefaults drops buffered edits, resets the Store and restores the
// grid to its bind-time columns and state with the default grid options.
// The Store notifies every subscribed category.
func (c *Controller) ResetToDefaults() *ApplyReport {
	c.toolbarEdits.Cancel()
	c.optionEdits.Cancel()

	c.nativeMu.Lock()
	defer c.nativeMu.Unlock()

	rep := &ApplyReport{RunID: c.runIDs.Generate(), Seq: c.clock.Next()}
	c.store.ResetToDefaults()

	c.mu.Lock()
	h, baseline, baseState := c.handle, c.baselineDefs, c.baselineState
	c.columns = map[string]convert.ColumnSettings{}
	c.extra = profile.Settings{}
	c.mu.Unlock()

	if h == nil {
		c.logger.Info("reset to defaults without grid", "run_id", rep.RunID)
		return rep
	}
	rep.Bound = true
	s := h.Surface()

	c.writeOptions(rep, s, c.store.Defaults(settings.GridOptions))

	if s.ColumnDefs != nil && baseline != nil {
		current, err := safeColumnDefs(s.ColumnDefs)
		switch {
		case err != nil:
			rep.Errors = append(rep.Errors, nativeWriteError(rep.RunID, StepReset, "", err))
		case !canon.Equal(current, baseline):
			if err := safeSetColumnDefs(s.ColumnDefs, grid.CloneColumnDefs(baseline)); err != nil {
				rep.Errors = append(rep.Errors, nativeWriteError(rep.RunID, StepReset, "", err))
			} else {
				rep.ColumnDefsWritten = true
				rep.Writes++
			}
		}
	}

	c.recordState(rep, c.state.Apply(h, baseState))

	if rep.Writes > 0 {
		c.refresh(rep, s, false)
	}
	c.logger.Info("reset to defaults", "run_id", rep.RunID, "writes", rep.Writes, "errors", len(rep.Errors))
	return rep
}
