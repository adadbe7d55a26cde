package controller

import (
	"maps"
	"slices"
	"sync"

	"github.com/roach88/gridprefs/internal/canon"
	"github.com/roach88/gridprefs/internal/convert"
	"github.com/roach88/gridprefs/internal/grid"
	"github.com/roach88/gridprefs/internal/gridstate"
	"github.com/roach88/gridprefs/internal/profile"
)

// execute runs one profile pipeline. Called only from the worker.
func (c *Controller) execute(req *request) *ApplyReport {
	c.inFlight.Store(true)
	defer c.inFlight.Store(false)

	c.nativeMu.Lock()
	defer c.nativeMu.Unlock()

	p := req.profile
	rep := &ApplyReport{RunID: c.runIDs.Generate(), Seq: c.clock.Next()}
	log := c.logger.With("run_id", rep.RunID, "seq", rep.Seq)
	log.Info("apply started")

	c.mu.Lock()
	c.extra = profile.Settings{Extra: maps.Clone(p.Extra), Custom: profile.Custom{Extra: maps.Clone(p.Custom.Extra)}}
	c.mu.Unlock()

	// (a) Store: toolbar and grid-option bags are diff-merged, grid state replaced.
	rep.ToolbarChanged, rep.OptionsChanged = c.store.ApplyProfileSettings(p)

	h, baseline := c.bound()
	if h == nil {
		log.Info("apply finished without grid", "toolbar_changed", rep.ToolbarChanged)
		c.executions.Add(1)
		return rep
	}
	rep.Bound = true
	s := h.Surface()

	// (b) + (c) native options, defaultColDef first.
	c.writeOptions(rep, s, p.Custom.GridOptions)

	// (d) structural state.
	c.recordState(rep, c.state.Apply(h, p.Grid))

	// (e) column overrides.
	if p.HasColumnDefs() {
		c.applyColumnDefs(rep, s, baseline, p.Custom.ColumnDefs)
	}

	// (f) one refresh, only when something changed.
	if rep.Writes > 0 {
		c.refresh(rep, s, true)
	}

	c.executions.Add(1)
	log.Info("apply finished",
		"writes", rep.Writes,
		"options_applied", len(rep.OptionsApplied),
		"options_skipped", len(rep.OptionsSkipped),
		"errors", len(rep.Errors))
	return rep
}

func (c *Controller) recordState(rep *ApplyReport, gr gridstate.Report) {
	for _, res := range gr.Results {
		switch res.Outcome {
		case gridstate.Applied:
			rep.StateApplied = append(rep.StateApplied, res.SubState)
			rep.Writes++
		case gridstate.Missing:
			rep.missing(stateCapability(res.SubState))
		case gridstate.Failed:
			rep.Errors = append(rep.Errors, nativeWriteError(rep.RunID, StepGridState, res.SubState, res.Err))
		}
	}
}

// writeOptions writes defaultColDef (expanded) first, then every other
// option in key order. Must be called with nativeMu held.
func (c *Controller) writeOptions(rep *ApplyReport, s grid.Surface, opts grid.OptionBag) {
	if len(opts) == 0 {
		return
	}
	if s.Options == nil {
		rep.missing(grid.CapOptions)
		c.logger.Debug("grid capability missing", "step", StepOptions)
		return
	}

	if v, ok := opts[grid.OptionDefaultColDef]; ok {
		def, ok := convert.ExpandDefaultColumn(v)
		if ok {
			c.writeOption(rep, s.Options, StepDefaultColumn, grid.OptionDefaultColDef, def)
		} else {
			rep.Errors = append(rep.Errors, &ApplyError{
				Code:    ErrCodeInvalidOption,
				Message: "defaultColDef must be an object",
				RunID:   rep.RunID,
				Step:    StepDefaultColumn,
				Key:     grid.OptionDefaultColDef,
			})
			c.logger.Warn("invalid defaultColDef", "run_id", rep.RunID)
		}
	}

	for _, key := range slices.Sorted(maps.Keys(opts)) {
		if key == grid.OptionDefaultColDef {
			continue
		}
		c.writeOption(rep, s.Options, StepOptions, key, opts[key])
	}
}

// writeOption reads the current value, skips the write when it is
// canonically equal, and records failures without stopping the caller.
func (c *Controller) writeOption(rep *ApplyReport, opts grid.OptionAccessor, step, key string, value any) {
	if cur, ok := safeGetOption(opts, key); ok && canon.Equal(cur, value) {
		rep.OptionsSkipped = append(rep.OptionsSkipped, key)
		c.logger.Debug("option unchanged", "run_id", rep.RunID, "step", step, "key", key)
		return
	}
	if err := safeSetOption(opts, key, value); err != nil {
		rep.Errors = append(rep.Errors, nativeWriteError(rep.RunID, step, key, err))
		c.logger.Warn("option write failed", "run_id", rep.RunID, "step", step, "key", key, "error", err)
		return
	}
	rep.OptionsApplied = append(rep.OptionsApplied, key)
	rep.Writes++
}

// applyColumnDefs merges overrides into the live columns and seeds the
// editable settings of every overridden column.
func (c *Controller) applyColumnDefs(rep *ApplyReport, s grid.Surface, baseline, overrides []grid.ColumnDef) {
	if s.ColumnDefs == nil {
		rep.missing(grid.CapColumnDefs)
		c.logger.Debug("grid capability missing", "step", StepColumnDefs)
		return
	}
	current, err := safeColumnDefs(s.ColumnDefs)
	if err != nil {
		rep.Errors = append(rep.Errors, nativeWriteError(rep.RunID, StepColumnDefs, "", err))
		c.logger.Warn("column read failed", "run_id", rep.RunID, "error", err)
		return
	}

	merged, unknown := convert.MergeColumnDefs(current, baseline, overrides)
	for _, id := range unknown {
		rep.Errors = append(rep.Errors, &ApplyError{
			Code:    ErrCodeUnknownColumn,
			Message: "override for unknown column",
			RunID:   rep.RunID,
			Step:    StepColumnDefs,
			Key:     id,
		})
		c.logger.Warn("unknown column", "run_id", rep.RunID, "column", id)
	}

	now := c.now()
	c.mu.Lock()
	for _, o := range overrides {
		if idx := grid.FindColumn(merged, o.ColID); idx >= 0 {
			cs := convert.FromNative(merged[idx], o.ColID)
			cs.LastModified = now
			c.columns[o.ColID] = cs
		}
	}
	c.mu.Unlock()

	if canon.Equal(current, merged) {
		c.logger.Debug("column defs unchanged", "run_id", rep.RunID)
		return
	}
	if err := safeSetColumnDefs(s.ColumnDefs, merged); err != nil {
		rep.Errors = append(rep.Errors, nativeWriteError(rep.RunID, StepColumnDefs, "", err))
		c.logger.Warn("column defs write failed", "run_id", rep.RunID, "error", err)
		return
	}
	rep.ColumnDefsWritten = true
	rep.Writes++
}

// refresh redraws header and cells once. With a frame scheduler the redraw
// runs on the next frame; when wait is set the caller blocks until it has
// run or the controller closes. Must be called with nativeMu held.
func (c *Controller) refresh(rep *ApplyReport, s grid.Surface, wait bool) {
	if s.Refresh == nil {
		rep.missing(grid.CapRefresh)
		c.logger.Debug("grid capability missing", "step", StepRefresh)
		return
	}
	redraw := func() {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Warn("refresh failed", "run_id", rep.RunID, "error", recovered(r))
			}
		}()
		s.Refresh.RefreshHeader()
		s.Refresh.RefreshCells(true)
	}
	rep.Refreshed = true

	if s.Frames == nil {
		rep.missing(grid.CapFrames)
		redraw()
		return
	}

	drawn := make(chan struct{})
	draw := sync.OnceFunc(func() {
		redraw()
		close(drawn)
	})
	func() {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Warn("frame scheduling failed", "run_id", rep.RunID, "error", recovered(r))
				draw()
			}
		}()
		s.Frames.ScheduleNextFrame(draw)
	}()
	if !wait {
		return
	}
	select {
	case <-drawn:
	case <-c.done:
		c.logger.Warn("controller closed while waiting for frame", "run_id", rep.RunID)
	}
}

func stateCapability(subState string) grid.Capability {
	switch subState {
	case gridstate.ColumnState:
		return grid.CapColumnState
	case gridstate.FilterModel:
		return grid.CapFilter
	case gridstate.RowGroupColumns:
		return grid.CapRowGroups
	case gridstate.ColumnGroupState:
		return grid.CapColumnGroups
	default:
		return grid.CapPivot
	}
}

func safeGetOption(opts grid.OptionAccessor, key string) (v any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			v, ok = nil, false
		}
	}()
	return opts.GetOption(key)
}

func safeSetOption(opts grid.OptionAccessor, key string, value any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r)
		}
	}()
	return opts.SetOption(key, value)
}

func safeColumnDefs(a grid.ColumnDefAccessor) (defs []grid.ColumnDef, err error) {
	defer func() {
		if r := recover(); r != nil {
			defs, err = nil, recovered(r)
		}
	}()
	return a.ColumnDefs(), nil
}

func safeSetColumnDefs(a grid.ColumnDefAccessor, defs []grid.ColumnDef) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r)
		}
	}()
	return a.SetColumnDefs(defs)
}
