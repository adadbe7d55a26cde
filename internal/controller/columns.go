package controller

import (
	"github.com/roach88/gridprefs/internal/canon"
	"github.com/roach88/gridprefs/internal/convert"
	"github.com/roach88/gridprefs/internal/grid"
)

// EditColumn reduces action into the editable settings of colID and writes
// the result to the grid. An invalid edit returns convert.ValidationErrors
// and leaves both the settings and the grid unchanged.
//
// The result is overlaid on the live definition, so identity fields and
// classes or params owned by other code survive. A reset action restores
// the settings captured when the grid was bound.
func (c *Controller) EditColumn(colID string, action convert.Action) (convert.ColumnSettings, error) {
	c.nativeMu.Lock()
	defer c.nativeMu.Unlock()

	h, baseline := c.bound()
	if h == nil {
		return convert.ColumnSettings{}, notBound(StepColumnEdit, colID)
	}
	s := h.Surface()
	if s.ColumnDefs == nil {
		return convert.ColumnSettings{}, notBound(StepColumnEdit, colID)
	}
	current, err := safeColumnDefs(s.ColumnDefs)
	if err != nil {
		return convert.ColumnSettings{}, nativeWriteError("", StepColumnEdit, colID, err)
	}
	idx := grid.FindColumn(current, colID)
	if idx < 0 {
		return convert.ColumnSettings{}, unknownColumn(StepColumnEdit, colID)
	}

	c.mu.Lock()
	prev, ok := c.columns[colID]
	c.mu.Unlock()
	if !ok {
		prev = convert.FromNative(current[idx], colID)
	}

	if action.Type == convert.ActionReset && action.Baseline == nil {
		if b := grid.FindColumn(baseline, colID); b >= 0 {
			base := convert.FromNative(baseline[b], colID)
			action.Baseline = &base
		}
	}
	next, err := convert.Reduce(prev, action)
	if err != nil {
		c.logger.Debug("column edit rejected", "column", colID, "action", action.Type, "error", err)
		return prev, err
	}
	next.LastModified = c.now()

	merged := grid.CloneColumnDefs(current)
	merged[idx] = convert.Overlay(current[idx], convert.ToNative(colID, next))
	rep := &ApplyReport{Bound: true}
	if err := c.writeColumns(rep, s, StepColumnEdit, current, merged); err != nil {
		return prev, err
	}

	c.mu.Lock()
	c.columns[colID] = next
	c.mu.Unlock()

	c.logger.Debug("column edited", "column", colID, "action", action.Type, "writes", rep.Writes)
	return next.Clone(), nil
}

// ResetColumn restores the bind-time definition of colID and forgets its
// edited settings.
func (c *Controller) ResetColumn(colID string) error {
	c.nativeMu.Lock()
	defer c.nativeMu.Unlock()

	h, baseline := c.bound()
	if h == nil {
		return notBound(StepReset, colID)
	}
	s := h.Surface()
	if s.ColumnDefs == nil {
		return notBound(StepReset, colID)
	}
	current, err := safeColumnDefs(s.ColumnDefs)
	if err != nil {
		return nativeWriteError("", StepReset, colID, err)
	}
	idx := grid.FindColumn(current, colID)
	if idx < 0 {
		return unknownColumn(StepReset, colID)
	}

	merged := grid.CloneColumnDefs(current)
	if b := grid.FindColumn(baseline, colID); b >= 0 {
		merged[idx] = baseline[b].Clone()
	} else {
		merged[idx] = convert.Overlay(current[idx], convert.ToNative(colID, convert.Default(colID)))
	}
	rep := &ApplyReport{Bound: true}
	if err := c.writeColumns(rep, s, StepReset, current, merged); err != nil {
		return err
	}

	c.mu.Lock()
	delete(c.columns, colID)
	c.mu.Unlock()
	return nil
}

// ColumnSettings returns the editable settings of colID: the edited value
// when one exists, otherwise the value read back from the grid.
func (c *Controller) ColumnSettings(colID string) (convert.ColumnSettings, bool) {
	c.mu.Lock()
	cs, ok := c.columns[colID]
	h := c.handle
	c.mu.Unlock()
	if ok {
		return cs.Clone(), true
	}
	if h == nil {
		return convert.ColumnSettings{}, false
	}
	s := h.Surface()
	if s.ColumnDefs == nil {
		return convert.ColumnSettings{}, false
	}
	defs, err := safeColumnDefs(s.ColumnDefs)
	if err != nil {
		return convert.ColumnSettings{}, false
	}
	idx := grid.FindColumn(defs, colID)
	if idx < 0 {
		return convert.ColumnSettings{}, false
	}
	return convert.FromNative(defs[idx], colID), true
}

// writeColumns replaces the column list when it changed and schedules a
// refresh without waiting for the frame. Must be called with nativeMu held.
func (c *Controller) writeColumns(rep *ApplyReport, s grid.Surface, step string, current, next []grid.ColumnDef) error {
	if canon.Equal(current, next) {
		return nil
	}
	if err := safeSetColumnDefs(s.ColumnDefs, next); err != nil {
		c.logger.Warn("column defs write failed", "step", step, "error", err)
		return nativeWriteError(rep.RunID, step, "", err)
	}
	rep.ColumnDefsWritten = true
	rep.Writes++
	c.refresh(rep, s, false)
	return nil
}

func notBound(step, key string) *ApplyError {
	return &ApplyError{Code: ErrCodeNotBound, Message: "no grid bound", Step: step, Key: key}
}

func unknownColumn(step, colID string) *ApplyError {
	return &ApplyError{Code: ErrCodeUnknownColumn, Message: "unknown column", Step: step, Key: colID}
}
