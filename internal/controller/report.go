package controller

import (
	"errors"

	"github.com/roach88/gridprefs/internal/grid"
)

// ApplyReport describes one pipeline execution.
type ApplyReport struct {
	RunID string `json:"runId"`
	Seq   int64  `json:"seq"`

	// Bound is false when no grid handle was bound; only the Store changed.
	Bound bool `json:"bound"`

	ToolbarChanged bool `json:"toolbarChanged"`
	OptionsChanged bool `json:"optionsChanged"`

	// OptionsApplied lists the native options written, in write order.
	OptionsApplied []string `json:"optionsApplied,omitempty"`
	// OptionsSkipped lists the options the grid already held.
	OptionsSkipped []string `json:"optionsSkipped,omitempty"`
	// StateApplied lists the structural sub-states written.
	StateApplied      []string `json:"stateApplied,omitempty"`
	ColumnDefsWritten bool     `json:"columnDefsWritten"`

	// Writes counts native data writes. Refreshes are not included.
	Writes    int  `json:"writes"`
	Refreshed bool `json:"refreshed"`

	Missing []grid.Capability `json:"missing,omitempty"`
	Errors  []*ApplyError     `json:"-"`
}

// Err joins every recorded error, or returns nil.
func (r *ApplyReport) Err() error {
	if r == nil || len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

func (r *ApplyReport) missing(c grid.Capability) {
	for _, m := range r.Missing {
		if m == c {
			return
		}
	}
	r.Missing = append(r.Missing, c)
}
