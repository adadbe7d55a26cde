package convert

import (
	"fmt"

	"github.com/roach88/gridprefs/internal/format"
)

// Action types understood by Reduce.
const (
	ActionSetHeaderStyle = "set_header_style"
	ActionSetCellStyle   = "set_cell_style"
	ActionSetFormatter   = "set_formatter"
	ActionSetFilter      = "set_filter"
	ActionSetEditor      = "set_editor"
	ActionReset          = "reset"
)

// Action is one edit submitted by the column editor. Only the field matching
// Type is read.
type Action struct {
	Type      string          `json:"type" yaml:"type"`
	Header    *StyleSettings  `json:"header,omitempty" yaml:"header,omitempty"`
	Cell      *StyleSettings  `json:"cell,omitempty" yaml:"cell,omitempty"`
	Formatter *format.Spec    `json:"formatter,omitempty" yaml:"formatter,omitempty"`
	Filter    *FilterSettings `json:"filter,omitempty" yaml:"filter,omitempty"`
	Editor    *EditorSettings `json:"editor,omitempty" yaml:"editor,omitempty"`

	// Baseline is the state restored by ActionReset. Nil resets to defaults.
	Baseline *ColumnSettings `json:"-" yaml:"-"`
}

// Reduce returns the settings after applying action to s. A failing
// validation leaves s untouched and returns ValidationErrors.
//
// Every edit marks the result dirty; reset clears the flag. Timestamps are
// the caller's concern.
func Reduce(s ColumnSettings, action Action) (ColumnSettings, error) {
	next := s.Clone()

	switch action.Type {
	case ActionSetHeaderStyle:
		if action.Header == nil {
			return s, missingPayload(s.ColID, action.Type, "header")
		}
		next.Header = *action.Header
	case ActionSetCellStyle:
		if action.Cell == nil {
			return s, missingPayload(s.ColID, action.Type, "cell")
		}
		next.Cell = *action.Cell
	case ActionSetFormatter:
		if action.Formatter == nil {
			next.Formatter = format.Spec{}
		} else {
			next.Formatter = *action.Formatter
		}
	case ActionSetFilter:
		if action.Filter == nil {
			return s, missingPayload(s.ColID, action.Type, "filter")
		}
		next.Filter = *action.Filter
	case ActionSetEditor:
		if action.Editor == nil {
			return s, missingPayload(s.ColID, action.Type, "editor")
		}
		next.Editor = *action.Editor
	case ActionReset:
		if action.Baseline != nil {
			next = action.Baseline.Clone()
		} else {
			next = Default(s.ColID)
		}
		next.ColID = s.ColID
		next.IsDirty = false
		return next.normalized(), nil
	default:
		return s, ValidationErrors{{
			Column:  s.ColID,
			Field:   "type",
			Message: fmt.Sprintf("unknown action %q", action.Type),
			Code:    ErrUnknownAction,
		}}
	}

	next = next.normalized()
	if errs := Validate(next); len(errs) > 0 {
		return s, ValidationErrors(errs)
	}
	next.IsDirty = true
	return next, nil
}

func missingPayload(colID, action, field string) error {
	return ValidationErrors{{
		Column:  colID,
		Field:   field,
		Message: fmt.Sprintf("%s requires a %s payload", action, field),
		Code:    ErrUnknownAction,
	}}
}
