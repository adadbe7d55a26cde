// Package convert translates normalized per-column settings to native column
// configuration and back.
//
// Everything here is pure. ToNative expands a ColumnSettings into ordered
// class names, a declarative style policy for properties classes cannot
// express, a formatter spec and filter/editor parameter blocks. FromNative is
// the inverse and always yields fully-defaulted settings, so diffing two
// ColumnSettings never trips over missing fields.
package convert

import (
	"slices"
	"time"

	"github.com/roach88/gridprefs/internal/format"
)

// AlignDefault means "no explicit alignment". For cells it lets numeric
// columns right-align.
const AlignDefault = "default"

// StyleSettings is the editable style of a header or cell.
type StyleSettings struct {
	FontFamily      string `json:"fontFamily" yaml:"fontFamily"`
	FontSize        string `json:"fontSize" yaml:"fontSize"`
	Bold            bool   `json:"bold" yaml:"bold"`
	Italic          bool   `json:"italic" yaml:"italic"`
	Underline       bool   `json:"underline" yaml:"underline"`
	TextColor       string `json:"textColor" yaml:"textColor"`
	BackgroundColor string `json:"backgroundColor" yaml:"backgroundColor"`
	BorderWidth     int    `json:"borderWidth" yaml:"borderWidth"`
	BorderStyle     string `json:"borderStyle" yaml:"borderStyle"`
	BorderColor     string `json:"borderColor" yaml:"borderColor"`
	VerticalAlign   string `json:"verticalAlign" yaml:"verticalAlign"`
	HorizontalAlign string `json:"horizontalAlign" yaml:"horizontalAlign"`
}

// DefaultStyle returns the style with every field at its default.
func DefaultStyle() StyleSettings {
	return StyleSettings{VerticalAlign: AlignDefault, HorizontalAlign: AlignDefault}
}

// normalized maps empty alignments to AlignDefault.
func (s StyleSettings) normalized() StyleSettings {
	if s.VerticalAlign == "" {
		s.VerticalAlign = AlignDefault
	}
	if s.HorizontalAlign == "" {
		s.HorizontalAlign = AlignDefault
	}
	return s
}

// HasStyling reports whether any field differs from its default.
func (s StyleSettings) HasStyling() bool {
	return s.normalized() != DefaultStyle()
}

// Filter types.
const (
	FilterNone   = ""
	FilterText   = "text"
	FilterNumber = "number"
	FilterDate   = "date"
	FilterSet    = "set"
)

// FilterSettings configures the column filter. Only the fields relevant to
// Type are carried into the native parameter block.
type FilterSettings struct {
	Type          string   `json:"type" yaml:"type"`
	DebounceMs    int      `json:"debounceMs" yaml:"debounceMs"`
	CaseSensitive bool     `json:"caseSensitive" yaml:"caseSensitive"`
	IncludeBlanks bool     `json:"includeBlanks" yaml:"includeBlanks"`
	Values        []string `json:"values" yaml:"values"`
	Buttons       []string `json:"buttons" yaml:"buttons"`
}

// Editor types.
const (
	EditorNone      = ""
	EditorText      = "text"
	EditorLargeText = "largeText"
	EditorSelect    = "select"
	EditorNumber    = "number"
	EditorDate      = "date"
	EditorCheckbox  = "checkbox"
)

// EditorSettings configures in-cell editing.
type EditorSettings struct {
	Editable  bool     `json:"editable" yaml:"editable"`
	Type      string   `json:"type" yaml:"type"`
	MaxLength int      `json:"maxLength" yaml:"maxLength"`
	Rows      int      `json:"rows" yaml:"rows"`
	Values    []string `json:"values" yaml:"values"`
	Min       *float64 `json:"min" yaml:"min"`
	Max       *float64 `json:"max" yaml:"max"`
	Precision int      `json:"precision" yaml:"precision"`
}

// ColumnSettings is the normalized, editable configuration of one column.
type ColumnSettings struct {
	ColID        string         `json:"colId" yaml:"colId"`
	Header       StyleSettings  `json:"header" yaml:"header"`
	Cell         StyleSettings  `json:"cell" yaml:"cell"`
	Formatter    format.Spec    `json:"formatter" yaml:"formatter"`
	Filter       FilterSettings `json:"filter" yaml:"filter"`
	Editor       EditorSettings `json:"editor" yaml:"editor"`
	LastModified time.Time      `json:"lastModified" yaml:"lastModified"`
	IsDirty      bool           `json:"isDirty" yaml:"isDirty"`
}

// Default returns fully-defaulted settings for colID.
func Default(colID string) ColumnSettings {
	return ColumnSettings{
		ColID:  colID,
		Header: DefaultStyle(),
		Cell:   DefaultStyle(),
		Filter: FilterSettings{Values: []string{}, Buttons: []string{}},
		Editor: EditorSettings{Values: []string{}},
	}
}

// Clone returns a deep copy of s.
func (s ColumnSettings) Clone() ColumnSettings {
	out := s
	out.Filter.Values = slices.Clone(s.Filter.Values)
	out.Filter.Buttons = slices.Clone(s.Filter.Buttons)
	out.Editor.Values = slices.Clone(s.Editor.Values)
	if s.Editor.Min != nil {
		v := *s.Editor.Min
		out.Editor.Min = &v
	}
	if s.Editor.Max != nil {
		v := *s.Editor.Max
		out.Editor.Max = &v
	}
	return out
}

// normalized fills defaults so that nil slices and empty alignments never
// make two equivalent settings compare different.
func (s ColumnSettings) normalized() ColumnSettings {
	s = s.Clone()
	s.Header = s.Header.normalized()
	s.Cell = s.Cell.normalized()
	if s.Filter.Values == nil {
		s.Filter.Values = []string{}
	}
	if s.Filter.Buttons == nil {
		s.Filter.Buttons = []string{}
	}
	if s.Editor.Values == nil {
		s.Editor.Values = []string{}
	}
	return s
}
