package convert

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/roach88/gridprefs/internal/format"
)

// Validation error codes (E200-E299)
const (
	ErrInvalidFontSize    = "E201" // font size is not a number with a CSS unit
	ErrNegativeBorder     = "E202" // border width below zero
	ErrInvalidColor       = "E203" // color is not hex, rgb()/rgba() or a name
	ErrInvalidAlignment   = "E204" // unknown vertical or horizontal alignment
	ErrInvalidBorderStyle = "E205" // unknown border style
	ErrInvalidFormatter   = "E210" // formatter type or decimals out of range
	ErrInvalidFilter      = "E220" // unknown filter type or bad parameter
	ErrInvalidEditor      = "E230" // unknown editor type or bad parameter
	ErrUnknownAction      = "E240" // reducer action not recognized
)

var (
	fontSizePattern = regexp.MustCompile(`^\d+(\.\d+)?(px|pt|em|rem|%)$`)
	colorPattern    = regexp.MustCompile(`^(#([0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})|rgba?\([0-9.,%\s]+\)|[a-zA-Z]+)$`)

	borderStyles = []string{"none", "solid", "dashed", "dotted", "double"}
)

// ValidationError describes one invalid field of a column edit.
type ValidationError struct {
	Column  string `json:"column"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("[%s] column %s: %s: %s", e.Code, e.Column, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors is every problem found in one edit.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every field of s. Returns all errors found (does not fail-fast).
func Validate(s ColumnSettings) []ValidationError {
	var errs []ValidationError
	add := func(field, code, msg string, args ...any) {
		errs = append(errs, ValidationError{
			Column:  s.ColID,
			Field:   field,
			Message: fmt.Sprintf(msg, args...),
			Code:    code,
		})
	}

	validateStyle("header", s.Header, add)
	validateStyle("cell", s.Cell, add)

	if err := format.Validate(s.Formatter); err != nil {
		add("formatter", ErrInvalidFormatter, "%s", err.Error())
	}

	switch s.Filter.Type {
	case FilterNone, FilterText, FilterNumber, FilterDate, FilterSet:
	default:
		add("filter.type", ErrInvalidFilter, "unknown filter type %q", s.Filter.Type)
	}
	if s.Filter.DebounceMs < 0 {
		add("filter.debounceMs", ErrInvalidFilter, "must be >= 0, got %d", s.Filter.DebounceMs)
	}

	if _, ok := nativeEditors[s.Editor.Type]; !ok && s.Editor.Type != EditorNone {
		add("editor.type", ErrInvalidEditor, "unknown editor type %q", s.Editor.Type)
	}
	if s.Editor.MaxLength < 0 {
		add("editor.maxLength", ErrInvalidEditor, "must be >= 0, got %d", s.Editor.MaxLength)
	}
	if s.Editor.Rows < 0 {
		add("editor.rows", ErrInvalidEditor, "must be >= 0, got %d", s.Editor.Rows)
	}
	if s.Editor.Precision < 0 {
		add("editor.precision", ErrInvalidEditor, "must be >= 0, got %d", s.Editor.Precision)
	}
	if s.Editor.Min != nil && s.Editor.Max != nil && *s.Editor.Min > *s.Editor.Max {
		add("editor.min", ErrInvalidEditor, "min %v exceeds max %v", *s.Editor.Min, *s.Editor.Max)
	}

	return errs
}

func validateStyle(prefix string, s StyleSettings, add func(field, code, msg string, args ...any)) {
	if s.FontSize != "" && !fontSizePattern.MatchString(s.FontSize) {
		add(prefix+".fontSize", ErrInvalidFontSize, "%q is not a size such as 12px, 1.2em or 90%%", s.FontSize)
	}
	if s.BorderWidth < 0 {
		add(prefix+".borderWidth", ErrNegativeBorder, "must be >= 0, got %d", s.BorderWidth)
	}
	colors := []struct{ field, value string }{
		{"textColor", s.TextColor},
		{"backgroundColor", s.BackgroundColor},
		{"borderColor", s.BorderColor},
	}
	for _, c := range colors {
		if c.value != "" && !colorPattern.MatchString(c.value) {
			add(prefix+"."+c.field, ErrInvalidColor, "%q is not a color", c.value)
		}
	}
	if s.BorderStyle != "" && !slices.Contains(borderStyles, s.BorderStyle) {
		add(prefix+".borderStyle", ErrInvalidBorderStyle, "unknown border style %q", s.BorderStyle)
	}
	if v := s.VerticalAlign; v != "" && v != AlignDefault && !slices.Contains(verticalAligns, v) {
		add(prefix+".verticalAlign", ErrInvalidAlignment, "unknown vertical alignment %q", v)
	}
	if h := s.HorizontalAlign; h != "" && h != AlignDefault && !slices.Contains(horizontalAligns, h) {
		add(prefix+".horizontalAlign", ErrInvalidAlignment, "unknown horizontal alignment %q", h)
	}
}
