package convert

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gridprefs/internal/format"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	assert.Empty(t, Validate(Default("a")))
}

func TestValidate_FontSize(t *testing.T) {
	for _, ok := range []string{"12px", "1.5em", "0.8rem", "90%", "10pt"} {
		s := Default("a")
		s.Cell.FontSize = ok
		assert.Empty(t, Validate(s), ok)
	}
	for _, bad := range []string{"12", "px", "12 px", "-1px", "1.px", "large"} {
		s := Default("a")
		s.Cell.FontSize = bad
		errs := Validate(s)
		require.Len(t, errs, 1, bad)
		assert.Equal(t, ErrInvalidFontSize, errs[0].Code)
		assert.Equal(t, "cell.fontSize", errs[0].Field)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	s := Default("price")
	s.Header.BorderWidth = -1
	s.Header.TextColor = "not a color!"
	s.Cell.BorderStyle = "wavy"
	s.Cell.VerticalAlign = "sideways"
	s.Formatter = format.Spec{Type: "roman"}
	s.Filter.Type = "regex"
	s.Editor.Type = "slider"

	errs := Validate(s)
	assert.Equal(t, []string{
		ErrNegativeBorder,
		ErrInvalidColor,
		ErrInvalidBorderStyle,
		ErrInvalidAlignment,
		ErrInvalidFormatter,
		ErrInvalidFilter,
		ErrInvalidEditor,
	}, codes(errs))
	assert.Equal(t, "price", errs[0].Column)
	assert.Equal(t, "header.borderWidth", errs[0].Field)
}

func TestValidate_Colors(t *testing.T) {
	for _, c := range []string{"#fff", "#ffffff", "#ffffff80", "rgb(1, 2, 3)", "rgba(0,0,0,0.5)", "tomato"} {
		s := Default("a")
		s.Cell.BackgroundColor = c
		assert.Empty(t, Validate(s), c)
	}
	s := Default("a")
	s.Cell.BorderColor = "#ggg"
	assert.Equal(t, []string{ErrInvalidColor}, codes(Validate(s)))
}

func TestValidate_EditorBounds(t *testing.T) {
	lo, hi := 10.0, 1.0
	s := Default("a")
	s.Editor = EditorSettings{Type: EditorNumber, Min: &lo, Max: &hi, Precision: -1}

	assert.Equal(t, []string{ErrInvalidEditor, ErrInvalidEditor}, codes(Validate(s)))
}

func TestValidationError_Messages(t *testing.T) {
	e := ValidationError{Column: "a", Field: "cell.fontSize", Message: "bad", Code: ErrInvalidFontSize}
	assert.Equal(t, "[E201] column a: cell.fontSize: bad", e.Error())

	e.Column = ""
	assert.Equal(t, "[E201] cell.fontSize: bad", e.Error())

	errs := ValidationErrors{e, {Field: "x", Message: "y", Code: "E1"}}
	assert.Equal(t, "[E201] cell.fontSize: bad; [E1] x: y", errs.Error())

	var target ValidationErrors
	assert.True(t, errors.As(error(errs), &target))
}
