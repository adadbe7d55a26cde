package convert

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Class prefixes. The bare prefix is the base class.
const (
	CellClassPrefix   = "gp-cell"
	HeaderClassPrefix = "gp-header"
)

var (
	verticalAligns   = []string{"top", "middle", "bottom"}
	horizontalAligns = []string{"left", "center", "right"}
)

// Static style keys written for properties classes cannot express.
const (
	styleFontFamily      = "fontFamily"
	styleFontSize        = "fontSize"
	styleColor           = "color"
	styleBackgroundColor = "backgroundColor"
	styleBorderWidth     = "borderWidth"
	styleBorderStyle     = "borderStyle"
	styleBorderColor     = "borderColor"
)

var staticStyleKeys = []string{
	styleFontFamily, styleFontSize, styleColor, styleBackgroundColor,
	styleBorderWidth, styleBorderStyle, styleBorderColor,
}

// classList expands style into ordered class names: base class, alignment
// classes, then flag classes. No styling yields nil.
func classList(prefix string, s StyleSettings) []string {
	s = s.normalized()
	if !s.HasStyling() {
		return nil
	}
	classes := []string{prefix}
	if s.VerticalAlign != AlignDefault {
		classes = append(classes, prefix+"-valign-"+s.VerticalAlign)
	}
	if s.HorizontalAlign != AlignDefault {
		classes = append(classes, prefix+"-align-"+s.HorizontalAlign)
	}
	if s.Bold {
		classes = append(classes, prefix+"-bold")
	}
	if s.Italic {
		classes = append(classes, prefix+"-italic")
	}
	if s.Underline {
		classes = append(classes, prefix+"-underline")
	}
	return classes
}

// isOwnClass reports whether class was produced by classList for prefix.
func isOwnClass(prefix, class string) bool {
	return class == prefix || strings.HasPrefix(class, prefix+"-")
}

// foreignClasses returns the classes not produced by classList.
func foreignClasses(prefix string, classes []string) []string {
	var out []string
	for _, c := range classes {
		if !isOwnClass(prefix, c) {
			out = append(out, c)
		}
	}
	return out
}

// parseClasses reads alignment and flags back out of a class list.
func parseClasses(prefix string, classes []string, s *StyleSettings) {
	for _, c := range classes {
		rest, ok := strings.CutPrefix(c, prefix+"-")
		if !ok {
			continue
		}
		switch {
		case rest == "bold":
			s.Bold = true
		case rest == "italic":
			s.Italic = true
		case rest == "underline":
			s.Underline = true
		case strings.HasPrefix(rest, "valign-"):
			if v := strings.TrimPrefix(rest, "valign-"); slices.Contains(verticalAligns, v) {
				s.VerticalAlign = v
			}
		case strings.HasPrefix(rest, "align-"):
			if h := strings.TrimPrefix(rest, "align-"); slices.Contains(horizontalAligns, h) {
				s.HorizontalAlign = h
			}
		}
	}
}

// staticStyle returns the inline properties of s, or nil.
func staticStyle(s StyleSettings) map[string]string {
	out := map[string]string{}
	if s.FontFamily != "" {
		out[styleFontFamily] = s.FontFamily
	}
	if s.FontSize != "" {
		out[styleFontSize] = s.FontSize
	}
	if s.TextColor != "" {
		out[styleColor] = s.TextColor
	}
	if s.BackgroundColor != "" {
		out[styleBackgroundColor] = s.BackgroundColor
	}
	if s.BorderWidth > 0 {
		out[styleBorderWidth] = fmt.Sprintf("%dpx", s.BorderWidth)
	}
	if s.BorderStyle != "" {
		out[styleBorderStyle] = s.BorderStyle
	}
	if s.BorderColor != "" {
		out[styleBorderColor] = s.BorderColor
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// parseStaticStyle reads inline properties back into s.
func parseStaticStyle(style map[string]string, s *StyleSettings) {
	s.FontFamily = style[styleFontFamily]
	s.FontSize = style[styleFontSize]
	s.TextColor = style[styleColor]
	s.BackgroundColor = style[styleBackgroundColor]
	s.BorderStyle = style[styleBorderStyle]
	s.BorderColor = style[styleBorderColor]
	if w, ok := style[styleBorderWidth]; ok {
		if n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(w), "px")); err == nil {
			s.BorderWidth = n
		}
	}
}

// foreignStyle returns the inline properties not owned by staticStyle.
func foreignStyle(style map[string]string) map[string]string {
	var out map[string]string
	for k, v := range style {
		if slices.Contains(staticStyleKeys, k) {
			continue
		}
		if out == nil {
			out = map[string]string{}
		}
		out[k] = v
	}
	return out
}
