package format

import (
	"fmt"
	"strings"
	"time"
)

// DefaultDateFormat is used when a date spec has no explicit format.
const DefaultDateFormat = "YYYY-MM-DD"

// dateTokens are matched longest first at each position.
var dateTokens = []string{"YYYY", "MMM", "YY", "MM", "DD", "HH", "mm", "ss"}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

func formatDate(value any, pattern string) string {
	t, ok := toTime(value)
	if !ok {
		return passThrough(value)
	}
	if pattern == "" {
		pattern = DefaultDateFormat
	}
	return substituteDateTokens(pattern, t)
}

// substituteDateTokens replaces YYYY/YY/MM/MMM/DD/HH/mm/ss in pattern.
// Any other text is copied verbatim.
func substituteDateTokens(pattern string, t time.Time) string {
	var b strings.Builder
	for i := 0; i < len(pattern); {
		matched := false
		for _, tok := range dateTokens {
			if strings.HasPrefix(pattern[i:], tok) {
				b.WriteString(renderDateToken(tok, t))
				i += len(tok)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(pattern[i])
			i++
		}
	}
	return b.String()
}

func renderDateToken(tok string, t time.Time) string {
	switch tok {
	case "YYYY":
		return fmt.Sprintf("%04d", t.Year())
	case "YY":
		return fmt.Sprintf("%02d", t.Year()%100)
	case "MMM":
		return t.Month().String()[:3]
	case "MM":
		return fmt.Sprintf("%02d", int(t.Month()))
	case "DD":
		return fmt.Sprintf("%02d", t.Day())
	case "HH":
		return fmt.Sprintf("%02d", t.Hour())
	case "mm":
		return fmt.Sprintf("%02d", t.Minute())
	case "ss":
		return fmt.Sprintf("%02d", t.Second())
	default:
		return tok
	}
}

// toTime interprets strings in common ISO layouts and numbers as Unix
// milliseconds (UTC).
func toTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	case int64:
		return time.UnixMilli(v).UTC(), true
	case int:
		return time.UnixMilli(int64(v)).UTC(), true
	case float64:
		return time.UnixMilli(int64(v)).UTC(), true
	default:
		return time.Time{}, false
	}
}
