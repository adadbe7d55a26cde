// Package format implements the value-formatter DSL used by column configs.
//
// A Spec is declarative and safe to persist; Build turns it into a Func at
// load time. Prefix and suffix are applied last, for every type.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Formatter types.
const (
	TypeNone       = ""
	TypeNumber     = "number"
	TypeCurrency   = "currency"
	TypePercentage = "percentage"
	TypeDate       = "date"
	TypeBoolean    = "boolean"
	TypeLink       = "link"
)

// MaxDecimals bounds Spec.Decimals.
const MaxDecimals = 10

// Types lists every supported formatter type, excluding TypeNone.
var Types = []string{TypeNumber, TypeCurrency, TypePercentage, TypeDate, TypeBoolean, TypeLink}

// Spec is the persisted formatter policy of a column.
type Spec struct {
	Type               string `json:"type,omitempty" yaml:"type,omitempty"`
	Decimals           int    `json:"decimals,omitempty" yaml:"decimals,omitempty"`
	ThousandsSeparator bool   `json:"thousandsSeparator,omitempty" yaml:"thousandsSeparator,omitempty"`
	CurrencySymbol     string `json:"currencySymbol,omitempty" yaml:"currencySymbol,omitempty"`
	MultiplyBy100      bool   `json:"multiplyBy100,omitempty" yaml:"multiplyBy100,omitempty"`
	DateFormat         string `json:"dateFormat,omitempty" yaml:"dateFormat,omitempty"`
	Prefix             string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Suffix             string `json:"suffix,omitempty" yaml:"suffix,omitempty"`
}

// IsZero reports whether the spec carries no formatting at all.
func (s Spec) IsZero() bool {
	return s == Spec{}
}

// Func formats a single cell value.
type Func func(value any) string

// Build returns the formatter for spec. A zero spec yields nil so callers can
// leave the native formatter unset.
func Build(spec Spec) Func {
	if spec.IsZero() {
		return nil
	}
	return func(value any) string {
		return Format(spec, value)
	}
}

// Validate checks that spec is well formed.
func Validate(spec Spec) error {
	switch spec.Type {
	case TypeNone, TypeNumber, TypeCurrency, TypePercentage, TypeDate, TypeBoolean, TypeLink:
	default:
		return fmt.Errorf("unknown formatter type %q", spec.Type)
	}
	if spec.Decimals < 0 || spec.Decimals > MaxDecimals {
		return fmt.Errorf("decimals must be between 0 and %d, got %d", MaxDecimals, spec.Decimals)
	}
	return nil
}

// Format renders value according to spec. Nil renders as an empty string.
// Values that cannot be interpreted for the spec's type pass through unchanged.
func Format(spec Spec, value any) string {
	if value == nil {
		return ""
	}

	var out string
	switch spec.Type {
	case TypeNumber:
		out = formatNumeric(value, spec.Decimals, spec.ThousandsSeparator)
	case TypeCurrency:
		out = formatNumeric(value, spec.Decimals, true)
		if _, ok := toDecimal(value); ok {
			out = spec.CurrencySymbol + out
		}
	case TypePercentage:
		out = formatPercentage(value, spec)
	case TypeDate:
		out = formatDate(value, spec.DateFormat)
	case TypeBoolean:
		if truthy(value) {
			out = "Yes"
		} else {
			out = "No"
		}
	default:
		out = passThrough(value)
	}

	return spec.Prefix + out + spec.Suffix
}

func formatNumeric(value any, decimals int, separator bool) string {
	d, ok := toDecimal(value)
	if !ok {
		return passThrough(value)
	}
	fixed := d.StringFixed(int32(clampDecimals(decimals)))
	if separator {
		fixed = groupThousands(fixed)
	}
	return fixed
}

func formatPercentage(value any, spec Spec) string {
	d, ok := toDecimal(value)
	if !ok {
		return passThrough(value)
	}
	if spec.MultiplyBy100 {
		d = d.Mul(decimal.NewFromInt(100))
	}
	return d.StringFixed(int32(clampDecimals(spec.Decimals))) + "%"
}

func clampDecimals(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxDecimals {
		return MaxDecimals
	}
	return n
}

// groupThousands inserts "," separators into the integer part of a fixed
// decimal string such as "-1234.50".
func groupThousands(fixed string) string {
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	intPart, frac, hasFrac := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := sign + b.String()
	if hasFrac {
		out += "." + frac
	}
	return out
}

func toDecimal(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case float32:
		if !finite(float64(v)) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat32(v), true
	case float64:
		if !finite(v) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(v), true
	case decimal.Decimal:
		return v, true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	default:
		return decimal.Decimal{}, false
	}
}

// finite reports whether f can become a Decimal; NaN and infinities cannot.
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err == nil {
			return b
		}
		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	default:
		return value != nil
	}
}

func passThrough(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}
