package format

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat_Scenarios(t *testing.T) {
	tests := []struct {
		name  string
		spec  Spec
		value any
		want  string
	}{
		{
			name:  "number with separator",
			spec:  Spec{Type: TypeNumber, Decimals: 2, ThousandsSeparator: true},
			value: 1234.5,
			want:  "1,234.50",
		},
		{
			name:  "currency negative",
			spec:  Spec{Type: TypeCurrency, Decimals: 2, CurrencySymbol: "€"},
			value: -5,
			want:  "€-5.00",
		},
		{
			name:  "percentage scaled",
			spec:  Spec{Type: TypePercentage, Decimals: 0, MultiplyBy100: true},
			value: 0.42,
			want:  "42%",
		},
		{
			name:  "date iso",
			spec:  Spec{Type: TypeDate, DateFormat: "YYYY-MM-DD"},
			value: "2024-03-07",
			want:  "2024-03-07",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.spec, tt.value))
		})
	}
}

func TestFormat_Number(t *testing.T) {
	assert.Equal(t, "1234.50", Format(Spec{Type: TypeNumber, Decimals: 2}, 1234.5))
	assert.Equal(t, "1,234,567", Format(Spec{Type: TypeNumber, ThousandsSeparator: true}, 1234567))
	assert.Equal(t, "-1,000.0", Format(Spec{Type: TypeNumber, Decimals: 1, ThousandsSeparator: true}, -1000))
	assert.Equal(t, "999", Format(Spec{Type: TypeNumber, ThousandsSeparator: true}, 999))
	assert.Equal(t, "2.68", Format(Spec{Type: TypeNumber, Decimals: 2}, "2.675"))
	assert.Equal(t, "n/a", Format(Spec{Type: TypeNumber, Decimals: 2}, "n/a"))
}

func TestFormat_Currency(t *testing.T) {
	assert.Equal(t, "$1,234,567.89", Format(Spec{Type: TypeCurrency, Decimals: 2, CurrencySymbol: "$"}, 1234567.891))
	assert.Equal(t, "abc", Format(Spec{Type: TypeCurrency, CurrencySymbol: "$"}, "abc"))
}

func TestFormat_Percentage(t *testing.T) {
	assert.Equal(t, "0.42%", Format(Spec{Type: TypePercentage, Decimals: 2}, 0.42))
	assert.Equal(t, "12.5%", Format(Spec{Type: TypePercentage, Decimals: 1, MultiplyBy100: true}, 0.125))
}

func TestFormat_Date(t *testing.T) {
	ts := time.Date(2024, time.March, 7, 9, 5, 3, 0, time.UTC)

	assert.Equal(t, "07 Mar 24 09:05:03", Format(Spec{Type: TypeDate, DateFormat: "DD MMM YY HH:mm:ss"}, ts))
	assert.Equal(t, "2024/03/07", Format(Spec{Type: TypeDate, DateFormat: "YYYY/MM/DD"}, "2024-03-07T09:05:03Z"))
	assert.Equal(t, "2024-03-07", Format(Spec{Type: TypeDate}, ts))
	assert.Equal(t, "2024-03-07", Format(Spec{Type: TypeDate, DateFormat: "YYYY-MM-DD"}, ts.UnixMilli()))
	assert.Equal(t, "not a date", Format(Spec{Type: TypeDate}, "not a date"))
}

func TestFormat_Boolean(t *testing.T) {
	spec := Spec{Type: TypeBoolean}
	assert.Equal(t, "Yes", Format(spec, true))
	assert.Equal(t, "No", Format(spec, false))
	assert.Equal(t, "Yes", Format(spec, "true"))
	assert.Equal(t, "No", Format(spec, 0))
}

func TestFormat_LinkPassThrough(t *testing.T) {
	assert.Equal(t, "https://example.com", Format(Spec{Type: TypeLink}, "https://example.com"))
	assert.Equal(t, "42", Format(Spec{}, 42))
}

func TestFormat_PrefixSuffixAppliedLast(t *testing.T) {
	spec := Spec{Type: TypeCurrency, Decimals: 0, CurrencySymbol: "$", Prefix: "~", Suffix: " USD"}
	assert.Equal(t, "~$1,500 USD", Format(spec, 1500))

	assert.Equal(t, "[Yes]", Format(Spec{Type: TypeBoolean, Prefix: "[", Suffix: "]"}, true))
	assert.Equal(t, "<42%>", Format(Spec{Type: TypePercentage, MultiplyBy100: true, Prefix: "<", Suffix: ">"}, 0.42))
}

func TestFormat_NonFiniteFloats(t *testing.T) {
	specs := []Spec{
		{Type: TypeNumber, Decimals: 2, ThousandsSeparator: true},
		{Type: TypeCurrency, Decimals: 2, CurrencySymbol: "$"},
		{Type: TypePercentage, MultiplyBy100: true},
	}
	for _, spec := range specs {
		t.Run(spec.Type, func(t *testing.T) {
			assert.Equal(t, "NaN", Format(spec, math.NaN()))
			assert.Equal(t, "+Inf", Format(spec, math.Inf(1)))
			assert.Equal(t, "-Inf", Format(spec, math.Inf(-1)))
			assert.Equal(t, "NaN", Format(spec, float32(math.NaN())))
		})
	}
}

func TestFormat_Nil(t *testing.T) {
	assert.Equal(t, "", Format(Spec{Type: TypeNumber, Prefix: "$"}, nil))
}

func TestBuild(t *testing.T) {
	assert.Nil(t, Build(Spec{}))

	fn := Build(Spec{Type: TypeNumber, Decimals: 1})
	require.NotNil(t, fn)
	assert.Equal(t, "3.1", fn(3.14159))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(Spec{Type: TypeNumber, Decimals: 2}))
	assert.NoError(t, Validate(Spec{}))
	assert.Error(t, Validate(Spec{Type: "roman"}))
	assert.Error(t, Validate(Spec{Type: TypeNumber, Decimals: -1}))
	assert.Error(t, Validate(Spec{Type: TypeNumber, Decimals: MaxDecimals + 1}))
}

func TestGroupThousands(t *testing.T) {
	tests := map[string]string{
		"0":          "0",
		"100":        "100",
		"1000":       "1,000",
		"-1000.25":   "-1,000.25",
		"123456789":  "123,456,789",
		"1234567.00": "1,234,567.00",
	}
	for in, want := range tests {
		assert.Equal(t, want, groupThousands(in), in)
	}
}
