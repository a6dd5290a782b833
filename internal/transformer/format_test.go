package transformer

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDigits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		digits int
		want   string
	}{
		{"2.5", 0, "3"},
		{"-2.5", 0, "-3"},
		{"0.5", 0, "1"},
		{"-0.4", 0, "0"},
		{"3.14159", 2, "3.14"},
		{"3.125", 2, "3.13"},
		{"-3.125", 2, "-3.13"},
		{"1", 2, "1.00"},
		{"1.5", 3, "1.500"},
		{"-0.001", 2, "0.00"},
		{"1e3", 1, "1000.0"},
		{"123456789.987654321", 4, "123456789.9877"},
		{"abc", 2, "abc"},
		{"", 2, ""},
		{"NaN", 2, "NaN"},
		{"inf", 1, "inf"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatDigits(tt.in, tt.digits))
		})
	}
}

func TestFormatDigits_Shape(t *testing.T) {
	t.Parallel()

	values := []string{"0", "1", "-1", "0.1", "2.675", "-99.995", "1234.5678", "1e-7", "-7e12"}
	for _, v := range values {
		zero := FormatDigits(v, 0)
		assert.NotContains(t, zero, ".", "digits=0 for %s", v)

		for n := 1; n <= 6; n++ {
			got := FormatDigits(v, n)
			dot := strings.IndexByte(got, '.')
			if assert.GreaterOrEqual(t, dot, 0, "%s with %d digits: %q", v, n, got) {
				assert.Len(t, got[dot+1:], n, "%s with %d digits: %q", v, n, got)
			}
		}
	}
}

func TestFormatFloat_NonFinite(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "+Inf", FormatFloat(math.Inf(1), 2))
	assert.Equal(t, "-Inf", FormatFloat(math.Inf(-1), 0))
	assert.Equal(t, "NaN", FormatFloat(math.NaN(), 2))
	assert.Equal(t, "2", FormatFloat(1.5, -1))
}
