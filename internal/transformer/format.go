package transformer

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// FormatDigits renders text with exactly digits fraction digits when it parses
// as a finite float, or as a bare integer when digits is 0. Anything else is
// returned unchanged.
func FormatDigits(text string, digits int) string {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return text
	}
	return FormatFloat(v, digits)
}

// FormatFloat rounds v half away from zero to digits fraction digits and
// renders it without exponent. The output never depends on locale.
func FormatFloat(v float64, digits int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	if digits < 0 {
		digits = 0
	}

	m := math.Pow(10, float64(digits))
	r := math.Round(v*m) / m
	if math.IsInf(r, 0) || math.IsNaN(r) {
		// v*m overflowed; v is already far beyond the requested precision.
		r = v
	}
	if r == 0 {
		r = 0 // drop the sign of -0
	}
	// NewFromFloat keeps the shortest round-trip representation of r, so the
	// fixed rendering only pads or trims what the float division left behind.
	return decimal.NewFromFloat(r).StringFixed(int32(digits))
}
