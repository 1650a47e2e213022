package numfield

import (
	"math"
	"strconv"
	"strings"
)

// displayPrecision bounds the number of fractional digits FormatDisplay emits,
// hiding binary float noise such as 0.30000000000000004.
const displayPrecision = 1e6

// Transform maps canonical values to display values.
type Transform struct {
	Factor float64 // Multiplier applied to the canonical value (0 means 1)
	Offset float64 // Added after scaling
	Round  bool    // Round the display value to the nearest integer
}

// factor returns the effective multiplier, defaulting to 1 when unset.
func (t Transform) factor() float64 {
	if t.Factor == 0 {
		return 1
	}
	return t.Factor
}

// inverse maps a display value back to an unclamped canonical value.
func (t Transform) inverse(display float64) float64 {
	return math.Round((display - t.Offset) / t.factor())
}

// Range holds inclusive bounds in canonical units.
type Range struct {
	Min int
	Max int
}

// RangeFromDisplay converts bounds given in display units to canonical bounds.
func RangeFromDisplay(minDisplay, maxDisplay float64, t Transform) Range {
	lo := t.inverse(minDisplay)
	hi := t.inverse(maxDisplay)
	if lo > hi {
		lo, hi = hi, lo
	}
	return Range{Min: int(lo), Max: int(hi)}
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Clamp forces v into the range.
func (r Range) Clamp(v int) int {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Span returns the number of canonical units between Min and Max.
func (r Range) Span() int {
	return r.Max - r.Min
}

// Fallback is the value every unusable input resolves to: the minimum
// canonical value. Fields never surface an error for bad input.
func Fallback(r Range) int {
	return r.Min
}

// ToDisplay maps a canonical value to its display value.
func ToDisplay(value int, t Transform) float64 {
	display := float64(value)*t.factor() + t.Offset
	if t.Round {
		display = math.Round(display)
	}
	return display
}

// ToCanonical maps a display value to a canonical value within r.
// Non-finite input yields Fallback(r).
func ToCanonical(display float64, t Transform, r Range) int {
	if math.IsNaN(display) || math.IsInf(display, 0) {
		return Fallback(r)
	}

	// Compare in float space so out-of-range input cannot overflow int.
	v := t.inverse(display)
	if math.IsNaN(v) || v < float64(r.Min) {
		return r.Min
	}
	if v > float64(r.Max) {
		return r.Max
	}
	return int(v)
}

// ParseDisplay parses user input as a decimal number. Input that does not
// parse returns NaN so that it funnels into Fallback.
func ParseDisplay(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Normalize parses raw display input and converts it to a canonical value.
func Normalize(input string, t Transform, r Range) int {
	return ToCanonical(ParseDisplay(input), t, r)
}

// FormatDisplay renders a display value. Integral values have no fractional
// part; other values use the shortest representation up to six decimals.
func FormatDisplay(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	if math.Abs(v) < 1e9 {
		v = math.Round(v*displayPrecision) / displayPrecision
	}
	if v == 0 {
		// Avoid "-0".
		v = 0
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
