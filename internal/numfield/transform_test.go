package numfield

import (
	"math"
	"testing"
)

func TestToDisplay(t *testing.T) {
	tests := []struct {
		name  string
		value int
		tr    Transform
		want  float64
	}{
		{"identity", 42, Transform{}, 42},
		{"factor and offset", 10, Transform{Factor: 2, Offset: 5}, 25},
		{"motor kv", 50, Transform{Factor: 40, Offset: 20}, 2020},
		{"unrounded fraction", 3, Transform{Factor: 0.5}, 1.5},
		{"rounded fraction", 3, Transform{Factor: 0.5, Round: true}, 2},
		{"timing degrees", 3, Transform{Factor: 7.5}, 22.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToDisplay(tt.value, tt.tr); got != tt.want {
				t.Errorf("ToDisplay(%d, %+v) = %v, want %v", tt.value, tt.tr, got, tt.want)
			}
		})
	}
}

func TestToCanonical(t *testing.T) {
	byte255 := Range{Min: 1, Max: 255}

	tests := []struct {
		name    string
		display float64
		tr      Transform
		r       Range
		want    int
	}{
		{"in range", 42, Transform{}, byte255, 42},
		{"above max clamps", 1250, Transform{}, byte255, 255},
		{"below min clamps", -10, Transform{}, byte255, 1},
		{"rounds down", 42.4, Transform{}, byte255, 42},
		{"rounds half away from zero", 42.5, Transform{}, byte255, 43},
		{"NaN falls back", math.NaN(), Transform{}, byte255, 1},
		{"+Inf falls back", math.Inf(1), Transform{}, byte255, 1},
		{"-Inf falls back", math.Inf(-1), Transform{}, byte255, 1},
		{"huge value clamps without overflow", 1e300, Transform{}, byte255, 255},
		{"scaled", 2000, Transform{Factor: 40, Offset: 20}, Range{Min: 0, Max: 255}, 50},
		{"scaled above max", 20000, Transform{Factor: 40, Offset: 20}, Range{Min: 0, Max: 255}, 255},
		{"offset below min", 200, Transform{Offset: 250}, Range{Min: 0, Max: 100}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToCanonical(tt.display, tt.tr, tt.r); got != tt.want {
				t.Errorf("ToCanonical(%v) = %d, want %d", tt.display, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	r := Range{Min: 1, Max: 255}

	tests := []struct {
		input string
		want  int
	}{
		{"1250", 255},
		{"-10", 1},
		{"some string", 1},
		{"", 1},
		{"  12 ", 12},
		{"12abc", 1},
		{"NaN", 1},
		{"7.6", 8},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Normalize(tt.input, Transform{}, r); got != tt.want {
				t.Errorf("Normalize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFallback(t *testing.T) {
	if got := Fallback(Range{Min: 3, Max: 9}); got != 3 {
		t.Errorf("Fallback() = %d, want 3", got)
	}
}

func TestRangeFromDisplay(t *testing.T) {
	tests := []struct {
		name     string
		min, max float64
		tr       Transform
		want     Range
	}{
		{"identity", 1, 255, Transform{}, Range{Min: 1, Max: 255}},
		{"motor kv", 20, 10220, Transform{Factor: 40, Offset: 20}, Range{Min: 0, Max: 255}},
		{"voltage offset", 250, 350, Transform{Offset: 250}, Range{Min: 0, Max: 100}},
		{"negative factor swaps", 10, 20, Transform{Factor: -1}, Range{Min: -20, Max: -10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RangeFromDisplay(tt.min, tt.max, tt.tr); got != tt.want {
				t.Errorf("RangeFromDisplay() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRoundTripWithinRange(t *testing.T) {
	tr := Transform{Factor: 2, Offset: 3}
	r := Range{Min: 0, Max: 100}

	for v := r.Min; v <= r.Max; v++ {
		if got := ToCanonical(ToDisplay(v, tr), tr, r); got != v {
			t.Fatalf("round trip of %d returned %d", v, got)
		}
	}
}

func TestCommittedDisplayStaysInRange(t *testing.T) {
	tr := Transform{Factor: 7.5}
	r := Range{Min: 0, Max: 3}
	lo, hi := ToDisplay(r.Min, tr), ToDisplay(r.Max, tr)

	for _, d := range []float64{-1e12, -8, 0, 3.7, 7.5, 11, 22.5, 30, 1e12, math.NaN()} {
		got := ToDisplay(ToCanonical(d, tr, r), tr)
		if got < lo || got > hi {
			t.Errorf("display %v committed to %v, outside [%v, %v]", d, got, lo, hi)
		}
	}
}

func TestRangeClamp(t *testing.T) {
	r := Range{Min: -5, Max: 5}
	if r.Clamp(-9) != -5 || r.Clamp(9) != 5 || r.Clamp(2) != 2 {
		t.Errorf("Clamp produced unexpected values")
	}
	if !r.Contains(0) || r.Contains(6) {
		t.Errorf("Contains produced unexpected values")
	}
	if r.Span() != 10 {
		t.Errorf("Span() = %d, want 10", r.Span())
	}
}

func TestFormatDisplay(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{255, "255"},
		{22.5, "22.5"},
		{0.1 * 3, "0.3"},
		{math.Copysign(0, -1), "0"},
		{-12, "-12"},
		{math.NaN(), ""},
	}

	for _, tt := range tests {
		if got := FormatDisplay(tt.in); got != tt.want {
			t.Errorf("FormatDisplay(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
