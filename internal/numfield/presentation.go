package numfield

import (
	"math"
)

// Number is a discrete numeric text field committed on blur.
type Number struct {
	*Field
}

// NewNumber creates a number field. Out of sync it shows 0 unless
// opts.Sentinel says otherwise.
func NewNumber(name string, opts Options) *Number {
	f := NewField(name, opts)
	f.fallbackSentinel = SentinelZero
	return &Number{Field: f}
}

// Text returns the current input text.
func (n *Number) Text() string {
	return n.Display()
}

// Type appends a rune to the input text.
func (n *Number) Type(r rune) {
	n.Edit(n.Display() + string(r))
}

// Backspace removes the last rune of the input text.
func (n *Number) Backspace() {
	text := []rune(n.Display())
	if len(text) == 0 {
		return
	}
	n.Edit(string(text[:len(text)-1]))
}

// SetText replaces the input text.
func (n *Number) SetText(s string) {
	n.Edit(s)
}

// Blur commits the input text.
func (n *Number) Blur() int {
	return n.Commit()
}

// Slider is a continuous control committed on release. Dragging moves the
// pending position only.
type Slider struct {
	*Field
}

// NewSlider creates a slider. Step defaults to 1 and an out-of-sync slider
// rests at the range minimum unless opts.Sentinel says otherwise.
func NewSlider(name string, opts Options) *Slider {
	if opts.Step < 1 {
		opts.Step = 1
	}
	f := NewField(name, opts)
	f.fallbackSentinel = SentinelMin
	return &Slider{Field: f}
}

// Bounds returns the display values at the two ends of the slider, lowest first.
func (s *Slider) Bounds() (lo, hi float64) {
	lo = ToDisplay(s.opts.Range.Min, s.opts.Transform)
	hi = ToDisplay(s.opts.Range.Max, s.opts.Transform)
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

// Drag moves the slider to a display value, held within the slider bounds.
func (s *Slider) Drag(display float64) {
	if math.IsNaN(display) {
		return
	}
	lo, hi := s.Bounds()
	display = math.Max(lo, math.Min(hi, display))
	s.Edit(FormatDisplay(display))
}

// Nudge moves the slider by whole steps from its current position.
func (s *Slider) Nudge(steps int) {
	v := s.opts.Range.Clamp(s.Resolve() + steps*s.opts.Step)
	s.Edit(FormatDisplay(ToDisplay(v, s.opts.Transform)))
}

// Release commits the current position.
func (s *Slider) Release() int {
	return s.Commit()
}

// Position returns the fill ratio of the current position in [0, 1].
func (s *Slider) Position() float64 {
	r := s.opts.Range
	if r.Span() <= 0 {
		return 0
	}
	return float64(s.Resolve()-r.Min) / float64(r.Span())
}
