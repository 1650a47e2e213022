package numfield

import (
	"fmt"
	"strconv"
	"strings"
)

// State is the edit state of a Field.
type State int

const (
	// Editing means the pending display text may diverge from the committed value.
	Editing State = iota
	// Committing is held only while a commit is being applied.
	Committing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Committing:
		return "committing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ChangeFunc receives committed values.
type ChangeFunc func(name string, value int)

// SentinelMode selects what an out-of-sync field displays.
type SentinelMode int

const (
	// SentinelDefault lets the presentation choose (zero for Number, min for Slider).
	SentinelDefault SentinelMode = iota
	// SentinelZero displays 0.
	SentinelZero
	// SentinelMin displays the range minimum.
	SentinelMin
	// SentinelFixed displays Sentinel.Value.
	SentinelFixed
)

// Sentinel describes the placeholder shown for out-of-sync fields.
type Sentinel struct {
	Mode  SentinelMode
	Value float64 // Display value for SentinelFixed
}

// ParseSentinel parses a preference value: "zero", "min", "" (default) or a number.
func ParseSentinel(s string) (Sentinel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return Sentinel{Mode: SentinelDefault}, nil
	case "zero":
		return Sentinel{Mode: SentinelZero}, nil
	case "min":
		return Sentinel{Mode: SentinelMin}, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Sentinel{}, fmt.Errorf("invalid sentinel %q (want zero, min or a number)", s)
	}
	return Sentinel{Mode: SentinelFixed, Value: v}, nil
}

// String renders the sentinel in the form accepted by ParseSentinel.
func (s Sentinel) String() string {
	switch s.Mode {
	case SentinelZero:
		return "zero"
	case SentinelMin:
		return "min"
	case SentinelFixed:
		return FormatDisplay(s.Value)
	default:
		return "default"
	}
}

// Options configures a Field.
type Options struct {
	Transform Transform
	Range     Range
	Sentinel  Sentinel
	// Step snaps committed values to Range.Min + k*Step when greater than 1.
	Step     int
	OnChange ChangeFunc
}

// Field is the editable mirror of an externally owned canonical value.
type Field struct {
	name string
	opts Options

	// fallbackSentinel replaces SentinelDefault.
	fallbackSentinel SentinelMode

	committed int
	pending   string
	dirty     bool
	inSync    bool
	state     State
}

// NewField creates a field holding Range.Min until the owner calls Sync.
func NewField(name string, opts Options) *Field {
	f := &Field{
		name:             name,
		opts:             opts,
		fallbackSentinel: SentinelZero,
	}
	f.Sync(opts.Range.Min, true)
	return f
}

// Name returns the setting name passed to OnChange.
func (f *Field) Name() string { return f.name }

// Options returns the field configuration.
func (f *Field) Options() Options { return f.opts }

// Value returns the committed canonical value.
func (f *Field) Value() int { return f.committed }

// InSync reports whether the committed value is authoritative.
func (f *Field) InSync() bool { return f.inSync }

// Dirty reports whether the pending display has been edited since the last
// Sync or Commit.
func (f *Field) Dirty() bool { return f.dirty }

// State returns the current edit state.
func (f *Field) State() State { return f.state }

// Sync loads a value from the owner, discarding any pending edit.
func (f *Field) Sync(value int, inSync bool) {
	f.committed = value
	f.inSync = inSync
	f.pending = FormatDisplay(ToDisplay(value, f.opts.Transform))
	f.dirty = false
	f.state = Editing
}

// SetInSync updates the sync flag without touching the value.
func (f *Field) SetInSync(inSync bool) {
	f.inSync = inSync
}

// Edit replaces the pending display text. It never calls OnChange.
func (f *Field) Edit(text string) {
	f.pending = text
	f.dirty = true
}

// Cancel drops the pending edit and restores the committed display.
func (f *Field) Cancel() {
	f.pending = FormatDisplay(ToDisplay(f.committed, f.opts.Transform))
	f.dirty = false
}

// Pending returns the raw pending display text.
func (f *Field) Pending() string { return f.pending }

// Display returns the text the widget should show.
func (f *Field) Display() string {
	if !f.inSync && !f.dirty {
		return FormatDisplay(f.SentinelDisplay())
	}
	return f.pending
}

// SentinelDisplay returns the display value shown while out of sync.
func (f *Field) SentinelDisplay() float64 {
	mode := f.opts.Sentinel.Mode
	if mode == SentinelDefault {
		mode = f.fallbackSentinel
	}
	switch mode {
	case SentinelMin:
		return ToDisplay(f.opts.Range.Min, f.opts.Transform)
	case SentinelFixed:
		return f.opts.Sentinel.Value
	default:
		return 0
	}
}

// Resolve returns the canonical value the pending text would commit to.
func (f *Field) Resolve() int {
	return f.snap(Normalize(f.Display(), f.opts.Transform, f.opts.Range))
}

// Commit converts the pending text, snaps the display into range and hands
// the clamped value to OnChange.
func (f *Field) Commit() int {
	f.state = Committing
	defer func() { f.state = Editing }()

	value := f.Resolve()
	f.committed = value
	f.pending = FormatDisplay(ToDisplay(value, f.opts.Transform))
	f.dirty = false
	f.inSync = true

	if f.opts.OnChange != nil {
		f.opts.OnChange(f.name, value)
	}
	return value
}

// snap aligns v to the step grid and clamps it.
func (f *Field) snap(v int) int {
	r := f.opts.Range
	if step := f.opts.Step; step > 1 {
		k := (v - r.Min + step/2) / step
		v = r.Min + k*step
	}
	return r.Clamp(v)
}
