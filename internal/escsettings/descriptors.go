package escsettings

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/muurk/escconf/internal/numfield"
)

// Kind selects how a setting is edited
type Kind int

const (
	// KindNumber is a discrete numeric text field
	KindNumber Kind = iota
	// KindSlider is a continuous slider
	KindSlider
	// KindBool is an on/off switch stored as 0 or 1
	KindBool
	// KindEnum is one of a fixed set of labelled values
	KindEnum
)

// String returns the kind name used in JSON and file output
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindSlider:
		return "slider"
	case KindBool:
		return "bool"
	case KindEnum:
		return "enum"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Numeric reports whether the kind is edited through a numfield.Field
func (k Kind) Numeric() bool {
	return k == KindNumber || k == KindSlider
}

// Scope says whether a setting is shared by all ESCs or set per ESC
type Scope int

const (
	// ScopeCommon settings are edited once and written to every ESC
	ScopeCommon Scope = iota
	// ScopeIndividual settings differ per ESC (motor direction, for example)
	ScopeIndividual
)

// String returns the scope name
func (s Scope) String() string {
	if s == ScopeIndividual {
		return "individual"
	}
	return "common"
}

// Option is one labelled value of an enum setting
type Option struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// Descriptor describes one firmware setting. Min, Max and Step are in
// display units; Factor and Offset map canonical values to display values.
type Descriptor struct {
	Name    string
	Label   string
	Kind    Kind
	Scope   Scope
	Min     float64
	Max     float64
	Step    float64
	Factor  float64
	Offset  float64
	Round   bool
	Unit    string
	Options []Option
}

// Transform returns the display transform of the setting
func (d Descriptor) Transform() numfield.Transform {
	return numfield.Transform{Factor: d.Factor, Offset: d.Offset, Round: d.Round}
}

// Range returns the canonical bounds of the setting.
// Bool settings are [0, 1]; enum settings span their option values.
func (d Descriptor) Range() numfield.Range {
	switch d.Kind {
	case KindBool:
		return numfield.Range{Min: 0, Max: 1}
	case KindEnum:
		if len(d.Options) == 0 {
			return numfield.Range{}
		}
		r := numfield.Range{Min: d.Options[0].Value, Max: d.Options[0].Value}
		for _, o := range d.Options[1:] {
			r.Min = min(r.Min, o.Value)
			r.Max = max(r.Max, o.Value)
		}
		return r
	default:
		return numfield.RangeFromDisplay(d.Min, d.Max, d.Transform())
	}
}

// CanonicalStep converts Step to canonical units, never less than 1
func (d Descriptor) CanonicalStep() int {
	if d.Step <= 0 {
		return 1
	}
	f := d.Factor
	if f == 0 {
		f = 1
	}
	return max(1, int(math.Round(d.Step/math.Abs(f))))
}

// Option returns the enum option with the given value
func (d Descriptor) Option(value int) (Option, bool) {
	for _, o := range d.Options {
		if o.Value == value {
			return o, true
		}
	}
	return Option{}, false
}

// FormatValue renders a canonical value for humans
func (d Descriptor) FormatValue(value int) string {
	switch d.Kind {
	case KindBool:
		if value != 0 {
			return "on"
		}
		return "off"
	case KindEnum:
		if o, ok := d.Option(value); ok {
			return o.Label
		}
		return fmt.Sprintf("unknown (%d)", value)
	default:
		s := numfield.FormatDisplay(numfield.ToDisplay(value, d.Transform()))
		if d.Unit != "" {
			s += " " + d.Unit
		}
		return s
	}
}

// FieldOptions builds numfield options for the setting
func (d Descriptor) FieldOptions(sentinel numfield.Sentinel, onChange numfield.ChangeFunc) numfield.Options {
	return numfield.Options{
		Transform: d.Transform(),
		Range:     d.Range(),
		Sentinel:  sentinel,
		Step:      d.CanonicalStep(),
		OnChange:  onChange,
	}
}

// Layout is the descriptor set of one firmware family
type Layout struct {
	Name        string
	Descriptors []Descriptor

	index map[string]int
}

// Lookup returns the descriptor of a setting
func (l *Layout) Lookup(name string) (Descriptor, bool) {
	i, ok := l.index[name]
	if !ok {
		return Descriptor{}, false
	}
	return l.Descriptors[i], true
}

// Common returns the common-scope descriptors in layout order
func (l *Layout) Common() []Descriptor {
	var out []Descriptor
	for _, d := range l.Descriptors {
		if d.Scope == ScopeCommon {
			out = append(out, d)
		}
	}
	return out
}

// Individual returns the per-ESC descriptors in layout order
func (l *Layout) Individual() []Descriptor {
	var out []Descriptor
	for _, d := range l.Descriptors {
		if d.Scope == ScopeIndividual {
			out = append(out, d)
		}
	}
	return out
}

// Defaults returns the minimum canonical value of every setting, used when
// creating a fresh settings file
func (l *Layout) Defaults() map[string]int {
	out := make(map[string]int, len(l.Descriptors))
	for _, d := range l.Descriptors {
		out[d.Name] = numfield.Fallback(d.Range())
	}
	return out
}

const (
	LayoutBLHeliS = "BLHeli_S"
	LayoutBluejay = "Bluejay"
	LayoutAM32    = "AM32"
)

var layouts = map[string]*Layout{}

func register(name string, descriptors []Descriptor) {
	l := &Layout{Name: name, Descriptors: descriptors, index: make(map[string]int, len(descriptors))}
	for i, d := range descriptors {
		l.index[d.Name] = i
	}
	layouts[name] = l
}

// LookupLayout returns a registered layout. Names are matched case-insensitively.
func LookupLayout(name string) (*Layout, error) {
	if l, ok := layouts[name]; ok {
		return l, nil
	}
	for k, l := range layouts {
		if strings.EqualFold(k, name) {
			return l, nil
		}
	}
	return nil, NewLayoutError(fmt.Sprintf("unknown layout %q", name))
}

// Layouts returns the registered layout names, sorted
func Layouts() []string {
	names := make([]string, 0, len(layouts))
	for k := range layouts {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func slider(name, label string, lo, hi float64) Descriptor {
	return Descriptor{Name: name, Label: label, Kind: KindSlider, Min: lo, Max: hi, Step: 1}
}

func number(name, label string, lo, hi float64) Descriptor {
	return Descriptor{Name: name, Label: label, Kind: KindNumber, Min: lo, Max: hi, Step: 1}
}

func toggle(name, label string) Descriptor {
	return Descriptor{Name: name, Label: label, Kind: KindBool}
}

func enum(name, label string, opts ...Option) Descriptor {
	return Descriptor{Name: name, Label: label, Kind: KindEnum, Options: opts}
}

func individual(d Descriptor) Descriptor {
	d.Scope = ScopeIndividual
	return d
}

func init() {
	motorDirection := individual(enum("MOTOR_DIRECTION", "Motor Direction",
		Option{1, "Normal"},
		Option{2, "Reversed"},
		Option{3, "Bidirectional"},
		Option{4, "Bidirectional Reversed"},
	))

	register(LayoutBLHeliS, []Descriptor{
		motorDirection,
		enum("STARTUP_POWER", "Startup Power",
			Option{1, "0.031"}, Option{2, "0.047"}, Option{3, "0.063"}, Option{4, "0.094"},
			Option{5, "0.125"}, Option{6, "0.188"}, Option{7, "0.25"}, Option{8, "0.38"},
			Option{9, "0.50"}, Option{10, "0.75"}, Option{11, "1.00"}, Option{12, "1.25"},
			Option{13, "1.50"},
		),
		enum("COMMUTATION_TIMING", "Motor Timing",
			Option{1, "Low"}, Option{2, "MediumLow"}, Option{3, "Medium"},
			Option{4, "MediumHigh"}, Option{5, "High"},
		),
		enum("DEMAG_COMPENSATION", "Demag Compensation",
			Option{1, "Off"}, Option{2, "Low"}, Option{3, "High"},
		),
		slider("BEEP_STRENGTH", "Beep Strength", 1, 255),
		slider("BEACON_STRENGTH", "Beacon Strength", 1, 255),
		enum("BEACON_DELAY", "Beacon Delay",
			Option{1, "1 minute"}, Option{2, "2 minutes"}, Option{3, "5 minutes"},
			Option{4, "10 minutes"}, Option{5, "Infinite"},
		),
		toggle("TEMPERATURE_PROTECTION", "Temperature Protection"),
		toggle("LOW_RPM_POWER_PROTECTION", "Low RPM Power Protection"),
		toggle("BRAKE_ON_STOP", "Brake On Stop"),
		{Name: "PPM_MIN_THROTTLE", Label: "PPM Min Throttle", Kind: KindNumber, Min: 1000, Max: 1500, Step: 4, Factor: 4, Offset: 1000, Unit: "µs"},
		{Name: "PPM_MAX_THROTTLE", Label: "PPM Max Throttle", Kind: KindNumber, Min: 1504, Max: 2020, Step: 4, Factor: 4, Offset: 1000, Unit: "µs"},
		{Name: "PPM_CENTER_THROTTLE", Label: "PPM Center Throttle", Kind: KindNumber, Min: 1000, Max: 2020, Step: 4, Factor: 4, Offset: 1000, Unit: "µs"},
	})

	register(LayoutBluejay, []Descriptor{
		motorDirection,
		slider("BEEP_STRENGTH", "Beep Strength", 1, 255),
		slider("BEACON_STRENGTH", "Beacon Strength", 1, 255),
		{Name: "STARTUP_POWER_MIN", Label: "Minimum Startup Power", Kind: KindSlider, Min: 1000, Max: 1125, Step: 1, Offset: 1000},
		toggle("STARTUP_BEEP", "Startup Beep"),
		toggle("DITHERING", "Dithering"),
		slider("RPM_POWER_SLOPE", "RPM Power Protection", 1, 13),
		enum("PWM_FREQUENCY", "PWM Frequency",
			Option{24, "24 kHz"}, Option{48, "48 kHz"}, Option{96, "96 kHz"},
		),
		enum("TEMPERATURE_PROTECTION", "Temperature Protection",
			Option{0, "Disabled"}, Option{1, "80°C"}, Option{2, "90°C"}, Option{3, "100°C"},
			Option{4, "110°C"}, Option{5, "120°C"}, Option{6, "130°C"}, Option{7, "140°C"},
		),
		enum("DEMAG_COMPENSATION", "Demag Compensation",
			Option{1, "Off"}, Option{2, "Low"}, Option{3, "High"},
		),
		slider("BRAKE_ON_STOP", "Brake On Stop", 0, 255),
		enum("POWER_RATING", "Power Rating",
			Option{1, "1S"}, Option{2, "2S+"},
		),
	})

	register(LayoutAM32, []Descriptor{
		individual(toggle("REVERSE_DIRECTION", "Reverse Direction")),
		toggle("BIDIRECTIONAL_MODE", "Bidirectional Mode"),
		toggle("SINUSOIDAL_STARTUP", "Sinusoidal Startup"),
		toggle("COMPLEMENTARY_PWM", "Complementary PWM"),
		toggle("VARIABLE_PWM_FREQUENCY", "Variable PWM Frequency"),
		toggle("STUCK_ROTOR_PROTECTION", "Stuck Rotor Protection"),
		toggle("BRAKE_ON_STOP", "Brake On Stop"),
		{Name: "TIMING_ADVANCE", Label: "Timing Advance", Kind: KindSlider, Min: 0, Max: 22.5, Step: 7.5, Factor: 7.5, Unit: "°"},
		{Name: "PWM_FREQUENCY", Label: "PWM Frequency", Kind: KindSlider, Min: 8, Max: 48, Step: 1, Unit: "kHz"},
		{Name: "STARTUP_POWER", Label: "Startup Power", Kind: KindSlider, Min: 50, Max: 150, Step: 1, Unit: "%"},
		{Name: "MOTOR_KV", Label: "Motor KV", Kind: KindNumber, Min: 20, Max: 10220, Step: 40, Factor: 40, Offset: 20},
		number("MOTOR_POLES", "Motor Poles", 2, 36),
		slider("BEEP_VOLUME", "Beep Volume", 0, 11),
		slider("SINE_MODE_RANGE", "Sine Mode Range", 5, 25),
		slider("BRAKE_STRENGTH", "Brake Strength", 1, 10),
		slider("RUNNING_BRAKE_LEVEL", "Running Brake Level", 1, 10),
		{Name: "TEMPERATURE_LIMIT", Label: "Temperature Limit", Kind: KindNumber, Min: 70, Max: 141, Step: 1, Unit: "°C"},
		{Name: "CURRENT_LIMIT", Label: "Current Limit", Kind: KindNumber, Min: 0, Max: 202, Step: 2, Factor: 2, Unit: "A"},
		slider("SINE_MODE_POWER", "Sine Mode Power", 1, 10),
		enum("LOW_VOLTAGE_CUTOFF", "Low Voltage Cutoff",
			Option{0, "Off"}, Option{1, "Cell Based"}, Option{2, "Absolute"},
		),
		{Name: "LOW_VOLTAGE_THRESHOLD", Label: "Low Voltage Threshold", Kind: KindNumber, Min: 2.5, Max: 3.5, Step: 0.01, Factor: 0.01, Offset: 2.5, Unit: "V"},
		{Name: "SERVO_LOW_THRESHOLD", Label: "Servo Low Threshold", Kind: KindNumber, Min: 750, Max: 1250, Step: 2, Factor: 2, Offset: 750, Unit: "µs"},
		{Name: "SERVO_HIGH_THRESHOLD", Label: "Servo High Threshold", Kind: KindNumber, Min: 1750, Max: 2250, Step: 2, Factor: 2, Offset: 1750, Unit: "µs"},
		{Name: "SERVO_NEUTRAL", Label: "Servo Neutral", Kind: KindNumber, Min: 1374, Max: 1630, Step: 1, Offset: 1374, Unit: "µs"},
		number("SERVO_DEADBAND", "Servo Deadband", 0, 100),
	})
}
