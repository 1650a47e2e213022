package escsettings

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/muurk/escconf/internal/numfield"
)

func mustLookup(t *testing.T, layout, name string) Descriptor {
	t.Helper()
	l, err := LookupLayout(layout)
	if err != nil {
		t.Fatalf("LookupLayout(%s) failed: %v", layout, err)
	}
	d, ok := l.Lookup(name)
	if !ok {
		t.Fatalf("%s has no setting %s", layout, name)
	}
	return d
}

func TestDescriptorRange(t *testing.T) {
	tests := []struct {
		layout, name string
		want         numfield.Range
		wantStep     int
	}{
		{LayoutBLHeliS, "BEEP_STRENGTH", numfield.Range{Min: 1, Max: 255}, 1},
		{LayoutBLHeliS, "PPM_MIN_THROTTLE", numfield.Range{Min: 0, Max: 125}, 1},
		{LayoutBLHeliS, "PPM_MAX_THROTTLE", numfield.Range{Min: 126, Max: 255}, 1},
		{LayoutBLHeliS, "TEMPERATURE_PROTECTION", numfield.Range{Min: 0, Max: 1}, 1},
		{LayoutBLHeliS, "MOTOR_DIRECTION", numfield.Range{Min: 1, Max: 4}, 1},
		{LayoutBluejay, "PWM_FREQUENCY", numfield.Range{Min: 24, Max: 96}, 1},
		{LayoutBluejay, "STARTUP_POWER_MIN", numfield.Range{Min: 0, Max: 125}, 1},
		{LayoutAM32, "MOTOR_KV", numfield.Range{Min: 0, Max: 255}, 1},
		{LayoutAM32, "TIMING_ADVANCE", numfield.Range{Min: 0, Max: 3}, 1},
		{LayoutAM32, "CURRENT_LIMIT", numfield.Range{Min: 0, Max: 101}, 1},
		{LayoutAM32, "LOW_VOLTAGE_THRESHOLD", numfield.Range{Min: 0, Max: 100}, 1},
		{LayoutAM32, "SERVO_NEUTRAL", numfield.Range{Min: 0, Max: 256}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.layout+"/"+tt.name, func(t *testing.T) {
			d := mustLookup(t, tt.layout, tt.name)
			if got := d.Range(); got != tt.want {
				t.Errorf("Expected range %+v, got %+v", tt.want, got)
			}
			if got := d.CanonicalStep(); got != tt.wantStep {
				t.Errorf("Expected step %d, got %d", tt.wantStep, got)
			}
		})
	}
}

func TestDescriptorFormatValue(t *testing.T) {
	tests := []struct {
		layout, name string
		value        int
		want         string
	}{
		{LayoutBLHeliS, "BRAKE_ON_STOP", 1, "on"},
		{LayoutBLHeliS, "BRAKE_ON_STOP", 0, "off"},
		{LayoutBLHeliS, "DEMAG_COMPENSATION", 3, "High"},
		{LayoutBLHeliS, "DEMAG_COMPENSATION", 9, "unknown (9)"},
		{LayoutBLHeliS, "PPM_MIN_THROTTLE", 10, "1040 µs"},
		{LayoutBLHeliS, "BEEP_STRENGTH", 40, "40"},
		{LayoutAM32, "TIMING_ADVANCE", 3, "22.5 °"},
		{LayoutAM32, "MOTOR_KV", 50, "2020"},
		{LayoutAM32, "LOW_VOLTAGE_THRESHOLD", 80, "3.3 V"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustLookup(t, tt.layout, tt.name)
			if got := d.FormatValue(tt.value); got != tt.want {
				t.Errorf("FormatValue(%d) = %q, expected %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestLookupLayout(t *testing.T) {
	if _, err := LookupLayout("am32"); err != nil {
		t.Errorf("Expected case-insensitive lookup to succeed, got %v", err)
	}

	_, err := LookupLayout("KISS")
	if !IsLayoutError(err) {
		t.Errorf("Expected layout error, got %v", err)
	}

	want := []string{"AM32", "BLHeli_S", "Bluejay"}
	if diff := cmp.Diff(want, Layouts()); diff != "" {
		t.Errorf("Layouts() mismatch (-want +got):\n%s", diff)
	}
}

func TestLayoutScopes(t *testing.T) {
	l, _ := LookupLayout(LayoutBLHeliS)

	var individual []string
	for _, d := range l.Individual() {
		individual = append(individual, d.Name)
	}
	if diff := cmp.Diff([]string{"MOTOR_DIRECTION"}, individual); diff != "" {
		t.Errorf("Individual() mismatch (-want +got):\n%s", diff)
	}

	if got, want := len(l.Common()), len(l.Descriptors)-1; got != want {
		t.Errorf("Expected %d common settings, got %d", want, got)
	}
}

func TestLayoutDefaultsAreValid(t *testing.T) {
	for _, name := range Layouts() {
		l, _ := LookupLayout(name)
		for setting, value := range l.Defaults() {
			d, _ := l.Lookup(setting)
			if err := ValidateValue(d, value); err != nil {
				t.Errorf("%s default for %s invalid: %v", name, setting, err)
			}
		}
	}
}
