package escsettings

import (
	"strings"
	"testing"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		layout, name, input string
		want                int
		wantErr             bool
	}{
		{LayoutBLHeliS, "BRAKE_ON_STOP", "on", 1, false},
		{LayoutBLHeliS, "BRAKE_ON_STOP", "False", 0, false},
		{LayoutBLHeliS, "BRAKE_ON_STOP", "maybe", 0, true},
		{LayoutBLHeliS, "DEMAG_COMPENSATION", "high", 3, false},
		{LayoutBLHeliS, "DEMAG_COMPENSATION", "2", 2, false},
		{LayoutBLHeliS, "DEMAG_COMPENSATION", "9", 0, true},
		{LayoutBLHeliS, "DEMAG_COMPENSATION", "extreme", 0, true},
		{LayoutBLHeliS, "BEEP_STRENGTH", "1250", 255, false},
		{LayoutBLHeliS, "BEEP_STRENGTH", "some string", 1, false},
		{LayoutAM32, "MOTOR_KV", "2020", 50, false},
	}

	for _, tt := range tests {
		t.Run(tt.name+"="+tt.input, func(t *testing.T) {
			d := mustLookup(t, tt.layout, tt.name)
			got, err := ParseValue(d, tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseValue(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !IsValidationError(err) {
				t.Errorf("Expected validation error, got %v", err)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseValue(%q) = %d, expected %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateStore_WarningsOnly(t *testing.T) {
	errs := ValidateStore(testStore(t))

	warnings, critical := SeparateWarningsAndErrors(errs)
	if len(critical) != 0 {
		t.Errorf("Expected no errors, got %v", critical)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0].Error(), "BEACON_STRENGTH") {
		t.Errorf("Expected one BEACON_STRENGTH warning, got %v", warnings)
	}
}

func TestValidateStore_Errors(t *testing.T) {
	s := testStore(t)
	escs := s.Snapshot()
	escs[0].Settings["BEEP_STRENGTH"] = 0
	escs[1].Settings["MYSTERY"] = 3
	escs[2].Settings["BRAKE_ON_STOP"] = 2
	delete(escs[3].Settings, "BEACON_DELAY")
	escs[3].Index = 0
	s.Restore(escs)

	warnings, critical := SeparateWarningsAndErrors(ValidateStore(s))

	if len(critical) != 4 {
		t.Errorf("Expected 4 errors, got %d:\n%s", len(critical), FormatValidationErrors(critical))
	}

	var unknown, duplicate bool
	for _, err := range critical {
		if IsUnknownSettingError(err) {
			unknown = true
		}
		if strings.Contains(err.Error(), "duplicate ESC index 0") {
			duplicate = true
		}
	}
	if !unknown {
		t.Error("Expected an unknown setting error")
	}
	if !duplicate {
		t.Error("Expected a duplicate index error")
	}

	// BEACON_STRENGTH disagrees, BEEP_STRENGTH now disagrees, BRAKE_ON_STOP
	// disagrees, BEACON_DELAY is missing on one ESC (and so also disagrees).
	if len(warnings) != 5 {
		t.Errorf("Expected 5 warnings, got %d:\n%s", len(warnings), FormatValidationErrors(warnings))
	}
}

func TestValidateStore_Empty(t *testing.T) {
	layout, _ := LookupLayout(LayoutBluejay)
	errs := ValidateStore(NewStore(layout, nil))
	if len(errs) != 1 || IsWarning(errs[0]) {
		t.Errorf("Expected one error for an empty store, got %v", errs)
	}
}

func TestFormatValidationErrors(t *testing.T) {
	if got := FormatValidationErrors(nil); got != "No validation errors" {
		t.Errorf("Unexpected message %q", got)
	}

	msg := FormatValidationErrors([]error{
		NewValidationError("BEEP_STRENGTH", "value 0 out of range (must be 1-255)"),
	})
	if !strings.Contains(msg, "1 error(s)") || !strings.Contains(msg, "1. Validation Error: BEEP_STRENGTH") {
		t.Errorf("Unexpected message %q", msg)
	}
}
