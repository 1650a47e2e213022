package escsettings

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/muurk/escconf/internal/numfield"
)

// validateChoice checks a bool or enum value against its descriptor
func validateChoice(d Descriptor, value int) error {
	switch d.Kind {
	case KindBool:
		if value != 0 && value != 1 {
			return NewValidationError(d.Name, fmt.Sprintf("invalid value %d (must be 0 or 1)", value))
		}
	case KindEnum:
		if _, ok := d.Option(value); !ok {
			return NewValidationError(d.Name, fmt.Sprintf("invalid value %d (options: %s)", value, optionList(d)))
		}
	default:
		return NewValidationError(d.Name, fmt.Sprintf("%s setting is not a choice", d.Kind))
	}
	return nil
}

func optionList(d Descriptor) string {
	parts := make([]string, len(d.Options))
	for i, o := range d.Options {
		parts[i] = fmt.Sprintf("%d=%s", o.Value, o.Label)
	}
	return strings.Join(parts, ", ")
}

// ParseValue converts user text into a canonical value for a setting.
// Numeric settings follow the permissive field rules and never fail;
// bools accept on/off, true/false, yes/no, 1/0; enums accept a value or a label.
func ParseValue(d Descriptor, text string) (int, error) {
	text = strings.TrimSpace(text)

	switch d.Kind {
	case KindBool:
		switch strings.ToLower(text) {
		case "1", "on", "true", "yes", "enabled":
			return 1, nil
		case "0", "off", "false", "no", "disabled":
			return 0, nil
		}
		return 0, NewValidationError(d.Name, fmt.Sprintf("invalid value %q (want on or off)", text))

	case KindEnum:
		if v, err := strconv.Atoi(text); err == nil {
			if err := validateChoice(d, v); err != nil {
				return 0, err
			}
			return v, nil
		}
		for _, o := range d.Options {
			if strings.EqualFold(o.Label, text) {
				return o.Value, nil
			}
		}
		return 0, NewValidationError(d.Name, fmt.Sprintf("invalid value %q (options: %s)", text, optionList(d)))

	default:
		return numfield.Normalize(text, d.Transform(), d.Range()), nil
	}
}

// ValidateValue checks a stored canonical value against its descriptor
func ValidateValue(d Descriptor, value int) error {
	if !d.Kind.Numeric() {
		return validateChoice(d, value)
	}
	r := d.Range()
	if !r.Contains(value) {
		return NewValidationError(d.Name, fmt.Sprintf("value %d out of range (must be %d-%d)", value, r.Min, r.Max))
	}
	return nil
}

// ValidateStore checks the settings held by a store.
// Out-of-range values and unknown settings are errors; missing settings and
// ESCs disagreeing on a common setting are warnings.
func ValidateStore(s *Store) []error {
	var errs []error
	layout := s.Layout()
	escs := s.Snapshot()

	if len(escs) == 0 {
		return []error{NewValidationError("", "no ESCs in settings")}
	}

	seen := map[int]bool{}
	for _, e := range escs {
		if seen[e.Index] {
			errs = append(errs, NewValidationError("", fmt.Sprintf("duplicate ESC index %d", e.Index)))
		}
		seen[e.Index] = true

		names := make([]string, 0, len(e.Settings))
		for name := range e.Settings {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			d, ok := layout.Lookup(name)
			if !ok {
				errs = append(errs, fmt.Errorf("ESC %d: %w", e.Index+1, NewUnknownSettingError(name, layout.Name)))
				continue
			}
			if err := ValidateValue(d, e.Settings[name]); err != nil {
				errs = append(errs, fmt.Errorf("ESC %d: %w", e.Index+1, err))
			}
		}

		for _, d := range layout.Descriptors {
			if _, ok := e.Settings[d.Name]; !ok {
				errs = append(errs, NewValidationError(d.Name, fmt.Sprintf("warning: missing on ESC %d", e.Index+1)))
			}
		}
	}

	errs = append(errs, CheckDisagreements(s)...)
	return errs
}

// CheckDisagreements warns about common settings the ESCs do not agree on.
// These fields are shown out of sync until edited.
func CheckDisagreements(s *Store) []error {
	var warnings []error
	if s.Len() < 2 {
		return nil
	}
	for _, d := range s.Layout().Common() {
		_, inSync, err := s.Common(d.Name)
		if err == nil && !inSync {
			warnings = append(warnings, NewValidationError(d.Name, "warning: ESCs disagree, value shown out of sync"))
		}
	}
	return warnings
}

// FormatValidationErrors formats validation errors into a user-friendly message
func FormatValidationErrors(errs []error) string {
	if len(errs) == 0 {
		return "No validation errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Settings validation failed with %d error(s):\n", len(errs)))

	for i, err := range errs {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}

	return sb.String()
}

// IsWarning checks if a validation error is a warning (non-fatal).
// Warnings have messages starting with "warning:".
func IsWarning(err error) bool {
	var se *SettingError
	if errors.As(err, &se) {
		return strings.HasPrefix(se.Message, "warning:")
	}
	return strings.Contains(err.Error(), "warning:")
}

// SeparateWarningsAndErrors splits validation results into warnings and errors
func SeparateWarningsAndErrors(errs []error) (warnings []error, criticalErrors []error) {
	for _, err := range errs {
		if IsWarning(err) {
			warnings = append(warnings, err)
		} else {
			criticalErrors = append(criticalErrors, err)
		}
	}
	return warnings, criticalErrors
}
