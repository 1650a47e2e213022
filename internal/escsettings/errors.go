package escsettings

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeValidation indicates a stored value violates its descriptor
	ErrTypeValidation ErrorType = iota
	// ErrTypeUnknownSetting indicates a setting name the layout does not define
	ErrTypeUnknownSetting
	// ErrTypeLayout indicates an unknown or mismatched settings layout
	ErrTypeLayout
	// ErrTypeParse indicates a malformed settings file
	ErrTypeParse
	// ErrTypeIO indicates a filesystem failure
	ErrTypeIO
	// ErrTypeIndex indicates an ESC index outside the loaded set
	ErrTypeIndex
	// ErrTypeUnknown indicates an unknown or unexpected error
	ErrTypeUnknown
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeUnknownSetting:
		return "Unknown Setting"
	case ErrTypeLayout:
		return "Layout Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeIO:
		return "I/O Error"
	case ErrTypeIndex:
		return "Index Error"
	case ErrTypeUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// SettingError represents an error raised while handling ESC settings
type SettingError struct {
	Type    ErrorType // Category of error
	Setting string    // Setting name (if applicable)
	Message string    // Human-readable error message
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *SettingError) Error() string {
	msg := e.Message
	if e.Setting != "" {
		msg = e.Setting + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap returns the underlying error for error chain inspection
func (e *SettingError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a validation error
func NewValidationError(setting, message string) *SettingError {
	return &SettingError{
		Type:    ErrTypeValidation,
		Setting: setting,
		Message: message,
	}
}

// NewUnknownSettingError creates an error for a setting the layout does not define
func NewUnknownSettingError(setting, layout string) *SettingError {
	return &SettingError{
		Type:    ErrTypeUnknownSetting,
		Setting: setting,
		Message: fmt.Sprintf("not defined by layout %s", layout),
	}
}

// NewLayoutError creates a layout error
func NewLayoutError(message string) *SettingError {
	return &SettingError{
		Type:    ErrTypeLayout,
		Message: message,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *SettingError {
	return &SettingError{
		Type:    ErrTypeParse,
		Message: message,
		Err:     err,
	}
}

// NewIOError creates a filesystem error
func NewIOError(message string, err error) *SettingError {
	return &SettingError{
		Type:    ErrTypeIO,
		Message: message,
		Err:     err,
	}
}

// NewIndexError creates an error for an ESC index outside [0, count)
func NewIndexError(index, count int) *SettingError {
	return &SettingError{
		Type:    ErrTypeIndex,
		Message: fmt.Sprintf("ESC index %d out of range (have %d)", index, count),
	}
}

func errorType(err error) (ErrorType, bool) {
	var se *SettingError
	if errors.As(err, &se) {
		return se.Type, true
	}
	return ErrTypeUnknown, false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeValidation
}

// IsUnknownSettingError checks if an error is an unknown-setting error
func IsUnknownSettingError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeUnknownSetting
}

// IsLayoutError checks if an error is a layout error
func IsLayoutError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeLayout
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeParse
}

// IsIOError checks if an error is a filesystem error
func IsIOError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeIO
}

// IsIndexError checks if an error is an ESC index error
func IsIndexError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeIndex
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	t, ok := errorType(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch t {
	case ErrTypeUnknownSetting:
		return strings.Join([]string{
			"The setting name is not part of this firmware layout.",
			"Troubleshooting:",
			"  • Run 'escconf show <file>' to list the settings of the file's layout",
			"  • Setting names are upper case (e.g. BEEP_STRENGTH)",
		}, "\n")

	case ErrTypeLayout:
		return strings.Join([]string{
			"The settings file names a layout escconf does not know.",
			"Supported layouts: " + strings.Join(Layouts(), ", "),
		}, "\n")

	case ErrTypeParse:
		return strings.Join([]string{
			"The settings file could not be parsed.",
			"Troubleshooting:",
			"  • Check the YAML indentation",
			"  • Each ESC needs an index and a settings map",
		}, "\n")

	case ErrTypeIO:
		return "The settings file could not be read or written. Check the path and permissions."

	case ErrTypeIndex:
		return "The ESC does not exist in this file. Run 'escconf show <file>' to see how many ESCs it holds."

	case ErrTypeValidation:
		return "A stored value is outside the range its firmware accepts. Edit it to bring it back in range."

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	var se *SettingError
	if !errors.As(err, &se) {
		return err.Error()
	}

	switch se.Type {
	case ErrTypeUnknownSetting:
		return fmt.Sprintf("Unknown setting %s", se.Setting)
	case ErrTypeParse:
		return "Failed to parse settings file"
	case ErrTypeIO:
		return "Settings file not accessible"
	default:
		if se.Setting != "" {
			return se.Setting + ": " + se.Message
		}
		return se.Message
	}
}
