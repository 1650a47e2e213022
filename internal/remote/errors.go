package remote

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates nothing listens at the address
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeHTTP indicates a non-2xx response
	ErrTypeHTTP
	// ErrTypeParse indicates a response that could not be decoded
	ErrTypeParse
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is returned by every Client call that fails
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int // HTTP status code (if applicable)
	Hint       string
	Err        error
	Retryable  bool
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// classifyNetworkError maps a transport error to an Error
func classifyNetworkError(message string, err error) *Error {
	if os.IsTimeout(err) {
		return &Error{Type: ErrTypeTimeout, Message: message, Err: err, Retryable: true}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{Type: ErrTypeDNS, Message: message, Err: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return &Error{Type: ErrTypeConnectionRefused, Message: message, Err: err, Retryable: true}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if inner := classifyNetworkError(message, urlErr.Err); inner.Type != ErrTypeNetwork {
			inner.Err = err
			return inner
		}
	}

	return &Error{Type: ErrTypeNetwork, Message: message, Err: err, Retryable: true}
}

// newHTTPError creates an error for a non-2xx response. Server errors are retryable.
func newHTTPError(status int, message, hint string) *Error {
	return &Error{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: status,
		Hint:       hint,
		Retryable:  status >= 500,
	}
}

func newParseError(message string, err error) *Error {
	return &Error{Type: ErrTypeParse, Message: message, Err: err}
}

func asError(err error) (*Error, bool) {
	var re *Error
	ok := errors.As(err, &re)
	return re, ok
}

// IsNetworkError checks if an error is a transport error (timeout, refused, DNS included)
func IsNetworkError(err error) bool {
	if re, ok := asError(err); ok {
		return re.Type == ErrTypeNetwork ||
			re.Type == ErrTypeTimeout ||
			re.Type == ErrTypeConnectionRefused ||
			re.Type == ErrTypeDNS
	}
	return false
}

// IsHTTPError checks if an error is a non-2xx response
func IsHTTPError(err error) bool {
	re, ok := asError(err)
	return ok && re.Type == ErrTypeHTTP
}

// IsNotFound checks if the server reported an unknown setting or route
func IsNotFound(err error) bool {
	re, ok := asError(err)
	return ok && re.StatusCode == http.StatusNotFound
}

// IsParseError checks if a response could not be decoded
func IsParseError(err error) bool {
	re, ok := asError(err)
	return ok && re.Type == ErrTypeParse
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	re, ok := asError(err)
	return ok && re.Retryable
}

// GetTroubleshootingHint returns user-friendly advice for an error
func GetTroubleshootingHint(err error) string {
	re, ok := asError(err)
	if !ok {
		return ""
	}
	if re.Hint != "" {
		return re.Hint
	}

	switch re.Type {
	case ErrTypeTimeout:
		return "The edit server did not answer in time. Check that it is running and reachable."
	case ErrTypeConnectionRefused:
		return "Nothing is listening at that address. Start it with 'escconf serve' or check the port."
	case ErrTypeDNS:
		return "The server name could not be resolved. Use the IP address shown by 'escconf scan'."
	case ErrTypeNetwork:
		return "Check that this machine and the edit server are on the same network."
	case ErrTypeHTTP:
		if re.StatusCode == http.StatusNotFound {
			return "The layout served does not have that setting. Use 'escconf remote show' to list them."
		}
		return "The edit server rejected the request."
	case ErrTypeParse:
		return "The server answered with something other than escconf JSON. Check the address."
	default:
		return ""
	}
}
