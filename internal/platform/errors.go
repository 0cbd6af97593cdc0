package platform

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed call.
type Kind int

const (
	// KindServer means the service answered with a non-2xx status or an
	// unreadable body.
	KindServer Kind = iota + 1
	// KindNetwork means the request was sent but no response arrived.
	KindNetwork
	// KindClient means the request was never sent or was cancelled locally.
	KindClient
)

// Default messages used when nothing better is known.
const (
	msgServerDefault  = "An error occurred"
	msgNetwork        = "Network error - no response received"
	msgClientDefault  = "An unexpected error occurred"
	msgInvalidPayload = "Invalid response from server"
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	case KindClient:
		return "client"
	default:
		return "unknown"
	}
}

// Error is the normalized failure returned by every Client call.
//
// Message is always set and is suitable for showing to the user.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var s string
	if e.Status != 0 {
		s = fmt.Sprintf("%s error (HTTP %d): %s", e.Kind, e.Status, e.Message)
	} else {
		s = fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" (caused by: %v)", e.Cause)
	}
	return s
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// MessageOf returns the user-facing message carried by err, or fallback.
func MessageOf(err error, fallback string) string {
	if pe, ok := AsError(err); ok && pe.Message != "" {
		return pe.Message
	}
	return fallback
}

// IsUnauthorized reports whether err is a 401 from the service.
func IsUnauthorized(err error) bool {
	pe, ok := AsError(err)
	return ok && pe.Kind == KindServer && pe.Status == http.StatusUnauthorized
}

// IsNetwork reports whether err is a network failure.
func IsNetwork(err error) bool {
	pe, ok := AsError(err)
	return ok && pe.Kind == KindNetwork
}

func newClientError(cause error) *Error {
	msg := msgClientDefault
	if cause != nil && cause.Error() != "" {
		msg = cause.Error()
	}
	return &Error{Kind: KindClient, Message: msg, Cause: cause}
}
