package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Authentication errors (AUTH-001 to AUTH-099)
	ErrCodeAuthLoginFailed      ErrorCode = "AUTH-001"
	ErrCodeAuthNoToken          ErrorCode = "AUTH-002"
	ErrCodeAuthUserInfo         ErrorCode = "AUTH-003"
	ErrCodeAuthNotLoggedIn      ErrorCode = "AUTH-004"
	ErrCodeAuthUnauthorized     ErrorCode = "AUTH-005"
	ErrCodeAuthTokenStoreFailed ErrorCode = "AUTH-006"

	// Network errors (NET-001 to NET-099)
	ErrCodeNetUnreachable ErrorCode = "NET-001"
	ErrCodeNetTimeout     ErrorCode = "NET-002"
	ErrCodeNetServer      ErrorCode = "NET-003"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid   ErrorCode = "CONFIG-001"
	ErrCodeConfigUnmarshal ErrorCode = "CONFIG-002"
	ErrCodeConfigEnv       ErrorCode = "CONFIG-003"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
	ErrCodeDirectoryFailed ErrorCode = "IO-004"
	ErrCodeFileUnmarshal   ErrorCode = "IO-005"
)

const docsBase = "https://github.com/felixgeelhaar/meetus"

// AppError represents an enhanced error with code, suggestions, and documentation
type AppError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *AppError) WithDocs(url string) *AppError {
	e.DocsURL = url
	return e
}

// HasCode reports whether err is an AppError carrying the given code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Common error constructors for frequently used errors

// NewLoginFailedError creates a login failure error carrying the message shown to the user
func NewLoginFailedError(message string, cause error) *AppError {
	return Wrap(ErrCodeAuthLoginFailed, message, cause).
		WithSuggestions(
			"Check your email and password and try again",
			"Run 'meetus whoami' to see the current session",
		).
		WithDocs(docsBase + "#login")
}

// NewNotLoggedInError creates an error for commands that need a session
func NewNotLoggedInError() *AppError {
	return New(ErrCodeAuthNotLoggedIn, "not logged in").
		WithSuggestion("Run 'meetus login' to authenticate")
}

// NewTokenStoreError creates an error for token storage failures
func NewTokenStoreError(op string, cause error) *AppError {
	return Wrap(ErrCodeAuthTokenStoreFailed, fmt.Sprintf("token store %s failed", op), cause).
		WithSuggestion("Check permissions on ~/.meetus/auth.json").
		WithSuggestion("Use 'storage.backend: memory' in config.yaml to avoid persisting tokens")
}

// NewNetworkError creates an error for an identity service that did not answer
func NewNetworkError(endpoint string, cause error) *AppError {
	return Wrap(ErrCodeNetUnreachable, fmt.Sprintf("no response from identity service: %s", endpoint), cause).
		WithSuggestion("Check your network connection").
		WithSuggestion("Verify the API URL with 'meetus config view'")
}

// NewConfigInvalidError creates a configuration validation error
func NewConfigInvalidError(details string) *AppError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", details)).
		WithSuggestion("Run 'meetus config view' to inspect the effective configuration").
		WithDocs(docsBase + "#configuration")
}

// NewFileUnmarshalError creates an unmarshal error
func NewFileUnmarshalError(path string, format string, cause error) *AppError {
	return Wrap(ErrCodeFileUnmarshal, fmt.Sprintf("failed to parse %s file: %s", format, path), cause).
		WithSuggestion("Check the file syntax and format").
		WithSuggestion(fmt.Sprintf("Ensure the file is valid %s", format))
}
