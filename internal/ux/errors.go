package ux

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/felixgeelhaar/meetus/internal/errors"
	"github.com/felixgeelhaar/meetus/internal/platform"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\n💡 Suggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError analyzes an error and adds contextual suggestions.
// AppErrors already carry suggestions and are returned unchanged.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && len(appErr.Suggestions) > 0 {
		return err
	}

	if platform.IsUnauthorized(err) {
		return NewErrorWithSuggestion(err,
			"Your session is no longer valid. Run 'meetus login' to sign in again")
	}

	if pe, ok := platform.AsError(err); ok {
		switch pe.Kind {
		case platform.KindNetwork:
			return NewErrorWithSuggestion(err,
				"Check your network connection and the API URL ('meetus config view' or --api-url)")
		case platform.KindServer:
			switch {
			case pe.Status == http.StatusForbidden:
				return NewErrorWithSuggestion(err,
					"This account is not allowed to use the service. Check that it is an employee account")
			case pe.Status == http.StatusNotFound:
				return NewErrorWithSuggestion(err,
					"The endpoint was not found. Check api.base_url and the endpoint paths in config.yaml")
			case pe.Status >= 500:
				return NewErrorWithSuggestion(err,
					"The identity service is having problems. Try again later")
			}
		}
	}

	errMsg := err.Error()

	// Permission errors
	if strings.Contains(errMsg, "permission denied") {
		return NewErrorWithSuggestion(err,
			"Check permissions on ~/.meetus and its files (the directory should be 0700)")
	}

	// Redis token store
	if strings.Contains(errMsg, "redis") && (strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "i/o timeout")) {
		return NewErrorWithSuggestion(err,
			"Start Redis or set MEETUS_TOKEN_STORE=file to keep the token on disk")
	}

	// Network errors
	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no route to host") {
		return NewErrorWithSuggestion(err,
			"Check your network connection and firewall settings")
	}

	return err
}
