package exitcode

import (
	"errors"
	"os"
	"strings"

	apperrors "github.com/felixgeelhaar/meetus/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// ConfigError indicates an unreadable or invalid configuration
	ConfigError = 3

	// StorageError indicates the token store or a local file could not be used
	StorageError = 4

	// AuthError indicates an authentication failure or missing session
	AuthError = 5

	// NetworkError indicates the identity service could not be reached
	NetworkError = 6

	// Interrupted indicates the user cancelled with Ctrl+C
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// DetermineExitCode analyzes an error and returns the appropriate exit code.
// Coded AppErrors are classified by category; anything else falls back to
// message matching.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	// A store failure wins even when wrapped by a login error.
	if apperrors.HasCode(err, apperrors.ErrCodeAuthTokenStoreFailed) {
		return StorageError
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if code, ok := codeForCategory(appErr.Code); ok {
			return code
		}
	}

	errMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errMsg, "invalid flag"),
		strings.Contains(errMsg, "unknown command"),
		strings.Contains(errMsg, "required flag"),
		strings.Contains(errMsg, "is required"):
		return UsageError
	case strings.Contains(errMsg, "unauthorized"),
		strings.Contains(errMsg, "not logged in"),
		strings.Contains(errMsg, "login failed"):
		return AuthError
	case strings.Contains(errMsg, "network"),
		strings.Contains(errMsg, "connection"),
		strings.Contains(errMsg, "timeout"):
		return NetworkError
	}

	return GeneralError
}

func codeForCategory(code apperrors.ErrorCode) (int, bool) {
	category, _, ok := strings.Cut(string(code), "-")
	if !ok {
		return 0, false
	}
	switch category {
	case "AUTH":
		return AuthError, true
	case "NET":
		return NetworkError, true
	case "CONFIG":
		return ConfigError, true
	case "IO":
		return StorageError, true
	}
	return 0, false
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case ConfigError:
		return "Configuration error"
	case StorageError:
		return "Token storage error"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Network error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
