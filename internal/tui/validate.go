package tui

import (
	"net/mail"
	"strings"
)

// Field names used in ValidationFailure.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
)

// ValidationFailure describes one invalid form field.
type ValidationFailure struct {
	Field   string
	Message string
}

// Error implements the error interface so failures can feed huh validators.
func (f ValidationFailure) Error() string {
	return f.Message
}

// ValidateCredentials checks the login form. Submission is blocked while
// any failure is returned.
func ValidateCredentials(email, password string) []ValidationFailure {
	var failures []ValidationFailure
	if err := ValidateEmail(email); err != nil {
		failures = append(failures, err.(ValidationFailure))
	}
	if err := ValidatePassword(password); err != nil {
		failures = append(failures, err.(ValidationFailure))
	}
	return failures
}

// ValidateEmail requires a bare address such as ann@example.com.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationFailure{Field: FieldEmail, Message: "Email is required"}
	}
	parsed, err := mail.ParseAddress(email)
	if err != nil || parsed.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return ValidationFailure{Field: FieldEmail, Message: "Please enter a valid email"}
	}
	return nil
}

// ValidatePassword requires a non-empty password.
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationFailure{Field: FieldPassword, Message: "Password is required"}
	}
	return nil
}
