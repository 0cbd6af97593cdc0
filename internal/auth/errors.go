package auth

import (
	"errors"
)

// Messages placed in a failed Session.
const (
	MsgLoginFailed = "Login failed"
	MsgNoToken     = "No token received from login API"
	MsgUserInfo    = "Failed to retrieve user information"
	MsgSaveFailed  = "Failed to save session"
)

var (
	// ErrInvalidUser is returned when the profile lacks an id or a name.
	ErrInvalidUser = errors.New("user info is missing id or name")

	// ErrSuperseded is returned when a newer operation started before this
	// one finished. The result was discarded.
	ErrSuperseded = errors.New("operation superseded by a newer one")

	// ErrAbandoned is returned when the caller's context ended before the
	// operation finished. The session was left as it was before the call.
	ErrAbandoned = errors.New("operation abandoned")
)
