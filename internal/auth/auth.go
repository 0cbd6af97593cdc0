// Package auth owns the client-side session for the MeetUs identity service.
//
// A Manager drives three operations against an IdentityClient and a
// tokenstore.Store:
//   - Login exchanges credentials for a token, persists it, and fetches the
//     user profile. It either fully succeeds or leaves no token behind.
//   - Logout drops the local session without contacting the service.
//   - Revalidate turns a persisted token back into a session at startup,
//     silently falling back to anonymous when the token no longer works.
//
// The Manager holds the only Session value. Views read it through Snapshot
// and never mutate it.
package auth

import (
	"context"
	"encoding/json"

	"github.com/felixgeelhaar/meetus/internal/platform"
)

// IdentityClient is the subset of the platform client the Manager needs.
//
// Implementations attach the stored token to UserInfo themselves, reading it
// from the same tokenstore.Store the Manager writes.
type IdentityClient interface {
	// Login exchanges credentials for a token without storing it.
	Login(ctx context.Context, email, password string) (*platform.LoginResponse, error)

	// UserInfo returns the raw profile of the stored token's owner.
	UserInfo(ctx context.Context) (json.RawMessage, error)
}

// Credentials are the inputs to Login.
type Credentials struct {
	Email    string
	Password string
}

// Compile-time verification that the platform client satisfies IdentityClient
var _ IdentityClient = (*platform.Client)(nil)
