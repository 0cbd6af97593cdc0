package health

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/meetus/internal/auth"
	"github.com/felixgeelhaar/meetus/internal/tokenstore"
)

// StoreChecker checks that the token store can be read and reports on the
// saved token.
type StoreChecker struct {
	store    tokenstore.Store
	location string
	now      func() time.Time
}

// NewStoreChecker creates a checker for store. location is shown in the
// result details.
func NewStoreChecker(store tokenstore.Store, location string) *StoreChecker {
	return &StoreChecker{
		store:    store,
		location: location,
		now:      time.Now,
	}
}

// Name returns the name of this health check.
func (c *StoreChecker) Name() string {
	return "token-store"
}

// Check reads the saved token without contacting the identity service.
// An expired JWT is degraded: the next command will need a new login.
func (c *StoreChecker) Check(ctx context.Context) *Result {
	token, err := c.store.Get(ctx)
	if errors.Is(err, tokenstore.ErrNotFound) {
		return Healthy("No saved session").
			WithDetail("location", c.location)
	}
	if err != nil {
		return Unhealthy("Token store unavailable").
			WithDetail("location", c.location).
			WithDetail("error", err.Error())
	}

	result := Healthy("Saved session found")
	info, ok := auth.InspectToken(token)
	if ok && info.Expired(c.now()) {
		result = Degraded("Saved token has expired")
	}

	result.WithDetail("location", c.location).
		WithDetail("fingerprint", tokenstore.Fingerprint(token))
	if ok && !info.ExpiresAt.IsZero() {
		result.WithDetail("expires_at", info.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return result
}
