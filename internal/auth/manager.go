package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	apperrors "github.com/felixgeelhaar/meetus/internal/errors"
	"github.com/felixgeelhaar/meetus/internal/log"
	"github.com/felixgeelhaar/meetus/internal/platform"
	"github.com/felixgeelhaar/meetus/internal/tokenstore"
)

// Manager owns the Session and runs the operations that change it.
//
// Every operation takes a generation number when it starts. A result is
// committed only if no newer operation (including Logout) has started and
// the caller's context is still live, so an abandoned Login can never
// overwrite a later state.
type Manager struct {
	client IdentityClient
	store  tokenstore.Store
	logger *log.Logger

	mu         sync.Mutex
	session    Session
	generation uint64
}

// NewManager creates a Manager with an anonymous session.
func NewManager(client IdentityClient, store tokenstore.Store) *Manager {
	return &Manager{
		client:  client,
		store:   store,
		logger:  log.DefaultLogger(),
		session: AnonymousSession(),
	}
}

// WithLogger sets the logger for session transitions.
func (m *Manager) WithLogger(logger *log.Logger) *Manager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// Snapshot returns the current session.
func (m *Manager) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// ClearError returns an error session to anonymous. Other states are kept.
func (m *Manager) ClearError() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = reduce(m.session, errorCleared{})
	return m.session
}

// Login signs in with creds.
//
// On success the token is persisted and the session is authenticated. On
// any failure the session carries a message and no token written by this
// call remains in the store. A failure is returned as an
// *apperrors.AppError whose Message equals the session's error.
func (m *Manager) Login(ctx context.Context, creds Credentials) (Session, error) {
	gen, prev := m.begin()
	logger := m.logger.WithContext(ctx).With("operation", "login")
	logger.Debug("login started", "email", creds.Email)

	resp, err := m.client.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		return m.fail(ctx, gen, prev, platform.MessageOf(err, MsgLoginFailed), err)
	}
	if resp == nil || resp.Token == "" {
		return m.fail(ctx, gen, prev, MsgNoToken, nil)
	}
	token := resp.Token
	previous := m.storedToken(ctx)

	if err := m.store.Set(ctx, token); err != nil {
		return m.fail(ctx, gen, prev, MsgSaveFailed, apperrors.NewTokenStoreError("write", err))
	}

	user, err := m.fetchUser(ctx)
	if err != nil {
		s, ferr := m.fail(ctx, gen, prev, MsgUserInfo, err)
		m.rollback(ctx, token, restoreToken(ferr, previous))
		return s, ferr
	}

	s, err := m.commit(ctx, gen, prev, succeeded{token: token, user: user})
	if err != nil {
		m.rollback(ctx, token, restoreToken(err, previous))
		logger.Debug("login result discarded", "error", err)
		return s, err
	}

	attrs := []any{"user_id", user.ID, "token", tokenstore.Fingerprint(token)}
	if info, ok := InspectToken(token); ok && !info.ExpiresAt.IsZero() {
		attrs = append(attrs, "expires_at", info.ExpiresAt)
	}
	logger.Info("login succeeded", attrs...)
	return s, nil
}

// Logout drops the session and the stored token. It never contacts the
// service, supersedes any operation in flight, and always leaves the session
// anonymous. A returned error means only that the store could not be
// cleared.
func (m *Manager) Logout(ctx context.Context) (Session, error) {
	m.mu.Lock()
	m.generation++
	m.session = reduce(m.session, reset{})
	s := m.session
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		m.logger.Warn("failed to clear stored token", "error", err)
		return s, apperrors.NewTokenStoreError("clear", err)
	}
	m.logger.Info("logged out")
	return s, nil
}

// Revalidate restores the session from the stored token.
//
// Without a stored token it returns anonymous without calling the service.
// If the user-info call fails for any reason the token is removed and the
// session is anonymous with no error message.
func (m *Manager) Revalidate(ctx context.Context) Session {
	logger := m.logger.WithContext(ctx).With("operation", "revalidate")

	token, err := m.store.Get(ctx)
	if err != nil {
		if errors.Is(err, tokenstore.ErrNotFound) {
			logger.Debug("no stored token")
		} else {
			logger.Warn("failed to read stored token", "error", err)
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		m.generation++
		m.session = reduce(m.session, reset{})
		return m.session
	}

	gen, prev := m.begin()
	fp := tokenstore.Fingerprint(token)

	user, err := m.fetchUser(ctx)
	if err != nil {
		s, cerr := m.commit(ctx, gen, prev, reset{})
		if cerr != nil {
			logger.Debug("revalidation result discarded", "error", cerr)
			return s
		}
		if err := tokenstore.ClearIfMatches(ctx, m.store, token); err != nil {
			logger.Warn("failed to clear rejected token", "error", err)
		}
		logger.Info("stored token rejected, session reset", "token", fp, "error", err)
		return s
	}

	s, cerr := m.commit(ctx, gen, prev, succeeded{token: token, user: user})
	if cerr != nil {
		logger.Debug("revalidation result discarded", "error", cerr)
		return s
	}
	logger.Info("session restored", "user_id", user.ID, "token", fp)
	return s
}

func (m *Manager) fetchUser(ctx context.Context) (User, error) {
	raw, err := m.client.UserInfo(ctx)
	if err != nil {
		return User{}, err
	}
	return ParseUser(raw)
}

// begin starts an operation and returns its generation and the session to
// restore if the caller abandons it.
func (m *Manager) begin() (uint64, Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.session
	if prev.Loading() {
		// The operation that set loading is now superseded and will not
		// finish it.
		prev = AnonymousSession()
	}
	m.generation++
	m.session = reduce(m.session, started{})
	return m.generation, prev
}

// commit applies e if gen is still the latest operation and ctx is live.
func (m *Manager) commit(ctx context.Context, gen uint64, prev Session, e event) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation {
		return m.session, ErrSuperseded
	}
	if err := ctx.Err(); err != nil {
		m.session = prev
		return m.session, fmt.Errorf("%w: %w", ErrAbandoned, err)
	}
	m.session = reduce(m.session, e)
	return m.session, nil
}

func (m *Manager) fail(ctx context.Context, gen uint64, prev Session, message string, cause error) (Session, error) {
	s, err := m.commit(ctx, gen, prev, failed{message: message})
	if err != nil {
		return s, err
	}
	m.logger.WithContext(ctx).WithError(cause).Warn("login failed", "reason", message)
	return s, apperrors.NewLoginFailedError(message, cause)
}

// rollback undoes the token write of a Login that did not commit. restore is
// put back when non-empty, otherwise token is removed if still stored.
func (m *Manager) rollback(ctx context.Context, token, restore string) {
	ctx = context.WithoutCancel(ctx)

	var err error
	if restore != "" {
		err = m.store.Set(ctx, restore)
	} else {
		err = tokenstore.ClearIfMatches(ctx, m.store, token)
	}
	if err != nil {
		m.logger.Warn("failed to roll back stored token", "token", tokenstore.Fingerprint(token), "error", err)
	}
}

// restoreToken returns the token to put back after a Login that did not
// commit. Only an abandoned call puts back what was stored before it
// started; a failed or superseded call just removes its own token.
func restoreToken(err error, previous string) string {
	if errors.Is(err, ErrAbandoned) {
		return previous
	}
	return ""
}

// storedToken returns the token in the store, or "" when there is none or
// it cannot be read.
func (m *Manager) storedToken(ctx context.Context) string {
	token, err := m.store.Get(context.WithoutCancel(ctx))
	if err != nil {
		if !errors.Is(err, tokenstore.ErrNotFound) {
			m.logger.Warn("failed to read stored token before login", "error", err)
		}
		return ""
	}
	return token
}
