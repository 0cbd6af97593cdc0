package auth

import (
	"fmt"
)

// State identifies which variant a Session holds.
type State int

const (
	// StateAnonymous means no user is signed in.
	StateAnonymous State = iota
	// StateLoading means a Login or Revalidate is in flight.
	StateLoading
	// StateAuthenticated means a token and user are present.
	StateAuthenticated
	// StateError means the last Login failed.
	StateError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is the client's view of who is signed in.
//
// It is a closed set of variants built only through the constructors below,
// so a token and user are present exactly when the state is authenticated,
// and an error message exactly when the state is error. The zero value is
// anonymous.
type Session struct {
	state State
	token string
	user  User
	err   string
}

// AnonymousSession returns the signed-out session.
func AnonymousSession() Session {
	return Session{state: StateAnonymous}
}

// LoadingSession returns the in-flight session.
func LoadingSession() Session {
	return Session{state: StateLoading}
}

// AuthenticatedSession returns a signed-in session.
func AuthenticatedSession(token string, user User) Session {
	return Session{state: StateAuthenticated, token: token, user: user.clone()}
}

// FailedSession returns a session carrying a login failure message.
func FailedSession(message string) Session {
	if message == "" {
		message = MsgLoginFailed
	}
	return Session{state: StateError, err: message}
}

// State returns the variant.
func (s Session) State() State { return s.state }

// IsAuthenticated reports whether a user is signed in.
func (s Session) IsAuthenticated() bool { return s.state == StateAuthenticated }

// Loading reports whether an operation is in flight.
func (s Session) Loading() bool { return s.state == StateLoading }

// Token returns the session token, empty unless authenticated.
func (s Session) Token() string { return s.token }

// User returns the signed-in user.
func (s Session) User() (User, bool) {
	if s.state != StateAuthenticated {
		return User{}, false
	}
	return s.user.clone(), true
}

// Err returns the failure message, empty unless the state is error.
func (s Session) Err() string { return s.err }

// View is the flat rendering of a Session used for display and JSON output.
type View struct {
	State   string `json:"state" yaml:"state"`
	Token   string `json:"token,omitempty" yaml:"token,omitempty"`
	User    *User  `json:"user,omitempty" yaml:"user,omitempty"`
	Loading bool   `json:"loading" yaml:"loading"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// View flattens the session.
func (s Session) View() View {
	v := View{
		State:   s.state.String(),
		Token:   s.token,
		Loading: s.Loading(),
		Error:   s.err,
	}
	if u, ok := s.User(); ok {
		v.User = &u
	}
	return v
}

// event is an input to reduce.
type event interface{ isEvent() }

type started struct{}

type succeeded struct {
	token string
	user  User
}

type failed struct{ message string }

type reset struct{}

type errorCleared struct{}

func (started) isEvent()      {}
func (succeeded) isEvent()    {}
func (failed) isEvent()       {}
func (reset) isEvent()        {}
func (errorCleared) isEvent() {}

// reduce returns the session that follows s after e.
func reduce(s Session, e event) Session {
	switch e := e.(type) {
	case started:
		return LoadingSession()
	case succeeded:
		return AuthenticatedSession(e.token, e.user)
	case failed:
		return FailedSession(e.message)
	case reset:
		return AnonymousSession()
	case errorCleared:
		if s.state == StateError {
			return AnonymousSession()
		}
		return s
	default:
		panic(fmt.Sprintf("auth: unhandled session event %T", e))
	}
}
