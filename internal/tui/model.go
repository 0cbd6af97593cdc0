// Package tui is the interactive terminal front end for meetus.
//
// AppModel routes on the session state: a spinner while an operation is in
// flight, the dashboard when authenticated, and the login form otherwise.
// All state changes go through a SessionService; the model only renders
// the sessions it gets back.
package tui

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/meetus/internal/auth"
)

// SessionService is implemented by *auth.Manager.
type SessionService interface {
	Snapshot() auth.Session
	Login(ctx context.Context, creds auth.Credentials) (auth.Session, error)
	Logout(ctx context.Context) (auth.Session, error)
	Revalidate(ctx context.Context) auth.Session
	ClearError() auth.Session
}

var _ SessionService = (*auth.Manager)(nil)

// Operation names carried by SessionMsg.
const (
	OpRevalidate = "revalidate"
	OpLogin      = "login"
	OpLogout     = "logout"
)

// Notices shown after an operation completes.
const (
	noticeLoggedIn   = "Login successful!"
	noticeLoggedOut  = "Logged out successfully!"
	noticeLogoutWarn = "Logged out, but the stored token could not be removed"
)

// SessionMsg reports the session returned by a finished operation.
type SessionMsg struct {
	Op      string
	Session auth.Session
	Err     error
}

// Options configure AppModel.
type Options struct {
	// APIURL is shown in the footer.
	APIURL string
	// NoColor selects PlainStyles.
	NoColor bool
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	ctx     context.Context
	cancel  context.CancelFunc
	ops     *inflight
	svc     SessionService
	session auth.Session
	pending string

	form     *huh.Form
	email    string
	password string

	spinner  spinner.Model
	formErr  string
	notice   string
	warning  bool
	showHelp bool
	quitting bool
	width    int
	height   int

	apiURL string
	keys   keyMap
	styles Styles
}

// NewAppModel creates the model. It starts in the loading state because
// Init revalidates the stored token.
func NewAppModel(ctx context.Context, svc SessionService, opts Options) *AppModel {
	styles := DefaultStyles()
	if opts.NoColor {
		styles = PlainStyles()
	}

	ctx, cancel := context.WithCancel(ctx)
	return &AppModel{
		ctx:     ctx,
		cancel:  cancel,
		ops:     newInflight(),
		svc:     svc,
		session: auth.LoadingSession(),
		pending: OpRevalidate,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(styles.Status),
		),
		apiURL: opts.APIURL,
		keys:   keys,
		styles: styles,
	}
}

// Session returns the last session the model rendered.
func (m *AppModel) Session() auth.Session {
	return m.session
}

// Init starts the spinner and revalidates the stored token.
func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.revalidateCmd())
}

// Update handles messages and updates the model
func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, m.quit()
		}
		if m.session.Loading() {
			return m, nil
		}
		if m.session.IsAuthenticated() {
			return m.updateDashboard(msg)
		}
		if key.Matches(msg, m.keys.Dismiss) && m.session.State() == auth.StateError {
			m.session = m.svc.ClearError()
			return m, nil
		}

	case SessionMsg:
		return m.applySession(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.session.Loading() || m.session.IsAuthenticated() || m.form == nil {
		return m, nil
	}
	return m.updateForm(msg)
}

func (m *AppModel) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Logout):
		m.notice = ""
		return m, m.logoutCmd()
	case key.Matches(msg, m.keys.Refresh):
		m.notice = ""
		m.session = auth.LoadingSession()
		m.pending = OpRevalidate
		return m, tea.Batch(m.spinner.Tick, m.revalidateCmd())
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *AppModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m, m.submit()
	case huh.StateAborted:
		return m, m.quit()
	}
	return m, cmd
}

// submit validates the form and starts a login. Invalid input never reaches
// the service.
func (m *AppModel) submit() tea.Cmd {
	if failures := ValidateCredentials(m.email, m.password); len(failures) > 0 {
		m.formErr = failures[0].Message
		return m.resetForm()
	}

	creds := auth.Credentials{Email: strings.TrimSpace(m.email), Password: m.password}
	m.password = ""
	m.formErr = ""
	m.notice = ""
	m.session = auth.LoadingSession()
	m.pending = OpLogin
	return tea.Batch(m.spinner.Tick, m.loginCmd(creds))
}

func (m *AppModel) applySession(msg SessionMsg) (tea.Model, tea.Cmd) {
	if errors.Is(msg.Err, auth.ErrSuperseded) {
		return m, nil
	}

	m.session = msg.Session
	m.pending = ""
	m.warning = false

	switch msg.Op {
	case OpLogin:
		if m.session.IsAuthenticated() {
			m.notice = noticeLoggedIn
			m.form = nil
			return m, nil
		}
	case OpLogout:
		m.notice = noticeLoggedOut
		if msg.Err != nil {
			m.notice = noticeLogoutWarn
			m.warning = true
		}
	case OpRevalidate:
		if m.session.IsAuthenticated() {
			m.form = nil
			return m, nil
		}
	}
	return m, m.resetForm()
}

// quit cancels any operation in flight and stops the program.
func (m *AppModel) quit() tea.Cmd {
	m.quitting = true
	m.cancel()
	return tea.Quit
}

// Shutdown cancels the operation context and blocks until every started
// operation has returned, so an interrupted Login has rolled back its token.
// Operations not yet started are skipped.
func (m *AppModel) Shutdown() {
	m.cancel()
	m.ops.drain()
}

// resetForm rebuilds the login form, keeping the typed email.
func (m *AppModel) resetForm() tea.Cmd {
	m.password = ""
	m.form = newLoginForm(&m.email, &m.password)
	return m.form.Init()
}

func (m *AppModel) revalidateCmd() tea.Cmd {
	ctx, svc, ops := m.ctx, m.svc, m.ops
	return func() tea.Msg {
		if !ops.acquire() {
			return nil
		}
		defer ops.release()
		return SessionMsg{Op: OpRevalidate, Session: svc.Revalidate(ctx)}
	}
}

func (m *AppModel) loginCmd(creds auth.Credentials) tea.Cmd {
	ctx, svc, ops := m.ctx, m.svc, m.ops
	return func() tea.Msg {
		if !ops.acquire() {
			return nil
		}
		defer ops.release()
		s, err := svc.Login(ctx, creds)
		return SessionMsg{Op: OpLogin, Session: s, Err: err}
	}
}

func (m *AppModel) logoutCmd() tea.Cmd {
	ctx, svc, ops := m.ctx, m.svc, m.ops
	return func() tea.Msg {
		if !ops.acquire() {
			return nil
		}
		defer ops.release()
		s, err := svc.Logout(ctx)
		return SessionMsg{Op: OpLogout, Session: s, Err: err}
	}
}

// inflight counts running session operations. Once drained it refuses new
// ones.
type inflight struct {
	mu      sync.Mutex
	cond    *sync.Cond
	running int
	closed  bool
}

func newInflight() *inflight {
	t := &inflight{}
	t.cond = sync.NewCond(&t.mu)
	return t
}

func (t *inflight) acquire() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.running++
	return true
}

func (t *inflight) release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running--
	if t.running == 0 {
		t.cond.Broadcast()
	}
}

func (t *inflight) drain() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for t.running > 0 {
		t.cond.Wait()
	}
}

// newLoginForm builds the email and password form bound to the given
// fields.
func newLoginForm(email, password *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key(FieldEmail).
				Title("Email").
				Placeholder("you@example.com").
				Value(email).
				Validate(ValidateEmail),
			huh.NewInput().
				Key(FieldPassword).
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(password).
				Validate(ValidatePassword),
		),
	).WithShowHelp(true)
}

// Run starts the full-screen app and returns the final session.
func Run(ctx context.Context, svc SessionService, opts Options) (auth.Session, error) {
	model := NewAppModel(ctx, svc, opts)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	finalModel, err := p.Run()
	model.Shutdown()
	if err != nil {
		return svc.Snapshot(), err
	}

	m, ok := finalModel.(*AppModel)
	if !ok {
		return svc.Snapshot(), errors.New("invalid final model type")
	}
	return m.Session(), nil
}
