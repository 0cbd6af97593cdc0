package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/meetus/internal/auth"
	"github.com/felixgeelhaar/meetus/internal/tokenstore"
)

// View renders the TUI (required by Bubble Tea)
func (m *AppModel) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.session.State() {
	case auth.StateLoading:
		body = m.renderLoading()
	case auth.StateAuthenticated:
		body = m.renderDashboard()
	default:
		body = m.renderLogin()
	}

	if m.width > 0 {
		body = lipgloss.NewStyle().MaxWidth(m.width).Render(body)
	}
	return body
}

func (m *AppModel) renderLoading() string {
	label := "Checking session..."
	if m.pending == OpLogin {
		label = "Logging in..."
	}
	return fmt.Sprintf("\n  %s %s\n", m.spinner.View(), m.styles.Muted.Render(label))
}

func (m *AppModel) renderLogin() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Welcome back"))
	b.WriteString("\n")
	b.WriteString(m.styles.Subtitle.Render("Step into our shopping metaverse for an unforgettable shopping experience"))
	b.WriteString("\n")

	b.WriteString(m.renderNotice())

	msg := m.session.Err()
	if msg == "" {
		msg = m.formErr
	}
	if msg != "" {
		errorBox := m.styles.Border.
			BorderForeground(lipgloss.Color("196")). // Red border
			Render(m.styles.Error.Render("Error: ") + msg)
		b.WriteString(errorBox)
		b.WriteString("\n\n")
	}

	if m.form != nil {
		b.WriteString(m.form.View())
		b.WriteString("\n")
	}

	b.WriteString(m.renderHelpLine(m.keys.loginBindings()))
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m *AppModel) renderDashboard() string {
	user, _ := m.session.User()
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Welcome to Dashboard"))
	b.WriteString("\n")
	b.WriteString(m.styles.Subtitle.Render("You have successfully logged in to the system"))
	b.WriteString("\n")

	b.WriteString(m.renderNotice())

	var info strings.Builder
	info.WriteString(m.styles.Status.Render("User Information"))
	info.WriteString("\n\n")
	info.WriteString(m.field("User ID", orNA(user.ID)))
	info.WriteString(m.field("Name", orNA(user.Name)))
	for _, k := range sortedKeys(user.Attributes) {
		info.WriteString(m.field(k, fmt.Sprint(user.Attributes[k])))
	}
	b.WriteString(m.styles.Border.Render(strings.TrimRight(info.String(), "\n")))
	b.WriteString("\n\n")

	var sess strings.Builder
	sess.WriteString(m.styles.Status.Render("Session"))
	sess.WriteString("\n\n")
	sess.WriteString(m.field("Token", tokenstore.Fingerprint(m.session.Token())))
	if tok, ok := auth.InspectToken(m.session.Token()); ok && !tok.ExpiresAt.IsZero() {
		expiry := tok.ExpiresAt.Local().Format(time.RFC1123)
		if tok.Expired(time.Now()) {
			expiry = m.styles.Warning.Render(expiry + " (expired)")
		}
		sess.WriteString(m.field("Expires", expiry))
	}
	if m.apiURL != "" {
		sess.WriteString(m.field("Service", m.apiURL))
	}
	b.WriteString(m.styles.Border.Render(strings.TrimRight(sess.String(), "\n")))
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString(m.renderHelp())
	}
	b.WriteString(m.renderHelpLine(m.keys.dashboardBindings()))
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m *AppModel) renderNotice() string {
	if m.notice == "" {
		return ""
	}
	style := m.styles.Success
	if m.warning {
		style = m.styles.Warning
	}
	return style.Render(m.notice) + "\n\n"
}

func (m *AppModel) renderHelp() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(m.styles.Status.Render("Keys"))
	b.WriteString("\n")
	for _, binding := range m.keys.dashboardBindings() {
		h := binding.Help()
		b.WriteString(fmt.Sprintf("  %s  %s\n", m.styles.Key.Render(h.Key), m.styles.KeyDesc.Render(h.Desc)))
	}
	return b.String()
}

func (m *AppModel) renderHelpLine(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		h := binding.Help()
		parts = append(parts, m.styles.Key.Render(h.Key)+" "+m.styles.KeyDesc.Render(h.Desc))
	}
	return m.styles.Help.Render(strings.Join(parts, " • ")) + "\n"
}

func (m *AppModel) renderFooter() string {
	return m.styles.Muted.Render(fmt.Sprintf("© %d MeetUs VR. All rights reserved.", time.Now().Year())) + "\n"
}

func (m *AppModel) field(label, value string) string {
	return m.styles.Label.Render(label) + " " + m.styles.Value.Render(value) + "\n"
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func sortedKeys(attrs map[string]any) []string {
	names := make([]string, 0, len(attrs))
	for k := range attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
