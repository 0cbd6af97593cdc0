package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// keyMap defines the keyboard shortcuts
type keyMap struct {
	Quit    key.Binding
	Logout  key.Binding
	Refresh key.Binding
	Dismiss key.Binding
	Help    key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	Logout: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "logout"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Dismiss: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "dismiss error"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
}

// dashboardBindings are shown in the dashboard footer.
func (k keyMap) dashboardBindings() []key.Binding {
	return []key.Binding{k.Logout, k.Refresh, k.Help, k.Quit}
}

// loginBindings are shown under the login form.
func (k keyMap) loginBindings() []key.Binding {
	return []key.Binding{k.Dismiss, k.Quit}
}
