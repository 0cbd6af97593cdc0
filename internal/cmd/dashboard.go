package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/meetus/internal/tui"
	"github.com/felixgeelhaar/meetus/internal/ux"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"ui"},
	Short:   "Open the interactive login form and dashboard",
	Long: `Open the full-screen terminal UI. A saved session is checked first; when
it is still valid the dashboard is shown, otherwise the login form.

Keys on the dashboard:
  l      logout
  r      refresh user information
  ?      toggle help
  ctrl+c quit

Examples:
  meetus dashboard
  meetus dashboard --no-color`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	if !tui.IsInteractive() {
		return ux.NewErrorWithSuggestion(
			errors.New("the dashboard needs an interactive terminal"),
			"Use 'meetus login' and 'meetus whoami' in scripts",
		)
	}

	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	session, err := tui.Run(cmd.Context(), app.Manager, tui.Options{
		APIURL:  app.Config.API.BaseURL,
		NoColor: app.Config.Output.NoColor,
	})
	if err != nil {
		return err
	}

	app.Logger.Debug("dashboard closed", "state", session.State().String())
	return nil
}
