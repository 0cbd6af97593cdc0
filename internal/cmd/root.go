package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "meetus",
	Short: "Sign in to MeetUs VR from the terminal",
	Long: `meetus authenticates against the MeetUs VR identity service, keeps the
session token between runs, and shows who you are signed in as.

Run 'meetus dashboard' for the interactive login form and dashboard, or use
the login, logout, whoami and token commands from scripts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExecuteContext runs the root command with ctx. Cancelling ctx abandons any
// in-flight request.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default is $MEETUS_HOME/config.yaml or ~/.meetus/config.yaml)")
	rootCmd.PersistentFlags().String("api-url", "", "identity service base URL")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("format", "", "output format (text, json, yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
}
