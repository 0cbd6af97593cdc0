package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/meetus/internal/auth"
	apperrors "github.com/felixgeelhaar/meetus/internal/errors"
	"github.com/felixgeelhaar/meetus/internal/platform"
	"github.com/felixgeelhaar/meetus/internal/tui"
)

const (
	msgLoginSuccess  = "Login successful!"
	msgLogoutSuccess = "Logged out successfully!"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login with email and password",
	Long: `Login to MeetUs VR with your employee email and password.

The session token is saved to the configured token store and reused by
later commands until you log out or the service rejects it.

Without --email and --password an interactive form is shown when stdin is
a terminal.

Examples:
  meetus login
  meetus login --email user@example.com --password mypass
  echo "$PASSWORD" | meetus login --email user@example.com --password-stdin`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout and remove the saved session",
	Long: `Logout removes the saved session token. It never contacts the identity
service and succeeds even when no session exists.

Examples:
  meetus logout`,
	Args: cobra.NoArgs,
	RunE: runLogout,
}

func init() {
	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("password", "", "account password")
	loginCmd.Flags().Bool("password-stdin", false, "read the password from stdin")
	loginCmd.MarkFlagsMutuallyExclusive("password", "password-stdin")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	creds, err := loginCredentials(cmd)
	if err != nil {
		return err
	}

	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	session, err := app.Manager.Login(cmd.Context(), creds)
	if err != nil {
		if platform.IsNetwork(err) {
			return apperrors.NewNetworkError(app.Config.API.BaseURL, err)
		}
		return err
	}

	return app.Print(newSessionReport(session, msgLoginSuccess))
}

// loginCredentials reads credentials from flags, stdin or an interactive
// form, and validates their shape.
func loginCredentials(cmd *cobra.Command) (auth.Credentials, error) {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	fromStdin, _ := cmd.Flags().GetBool("password-stdin")

	if fromStdin {
		p, err := readPassword(cmd.InOrStdin())
		if err != nil {
			return auth.Credentials{}, err
		}
		password = p
	}

	if email == "" || password == "" {
		if !fromStdin && tui.ShouldPrompt() {
			return tui.PromptForCredentials(email)
		}
		if email == "" {
			return auth.Credentials{}, fmt.Errorf("--email is required")
		}
		return auth.Credentials{}, fmt.Errorf("--password is required")
	}

	if failures := tui.ValidateCredentials(email, password); len(failures) > 0 {
		return auth.Credentials{}, failures[0]
	}
	return auth.Credentials{Email: strings.TrimSpace(email), Password: password}, nil
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.Manager.Logout(cmd.Context()); err != nil {
		return err
	}
	return app.Print(msgLogoutSuccess)
}
