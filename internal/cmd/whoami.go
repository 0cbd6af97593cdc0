package cmd

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/meetus/internal/auth"
	apperrors "github.com/felixgeelhaar/meetus/internal/errors"
	"github.com/felixgeelhaar/meetus/internal/tokenstore"
	"github.com/felixgeelhaar/meetus/internal/ux"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Long: `Check the saved session against the identity service and print the user
it belongs to. A session the service no longer accepts is removed.

Examples:
  meetus whoami
  meetus whoami --format json`,
	Args: cobra.NoArgs,
	RunE: runWhoami,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Show the saved session token",
	Long: `Print a fingerprint of the saved session token and, when it is a JWT, its
subject and expiry. The token itself is only printed with --show.

The token is not checked against the identity service.

Examples:
  meetus token
  meetus token --show --format json`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().Bool("show", false, "print the raw token")

	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(tokenCmd)
}

func runWhoami(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	session := app.Manager.Revalidate(cmd.Context())
	if !session.IsAuthenticated() {
		return apperrors.NewNotLoggedInError()
	}
	return app.Print(newSessionReport(session, ""))
}

func runToken(cmd *cobra.Command, args []string) error {
	show, _ := cmd.Flags().GetBool("show")

	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	token, err := app.Store.Get(cmd.Context())
	if errors.Is(err, tokenstore.ErrNotFound) {
		return apperrors.NewNotLoggedInError()
	}
	if err != nil {
		return apperrors.NewTokenStoreError("read", err)
	}

	return app.Print(newTokenReport(token, show, time.Now()))
}

// sessionReport is the printable form of an authenticated session.
type sessionReport struct {
	Notice           string     `json:"-" yaml:"-"`
	User             auth.User  `json:"user" yaml:"user"`
	TokenFingerprint string     `json:"token_fingerprint" yaml:"token_fingerprint"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

func newSessionReport(session auth.Session, notice string) sessionReport {
	user, _ := session.User()
	report := sessionReport{
		Notice:           notice,
		User:             user,
		TokenFingerprint: tokenstore.Fingerprint(session.Token()),
	}
	if info, ok := auth.InspectToken(session.Token()); ok && !info.ExpiresAt.IsZero() {
		exp := info.ExpiresAt.UTC()
		report.ExpiresAt = &exp
	}
	return report
}

// RenderText implements ux.TextRenderer.
func (r sessionReport) RenderText(w io.Writer, noColor bool) error {
	if r.Notice != "" {
		if _, err := fmt.Fprintf(w, "%s\n\n", r.Notice); err != nil {
			return err
		}
	}

	rows := []ux.KeyValue{
		{Key: "User ID", Value: orNA(r.User.ID)},
		{Key: "Name", Value: orNA(r.User.Name)},
	}
	for _, k := range slices.Sorted(maps.Keys(r.User.Attributes)) {
		rows = append(rows, ux.KeyValue{Key: k, Value: fmt.Sprint(r.User.Attributes[k])})
	}
	rows = append(rows, ux.KeyValue{Key: "Token", Value: r.TokenFingerprint})
	if r.ExpiresAt != nil {
		rows = append(rows, ux.KeyValue{Key: "Expires", Value: r.ExpiresAt.Format(time.RFC3339)})
	}
	return ux.RenderFields(w, "User Information", rows, noColor)
}

// tokenReport describes the saved token without contacting the service.
type tokenReport struct {
	Fingerprint string     `json:"fingerprint" yaml:"fingerprint"`
	Token       string     `json:"token,omitempty" yaml:"token,omitempty"`
	JWT         bool       `json:"jwt" yaml:"jwt"`
	Subject     string     `json:"subject,omitempty" yaml:"subject,omitempty"`
	Issuer      string     `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	IssuedAt    *time.Time `json:"issued_at,omitempty" yaml:"issued_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	Expired     bool       `json:"expired" yaml:"expired"`
}

func newTokenReport(token string, show bool, now time.Time) tokenReport {
	report := tokenReport{Fingerprint: tokenstore.Fingerprint(token)}
	if show {
		report.Token = token
	}

	info, ok := auth.InspectToken(token)
	if !ok {
		return report
	}
	report.JWT = true
	report.Subject = info.Subject
	report.Issuer = info.Issuer
	report.Expired = info.Expired(now)
	if !info.IssuedAt.IsZero() {
		t := info.IssuedAt.UTC()
		report.IssuedAt = &t
	}
	if !info.ExpiresAt.IsZero() {
		t := info.ExpiresAt.UTC()
		report.ExpiresAt = &t
	}
	return report
}

// RenderText implements ux.TextRenderer.
func (r tokenReport) RenderText(w io.Writer, noColor bool) error {
	rows := []ux.KeyValue{{Key: "Fingerprint", Value: r.Fingerprint}}
	if r.Token != "" {
		rows = append(rows, ux.KeyValue{Key: "Token", Value: r.Token})
	}
	if !r.JWT {
		rows = append(rows, ux.KeyValue{Key: "Type", Value: "opaque"})
		return ux.RenderFields(w, "Session Token", rows, noColor)
	}

	rows = append(rows, ux.KeyValue{Key: "Type", Value: "JWT"})
	if r.Subject != "" {
		rows = append(rows, ux.KeyValue{Key: "Subject", Value: r.Subject})
	}
	if r.Issuer != "" {
		rows = append(rows, ux.KeyValue{Key: "Issuer", Value: r.Issuer})
	}
	if r.IssuedAt != nil {
		rows = append(rows, ux.KeyValue{Key: "Issued", Value: r.IssuedAt.Format(time.RFC3339)})
	}
	if r.ExpiresAt != nil {
		expires := r.ExpiresAt.Format(time.RFC3339)
		if r.Expired {
			expires += " (expired)"
		}
		rows = append(rows, ux.KeyValue{Key: "Expires", Value: expires})
	}
	return ux.RenderFields(w, "Session Token", rows, noColor)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
