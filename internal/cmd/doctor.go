package cmd

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/meetus/internal/health"
	"github.com/felixgeelhaar/meetus/internal/ux"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostics on configuration, token store and service",
	Long: `Run diagnostics to check that meetus is properly configured.

Checks include:
  • Configuration file and environment
  • Token store availability and the saved token's expiry
  • Identity service reachability (no credentials are sent)

Examples:
  meetus doctor
  meetus doctor --format json
`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var errUnhealthy = errors.New("diagnostics found problems")

// DoctorReport is the complete diagnostics report.
type DoctorReport struct {
	Status     health.Status    `json:"status" yaml:"status"`
	ConfigPath string           `json:"config_path" yaml:"config_path"`
	Checks     []*health.Result `json:"checks" yaml:"checks"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}

	report := &DoctorReport{ConfigPath: configPath(cmdCtx)}

	app, err := newApp(cmd)
	if err != nil {
		// Without a configuration nothing else can be checked.
		configResult := health.Unhealthy("Configuration invalid").WithDetail("error", err.Error())
		configResult.Name = "config"
		report.Checks = []*health.Result{configResult}
		report.Status = health.StatusUnhealthy
		if printErr := printFormatted(cmd.OutOrStdout(), cmdCtx.Format, cmdCtx.NoColor, report); printErr != nil {
			return printErr
		}
		return err
	}
	defer app.Close()

	configResult := health.Healthy("Configuration loaded").
		WithDetail("api_url", app.Config.API.BaseURL).
		WithDetail("storage", app.Config.Storage.Backend)
	configResult.Name = "config"

	manager := health.NewManager().WithTimeout(app.Config.API.Timeout + time.Second)
	manager.AddChecker(health.NewStoreChecker(app.Store, describeStore(app.Config)))
	manager.AddChecker(health.NewServiceChecker(app.Config.API.BaseURL, app.Config.API.Timeout))

	report.Checks = append([]*health.Result{configResult}, manager.Check(cmd.Context())...)
	report.Status = health.OverallStatus(report.Checks)

	for _, r := range report.Checks {
		app.Logger.Debug("health check", "name", r.Name, "status", r.Status.String(), "latency", r.Latency)
	}

	if err := app.Print(report); err != nil {
		return err
	}
	if report.Status == health.StatusUnhealthy {
		return errUnhealthy
	}
	return nil
}

// RenderText implements ux.TextRenderer.
func (r *DoctorReport) RenderText(w io.Writer, noColor bool) error {
	for _, check := range r.Checks {
		rows := []ux.KeyValue{
			{Key: "Status", Value: statusSymbol(check.Status) + " " + check.Status.String()},
			{Key: "Message", Value: check.Message},
		}
		for _, key := range slices.Sorted(maps.Keys(check.Details)) {
			rows = append(rows, ux.KeyValue{Key: key, Value: fmt.Sprint(check.Details[key])})
		}
		if err := ux.RenderFields(w, check.Name, rows, noColor); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Overall: %s\n", r.Status)
	return err
}

func statusSymbol(s health.Status) string {
	switch s {
	case health.StatusHealthy:
		return "✓"
	case health.StatusDegraded:
		return "⚠"
	default:
		return "✗"
	}
}
