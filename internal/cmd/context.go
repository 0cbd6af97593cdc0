package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/meetus/internal/auth"
	"github.com/felixgeelhaar/meetus/internal/config"
	"github.com/felixgeelhaar/meetus/internal/log"
	"github.com/felixgeelhaar/meetus/internal/platform"
	"github.com/felixgeelhaar/meetus/internal/tokenstore"
	"github.com/felixgeelhaar/meetus/internal/ux"
	"github.com/felixgeelhaar/meetus/internal/version"
)

// CommandContext holds the persistent flags of one invocation. Empty values
// mean the flag was not given and the configuration wins.
type CommandContext struct {
	ConfigPath string
	APIURL     string
	LogLevel   string
	Format     string
	NoColor    bool

	noColorSet bool
}

// NewCommandContext extracts command context from cobra.Command flags.
// Commands should call this in their RunE function to get their configuration:
//
//	func runCommand(cmd *cobra.Command, args []string) error {
//		ctx, err := NewCommandContext(cmd)
//		if err != nil {
//			return fmt.Errorf("failed to create command context: %w", err)
//		}
//		// Use ctx.Format, ctx.NoColor, etc.
//	}
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	apiURL, err := cmd.Flags().GetString("api-url")
	if err != nil {
		return nil, err
	}

	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}

	noColor, err := cmd.Flags().GetBool("no-color")
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		ConfigPath: config.ExpandPath(configPath),
		APIURL:     strings.TrimSpace(apiURL),
		LogLevel:   logLevel,
		Format:     strings.ToLower(format),
		NoColor:    noColor,
		noColorSet: cmd.Flags().Changed("no-color"),
	}, nil
}

// LoadConfig loads the configuration and applies the flag overrides.
func (c *CommandContext) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}

	if c.APIURL != "" {
		cfg.API.BaseURL = strings.TrimRight(c.APIURL, "/")
	}
	if c.LogLevel != "" {
		cfg.Logging.Level = c.LogLevel
	}
	if c.Format != "" {
		cfg.Output.Format = c.Format
	}
	if c.noColorSet {
		cfg.Output.NoColor = c.NoColor
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App is the wired object graph behind one command invocation.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Store   tokenstore.Store
	Client  *platform.Client
	Manager *auth.Manager

	out     io.Writer
	closers []func()
}

// newApp builds the configuration, logger, token store, identity client
// and session manager for cmd. Callers must Close the result.
func newApp(cmd *cobra.Command) (*App, error) {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to create command context: %w", err)
	}

	cfg, err := cmdCtx.LoadConfig()
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, out: cmd.OutOrStdout()}

	logger, logCleanup := setupLogging(cfg)
	app.Logger = logger
	app.closers = append(app.closers, logCleanup)

	store, storeCleanup, err := newTokenStore(cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store
	app.closers = append(app.closers, storeCleanup)

	app.Client = platform.NewClient(platform.Config{
		BaseURL:      cfg.API.BaseURL,
		LoginPath:    cfg.API.LoginPath,
		UserInfoPath: cfg.API.UserInfoPath,
		Timeout:      cfg.API.Timeout,
		UserAgent:    version.GetInfo().UserAgent(),
	}, store).WithLogger(logger)

	app.Manager = auth.NewManager(app.Client, store).WithLogger(logger)

	logger.Debug("command started",
		"command", cmd.CommandPath(),
		"api_url", cfg.API.BaseURL,
		"storage", cfg.Storage.Backend,
	)
	return app, nil
}

// Close releases the log file and store connections, newest first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Print writes data in the configured output format.
func (a *App) Print(data any) error {
	return printFormatted(a.out, a.Config.Output.Format, a.Config.Output.NoColor, data)
}

func printFormatted(w io.Writer, format string, noColor bool, data any) error {
	formatter, err := ux.NewFormatter(format, &ux.FormatterOptions{
		Writer:  w,
		NoColor: noColor,
	})
	if err != nil {
		return err
	}
	return formatter.Format(data)
}
