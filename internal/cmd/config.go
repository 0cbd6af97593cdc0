package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/meetus/internal/config"
	apperrors "github.com/felixgeelhaar/meetus/internal/errors"
	"github.com/felixgeelhaar/meetus/internal/tui"
	"github.com/felixgeelhaar/meetus/internal/ux"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or edit meetus configuration",
	Long: `Manage meetus configuration stored at ~/.meetus/config.yaml

Configuration includes:
  • Identity service URL and endpoint paths
  • Token storage backend (file, memory, redis)
  • Logging settings
  • Default output format

Every key can also be set with a MEETUS_* environment variable, and the
persistent flags override both.

Examples:
  # Show configuration file path
  meetus config path

  # View the effective configuration
  meetus config view

  # Create the configuration file
  meetus config init --api-url https://api.example.com

  # Get or set a specific value
  meetus config get api.base_url
  meetus config set storage.backend redis
`,
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Display the effective configuration",
	Long:  `Display the configuration after defaults, the config file, environment variables and flags are applied. Secrets are masked.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigView,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration file",
	Long: `Write a configuration file with the default settings. The identity
service URL is taken from --api-url or asked for interactively.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  `Retrieve the effective value of a configuration key using dot notation (e.g., api.base_url).`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a specific configuration value",
	Long:  `Set the value of a configuration key in the config file using dot notation (e.g., storage.backend redis).`,
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")

	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	rootCmd.AddCommand(configCmd)
}

func configPath(cmdCtx *CommandContext) string {
	if cmdCtx.ConfigPath != "" {
		return cmdCtx.ConfigPath
	}
	return config.DefaultPath()
}

func runConfigView(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}

	cfg, err := cmdCtx.LoadConfig()
	if err != nil {
		return err
	}
	redacted := cfg.Redacted()

	// Use formatter for JSON/YAML output
	if cfg.Output.Format == "json" || cfg.Output.Format == "yaml" {
		return printFormatted(cmd.OutOrStdout(), cfg.Output.Format, cfg.Output.NoColor, redacted)
	}

	data, err := yaml.Marshal(redacted)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration file: %s\n\n", configPath(cmdCtx))
	fmt.Fprint(out, string(data))
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), configPath(cmdCtx))
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}
	force, _ := cmd.Flags().GetBool("force")

	path := configPath(cmdCtx)
	if _, err := os.Stat(path); err == nil && !force {
		if !tui.ShouldPrompt() {
			return ux.NewErrorWithSuggestion(
				fmt.Errorf("configuration file already exists: %s", path),
				"Use --force to overwrite it",
			)
		}
		overwrite, err := tui.PromptForConfirmation(fmt.Sprintf("Overwrite %s?", path), false)
		if err != nil {
			return err
		}
		if !overwrite {
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration unchanged")
			return nil
		}
	}

	cfg := config.Default()
	switch {
	case cmdCtx.APIURL != "":
		cfg.API.BaseURL = cmdCtx.APIURL
	case tui.ShouldPrompt():
		baseURL, err := tui.PromptForString(tui.Prompt{
			Message:     "Identity service URL",
			Default:     cfg.API.BaseURL,
			Placeholder: "https://api.example.com",
			Required:    true,
		})
		if err != nil {
			return err
		}
		cfg.API.BaseURL = baseURL
	}
	if cmdCtx.LogLevel != "" {
		cfg.Logging.Level = cmdCtx.LogLevel
	}
	if cmdCtx.Format != "" {
		cfg.Output.Format = cmdCtx.Format
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote configuration to %s\n", path)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}

	cfg, err := cmdCtx.LoadConfig()
	if err != nil {
		return err
	}

	value, err := getNestedValue(cfg, args[0])
	if err != nil {
		return fmt.Errorf("failed to get value: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}
	path := configPath(cmdCtx)

	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}

	if err := setNestedValue(cfg, key, value); err != nil {
		return fmt.Errorf("failed to set value: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s = %s\n", key, value)
	return nil
}

var errUnknownKey = errors.New("unknown configuration key")

// getNestedValue retrieves a value from the config using dot notation
func getNestedValue(cfg *config.Config, key string) (string, error) {
	switch key {
	case "api.base_url":
		return cfg.API.BaseURL, nil
	case "api.login_path":
		return cfg.API.LoginPath, nil
	case "api.user_info_path":
		return cfg.API.UserInfoPath, nil
	case "api.timeout":
		return cfg.API.Timeout.String(), nil
	case "storage.backend":
		return cfg.Storage.Backend, nil
	case "storage.path":
		return cfg.Storage.Path, nil
	case "storage.redis.addr":
		return cfg.Storage.Redis.Addr, nil
	case "storage.redis.db":
		return strconv.Itoa(cfg.Storage.Redis.DB), nil
	case "storage.redis.key":
		return cfg.Storage.Redis.Key, nil
	case "storage.redis.ttl":
		return cfg.Storage.Redis.TTL.String(), nil
	case "logging.level":
		return cfg.Logging.Level, nil
	case "logging.format":
		return cfg.Logging.Format, nil
	case "logging.enable_file":
		return strconv.FormatBool(cfg.Logging.EnableFile), nil
	case "logging.dir":
		return cfg.Logging.Dir, nil
	case "logging.stderr":
		return strconv.FormatBool(cfg.Logging.Stderr), nil
	case "output.format":
		return cfg.Output.Format, nil
	case "output.no_color":
		return strconv.FormatBool(cfg.Output.NoColor), nil
	default:
		return "", fmt.Errorf("%w: %s", errUnknownKey, key)
	}
}

// setNestedValue sets a value in the config using dot notation
func setNestedValue(cfg *config.Config, key, value string) error {
	var err error
	switch key {
	case "api.base_url":
		cfg.API.BaseURL = value
	case "api.login_path":
		cfg.API.LoginPath = value
	case "api.user_info_path":
		cfg.API.UserInfoPath = value
	case "api.timeout":
		cfg.API.Timeout, err = time.ParseDuration(value)
	case "storage.backend":
		cfg.Storage.Backend = value
	case "storage.path":
		cfg.Storage.Path = config.ExpandPath(value)
	case "storage.redis.addr":
		cfg.Storage.Redis.Addr = value
	case "storage.redis.password":
		cfg.Storage.Redis.Password = value
	case "storage.redis.db":
		cfg.Storage.Redis.DB, err = strconv.Atoi(value)
	case "storage.redis.key":
		cfg.Storage.Redis.Key = value
	case "storage.redis.ttl":
		cfg.Storage.Redis.TTL, err = time.ParseDuration(value)
	case "logging.level":
		cfg.Logging.Level = value
	case "logging.format":
		cfg.Logging.Format = value
	case "logging.enable_file":
		cfg.Logging.EnableFile, err = strconv.ParseBool(value)
	case "logging.dir":
		cfg.Logging.Dir = config.ExpandPath(value)
	case "logging.stderr":
		cfg.Logging.Stderr, err = strconv.ParseBool(value)
	case "output.format":
		cfg.Output.Format = value
	case "output.no_color":
		cfg.Output.NoColor, err = strconv.ParseBool(value)
	default:
		return fmt.Errorf("%w: %s", errUnknownKey, key)
	}
	if err != nil {
		return apperrors.NewConfigInvalidError(fmt.Sprintf("%s: %v", key, err))
	}
	return nil
}
