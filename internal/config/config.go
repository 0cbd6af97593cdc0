// Package config loads meetus configuration.
//
// Values are layered: built-in defaults, then ~/.meetus/config.yaml, then
// MEETUS_* environment variables. Command-line flags are applied last by the
// cmd package.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	apperrors "github.com/felixgeelhaar/meetus/internal/errors"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "MEETUS_"

// Storage backends for the persisted token.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the effective configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Output  OutputConfig  `yaml:"output"`
}

// APIConfig describes the identity service.
type APIConfig struct {
	BaseURL      string        `yaml:"base_url" env:"API_URL"`
	LoginPath    string        `yaml:"login_path" env:"LOGIN_PATH"`
	UserInfoPath string        `yaml:"user_info_path" env:"USER_INFO_PATH"`
	Timeout      time.Duration `yaml:"timeout" env:"API_TIMEOUT"`
}

// StorageConfig selects where the persisted token lives.
type StorageConfig struct {
	Backend string      `yaml:"backend" env:"TOKEN_STORE"`
	Path    string      `yaml:"path" env:"TOKEN_FILE"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig is used when Storage.Backend is "redis".
type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
	Password string        `yaml:"password,omitempty" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB"`
	Key      string        `yaml:"key" env:"REDIS_KEY"`
	TTL      time.Duration `yaml:"ttl" env:"REDIS_TTL"`
}

// LoggingConfig controls the structured log destination.
type LoggingConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	Format     string `yaml:"format" env:"LOG_FORMAT"`
	EnableFile bool   `yaml:"enable_file" env:"LOG_FILE"`
	Dir        string `yaml:"dir" env:"LOG_DIR"`
	Stderr     bool   `yaml:"stderr" env:"LOG_STDERR"`
}

// OutputConfig controls command output.
type OutputConfig struct {
	Format  string `yaml:"format" env:"FORMAT"`
	NoColor bool   `yaml:"no_color" env:"NO_COLOR"`
}

// HomeDir returns the meetus state directory. MEETUS_HOME overrides the
// default of ~/.meetus.
func HomeDir() string {
	if dir := os.Getenv(EnvPrefix + "HOME"); dir != "" {
		return ExpandPath(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".meetus"
	}
	return filepath.Join(home, ".meetus")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(HomeDir(), "config.yaml")
}

// Default returns the built-in configuration.
func Default() *Config {
	home := HomeDir()
	return &Config{
		API: APIConfig{
			BaseURL:      "http://localhost:8080",
			LoginPath:    "/v1/yeshtery/token",
			UserInfoPath: "/v1/user/info",
			Timeout:      10 * time.Second,
		},
		Storage: StorageConfig{
			Backend: BackendFile,
			Path:    filepath.Join(home, "auth.json"),
			Redis: RedisConfig{
				Addr: "localhost:6379",
				Key:  "meetus:token",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Dir:    filepath.Join(home, "logs"),
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// Load builds the effective configuration. An empty path means DefaultPath.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeConfigEnv, "parse environment", err).
			WithSuggestion(fmt.Sprintf("Check %s* environment variables", EnvPrefix))
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads defaults and the file at path without applying the
// environment. It is used when the file itself is about to be rewritten.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperrors.Wrap(apperrors.ErrCodeFileReadFailed, fmt.Sprintf("read config %s", path), err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return apperrors.NewFileUnmarshalError(path, "YAML", err)
	}
	return nil
}

func (c *Config) normalize() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	c.Storage.Path = ExpandPath(c.Storage.Path)
	c.Logging.Dir = ExpandPath(c.Logging.Dir)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return apperrors.NewConfigInvalidError("api.base_url is empty")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return apperrors.NewConfigInvalidError(fmt.Sprintf("api.base_url %q is not an absolute URL", c.API.BaseURL))
	}
	if c.API.Timeout <= 0 {
		return apperrors.NewConfigInvalidError("api.timeout must be positive")
	}

	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.Path == "" {
			return apperrors.NewConfigInvalidError("storage.path is empty")
		}
	case BackendMemory:
	case BackendRedis:
		if c.Storage.Redis.Addr == "" {
			return apperrors.NewConfigInvalidError("storage.redis.addr is empty")
		}
		if c.Storage.Redis.Key == "" {
			return apperrors.NewConfigInvalidError("storage.redis.key is empty")
		}
	default:
		return apperrors.NewConfigInvalidError(fmt.Sprintf("unknown storage.backend %q (supported: file, memory, redis)", c.Storage.Backend))
	}

	switch c.Output.Format {
	case "text", "json", "yaml":
	default:
		return apperrors.NewConfigInvalidError(fmt.Sprintf("unknown output.format %q (supported: text, json, yaml)", c.Output.Format))
	}
	return nil
}

// Save writes the configuration as YAML, creating the parent directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeDirectoryFailed, "create config directory", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeConfigUnmarshal, "encode config", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeFileWriteFailed, fmt.Sprintf("write config %s", path), err)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Storage.Redis.Password != "" {
		out.Storage.Redis.Password = "********"
	}
	return &out
}

// ExpandPath replaces a leading "~" with the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
