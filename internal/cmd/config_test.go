package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/meetus/internal/config"
	apperrors "github.com/felixgeelhaar/meetus/internal/errors"
)

func TestConfigPath(t *testing.T) {
	home := setupEnv(t)

	out, err := executeCommand(t, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if got := strings.TrimSpace(out); got != filepath.Join(home, "config.yaml") {
		t.Errorf("config path = %q, want %q", got, filepath.Join(home, "config.yaml"))
	}

	custom := filepath.Join(t.TempDir(), "other.yaml")
	out, err = executeCommand(t, "config", "path", "--config", custom)
	if err != nil {
		t.Fatalf("config path --config: %v", err)
	}
	if got := strings.TrimSpace(out); got != custom {
		t.Errorf("config path = %q, want %q", got, custom)
	}
}

func TestConfigInit(t *testing.T) {
	home := setupEnv(t)
	path := filepath.Join(home, "config.yaml")

	out, err := executeCommand(t, "config", "init", "--api-url", "https://api.example.com/")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("output %q should name %s", out, path)
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.API.BaseURL != "https://api.example.com" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config mode = %o, want 600", perm)
	}

	// A second init refuses to overwrite without --force.
	if _, err := executeCommand(t, "config", "init", "--api-url", "https://other.example.com"); err == nil {
		t.Fatal("expected config init to refuse an existing file")
	} else if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("error = %v", err)
	}

	if _, err := executeCommand(t, "config", "init", "--force", "--api-url", "https://other.example.com"); err != nil {
		t.Fatalf("config init --force: %v", err)
	}
	cfg, _ = config.LoadFile(path)
	if cfg.API.BaseURL != "https://other.example.com" {
		t.Errorf("BaseURL after --force = %q", cfg.API.BaseURL)
	}
}

func TestConfigSetAndGet(t *testing.T) {
	setupEnv(t)

	if _, err := executeCommand(t, "config", "set", "storage.backend", "memory"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	if _, err := executeCommand(t, "config", "set", "api.timeout", "3s"); err != nil {
		t.Fatalf("config set: %v", err)
	}

	out, err := executeCommand(t, "config", "get", "storage.backend")
	if err != nil {
		t.Fatalf("config get: %v", err)
	}
	if got := strings.TrimSpace(out); got != "memory" {
		t.Errorf("storage.backend = %q, want memory", got)
	}

	out, _ = executeCommand(t, "config", "get", "api.timeout")
	if got := strings.TrimSpace(out); got != "3s" {
		t.Errorf("api.timeout = %q, want 3s", got)
	}
}

func TestConfigSet_DoesNotPersistEnvironment(t *testing.T) {
	home := setupEnv(t)
	t.Setenv("MEETUS_API_URL", "https://env.example.com")

	if _, err := executeCommand(t, "config", "set", "logging.level", "debug"); err != nil {
		t.Fatalf("config set: %v", err)
	}

	cfg, err := config.LoadFile(filepath.Join(home, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL == "https://env.example.com" {
		t.Error("environment overrides must not be written to the file")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q, want debug", cfg.Logging.Level)
	}
}

func TestConfigSet_Invalid(t *testing.T) {
	setupEnv(t)

	_, err := executeCommand(t, "config", "set", "no.such.key", "x")
	if !errors.Is(err, errUnknownKey) {
		t.Errorf("unknown key error = %v", err)
	}

	_, err = executeCommand(t, "config", "set", "api.timeout", "soon")
	if !apperrors.HasCode(err, apperrors.ErrCodeConfigInvalid) {
		t.Errorf("bad duration error = %v", err)
	}

	_, err = executeCommand(t, "config", "set", "storage.backend", "floppy")
	if !apperrors.HasCode(err, apperrors.ErrCodeConfigInvalid) {
		t.Errorf("bad backend error = %v", err)
	}
}

func TestConfigView_RedactsSecrets(t *testing.T) {
	setupEnv(t)
	t.Setenv("MEETUS_REDIS_PASSWORD", "hunter2")

	out, err := executeCommand(t, "config", "view")
	if err != nil {
		t.Fatalf("config view: %v", err)
	}
	if strings.Contains(out, "hunter2") {
		t.Error("config view must not print the redis password")
	}
	if !strings.Contains(out, "********") {
		t.Error("config view should show the password as masked")
	}
	if !strings.Contains(out, "Configuration file:") {
		t.Error("text output should name the configuration file")
	}
}

func TestConfigView_FlagsOverride(t *testing.T) {
	setupEnv(t)

	out, err := executeCommand(t, "config", "view", "--api-url", "https://flag.example.com/", "--format", "yaml")
	if err != nil {
		t.Fatalf("config view: %v", err)
	}
	if !strings.Contains(out, "base_url: https://flag.example.com\n") {
		t.Errorf("output should carry the flag URL:\n%s", out)
	}
}

func TestGetNestedValue(t *testing.T) {
	setupEnv(t)
	cfg := config.Default()

	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "api.login_path", want: "/v1/yeshtery/token"},
		{key: "api.user_info_path", want: "/v1/user/info"},
		{key: "api.timeout", want: (10 * time.Second).String()},
		{key: "storage.backend", want: "file"},
		{key: "storage.redis.key", want: "meetus:token"},
		{key: "storage.redis.db", want: "0"},
		{key: "logging.enable_file", want: "false"},
		{key: "output.format", want: "text"},
		{key: "storage.redis.password", wantErr: true},
		{key: "nope", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := getNestedValue(cfg, tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("getNestedValue(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("getNestedValue(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestSetNestedValue(t *testing.T) {
	setupEnv(t)
	cfg := config.Default()

	tests := []struct {
		key     string
		value   string
		wantErr bool
		check   func(*config.Config) bool
	}{
		{key: "storage.redis.db", value: "3", check: func(c *config.Config) bool { return c.Storage.Redis.DB == 3 }},
		{key: "storage.redis.ttl", value: "1h", check: func(c *config.Config) bool { return c.Storage.Redis.TTL == time.Hour }},
		{key: "storage.redis.password", value: "pw", check: func(c *config.Config) bool { return c.Storage.Redis.Password == "pw" }},
		{key: "logging.stderr", value: "true", check: func(c *config.Config) bool { return c.Logging.Stderr }},
		{key: "output.no_color", value: "yes", wantErr: true},
		{key: "storage.redis.db", value: "one", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			err := setNestedValue(cfg, tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("setNestedValue error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("%s was not applied", tt.key)
			}
		})
	}
}
