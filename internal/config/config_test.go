package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/felixgeelhaar/meetus/internal/errors"
)

func setHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("MEETUS_HOME", dir)
	return dir
}

func TestDefault(t *testing.T) {
	home := setHome(t)

	cfg := Default()

	assert.Equal(t, "/v1/yeshtery/token", cfg.API.LoginPath)
	assert.Equal(t, "/v1/user/info", cfg.API.UserInfoPath)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(home, "auth.json"), cfg.Storage.Path)
	assert.Equal(t, "meetus:token", cfg.Storage.Redis.Key)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	home := setHome(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, filepath.Join(home, "auth.json"), cfg.Storage.Path)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	home := setHome(t)
	path := filepath.Join(home, "config.yaml")

	content := `
api:
  base_url: https://api.meetusvr.com/
  timeout: 3s
storage:
  backend: Memory
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.meetusvr.com", cfg.API.BaseURL, "trailing slash should be trimmed")
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/v1/user/info", cfg.API.UserInfoPath, "unset keys keep defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	home := setHome(t)
	path := filepath.Join(home, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: https://file.example.com\n"), 0o600))

	t.Setenv("MEETUS_API_URL", "https://env.example.com")
	t.Setenv("MEETUS_API_TIMEOUT", "2s")
	t.Setenv("MEETUS_TOKEN_STORE", "redis")
	t.Setenv("MEETUS_REDIS_ADDR", "cache:6379")
	t.Setenv("MEETUS_LOG_STDERR", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.API.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.API.Timeout)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "cache:6379", cfg.Storage.Redis.Addr)
	assert.True(t, cfg.Logging.Stderr)
}

func TestLoadFile_IgnoresEnvironment(t *testing.T) {
	home := setHome(t)
	path := filepath.Join(home, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: https://file.example.com/\n"), 0o600))
	t.Setenv("MEETUS_API_URL", "https://env.example.com")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://file.example.com", cfg.API.BaseURL)
}

func TestLoad_InvalidYAML(t *testing.T) {
	home := setHome(t)
	path := filepath.Join(home, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unterminated"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeFileUnmarshal))
}

func TestLoad_InvalidEnv(t *testing.T) {
	setHome(t)
	t.Setenv("MEETUS_API_TIMEOUT", "soon")

	_, err := Load("")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConfigEnv))
}

func TestValidate(t *testing.T) {
	setHome(t)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }},
		{"relative base url", func(c *Config) { c.API.BaseURL = "api.example.com" }},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "sqlite" }},
		{"file without path", func(c *Config) { c.Storage.Path = "" }},
		{"redis without addr", func(c *Config) {
			c.Storage.Backend = BackendRedis
			c.Storage.Redis.Addr = ""
		}},
		{"unknown output format", func(c *Config) { c.Output.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConfigInvalid))
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	home := setHome(t)
	path := filepath.Join(home, "nested", "config.yaml")

	cfg := Default()
	cfg.API.BaseURL = "https://api.example.com"
	cfg.API.Timeout = 7 * time.Second
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.API, loaded.API)
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.Storage.Redis.Password = "hunter2"

	redacted := cfg.Redacted()

	assert.Equal(t, "********", redacted.Storage.Redis.Password)
	assert.Equal(t, "hunter2", cfg.Storage.Redis.Password, "original must be untouched")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "x", "auth.json"), ExpandPath("~/x/auth.json"))
	assert.Equal(t, "/abs/path", ExpandPath("/abs/path"))
}
