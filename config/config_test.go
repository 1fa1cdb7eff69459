package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 60, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, map[string]int{"alice": 80, "bob": 16}, cfg.Seed)
}

func TestLoadFile_MergesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vacation.yaml")
	content := `
port: 9090
api_key: from-file
storage:
  driver: sqlite
  dsn: /tmp/vacation.db
rate_limit:
  requests: 10
  window: 30s
seed:
  carol: 120
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := Default()
	require.NoError(t, cfg.LoadFile(path))

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/vacation.db", cfg.Storage.DSN)
	assert.Equal(t, 10, cfg.RateLimit.Requests)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 120, cfg.Seed["carol"])
	assert.Equal(t, "info", cfg.Log.Level, "untouched fields keep defaults")
}

func TestLoadFile_Errors(t *testing.T) {
	cfg := Default()
	assert.ErrorContains(t, cfg.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")), "read config")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [not an int"), 0o600))
	assert.ErrorContains(t, cfg.LoadFile(path), "parse config")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("API_KEY", "secret")
	t.Setenv("PORT", "3000")
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("STORAGE_DSN", "file.db")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("RATE_LIMIT_REQUESTS", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "2m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("ADMIN_ENABLED", "true")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "file.db", cfg.Storage.DSN)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 5, cfg.RateLimit.Requests)
	assert.Equal(t, 2*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Admin.Enabled)
}

func TestApplyEnv_BadValues(t *testing.T) {
	t.Setenv("PORT", "eighty")
	assert.ErrorContains(t, Default().ApplyEnv(), "PORT")

	t.Setenv("PORT", "8080")
	t.Setenv("RATE_LIMIT_WINDOW", "forever")
	assert.ErrorContains(t, Default().ApplyEnv(), "RATE_LIMIT_WINDOW")

	t.Setenv("RATE_LIMIT_WINDOW", "1m")
	t.Setenv("ADMIN_ENABLED", "sometimes")
	assert.ErrorContains(t, Default().ApplyEnv(), "ADMIN_ENABLED")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.Port = 0 }, "invalid port"},
		{"driver", func(c *Config) { c.Storage.Driver = "postgres" }, "unknown storage driver"},
		{"sqlite dsn", func(c *Config) { c.Storage.Driver = DriverSQLite; c.Storage.DSN = "" }, "storage.dsn"},
		{"requests", func(c *Config) { c.RateLimit.Requests = 0 }, "rate_limit.requests"},
		{"window", func(c *Config) { c.RateLimit.Window = 0 }, "rate_limit.window"},
		{"sub-millisecond window", func(c *Config) { c.RateLimit.Window = 500 * time.Microsecond }, "at least 1ms"},
		{"level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "debug"
	cfg.Log.Format = "json"

	logger := cfg.NewLogger()
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}
