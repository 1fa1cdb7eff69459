/*
config.go - Service configuration

PURPOSE:
  One Config struct for the HTTP server. Sources, lowest to highest priority:
    1. Default()
    2. YAML file (--config / CONFIG_FILE)
    3. .env file in the working directory (optional, never overrides the
       real environment)
    4. Environment variables
    5. Command-line flags (applied by cmd/server)

ENVIRONMENT:
  API_KEY               Shared bearer secret for protected endpoints
  PORT                  HTTP port (default 8080)
  LOG_LEVEL             logrus level (default info)
  LOG_FORMAT            text | json (default text)
  STORAGE_DRIVER        memory | sqlite (default memory)
  STORAGE_DSN           SQLite path (default :memory:)
  REDIS_ADDR            Enables the Redis rate limiter when set
  REDIS_PASSWORD, REDIS_DB
  RATE_LIMIT_REQUESTS   Requests per window per key (default 60)
  RATE_LIMIT_WINDOW     Window as a Go duration (default 60s)
  CORS_ALLOWED_ORIGINS  Comma separated (default *)
  ADMIN_ENABLED         Mounts /admin scenario routes (default false)
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds all server settings.
type Config struct {
	Port      int             `yaml:"port"`
	APIKey    string          `yaml:"api_key"`
	Log       LogConfig       `yaml:"log"`
	Storage   StorageConfig   `yaml:"storage"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Redis     RedisConfig     `yaml:"redis"`
	CORS      CORSConfig      `yaml:"cors"`
	Admin     AdminConfig     `yaml:"admin"`

	// Seed balances applied at startup (demo/test bootstrap).
	Seed map[string]int `yaml:"seed"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // memory | sqlite
	DSN    string `yaml:"dsn"`
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type AdminConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Storage drivers
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port: 8080,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Storage: StorageConfig{
			Driver: DriverMemory,
			DSN:    ":memory:",
		},
		RateLimit: RateLimitConfig{
			Requests: 60,
			Window:   60 * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Seed: map[string]int{
			"alice": 80,
			"bob":   16,
		},
	}
}

// Load builds a Config from defaults, the optional YAML file at path,
// an optional .env file and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("could not read .env file")
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile merges a YAML file into the config.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables that are set.
func (c *Config) ApplyEnv() error {
	c.APIKey = getEnv("API_KEY", c.APIKey)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Storage.Driver = getEnv("STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.DSN = getEnv("STORAGE_DSN", c.Storage.DSN)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)

	var err error
	if c.Port, err = getEnvAsInt("PORT", c.Port); err != nil {
		return err
	}
	if c.Redis.DB, err = getEnvAsInt("REDIS_DB", c.Redis.DB); err != nil {
		return err
	}
	if c.RateLimit.Requests, err = getEnvAsInt("RATE_LIMIT_REQUESTS", c.RateLimit.Requests); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("RATE_LIMIT_WINDOW"); ok {
		window, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_WINDOW: %w", err)
		}
		c.RateLimit.Window = window
	}
	if c.Admin.Enabled, err = getEnvAsBool("ADMIN_ENABLED", c.Admin.Enabled); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("CORS_ALLOWED_ORIGINS"); ok {
		c.CORS.AllowedOrigins = splitList(v)
	}
	return nil
}

// Validate checks the config for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.RateLimit.Requests <= 0 {
		return fmt.Errorf("rate_limit.requests must be positive, got %d", c.RateLimit.Requests)
	}
	// Redis buckets are counted in whole milliseconds.
	if c.RateLimit.Window < time.Millisecond {
		return fmt.Errorf("rate_limit.window must be at least 1ms, got %s", c.RateLimit.Window)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// NewLogger builds a logrus logger from the log settings.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	if level, err := logrus.ParseLevel(c.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	if c.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsInt(name string, defaultVal int) (int, error) {
	valStr, ok := os.LookupEnv(name)
	if !ok || valStr == "" {
		return defaultVal, nil
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return val, nil
}

func getEnvAsBool(name string, defaultVal bool) (bool, error) {
	valStr, ok := os.LookupEnv(name)
	if !ok || valStr == "" {
		return defaultVal, nil
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	return val, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
