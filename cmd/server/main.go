/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the vacation service: REST API, HTTP tool-calling
  endpoints and the JSON-RPC MCP endpoint on one port.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load config (defaults, YAML, .env, environment), then apply flags
  2. Open the ledger (memory or SQLite)
  3. Seed demo balances (skipped when a durable ledger already has data)
  4. Pick the rate limiter (Redis when configured, else in-memory)
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  --config      YAML config file
  --port        HTTP server port (default: 8080)
  --storage     Ledger driver: memory | sqlite (default: memory)
  --db          SQLite database path (default: :memory:)
  --api-key     Shared bearer secret (prefer API_KEY)
  --log-level   logrus level (default: info)
  --log-format  text | json (default: text)
  --redis-addr  Redis address for a shared rate limit
  --admin       Mount /admin scenario routes

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close ledger and Redis connections
  4. Exit

EXAMPLES:
  API_KEY=secret ./server
  API_KEY=secret ./server --storage=sqlite --db=./data/vacation.db
  ./server --config=vacation.yaml --port=3000

SEE ALSO:
  - config/config.go: Configuration sources
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/warp/vacation-engine/api"
	"github.com/warp/vacation-engine/config"
	"github.com/warp/vacation-engine/ratelimit"
	"github.com/warp/vacation-engine/store/memory"
	"github.com/warp/vacation-engine/store/sqlite"
	"github.com/warp/vacation-engine/vacation"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		logrus.WithError(err).Fatal("server failed")
	}
}

func run(args []string) error {
	// Flags
	flags := pflag.NewFlagSet("server", pflag.ContinueOnError)
	configPath := flags.String("config", "", "YAML config file")
	port := flags.Int("port", 8080, "HTTP server port")
	driver := flags.String("storage", config.DriverMemory, "Ledger driver: memory | sqlite")
	dbPath := flags.String("db", ":memory:", "SQLite database path")
	apiKey := flags.String("api-key", "", "Shared bearer secret")
	logLevel := flags.String("log-level", "info", "Log level")
	logFormat := flags.String("log-format", "text", "Log format: text | json")
	redisAddr := flags.String("redis-addr", "", "Redis address for a shared rate limit")
	admin := flags.Bool("admin", false, "Mount /admin scenario routes")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	// Flags win over every other source, but only when given.
	if flags.Changed("port") {
		cfg.Port = *port
	}
	if flags.Changed("storage") {
		cfg.Storage.Driver = *driver
	}
	if flags.Changed("db") {
		cfg.Storage.DSN = *dbPath
	}
	if flags.Changed("api-key") {
		cfg.APIKey = *apiKey
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = *logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = *logFormat
	}
	if flags.Changed("redis-addr") {
		cfg.Redis.Addr = *redisAddr
	}
	if flags.Changed("admin") {
		cfg.Admin.Enabled = *admin
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := cfg.NewLogger()
	if cfg.APIKey == "" {
		logger.Warn("API_KEY is not set; every protected endpoint will answer 401")
	}

	// Initialize ledger
	ledger, closeLedger, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer closeLedger()

	svc := vacation.NewService(ledger, vacation.WithLogger(logger))
	seeded, err := svc.SeedFresh(context.Background(), cfg.Seed)
	if err != nil {
		return fmt.Errorf("seed balances: %w", err)
	}
	if !seeded {
		logger.WithField("dsn", cfg.Storage.DSN).Info("ledger already populated, skipping seed")
	}

	// Rate limiter
	limiter, stopLimiter := newLimiter(cfg, logger)
	defer stopLimiter()

	// Initialize handler
	handler := api.NewHandler(svc, logger)
	if _, ok := ledger.(vacation.Resetter); ok {
		handler.Resetter = svc
	}

	// Create router
	router := api.NewRouter(handler, api.RouterConfig{
		APIKey:         cfg.APIKey,
		Limiter:        limiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableAdmin:    cfg.Admin.Enabled,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"port":    cfg.Port,
			"storage": cfg.Storage.Driver,
			"admin":   cfg.Admin.Enabled,
		}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func openLedger(cfg *config.Config) (vacation.Ledger, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		store, err := sqlite.New(cfg.Storage.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return store, func() { store.Close() }, nil
	default:
		return memory.NewMemory(), func() {}, nil
	}
}

// newLimiter prefers Redis when configured and reachable.
func newLimiter(cfg *config.Config, logger logrus.FieldLogger) (ratelimit.Limiter, func()) {
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		err := client.Ping(ctx).Err()
		if err == nil {
			logger.WithField("addr", cfg.Redis.Addr).Info("using redis rate limiter")
			return ratelimit.NewRedis(client, cfg.RateLimit.Requests, cfg.RateLimit.Window), func() { client.Close() }
		}
		logger.WithError(err).Warn("redis unreachable, falling back to in-memory rate limiter")
		client.Close()
	}

	limiter := ratelimit.NewMemory(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	janitor := ratelimit.NewJanitor(limiter, logger)
	janitor.Start()
	return limiter, janitor.Stop
}
