/*
main.go - Local MCP server that proxies to the vacation REST API

PURPOSE:
  Lets desktop MCP clients use a remote vacation deployment. Speaks
  newline-delimited JSON-RPC on stdin/stdout and turns each tool call into
  a REST call.

ENVIRONMENT:
  VACATION_API_URL  Base URL of the server (default http://localhost:8080)
  VACATION_API_KEY  Bearer secret (required)
  A .env file in the working directory is read when present.

COMMAND-LINE FLAGS:
  --url        Overrides VACATION_API_URL
  --api-key    Overrides VACATION_API_KEY
  --log-level  logrus level, logs go to stderr (default: warn)

SEE ALSO:
  - client/client.go: REST client
  - mcp/rpc.go: JSON-RPC server
*/
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/warp/vacation-engine/client"
	"github.com/warp/vacation-engine/mcp"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WithError(err).Warn("could not read .env file")
	}

	flags := pflag.NewFlagSet("vacation-mcp", pflag.ExitOnError)
	url := flags.String("url", getEnv("VACATION_API_URL", "http://localhost:8080"), "Vacation API base URL")
	apiKey := flags.String("api-key", os.Getenv("VACATION_API_KEY"), "Vacation API key")
	logLevel := flags.String("log-level", "warn", "Log level")
	flags.Parse(os.Args[1:])

	if level, err := logrus.ParseLevel(*logLevel); err == nil {
		logger.SetLevel(level)
	}
	if *apiKey == "" {
		logger.Fatal("VACATION_API_KEY environment variable not set")
	}

	backend := client.New(*url, *apiKey)
	server := mcp.NewRPCServer(mcp.NewExecutor(backend, logger), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.WithField("url", *url).Info("vacation mcp proxy started")
	if err := server.Run(ctx, os.Stdin, os.Stdout); err != nil {
		logger.WithError(err).Fatal("mcp server failed")
	}
}

func getEnv(key, defaultVal string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultVal
}
