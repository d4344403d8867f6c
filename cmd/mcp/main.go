package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	mcpadapter "github.com/kirillkom/studymate/internal/adapters/mcp"
	"github.com/kirillkom/studymate/internal/bootstrap"
	"github.com/kirillkom/studymate/internal/config"
	"github.com/kirillkom/studymate/internal/observability/logging"
)

var version = "dev"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	// stdout carries the MCP protocol.
	logger := logging.New(logging.Options{Service: "mcp", Level: cfg.LogLevel, File: cfg.LogFile, Console: os.Stderr})
	slog.SetDefault(logger)

	app, err := bootstrap.New(context.Background(), cfg, nil, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := mcpadapter.NewServer(app.Dispatcher, cfg.MaxUploadBytes).ServeStdio(version); err != nil {
		logger.Error("mcp_server_stopped", "error", err)
		os.Exit(1)
	}
}
