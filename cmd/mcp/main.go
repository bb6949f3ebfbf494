package main

import (
	"context"
	"log/slog"
	"os"

	mcpadapter "github.com/kirillkom/invoice-assistant/internal/adapters/mcp"
	"github.com/kirillkom/invoice-assistant/internal/bootstrap"
	"github.com/kirillkom/invoice-assistant/internal/config"
	"github.com/kirillkom/invoice-assistant/internal/observability/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	// stdout carries the protocol.
	slog.SetDefault(logging.NewStderrLogger("mcp", cfg.LogLevel))

	app, err := bootstrap.New(context.Background(), cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	slog.Info("mcp_serving_stdio", "server", mcpadapter.ServerName)
	if err := mcpadapter.New(app.Invoices, app.Answers).ServeStdio(); err != nil {
		slog.Error("mcp_server_failed", "error", err)
	}
}
