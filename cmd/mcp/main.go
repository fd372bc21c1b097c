package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/kirillkom/counsel-assistant/internal/adapters/mcp"
	"github.com/kirillkom/counsel-assistant/internal/bootstrap"
	"github.com/kirillkom/counsel-assistant/internal/config"
	"github.com/kirillkom/counsel-assistant/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(os.Stderr, "mcp", cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	retrieval, err := bootstrap.NewRetrieval(ctx, cfg, nil, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer retrieval.Close()

	server := mcpadapter.NewServer(retrieval.Decider, retrieval.Decider, logger)
	logger.Info("mcp_serving_stdio")
	if err := server.ServeStdio(); err != nil {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
