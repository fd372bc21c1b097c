package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/counsel-assistant/internal/adapters/http"
	"github.com/kirillkom/counsel-assistant/internal/bootstrap"
	"github.com/kirillkom/counsel-assistant/internal/config"
	"github.com/kirillkom/counsel-assistant/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(os.Stdout, "api", cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if app.InProcessWorker() {
		go func() {
			handler := app.DocumentHandler(nil, 5*time.Minute, logger)
			if err := app.Queue.SubscribeDocumentIngested(ctx, handler); err != nil {
				logger.Error("in_process_worker_failed", "error", err)
			}
		}()
	}

	router, err := httpadapter.NewRouter(cfg, httpadapter.Services{
		Chat:      app.Chat,
		Decider:   app.Decider,
		Corpus:    app.Corpus,
		Ingest:    app.IngestUC,
		Documents: app.Documents,
		Metrics:   app.Metrics,
		Logger:    logger,
	}).Handler()
	if err != nil {
		logger.Error("router_init_failed", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}
