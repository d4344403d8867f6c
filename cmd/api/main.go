package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/kirillkom/studymate/internal/adapters/http"
	"github.com/kirillkom/studymate/internal/bootstrap"
	"github.com/kirillkom/studymate/internal/config"
	"github.com/kirillkom/studymate/internal/observability/logging"
	"github.com/kirillkom/studymate/internal/observability/metrics"
	"github.com/kirillkom/studymate/internal/observability/tracing"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(logging.Options{Service: "api", Level: cfg.LogLevel, File: cfg.LogFile})
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, "studymate-api", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("tracing setup error: %v", err)
	}

	httpMetrics := metrics.NewHTTPServerMetrics("api")
	app, err := bootstrap.New(ctx, cfg, httpMetrics, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	router := httpadapter.NewRouter(cfg, app.Dispatcher, httpMetrics, app.Executor).Handler()
	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      3 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api_listening", "addr", server.Addr, "backend", cfg.GenerationBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("api_shutdown_failed", "error", err)
		}
		return shutdownTracing(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("api_stopped", "error", err)
		os.Exit(1)
	}
}
