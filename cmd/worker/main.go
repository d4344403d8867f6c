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

	"github.com/kirillkom/studymate/internal/bootstrap"
	"github.com/kirillkom/studymate/internal/config"
	"github.com/kirillkom/studymate/internal/infrastructure/queue/nats"
	"github.com/kirillkom/studymate/internal/observability/logging"
	"github.com/kirillkom/studymate/internal/observability/metrics"
	"github.com/kirillkom/studymate/internal/observability/tracing"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(logging.Options{Service: "worker", Level: cfg.LogLevel, File: cfg.LogFile})
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, "studymate-worker", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("tracing setup error: %v", err)
	}

	workerMetrics := metrics.NewWorkerMetrics("worker")
	app, err := bootstrap.New(ctx, cfg, workerMetrics, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	queue, err := bootstrap.NewQueue(cfg, logger)
	if err != nil {
		log.Fatalf("queue error: %v", err)
	}
	defer queue.Close()

	mux := http.NewServeMux()
	mux.Handle("/metrics", workerMetrics.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
		return queue.Serve(gctx, app.Dispatcher, nats.MessageHooks{
			Start:  workerMetrics.StartMessage,
			Finish: workerMetrics.FinishMessage,
		})
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
		return shutdownTracing(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker_stopped", "error", err)
		os.Exit(1)
	}
}
