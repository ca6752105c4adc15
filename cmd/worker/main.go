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

	"github.com/joho/godotenv"

	"github.com/kirillkom/hybrid-retrieval/internal/bootstrap"
	"github.com/kirillkom/hybrid-retrieval/internal/config"
	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
	"github.com/kirillkom/hybrid-retrieval/internal/observability/logging"
	"github.com/kirillkom/hybrid-retrieval/internal/observability/metrics"
)

const (
	service    = "worker"
	jobTimeout = 5 * time.Minute
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(service, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(service)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Name:               "retrieval-worker",
		Queue:              true,
		ResilienceObserver: workerMetrics.Dependencies(),
	})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := startMetricsServer(cfg.WorkerMetricsPort, workerMetrics)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSIngestSubject)
	err = app.Queue.SubscribeIngestJobs(ctx, func(handlerCtx context.Context, job domain.IngestJob) error {
		if !job.EnqueuedAt.IsZero() {
			workerMetrics.ObserveQueueLag(service, time.Since(job.EnqueuedAt))
		}
		workerMetrics.StartJob()
		start := time.Now()

		jobCtx, cancel := context.WithTimeout(handlerCtx, jobTimeout)
		defer cancel()
		report, err := app.IngestUC.IngestJob(jobCtx, job)

		chunks := 0
		if report != nil {
			chunks = report.Chunks
		}
		workerMetrics.FinishJob(service, time.Since(start), chunks, err)
		if err != nil {
			return err
		}
		slog.Info("ingest_job_done",
			"job_id", job.ID,
			"collection", job.Collection,
			"documents", report.Documents,
			"chunks", chunks,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("worker_subscribe_error", "error", err)
		os.Exit(1)
	}
}

func startMetricsServer(port string, m *metrics.WorkerMetrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker_metrics_server_error", "error", err)
		}
	}()
	return server
}
