package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httpadapter "github.com/kirillkom/hybrid-retrieval/internal/adapters/http"
	"github.com/kirillkom/hybrid-retrieval/internal/bootstrap"
	"github.com/kirillkom/hybrid-retrieval/internal/config"
	"github.com/kirillkom/hybrid-retrieval/internal/core/ports"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/extractor"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/hybrid-retrieval/internal/observability/logging"
	"github.com/kirillkom/hybrid-retrieval/internal/observability/metrics"
)

const service = "api"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(service, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics(service)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Name:    "retrieval-api",
		Lexical: true,
		RebuildObserver: func(collection string, docs int, took time.Duration) {
			httpMetrics.RecordLexicalRebuild(service, collection, docs, took)
		},
		Queue:              true,
		NoEcho:             true,
		ResilienceObserver: httpMetrics.Dependencies(),
	})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.CollectionUC.ReloadAll(ctx); err != nil {
		slog.Warn("lexical_warmup_failed", "error", err)
	}
	go func() {
		if err := app.WatchIndexChanges(ctx); err != nil {
			slog.Error("index_watch_stopped", "error", err)
		}
	}()

	var jobs ports.IngestJobPublisher
	if app.Queue != nil {
		jobs = app.Queue
	}
	var archive ports.UploadArchive
	if cfg.UploadArchivePath != "" {
		storage, err := localfs.New(cfg.UploadArchivePath)
		if err != nil {
			slog.Error("upload_archive_init_failed", "error", err)
			os.Exit(1)
		}
		archive = storage
	}
	router := httpadapter.NewRouter(cfg, httpadapter.Services{
		Ingestor:    app.IngestUC,
		Searcher:    app.QueryUC,
		Evaluator:   app.EvaluateUC,
		Reports:     app.EvaluateUC,
		Collections: app.CollectionUC,
		Jobs:        jobs,
		Extractor:   extractor.NewRouter(),
		Archive:     archive,
		Metrics:     httpMetrics,
	}).Handler()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("api_server_error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_error", "error", err)
	}
}
