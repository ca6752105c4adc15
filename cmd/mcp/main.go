package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	mcpadapter "github.com/kirillkom/hybrid-retrieval/internal/adapters/mcp"
	"github.com/kirillkom/hybrid-retrieval/internal/bootstrap"
	"github.com/kirillkom/hybrid-retrieval/internal/config"
	"github.com/kirillkom/hybrid-retrieval/internal/observability/logging"
)

var version = "dev"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Name:    "retrieval-mcp",
		Lexical: true,
		Queue:   true,
		NoEcho:  true,
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

	srv, err := mcpadapter.NewServer(app.QueryUC, app.IngestUC, version)
	if err != nil {
		slog.Error("mcp_init_failed", "error", err)
		os.Exit(1)
	}
	if err := srv.Serve(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		slog.Error("mcp_serve_failed", "error", err)
		os.Exit(1)
	}
}
