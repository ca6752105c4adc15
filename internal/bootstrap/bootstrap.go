package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/hybrid-retrieval/internal/config"
	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
	"github.com/kirillkom/hybrid-retrieval/internal/core/ports"
	"github.com/kirillkom/hybrid-retrieval/internal/core/usecase"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/chunking"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/lexical"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/preprocess"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/queue/nats"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/resilience"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/vector/qdrant"
)

// Options selects which process-local pieces a binary needs.
type Options struct {
	// Name labels the NATS connection.
	Name string
	// Lexical builds the in-process BM25 registry. Workers leave it off and
	// let API replicas rebuild from Postgres on index-changed events.
	Lexical         bool
	RebuildObserver lexical.RebuildObserver
	// Queue connects to NATS; NoEcho drops this connection's own broadcasts.
	Queue  bool
	NoEcho bool
	// ResilienceObserver receives retry and breaker events of outbound calls.
	ResilienceObserver resilience.Observer
}

type App struct {
	Config config.Config

	Queue    *nats.Queue
	Lexical  *lexical.Registry
	Embedder ports.Embedder

	IngestUC     *usecase.IngestUseCase
	QueryUC      *usecase.QueryUseCase
	EvaluateUC   *usecase.EvaluateUseCase
	CollectionUC *usecase.CollectionUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	executor := resilience.NewExecutor(cfg.Resilience, resilience.WithObserver(opts.ResilienceObserver))
	embedder, err := NewEmbedder(cfg, executor)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	vectorDB := qdrant.New(cfg.QdrantURL, executor)
	chunkRepo := postgres.NewChunkRepository(db)
	reportRepo := postgres.NewEvaluationRepository(db)

	var (
		queue    *nats.Queue
		events   ports.IndexEventPublisher
		registry *lexical.Registry
		lexIndex ports.LexicalIndex
	)
	if opts.Queue {
		queue, err = nats.New(cfg.NATSURL, nats.Options{
			Name:               opts.Name,
			IngestSubject:      cfg.NATSIngestSubject,
			IndexSubject:       cfg.NATSIndexSubject,
			NoEcho:             opts.NoEcho,
			ResilienceExecutor: executor,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		events = queue
	}
	if opts.Lexical {
		var registryOpts []lexical.RegistryOption
		if opts.RebuildObserver != nil {
			registryOpts = append(registryOpts, lexical.WithRebuildObserver(opts.RebuildObserver))
		}
		registry = lexical.NewRegistry(registryOpts...)
		lexIndex = registry
	}

	chunker := chunking.NewSplitter(domain.ChunkStrategy(cfg.ChunkStrategy), cfg.ChunkMaxChars, cfg.ChunkOverlap)

	app := &App{
		Config:   cfg,
		Queue:    queue,
		Lexical:  registry,
		Embedder: embedder,

		IngestUC: usecase.NewIngestUseCase(
			preprocess.Normalizer{},
			chunker,
			embedder,
			vectorDB,
			chunkRepo,
			lexIndex,
			events,
			usecase.IngestOptions{
				Chunking:  chunker.Defaults(),
				MinChars:  cfg.MinChars,
				BatchSize: cfg.EmbedBatchSize,
			},
		),
		QueryUC: usecase.NewQueryUseCase(embedder, vectorDB, lexIndex, usecase.QueryOptions{
			DefaultTopK:      cfg.RAGTopK,
			DefaultAlpha:     cfg.RAGAlpha,
			HybridCandidates: cfg.RAGHybridCandidates,
		}),
		EvaluateUC: usecase.NewEvaluateUseCase(embedder, vectorDB, reportRepo, usecase.EvaluateOptions{
			DefaultTopK:        cfg.EvalTopK,
			DefaultConcurrency: cfg.EvalConcurrency,
		}),
		CollectionUC: usecase.NewCollectionUseCase(vectorDB, chunkRepo, lexIndex, events),

		closeFn: func() {
			if queue != nil {
				queue.Close()
			}
			_ = db.Close()
		},
	}

	slog.Info("bootstrap_ready",
		"lexical", opts.Lexical,
		"queue", opts.Queue,
		"embed_provider", cfg.EmbedProvider,
		"resilience", cfg.Resilience,
	)
	return app, nil
}

// WatchIndexChanges reloads a collection's lexical index whenever another
// process announces that its stored chunks changed. Blocks until ctx is done.
func (a *App) WatchIndexChanges(ctx context.Context) error {
	if a.Queue == nil || a.Lexical == nil {
		<-ctx.Done()
		return nil
	}
	return a.Queue.SubscribeCollectionChanged(ctx, func(handlerCtx context.Context, collection string) error {
		docs, err := a.CollectionUC.Reload(handlerCtx, collection)
		if err != nil {
			return fmt.Errorf("reload %s: %w", collection, err)
		}
		slog.Info("lexical_reloaded", "collection", collection, "docs", docs)
		return nil
	})
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
