package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/hybrid-retrieval/internal/bootstrap"
	"github.com/kirillkom/hybrid-retrieval/internal/config"
	"github.com/kirillkom/hybrid-retrieval/internal/core/ports"
	"github.com/kirillkom/hybrid-retrieval/internal/core/usecase"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/resilience"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/vector/qdrant"
)

// evaluatorFactory returns an evaluator plus a cleanup func. save asks for
// reports to be persisted.
type evaluatorFactory func(ctx context.Context, cfg config.Config, save bool) (ports.RetrievalEvaluator, func(), error)

func defaultEvaluatorFactory(ctx context.Context, cfg config.Config, save bool) (ports.RetrievalEvaluator, func(), error) {
	executor := resilience.NewExecutor(cfg.Resilience)
	embedder, err := bootstrap.NewEmbedder(cfg, executor)
	if err != nil {
		return nil, nil, err
	}

	var reports ports.EvaluationRepository
	cleanup := func() {}
	if save {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		reports = postgres.NewEvaluationRepository(db)
		cleanup = func() { _ = db.Close() }
	}

	uc := usecase.NewEvaluateUseCase(embedder, qdrant.New(cfg.QdrantURL, executor), reports, usecase.EvaluateOptions{
		DefaultTopK:        cfg.EvalTopK,
		DefaultConcurrency: cfg.EvalConcurrency,
	})
	return uc, cleanup, nil
}

func newEvaluateCmd(cfg config.Config, newEvaluator evaluatorFactory) *cobra.Command {
	var (
		collection  string
		samplesPath string
		topk        int
		concurrency int
		save        bool
		output      string
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Replay labeled queries against a collection and report recall/precision@k",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, err := loadSamples(samplesPath)
			if err != nil {
				return err
			}
			if collection == "" {
				collection = file.Collection
			}
			if collection == "" {
				return fmt.Errorf("--collection is required (or set collection in the samples file)")
			}
			if !cmd.Flags().Changed("topk") && file.TopK > 0 {
				topk = file.TopK
			}
			if output != "json" && output != "yaml" {
				return fmt.Errorf("--output must be json or yaml")
			}

			evaluator, cleanup, err := newEvaluator(cmd.Context(), cfg, save)
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := evaluator.Evaluate(cmd.Context(), ports.EvaluationRequest{
				Collection:  collection,
				Samples:     file.Samples,
				TopK:        topk,
				Concurrency: concurrency,
			})
			if err != nil {
				return fmt.Errorf("evaluate: %w", err)
			}

			if output == "yaml" {
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				defer enc.Close()
				return enc.Encode(report)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().StringVar(&collection, "collection", "", "collection to evaluate")
	cmd.Flags().StringVar(&samplesPath, "samples", "", "YAML file with labeled samples")
	cmd.Flags().IntVar(&topk, "topk", cfg.EvalTopK, "number of hits scored per query")
	cmd.Flags().IntVar(&concurrency, "concurrency", cfg.EvalConcurrency, "samples evaluated in parallel")
	cmd.Flags().BoolVar(&save, "save", false, "persist the report to Postgres")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	_ = cmd.MarkFlagRequired("samples")
	return cmd
}
