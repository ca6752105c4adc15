package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
	"github.com/kirillkom/hybrid-retrieval/internal/core/ports"
)

type EvaluateOptions struct {
	DefaultTopK        int
	DefaultConcurrency int
}

type EvaluateUseCase struct {
	embedder ports.Embedder
	vectorDB ports.VectorStore
	reports  ports.EvaluationRepository
	opts     EvaluateOptions
	now      func() time.Time
}

// NewEvaluateUseCase builds the evaluation harness. reports may be nil, in
// which case reports are returned but not persisted.
func NewEvaluateUseCase(
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	reports ports.EvaluationRepository,
	opts EvaluateOptions,
) *EvaluateUseCase {
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = 5
	}
	if opts.DefaultConcurrency <= 0 {
		opts.DefaultConcurrency = 1
	}
	return &EvaluateUseCase{
		embedder: embedder,
		vectorDB: vectorDB,
		reports:  reports,
		opts:     opts,
		now:      time.Now,
	}
}

// Evaluate replays every sample against the vector path. A failing sample
// is recorded with zero scores and does not stop the batch; cancelling ctx does.
func (uc *EvaluateUseCase) Evaluate(ctx context.Context, req ports.EvaluationRequest) (*domain.EvaluationReport, error) {
	if strings.TrimSpace(req.Collection) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "evaluate", errors.New("collection is required"))
	}
	topk := req.TopK
	if topk <= 0 {
		topk = uc.opts.DefaultTopK
	}
	concurrency := req.Concurrency
	if concurrency <= 0 {
		concurrency = uc.opts.DefaultConcurrency
	}

	results := make([]domain.EvaluationResult, len(req.Samples))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, sample := range req.Samples {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = uc.evaluateSample(gctx, req.Collection, sample, topk)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &domain.EvaluationReport{
		ID:         uuid.NewString(),
		Collection: req.Collection,
		TopK:       topk,
		Summary:    Summarize(results),
		Results:    results,
		CreatedAt:  uc.now().UTC(),
	}
	if uc.reports != nil {
		if err := uc.reports.SaveReport(ctx, report); err != nil {
			return nil, fmt.Errorf("save evaluation report: %w", err)
		}
	}
	return report, nil
}

func (uc *EvaluateUseCase) GetReport(ctx context.Context, id string) (*domain.EvaluationReport, error) {
	if uc.reports == nil {
		return nil, domain.WrapError(domain.ErrNotFound, "get evaluation report", fmt.Errorf("report %s", id))
	}
	return uc.reports.GetReport(ctx, id)
}

func (uc *EvaluateUseCase) evaluateSample(ctx context.Context, collection string, sample domain.EvaluationSample, topk int) domain.EvaluationResult {
	result := domain.EvaluationResult{
		Query:       sample.Query,
		RelevantIDs: sample.RelevantIDs,
		HitIDs:      []string{},
	}

	start := time.Now()
	hitIDs, err := uc.retrieve(ctx, collection, sample.Query, topk)
	result.LatencyMS = float64(time.Since(start).Microseconds()) / 1000.0
	if err != nil {
		result.Error = err.Error()
		slog.Warn("evaluation_sample_failed", "collection", collection, "query", sample.Query, "error", err.Error())
		return result
	}

	result.HitIDs = hitIDs
	result.RecallAtK, result.PrecisionAtK = RecallPrecisionAtK(hitIDs, sample.RelevantIDs, topk)
	return result
}

func (uc *EvaluateUseCase) retrieve(ctx context.Context, collection, query string, topk int) ([]string, error) {
	emb, err := uc.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(emb.Vectors) != 1 {
		return nil, fmt.Errorf("embed query: expected 1 vector, got %d", len(emb.Vectors))
	}
	hits, err := uc.vectorDB.Search(ctx, collection, emb.Vectors[0], topk)
	if err != nil {
		return nil, fmt.Errorf("search vector db: %w", err)
	}

	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, evaluationHitID(h))
	}
	return ids, nil
}

func evaluationHitID(h domain.VectorHit) string {
	switch {
	case h.Payload.ID != "":
		return h.Payload.ID
	case h.Payload.DocID != "":
		return h.Payload.DocID
	default:
		return h.PointID
	}
}

// RecallPrecisionAtK scores the first k retrieved ids against the relevant set.
// Both denominators are floored at 1, so an empty relevant set scores recall 0.
func RecallPrecisionAtK(retrieved, relevant []string, k int) (float64, float64) {
	if k < 0 {
		k = 0
	}
	top := retrieved
	if len(top) > k {
		top = top[:k]
	}

	want := make(map[string]struct{}, len(relevant))
	for _, id := range relevant {
		want[id] = struct{}{}
	}
	matched := make(map[string]struct{}, len(top))
	for _, id := range top {
		if _, ok := want[id]; ok {
			matched[id] = struct{}{}
		}
	}

	inter := float64(len(matched))
	recall := inter / float64(max(1, len(want)))
	precision := inter / float64(max(1, min(k, len(retrieved))))
	return recall, precision
}

// Summarize aggregates per-sample results. p95 uses nearest rank over the
// sorted latencies at floor(0.95*(n-1)).
func Summarize(results []domain.EvaluationResult) domain.EvaluationSummary {
	summary := domain.EvaluationSummary{Samples: len(results)}
	if len(results) == 0 {
		return summary
	}

	latencies := make([]float64, 0, len(results))
	var recall, precision, latency float64
	for _, r := range results {
		recall += r.RecallAtK
		precision += r.PrecisionAtK
		latency += r.LatencyMS
		latencies = append(latencies, r.LatencyMS)
		if r.Error != "" {
			summary.Failed++
		}
	}
	n := float64(len(results))
	summary.MeanRecall = recall / n
	summary.MeanPrecision = precision / n
	summary.MeanLatencyMS = latency / n

	sort.Float64s(latencies)
	idx := int(math.Floor(0.95 * float64(len(latencies)-1)))
	summary.P95LatencyMS = latencies[idx]
	return summary
}
