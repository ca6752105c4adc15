package httpadapter

import (
	"context"
	"net/http"
	"sync"

	"github.com/kirillkom/hybrid-retrieval/internal/config"
	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
	"github.com/kirillkom/hybrid-retrieval/internal/core/ports"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/extractor"
)

type ingestorFake struct {
	mu   sync.Mutex
	reqs []ports.IngestRequest
	err  error
}

func (f *ingestorFake) Ingest(_ context.Context, req ports.IngestRequest) (*domain.IngestReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.IngestReport{
		Collection: req.Collection,
		Stats:      domain.NormalizeStats{Input: len(req.Documents), Kept: len(req.Documents)},
		Documents:  len(req.Documents),
		Chunks:     2 * len(req.Documents),
		Dim:        3,
		Provider:   "hash",
	}, nil
}

type searcherFake struct {
	last ports.SearchRequest
	err  error
}

func (f *searcherFake) Search(_ context.Context, req ports.SearchRequest) (*domain.SearchResult, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	mode := req.Mode
	if mode == "" {
		mode = domain.ModeHybrid
	}
	return &domain.SearchResult{
		Collection: req.Collection,
		Query:      req.Query,
		Mode:       mode,
		Alpha:      0.7,
		Hits: []domain.Hit{
			{ID: "a#0", VectorScore: 0.9, LexicalScore: 1.2, CombinedScore: 0.99},
		},
	}, nil
}

type evaluatorFake struct {
	last ports.EvaluationRequest
}

func (f *evaluatorFake) Evaluate(_ context.Context, req ports.EvaluationRequest) (*domain.EvaluationReport, error) {
	f.last = req
	return &domain.EvaluationReport{
		ID:         "run-1",
		Collection: req.Collection,
		TopK:       req.TopK,
		Summary:    domain.EvaluationSummary{MeanRecall: 1, MeanPrecision: 0.5, Samples: len(req.Samples)},
	}, nil
}

type reportsFake struct {
	reports map[string]*domain.EvaluationReport
}

func (f reportsFake) GetReport(_ context.Context, id string) (*domain.EvaluationReport, error) {
	if report, ok := f.reports[id]; ok {
		return report, nil
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get report", context.Canceled)
}

type collectionsFake struct {
	reset []string
}

func (f *collectionsFake) Reset(_ context.Context, collection string) error {
	f.reset = append(f.reset, collection)
	return nil
}

func (f *collectionsFake) Reload(context.Context, string) (int, error) { return 0, nil }
func (f *collectionsFake) ReloadAll(context.Context) error             { return nil }

type jobsFake struct {
	jobs []domain.IngestJob
}

func (f *jobsFake) PublishIngestJob(_ context.Context, job domain.IngestJob) error {
	f.jobs = append(f.jobs, job)
	return nil
}

type testDeps struct {
	ingestor    *ingestorFake
	searcher    *searcherFake
	evaluator   *evaluatorFake
	collections *collectionsFake
	jobs        *jobsFake
}

func newTestDeps() *testDeps {
	return &testDeps{
		ingestor:    &ingestorFake{},
		searcher:    &searcherFake{},
		evaluator:   &evaluatorFake{},
		collections: &collectionsFake{},
		jobs:        &jobsFake{},
	}
}

func (d *testDeps) services() Services {
	return Services{
		Ingestor:  d.ingestor,
		Searcher:  d.searcher,
		Evaluator: d.evaluator,
		Reports: reportsFake{reports: map[string]*domain.EvaluationReport{
			"run-1": {ID: "run-1", Collection: "docs", TopK: 5},
		}},
		Collections: d.collections,
		Jobs:        d.jobs,
		Extractor:   extractor.NewRouter(),
	}
}

func newTestHandler(cfg config.Config) http.Handler {
	return NewRouter(cfg, newTestDeps().services()).Handler()
}
