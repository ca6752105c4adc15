package ports

import (
	"context"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
)

// IngestRequest carries documents plus optional chunking overrides. Nil
// pointers fall back to configured defaults.
type IngestRequest struct {
	Collection string
	Documents  []domain.Document
	Strategy   domain.ChunkStrategy
	MaxChars   int
	Overlap    *int
	MinChars   *int
}

type SearchRequest struct {
	Collection string
	Query      string
	TopK       int
	Alpha      *float64
	Mode       domain.RetrievalMode
}

type EvaluationRequest struct {
	Collection  string
	Samples     []domain.EvaluationSample
	TopK        int
	Concurrency int
}

// DocumentIngestor is the inbound contract for normalize/chunk/index.
type DocumentIngestor interface {
	Ingest(ctx context.Context, req IngestRequest) (*domain.IngestReport, error)
}

// HybridSearcher answers fused vector+lexical queries.
type HybridSearcher interface {
	Search(ctx context.Context, req SearchRequest) (*domain.SearchResult, error)
}

// RetrievalEvaluator replays labeled samples against the vector path.
type RetrievalEvaluator interface {
	Evaluate(ctx context.Context, req EvaluationRequest) (*domain.EvaluationReport, error)
}

// EvaluationReader reads persisted evaluation reports.
type EvaluationReader interface {
	GetReport(ctx context.Context, id string) (*domain.EvaluationReport, error)
}

// CollectionManager owns collection lifecycle across vector, lexical and stored state.
type CollectionManager interface {
	Reset(ctx context.Context, collection string) error
	Reload(ctx context.Context, collection string) (int, error)
	ReloadAll(ctx context.Context) error
}

// IngestJobPublisher hands ingest work to background workers.
type IngestJobPublisher interface {
	PublishIngestJob(ctx context.Context, job domain.IngestJob) error
}
