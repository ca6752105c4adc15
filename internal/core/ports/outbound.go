package ports

import (
	"context"
	"io"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
)

// Embedder returns one vector per input text, all of equal dimension.
type Embedder interface {
	Embed(ctx context.Context, texts []string) (domain.Embedding, error)
}

// Normalizer cleans, filters and deduplicates raw documents.
type Normalizer interface {
	Normalize(docs []domain.Document, minChars int) ([]domain.NormalizedDocument, domain.NormalizeStats)
}

// Chunker splits normalized document text into overlapping chunks.
type Chunker interface {
	Chunk(docID, text string, opts domain.ChunkOptions) []domain.Chunk
}

// VectorStore is the external similarity index, addressed by collection name.
type VectorStore interface {
	CreateCollection(ctx context.Context, collection string, dim int) error
	DeleteCollection(ctx context.Context, collection string) error
	Upsert(ctx context.Context, collection string, points []domain.VectorPoint) error
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]domain.VectorHit, error)
}

// LexicalIndex is the per-collection term-frequency index. Implementations
// must publish rebuilt state atomically so concurrent searches never observe
// a partially built index.
type LexicalIndex interface {
	AddDocs(collection string, docs []domain.LexicalDoc)
	Replace(collection string, docs []domain.LexicalDoc)
	Reset(collection string)
	Search(collection, query string, topk int) []domain.LexicalHit
}

// ChunkRepository is the authoritative store the lexical index is rebuilt from.
type ChunkRepository interface {
	SaveChunks(ctx context.Context, chunks []domain.StoredChunk) error
	ListChunks(ctx context.Context, collection string) ([]domain.LexicalDoc, error)
	ListCollections(ctx context.Context) ([]string, error)
	DeleteCollection(ctx context.Context, collection string) error
}

// EvaluationRepository persists evaluation reports.
type EvaluationRepository interface {
	SaveReport(ctx context.Context, report *domain.EvaluationReport) error
	GetReport(ctx context.Context, id string) (*domain.EvaluationReport, error)
}

// IndexEventPublisher announces that a collection's stored chunks changed.
type IndexEventPublisher interface {
	PublishCollectionChanged(ctx context.Context, collection string) error
}

// TextExtractor turns an uploaded file into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, filename, mimeType string, data []byte) (string, error)
}

// UploadArchive keeps the raw bytes of uploaded files.
type UploadArchive interface {
	Save(ctx context.Context, key string, data io.Reader) error
}
