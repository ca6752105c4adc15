package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
	"github.com/kirillkom/hybrid-retrieval/internal/core/ports"
)

type IngestOptions struct {
	Chunking  domain.ChunkOptions
	MinChars  int
	BatchSize int
}

type IngestUseCase struct {
	normalizer ports.Normalizer
	chunker    ports.Chunker
	embedder   ports.Embedder
	vectorDB   ports.VectorStore
	chunks     ports.ChunkRepository
	lexical    ports.LexicalIndex
	events     ports.IndexEventPublisher
	opts       IngestOptions
}

// NewIngestUseCase wires the ingest pipeline. chunks, lexical and events may
// be nil: the worker process has no lexical index, the CLI has no repository.
func NewIngestUseCase(
	normalizer ports.Normalizer,
	chunker ports.Chunker,
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	chunks ports.ChunkRepository,
	lexical ports.LexicalIndex,
	events ports.IndexEventPublisher,
	opts IngestOptions,
) *IngestUseCase {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 64
	}
	if opts.MinChars < 0 {
		opts.MinChars = 0
	}
	return &IngestUseCase{
		normalizer: normalizer,
		chunker:    chunker,
		embedder:   embedder,
		vectorDB:   vectorDB,
		chunks:     chunks,
		lexical:    lexical,
		events:     events,
		opts:       opts,
	}
}

func (uc *IngestUseCase) Ingest(ctx context.Context, req ports.IngestRequest) (*domain.IngestReport, error) {
	collection := strings.TrimSpace(req.Collection)
	if collection == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest", errors.New("collection is required"))
	}

	docs, stats := uc.normalizer.Normalize(req.Documents, uc.minChars(req))
	report := &domain.IngestReport{
		Collection: collection,
		Stats:      stats,
		Documents:  len(docs),
	}

	chunks := uc.chunk(docs, uc.chunkOptions(req))
	if len(chunks) == 0 {
		return report, nil
	}

	emb, err := uc.embed(ctx, chunks)
	if err != nil {
		return nil, err
	}
	report.Dim = emb.Dim
	report.Provider = emb.Provider

	if err := uc.index(ctx, collection, chunks, emb); err != nil {
		return nil, err
	}
	if err := uc.persist(ctx, collection, chunks); err != nil {
		return nil, err
	}

	if uc.lexical != nil {
		uc.lexical.AddDocs(collection, lexicalDocs(chunks))
	}
	uc.announce(ctx, collection)

	report.Chunks = len(chunks)
	return report, nil
}

// IngestJob runs an asynchronously queued ingest request.
func (uc *IngestUseCase) IngestJob(ctx context.Context, job domain.IngestJob) (*domain.IngestReport, error) {
	return uc.Ingest(ctx, ports.IngestRequest{
		Collection: job.Collection,
		Documents:  job.Documents,
		Strategy:   job.Strategy,
		MaxChars:   job.MaxChars,
		Overlap:    job.Overlap,
		MinChars:   job.MinChars,
	})
}

func (uc *IngestUseCase) minChars(req ports.IngestRequest) int {
	if req.MinChars != nil {
		return *req.MinChars
	}
	return uc.opts.MinChars
}

func (uc *IngestUseCase) chunkOptions(req ports.IngestRequest) domain.ChunkOptions {
	opts := uc.opts.Chunking
	if req.Strategy != "" {
		opts.Strategy = req.Strategy
	}
	if req.MaxChars > 0 {
		opts.MaxChars = req.MaxChars
	}
	if req.Overlap != nil {
		opts.Overlap = *req.Overlap
	}
	return opts
}

func (uc *IngestUseCase) chunk(docs []domain.NormalizedDocument, opts domain.ChunkOptions) []chunkRecord {
	out := make([]chunkRecord, 0, len(docs))
	for _, doc := range docs {
		docID := doc.ID
		if docID == "" {
			docID = doc.Fingerprint[:16]
		}
		for _, c := range uc.chunker.Chunk(docID, doc.Text, opts) {
			c.Meta = doc.Meta
			out = append(out, chunkRecord{chunk: c, fingerprint: doc.Fingerprint})
		}
	}
	return out
}

type chunkRecord struct {
	chunk       domain.Chunk
	fingerprint string
}

func (uc *IngestUseCase) embed(ctx context.Context, chunks []chunkRecord) (domain.Embedding, error) {
	out := domain.Embedding{Vectors: make([][]float32, 0, len(chunks))}
	for start := 0; start < len(chunks); start += uc.opts.BatchSize {
		end := min(start+uc.opts.BatchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, rec := range chunks[start:end] {
			texts = append(texts, rec.chunk.Text)
		}

		batch, err := uc.embedder.Embed(ctx, texts)
		if err != nil {
			return domain.Embedding{}, fmt.Errorf("embed chunks: %w", err)
		}
		if len(batch.Vectors) != len(texts) {
			return domain.Embedding{}, domain.WrapError(
				domain.ErrTemporary,
				"embed chunks",
				fmt.Errorf("vectors/chunks mismatch: %d/%d", len(batch.Vectors), len(texts)),
			)
		}
		if out.Dim == 0 {
			out.Dim = batch.Dim
			out.Provider = batch.Provider
		} else if batch.Dim != out.Dim {
			return domain.Embedding{}, domain.WrapError(
				domain.ErrTemporary,
				"embed chunks",
				fmt.Errorf("embedding dimension changed between batches: %d/%d", out.Dim, batch.Dim),
			)
		}
		out.Vectors = append(out.Vectors, batch.Vectors...)
	}
	return out, nil
}

func (uc *IngestUseCase) index(ctx context.Context, collection string, chunks []chunkRecord, emb domain.Embedding) error {
	if err := uc.vectorDB.CreateCollection(ctx, collection, emb.Dim); err != nil {
		return fmt.Errorf("ensure vector collection: %w", err)
	}

	points := make([]domain.VectorPoint, 0, len(chunks))
	for i, rec := range chunks {
		extID := rec.chunk.ExternalID()
		points = append(points, domain.VectorPoint{
			ID:     PointID(collection, extID),
			Vector: emb.Vectors[i],
			Payload: domain.Payload{
				ID:      extID,
				DocID:   rec.chunk.DocID,
				ChunkID: rec.chunk.ChunkID,
				Text:    rec.chunk.Text,
				Meta:    rec.chunk.Meta,
			},
		})
	}
	if err := uc.vectorDB.Upsert(ctx, collection, points); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	return nil
}

func (uc *IngestUseCase) persist(ctx context.Context, collection string, chunks []chunkRecord) error {
	if uc.chunks == nil {
		return nil
	}
	stored := make([]domain.StoredChunk, 0, len(chunks))
	for _, rec := range chunks {
		stored = append(stored, domain.StoredChunk{
			Collection:  collection,
			Chunk:       rec.chunk,
			Fingerprint: rec.fingerprint,
		})
	}
	if err := uc.chunks.SaveChunks(ctx, stored); err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}
	return nil
}

func (uc *IngestUseCase) announce(ctx context.Context, collection string) {
	if uc.events == nil {
		return
	}
	if err := uc.events.PublishCollectionChanged(ctx, collection); err != nil {
		slog.Warn("index_event_publish_failed", "collection", collection, "error", err.Error())
	}
}

func lexicalDocs(chunks []chunkRecord) []domain.LexicalDoc {
	out := make([]domain.LexicalDoc, 0, len(chunks))
	for _, rec := range chunks {
		out = append(out, domain.LexicalDoc{ID: rec.chunk.ExternalID(), Text: rec.chunk.Text})
	}
	return out
}

// PointID derives a stable vector point id so re-ingesting a chunk overwrites it.
func PointID(collection, externalID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(collection+"/"+externalID)).String()
}
