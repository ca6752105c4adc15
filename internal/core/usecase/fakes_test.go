package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
)

type embedderFake struct {
	mu       sync.Mutex
	calls    [][]string
	dim      int
	err      error
	errFor   map[string]error
	short    bool
	provider string
}

func (f *embedderFake) Embed(_ context.Context, texts []string) (domain.Embedding, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), texts...))
	f.mu.Unlock()

	if f.err != nil {
		return domain.Embedding{}, f.err
	}
	for _, text := range texts {
		if err, ok := f.errFor[text]; ok {
			return domain.Embedding{}, err
		}
	}
	dim := f.dim
	if dim == 0 {
		dim = 3
	}
	n := len(texts)
	if f.short {
		n--
	}
	vectors := make([][]float32, 0, n)
	for i := 0; i < n; i++ {
		vectors = append(vectors, make([]float32, dim))
	}
	return domain.Embedding{Vectors: vectors, Dim: dim, Provider: f.provider}, nil
}

type vectorStoreFake struct {
	mu          sync.Mutex
	created     map[string]int
	deleted     []string
	upserted    map[string][]domain.VectorPoint
	searchLimit int
	hits        []domain.VectorHit
	searchErr   error
	upsertErr   error
	deleteErr   error
}

func newVectorStoreFake() *vectorStoreFake {
	return &vectorStoreFake{
		created:  map[string]int{},
		upserted: map[string][]domain.VectorPoint{},
	}
}

func (f *vectorStoreFake) CreateCollection(_ context.Context, collection string, dim int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created[collection] = dim
	return nil
}

func (f *vectorStoreFake) DeleteCollection(_ context.Context, collection string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, collection)
	return nil
}

func (f *vectorStoreFake) Upsert(_ context.Context, collection string, points []domain.VectorPoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted[collection] = append(f.upserted[collection], points...)
	return nil
}

func (f *vectorStoreFake) Search(_ context.Context, _ string, _ []float32, limit int) ([]domain.VectorHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchLimit = limit
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if limit < len(f.hits) {
		return append([]domain.VectorHit(nil), f.hits[:limit]...), nil
	}
	return append([]domain.VectorHit(nil), f.hits...), nil
}

type lexicalFake struct {
	added    map[string][]domain.LexicalDoc
	replaced map[string][]domain.LexicalDoc
	resets   []string
	hits     []domain.LexicalHit
	topk     int
}

func newLexicalFake() *lexicalFake {
	return &lexicalFake{
		added:    map[string][]domain.LexicalDoc{},
		replaced: map[string][]domain.LexicalDoc{},
	}
}

func (f *lexicalFake) AddDocs(collection string, docs []domain.LexicalDoc) {
	f.added[collection] = append(f.added[collection], docs...)
}

func (f *lexicalFake) Replace(collection string, docs []domain.LexicalDoc) {
	f.replaced[collection] = docs
}

func (f *lexicalFake) Reset(collection string) {
	f.resets = append(f.resets, collection)
}

func (f *lexicalFake) Search(_ string, _ string, topk int) []domain.LexicalHit {
	f.topk = topk
	return f.hits
}

type chunkRepoFake struct {
	saved       []domain.StoredChunk
	docs        map[string][]domain.LexicalDoc
	deleted     []string
	saveErr     error
	listErr     error
	collections []string
}

func (f *chunkRepoFake) SaveChunks(_ context.Context, chunks []domain.StoredChunk) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, chunks...)
	return nil
}

func (f *chunkRepoFake) ListChunks(_ context.Context, collection string) ([]domain.LexicalDoc, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.docs[collection], nil
}

func (f *chunkRepoFake) ListCollections(context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.collections, nil
}

func (f *chunkRepoFake) DeleteCollection(_ context.Context, collection string) error {
	f.deleted = append(f.deleted, collection)
	return nil
}

type eventsFake struct {
	published []string
	err       error
}

func (f *eventsFake) PublishCollectionChanged(_ context.Context, collection string) error {
	f.published = append(f.published, collection)
	return f.err
}

type reportRepoFake struct {
	saved *domain.EvaluationReport
	err   error
}

func (f *reportRepoFake) SaveReport(_ context.Context, report *domain.EvaluationReport) error {
	if f.err != nil {
		return f.err
	}
	f.saved = report
	return nil
}

func (f *reportRepoFake) GetReport(_ context.Context, id string) (*domain.EvaluationReport, error) {
	if f.saved == nil || f.saved.ID != id {
		return nil, domain.WrapError(domain.ErrNotFound, "get report", errors.New(id))
	}
	return f.saved, nil
}
