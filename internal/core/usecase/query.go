package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
	"github.com/kirillkom/hybrid-retrieval/internal/core/ports"
)

type QueryOptions struct {
	DefaultTopK      int
	DefaultAlpha     float64
	HybridCandidates int
}

type QueryUseCase struct {
	embedder ports.Embedder
	vectorDB ports.VectorStore
	lexical  ports.LexicalIndex
	opts     QueryOptions
}

func NewQueryUseCase(
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	lexical ports.LexicalIndex,
	opts QueryOptions,
) *QueryUseCase {
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = 5
	}
	opts.DefaultAlpha = ClampAlpha(opts.DefaultAlpha)
	if opts.HybridCandidates <= 0 {
		opts.HybridCandidates = 30
	}
	return &QueryUseCase{
		embedder: embedder,
		vectorDB: vectorDB,
		lexical:  lexical,
		opts:     opts,
	}
}

func (uc *QueryUseCase) Search(ctx context.Context, req ports.SearchRequest) (*domain.SearchResult, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search", errors.New("query is required"))
	}
	if strings.TrimSpace(req.Collection) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search", errors.New("collection is required"))
	}

	mode, err := resolveMode(req.Mode)
	if err != nil {
		return nil, err
	}
	topk := req.TopK
	if topk <= 0 {
		topk = uc.opts.DefaultTopK
	}
	alpha := uc.opts.DefaultAlpha
	if req.Alpha != nil {
		alpha = ClampAlpha(*req.Alpha)
	}
	if mode == domain.ModeSemantic || uc.lexical == nil {
		alpha = 1
	}

	candidates := topk
	if mode == domain.ModeHybrid && uc.opts.HybridCandidates > candidates {
		candidates = uc.opts.HybridCandidates
	}

	emb, err := uc.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(emb.Vectors) != 1 {
		return nil, domain.WrapError(domain.ErrTemporary, "embed query", fmt.Errorf("expected 1 vector, got %d", len(emb.Vectors)))
	}

	vectorHits, err := uc.vectorDB.Search(ctx, req.Collection, emb.Vectors[0], candidates)
	if err != nil {
		return nil, fmt.Errorf("search vector db: %w", err)
	}

	var lexicalHits []domain.LexicalHit
	if mode == domain.ModeHybrid && uc.lexical != nil {
		lexicalHits = uc.lexical.Search(req.Collection, query, candidates)
	}

	return &domain.SearchResult{
		Collection: req.Collection,
		Query:      query,
		Mode:       mode,
		Alpha:      alpha,
		Hits:       FuseScores(vectorHits, lexicalHits, alpha, topk),
	}, nil
}

func resolveMode(mode domain.RetrievalMode) (domain.RetrievalMode, error) {
	switch domain.RetrievalMode(strings.ToLower(strings.TrimSpace(string(mode)))) {
	case "", domain.ModeHybrid:
		return domain.ModeHybrid, nil
	case domain.ModeSemantic:
		return domain.ModeSemantic, nil
	default:
		return "", domain.WrapError(domain.ErrInvalidInput, "search", fmt.Errorf("unknown retrieval mode %q", mode))
	}
}
