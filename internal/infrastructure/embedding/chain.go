package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
	"github.com/kirillkom/hybrid-retrieval/internal/core/ports"
)

type Provider struct {
	Name     string
	Embedder ports.Embedder
}

// Chain tries providers in order and returns the first successful result.
type Chain struct {
	providers []Provider
}

func NewChain(providers ...Provider) *Chain {
	out := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p.Embedder != nil {
			out = append(out, p)
		}
	}
	return &Chain{providers: out}
}

func (c *Chain) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name)
	}
	return names
}

func (c *Chain) Embed(ctx context.Context, texts []string) (domain.Embedding, error) {
	if len(c.providers) == 0 {
		return domain.Embedding{}, fmt.Errorf("embedding chain: no providers configured")
	}

	var errs []error
	for _, p := range c.providers {
		emb, err := p.Embedder.Embed(ctx, texts)
		if err == nil {
			return emb, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Embedding{}, ctxErr
		}
		slog.Warn("embedding_provider_failed", "provider", p.Name, "error", err.Error())
		errs = append(errs, fmt.Errorf("%s: %w", p.Name, err))
	}
	return domain.Embedding{}, fmt.Errorf("embedding chain: all providers failed: %w", errors.Join(errs...))
}
