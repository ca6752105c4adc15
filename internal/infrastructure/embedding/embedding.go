// Package embedding holds provider-independent helpers and the provider
// chain used when EMBED_PROVIDER=auto.
package embedding

import (
	"fmt"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/resilience"
)

// Assemble validates provider output: one vector per text, all of one
// non-zero dimension.
func Assemble(provider string, texts int, vectors [][]float32) (domain.Embedding, error) {
	if len(vectors) != texts {
		return domain.Embedding{}, domain.WrapError(
			domain.ErrTemporary,
			provider+" embed",
			fmt.Errorf("vectors/texts mismatch: %d/%d", len(vectors), texts),
		)
	}
	out := domain.Embedding{Vectors: vectors, Provider: provider}
	for i, v := range vectors {
		if i == 0 {
			out.Dim = len(v)
			if out.Dim == 0 {
				return domain.Embedding{}, domain.WrapError(domain.ErrTemporary, provider+" embed", fmt.Errorf("empty vector"))
			}
			continue
		}
		if len(v) != out.Dim {
			return domain.Embedding{}, domain.WrapError(
				domain.ErrTemporary,
				provider+" embed",
				fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), out.Dim),
			)
		}
	}
	return out, nil
}

// NewHTTPStatusError reads at most 2KiB of the response body into the error.
func NewHTTPStatusError(service, operation string, statusCode int, status string, body []byte) *resilience.HTTPStatusError {
	if len(body) > 2048 {
		body = body[:2048]
	}
	return &resilience.HTTPStatusError{
		Service:    service,
		Operation:  operation,
		StatusCode: statusCode,
		Status:     status,
		Body:       string(body),
	}
}
