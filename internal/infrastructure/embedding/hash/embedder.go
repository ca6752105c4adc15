// Package hash is a deterministic, dependency-free embedder used as the last
// fallback and in tests. Vectors carry no semantic meaning.
package hash

import (
	"context"
	"crypto/sha256"
	"math"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
)

const (
	DefaultDim   = 384
	providerName = "hash"
)

type Embedder struct {
	dim int
}

func New(dim int) *Embedder {
	if dim <= 0 {
		dim = DefaultDim
	}
	return &Embedder{dim: dim}
}

func (e *Embedder) Embed(_ context.Context, texts []string) (domain.Embedding, error) {
	out := domain.Embedding{
		Vectors:  make([][]float32, 0, len(texts)),
		Provider: providerName,
	}
	if len(texts) > 0 {
		out.Dim = e.dim
	}
	for _, text := range texts {
		out.Vectors = append(out.Vectors, e.vector(text))
	}
	return out, nil
}

// vector repeats the SHA-256 digest of text to dim values mapped into
// [-1, 1], then L2-normalizes the result.
func (e *Embedder) vector(text string) []float32 {
	sum := sha256.Sum256([]byte(text))
	raw := make([]float64, e.dim)
	var norm float64
	for i := range raw {
		v := float64(sum[i%len(sum)])/255.0*2 - 1
		raw[i] = v
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		norm = 1
	}

	out := make([]float32, e.dim)
	for i, v := range raw {
		out[i] = float32(v / norm)
	}
	return out
}
