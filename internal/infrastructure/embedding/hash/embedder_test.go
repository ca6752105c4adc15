package hash

import (
	"context"
	"math"
	"testing"
)

func TestEmbedIsDeterministicAndNormalized(t *testing.T) {
	e := New(0)
	first, err := e.Embed(context.Background(), []string{"hello", "world"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	second, _ := e.Embed(context.Background(), []string{"hello"})

	if first.Dim != DefaultDim || len(first.Vectors[0]) != DefaultDim || first.Provider != "hash" {
		t.Fatalf("unexpected embedding header: dim=%d provider=%s", first.Dim, first.Provider)
	}
	for i := range first.Vectors[0] {
		if first.Vectors[0][i] != second.Vectors[0][i] {
			t.Fatalf("vectors differ at %d", i)
		}
	}

	var norm float64
	for _, v := range first.Vectors[1] {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Fatalf("expected unit norm, got %f", norm)
	}
}

func TestEmbedDistinctTexts(t *testing.T) {
	emb, _ := New(8).Embed(context.Background(), []string{"a", "b"})
	same := true
	for i := range emb.Vectors[0] {
		if emb.Vectors[0][i] != emb.Vectors[1][i] {
			same = false
		}
	}
	if same {
		t.Fatalf("distinct texts produced identical vectors")
	}
}
