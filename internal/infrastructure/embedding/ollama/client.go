// Package ollama embeds text through a local Ollama server.
package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/embedding"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/resilience"
)

const providerName = "ollama"

type Embedder struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, model string, executor *resilience.Executor) *Embedder {
	return &Embedder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) (domain.Embedding, error) {
	if len(texts) == 0 {
		return domain.Embedding{Provider: providerName}, nil
	}

	request := map[string]any{
		"model": e.model,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	err := e.executor.Execute(ctx, "ollama.embed", func(ctx context.Context) error {
		return e.postJSON(ctx, "/api/embed", request, &response, "embed")
	}, resilience.ClassifyHTTPError)
	if err != nil {
		return domain.Embedding{}, resilience.WrapTemporary("ollama embed", err, resilience.ClassifyHTTPError)
	}
	return embedding.Assemble(providerName, len(texts), response.Embeddings)
}
