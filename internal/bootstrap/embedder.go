package bootstrap

import (
	"fmt"

	"github.com/kirillkom/hybrid-retrieval/internal/config"
	"github.com/kirillkom/hybrid-retrieval/internal/core/ports"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/embedding"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/embedding/hash"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/embedding/ollama"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/embedding/openai"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/resilience"
)

// NewEmbedder builds the configured provider. "auto" chains every provider
// that has credentials, ending with the local hash embedder so ingest and
// query never fail for lack of a model server.
func NewEmbedder(cfg config.Config, executor *resilience.Executor) (ports.Embedder, error) {
	openaiEmbedder := func() *openai.Embedder {
		return openai.New(openai.Config{
			Provider: "openai",
			BaseURL:  cfg.OpenAIBaseURL,
			APIKey:   cfg.OpenAIAPIKey,
			Model:    cfg.OpenAIEmbedModel,
			Timeout:  cfg.EmbedTimeout,
		}, executor)
	}
	qwenEmbedder := func() *openai.Embedder {
		return openai.New(openai.Config{
			Provider: "qwen",
			BaseURL:  cfg.QwenBaseURL,
			APIKey:   cfg.QwenAPIKey,
			Model:    cfg.QwenEmbedModel,
			Timeout:  cfg.EmbedTimeout,
		}, executor)
	}

	switch cfg.EmbedProvider {
	case "hash":
		return hash.New(cfg.EmbedDim), nil
	case "ollama":
		return ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel, executor), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("embed provider openai requires OPENAI_API_KEY")
		}
		return openaiEmbedder(), nil
	case "qwen":
		if cfg.QwenAPIKey == "" {
			return nil, fmt.Errorf("embed provider qwen requires QWEN_API_KEY or DASHSCOPE_API_KEY")
		}
		return qwenEmbedder(), nil
	case "", "auto":
		var providers []embedding.Provider
		if cfg.OpenAIAPIKey != "" {
			providers = append(providers, embedding.Provider{Name: "openai", Embedder: openaiEmbedder()})
		}
		if cfg.QwenAPIKey != "" {
			providers = append(providers, embedding.Provider{Name: "qwen", Embedder: qwenEmbedder()})
		}
		providers = append(providers,
			embedding.Provider{Name: "ollama", Embedder: ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel, executor)},
			embedding.Provider{Name: "hash", Embedder: hash.New(cfg.EmbedDim)},
		)
		return embedding.NewChain(providers...), nil
	default:
		return nil, fmt.Errorf("unknown embed provider %q", cfg.EmbedProvider)
	}
}
