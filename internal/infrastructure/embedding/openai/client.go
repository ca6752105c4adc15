// Package openai embeds text through any OpenAI-compatible /embeddings API,
// including DashScope's compatible mode used for Qwen models.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/embedding"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/resilience"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultQwenBaseURL   = "https://dashscope.aliyuncs.com/compatible-mode/v1"
)

type Config struct {
	// Provider is reported on every embedding, e.g. "openai" or "qwen".
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

type Embedder struct {
	cfg        Config
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(cfg Config, executor *resilience.Executor) *Embedder {
	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Embedder{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		executor:   executor,
	}
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (e *Embedder) Embed(ctx context.Context, texts []string) (domain.Embedding, error) {
	if len(texts) == 0 {
		return domain.Embedding{Provider: e.cfg.Provider}, nil
	}
	if strings.TrimSpace(e.cfg.APIKey) == "" {
		return domain.Embedding{}, domain.WrapError(domain.ErrUnauthorized, e.cfg.Provider+" embed", errors.New("api key is not configured"))
	}

	op := e.cfg.Provider + ".embed"
	resp, err := resilience.Do(ctx, e.executor, op, func(ctx context.Context) (embeddingsResponse, error) {
		return e.post(ctx, embeddingsRequest{Model: e.cfg.Model, Input: texts})
	}, resilience.ClassifyHTTPError)
	if err != nil {
		return domain.Embedding{}, resilience.WrapTemporary(e.cfg.Provider+" embed", err, resilience.ClassifyHTTPError)
	}

	sort.SliceStable(resp.Data, func(i, j int) bool {
		return resp.Data[i].Index < resp.Data[j].Index
	})
	vectors := make([][]float32, 0, len(resp.Data))
	for _, item := range resp.Data {
		vectors = append(vectors, item.Embedding)
	}
	return embedding.Assemble(e.cfg.Provider, len(texts), vectors)
}

func (e *Embedder) post(ctx context.Context, payload embeddingsRequest) (embeddingsResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return embeddingsResponse{}, fmt.Errorf("marshal embeddings request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return embeddingsResponse{}, fmt.Errorf("create embeddings request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return embeddingsResponse{}, fmt.Errorf("%s embeddings request: %w", e.cfg.Provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		statusErr := embedding.NewHTTPStatusError(e.cfg.Provider, "embeddings", resp.StatusCode, resp.Status, raw)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return embeddingsResponse{}, domain.WrapError(domain.ErrUnauthorized, e.cfg.Provider+" embeddings", statusErr)
		}
		return embeddingsResponse{}, statusErr
	}

	var out embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return embeddingsResponse{}, fmt.Errorf("decode embeddings response: %w", err)
	}
	return out, nil
}
