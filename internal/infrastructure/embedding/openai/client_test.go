package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
)

func TestEmbedSendsBearerAndOrdersByIndex(t *testing.T) {
	var (
		auth    string
		payload embeddingsRequest
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`))
	}))
	defer server.Close()

	embedder := New(Config{Provider: "qwen", BaseURL: server.URL + "/v1/", APIKey: "sk-test", Model: "text-embedding-v2"}, nil)
	emb, err := embedder.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if auth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header: %q", auth)
	}
	if payload.Model != "text-embedding-v2" || len(payload.Input) != 2 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if emb.Provider != "qwen" || emb.Dim != 2 || emb.Vectors[0][0] != 1 {
		t.Fatalf("unexpected embedding: %+v", emb)
	}
}

func TestEmbedWithoutKeyIsUnauthorized(t *testing.T) {
	_, err := New(Config{}, nil).Embed(context.Background(), []string{"x"})
	if !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestEmbedRejectedKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := New(Config{BaseURL: server.URL, APIKey: "bad"}, nil).Embed(context.Background(), []string{"x"})
	if !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestEmbedServerErrorIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := New(Config{BaseURL: server.URL, APIKey: "k"}, nil).Embed(context.Background(), []string{"x"})
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary, got %v", err)
	}
}
