package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
)

func TestCreateCollectionOncePerDimension(t *testing.T) {
	var ensureCalls int32
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/docs" {
			atomic.AddInt32(&ensureCalls, 1)
			_ = json.NewDecoder(r.Body).Decode(&body)
			w.WriteHeader(http.StatusCreated)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, nil)
	for i := 0; i < 2; i++ {
		if err := client.CreateCollection(context.Background(), "docs", 4); err != nil {
			t.Fatalf("CreateCollection() error = %v", err)
		}
	}
	if got := atomic.LoadInt32(&ensureCalls); got != 1 {
		t.Fatalf("expected one create call, got %d", got)
	}

	vectors, _ := body["vectors"].(map[string]any)
	hnsw, _ := body["hnsw_config"].(map[string]any)
	if vectors["size"] != float64(4) || vectors["distance"] != "Cosine" || hnsw["m"] != float64(32) || body["on_disk_payload"] != true {
		t.Fatalf("unexpected create body: %v", body)
	}

	if err := client.CreateCollection(context.Background(), "docs", 8); err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}
	if got := atomic.LoadInt32(&ensureCalls); got != 2 {
		t.Fatalf("expected new dimension to re-ensure, got %d calls", got)
	}
}

func TestCreateCollectionConflictIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer server.Close()

	if err := New(server.URL, nil).CreateCollection(context.Background(), "docs", 3); err != nil {
		t.Fatalf("expected 409 to be accepted, got %v", err)
	}
}

func TestCreateCollectionIncludesResponseBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	err := New(server.URL, nil).CreateCollection(context.Background(), "docs", 2)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected error to include body, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected 500 to be temporary, got %v", err)
	}
}

func TestDeleteCollectionIgnoresMissing(t *testing.T) {
	var method string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		http.NotFound(w, r)
	}))
	defer server.Close()

	if err := New(server.URL, nil).DeleteCollection(context.Background(), "docs"); err != nil {
		t.Fatalf("DeleteCollection() error = %v", err)
	}
	if method != http.MethodDelete {
		t.Fatalf("expected DELETE, got %s", method)
	}
}

func TestUpsertFlattensPayload(t *testing.T) {
	var captured struct {
		Points []struct {
			ID      string         `json:"id"`
			Vector  []float32      `json:"vector"`
			Payload map[string]any `json:"payload"`
		} `json:"points"`
	}
	var query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/collections/kb/points" {
			http.NotFound(w, r)
			return
		}
		query = r.URL.RawQuery
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	err := New(server.URL, nil).Upsert(context.Background(), "kb", []domain.VectorPoint{{
		ID:     "8a6e0804-2bd0-5a4e-9a3b-1f2c5e7d9b11",
		Vector: []float32{0.1, 0.2},
		Payload: domain.Payload{
			ID: "d1#0", DocID: "d1", ChunkID: 0, Text: "hello",
			Meta: map[string]any{"source": "web", "id": "shadowed"},
		},
	}})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if query != "wait=true" || len(captured.Points) != 1 {
		t.Fatalf("unexpected request: query=%q points=%d", query, len(captured.Points))
	}
	payload := captured.Points[0].Payload
	if payload["id"] != "d1#0" || payload["source"] != "web" || payload["text"] != "hello" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestSearchDecodesPayloadAndIDs(t *testing.T) {
	var request map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/collections/kb/points/search" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&request)
		_, _ = w.Write([]byte(`{"result":[
			{"id":"uuid-1","score":0.9,"payload":{"id":"d1#0","doc_id":"d1","chunk_id":0,"text":"hello","fp":"abc"}},
			{"id":42,"score":0.5,"payload":{"text":"bare"}}
		]}`))
	}))
	defer server.Close()

	hits, err := New(server.URL, nil).Search(context.Background(), "kb", []float32{1, 0}, 7)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if request["limit"] != float64(7) || request["with_payload"] != true {
		t.Fatalf("unexpected search request: %v", request)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ExternalID() != "d1#0" || hits[0].Payload.Meta["fp"] != "abc" || hits[0].PointID != "uuid-1" {
		t.Fatalf("unexpected first hit: %+v", hits[0])
	}
	if hits[1].PointID != "42" || hits[1].ExternalID() != "42" {
		t.Fatalf("expected numeric point id fallback, got %+v", hits[1])
	}
}

func TestSearchNonPositiveLimit(t *testing.T) {
	hits, err := New("http://127.0.0.1:1", nil).Search(context.Background(), "kb", []float32{1}, 0)
	if err != nil || hits != nil {
		t.Fatalf("Search(limit=0) = %v, %v", hits, err)
	}
}
