package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
)

func TestIngestJobRoundTripKeepsOverrides(t *testing.T) {
	overlap := 0
	data, err := encodeIngestJob(domain.IngestJob{
		ID:         "job-1",
		Collection: "kb",
		Documents:  []domain.Document{{ID: "d1", Text: "hello", Meta: map[string]any{"lang": "en"}}},
		Strategy:   domain.ChunkByParagraph,
		Overlap:    &overlap,
	})
	if err != nil {
		t.Fatalf("encodeIngestJob() error = %v", err)
	}

	job, err := decodeIngestJob(data)
	if err != nil {
		t.Fatalf("decodeIngestJob() error = %v", err)
	}
	if job.Overlap == nil || *job.Overlap != 0 {
		t.Fatalf("explicit zero overlap must survive the queue, got %v", job.Overlap)
	}
	if job.MinChars != nil {
		t.Fatalf("unset min_chars must stay nil")
	}
	if job.Documents[0].Meta["lang"] != "en" || job.Strategy != domain.ChunkByParagraph {
		t.Fatalf("unexpected job: %+v", job)
	}
}

func TestDecodeRejectsMalformedMessages(t *testing.T) {
	if _, err := decodeIngestJob([]byte("not json")); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := decodeIngestJob([]byte(`{"documents":[]}`)); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected missing collection error, got %v", err)
	}
	if _, err := decodeIndexEvent([]byte(`{"collection":""}`)); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected missing collection error, got %v", err)
	}
	if _, err := encodeIngestJob(domain.IngestJob{}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected encode to reject empty collection, got %v", err)
	}
}

func TestClassifyNATSError(t *testing.T) {
	if !classifyNATSError(fmt.Errorf("publish: %w", nats.ErrConnectionClosed)).Retryable {
		t.Fatalf("closed connection should be retryable")
	}
	if classifyNATSError(context.Canceled).RecordFailure {
		t.Fatalf("cancellation must not count against the breaker")
	}
	if classifyNATSError(errors.New("bad subject")).Retryable {
		t.Fatalf("unknown errors are not retryable")
	}
	if !domain.IsKind(wrapPublishError("publish ingest job", nats.ErrTimeout), domain.ErrTemporary) {
		t.Fatalf("timeouts should be wrapped as temporary")
	}
	oversized := fmt.Errorf("nats publish: %w", nats.ErrMaxPayload)
	if classifyNATSError(oversized).RecordFailure {
		t.Fatalf("oversized payloads must not trip the breaker")
	}
	if !domain.IsKind(wrapPublishError("publish ingest job", oversized), domain.ErrInvalidInput) {
		t.Fatalf("oversized ingest jobs should be invalid input")
	}
}
