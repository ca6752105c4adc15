package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillkom/hybrid-retrieval/internal/config"
	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
	"github.com/kirillkom/hybrid-retrieval/internal/core/ports"
)

type evaluatorFake struct {
	last  ports.EvaluationRequest
	saved bool
}

func (f *evaluatorFake) Evaluate(_ context.Context, req ports.EvaluationRequest) (*domain.EvaluationReport, error) {
	f.last = req
	return &domain.EvaluationReport{
		ID:         "run-1",
		Collection: req.Collection,
		TopK:       req.TopK,
		Summary:    domain.EvaluationSummary{MeanRecall: 0.5, MeanPrecision: 0.25, Samples: len(req.Samples)},
	}, nil
}

func (f *evaluatorFake) factory(_ context.Context, _ config.Config, save bool) (ports.RetrievalEvaluator, func(), error) {
	f.saved = save
	return f, func() {}, nil
}

func runCmd(t *testing.T, fake *evaluatorFake, args ...string) (string, string, error) {
	t.Helper()
	cfg := config.Config{ChunkStrategy: "sentence", ChunkMaxChars: 800, ChunkOverlap: 0, EvalTopK: 5, EvalConcurrency: 1}
	root := newRootCmd(cfg, fake.factory)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCmd(t, &evaluatorFake{}, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.Contains(out, "ragctl version dev") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestChunkCommandPrintsDenseChunkIDs(t *testing.T) {
	path := writeTemp(t, "notes.txt", strings.Repeat("The quick brown fox jumps over the lazy dog. ", 12))

	out, _, err := runCmd(t, &evaluatorFake{}, "chunk", path, "--max-chars", "100")
	if err != nil {
		t.Fatalf("chunk error = %v", err)
	}

	scanner := bufio.NewScanner(strings.NewReader(out))
	n := 0
	for scanner.Scan() {
		var line chunkLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			t.Fatalf("line %d is not JSON: %v", n, err)
		}
		if line.DocID != "notes.txt" || line.ChunkID != n {
			t.Fatalf("unexpected chunk %d: %+v", n, line)
		}
		if line.Text == "" || line.Chars == 0 {
			t.Fatalf("empty chunk %d", n)
		}
		n++
	}
	if n < 2 {
		t.Fatalf("expected several chunks, got %d", n)
	}
}

func TestChunkCommandReportsDroppedDocument(t *testing.T) {
	path := writeTemp(t, "tiny.md", "too short")

	out, errOut, err := runCmd(t, &evaluatorFake{}, "chunk", path, "--min-chars", "500")
	if err != nil {
		t.Fatalf("chunk error = %v", err)
	}
	if out != "" {
		t.Fatalf("expected no chunks, got %q", out)
	}
	if !strings.Contains(errOut, "document dropped") {
		t.Fatalf("expected drop notice, got %q", errOut)
	}
}

func TestEvaluateCommandUsesSamplesFileDefaults(t *testing.T) {
	path := writeTemp(t, "samples.yaml", "collection: docs\ntopk: 3\nsamples:\n  - query: q1\n    relevant_ids: [a]\n")
	fake := &evaluatorFake{}

	out, _, err := runCmd(t, fake, "evaluate", "--samples", path, "--concurrency", "2")
	if err != nil {
		t.Fatalf("evaluate error = %v", err)
	}
	if fake.last.Collection != "docs" || fake.last.TopK != 3 || fake.last.Concurrency != 2 {
		t.Fatalf("unexpected request: %+v", fake.last)
	}
	if fake.saved {
		t.Fatalf("reports must not be saved without --save")
	}

	var report domain.EvaluationReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Summary.MeanRecall != 0.5 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestEvaluateCommandFlagsOverrideFile(t *testing.T) {
	path := writeTemp(t, "samples.yaml", "collection: docs\ntopk: 3\nsamples:\n  - query: q1\n    relevant_ids: [a]\n")
	fake := &evaluatorFake{}

	out, _, err := runCmd(t, fake, "evaluate", "--samples", path, "--collection", "other", "--topk", "7", "--save", "-o", "yaml")
	if err != nil {
		t.Fatalf("evaluate error = %v", err)
	}
	if fake.last.Collection != "other" || fake.last.TopK != 7 || !fake.saved {
		t.Fatalf("unexpected request: %+v saved=%v", fake.last, fake.saved)
	}
	if !strings.Contains(out, "mean_recall: 0.5") {
		t.Fatalf("expected yaml output, got %q", out)
	}
}

func TestEvaluateCommandRequiresCollection(t *testing.T) {
	path := writeTemp(t, "samples.yaml", "- query: q1\n  relevant_ids: [a]\n")

	_, _, err := runCmd(t, &evaluatorFake{}, "evaluate", "--samples", path)
	if err == nil || !strings.Contains(err.Error(), "--collection") {
		t.Fatalf("expected collection error, got %v", err)
	}
}
