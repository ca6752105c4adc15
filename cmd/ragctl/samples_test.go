package main

import (
	"strings"
	"testing"
)

func TestParseSamplesMapping(t *testing.T) {
	file, err := parseSamples([]byte(`
collection: docs
topk: 3
samples:
  - query: how do I reset a collection
    relevant_ids: [ops#0, ops#1]
  - query: bm25 parameters
    relevant_ids: [lexical#2]
`))
	if err != nil {
		t.Fatalf("parseSamples() error = %v", err)
	}
	if file.Collection != "docs" || file.TopK != 3 || len(file.Samples) != 2 {
		t.Fatalf("unexpected file: %+v", file)
	}
	if got := file.Samples[0].RelevantIDs; len(got) != 2 || got[1] != "ops#1" {
		t.Fatalf("unexpected relevant ids: %v", got)
	}
}

func TestParseSamplesBareList(t *testing.T) {
	file, err := parseSamples([]byte(`[{"query": "q1", "relevant_ids": ["a"]}]`))
	if err != nil {
		t.Fatalf("parseSamples() error = %v", err)
	}
	if file.Collection != "" || len(file.Samples) != 1 || file.Samples[0].Query != "q1" {
		t.Fatalf("unexpected file: %+v", file)
	}
}

func TestParseSamplesRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"empty":       "",
		"scalar":      "just text",
		"no samples":  "collection: docs\n",
		"blank query": "- query: '  '\n  relevant_ids: [a]\n",
		"bad yaml":    "samples: [",
	}
	for name, input := range cases {
		if _, err := parseSamples([]byte(input)); err == nil {
			t.Fatalf("%s: expected error", name)
		} else if strings.TrimSpace(err.Error()) == "" {
			t.Fatalf("%s: expected error message", name)
		}
	}
}
