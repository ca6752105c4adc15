package preprocess

import (
	"testing"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
)

func TestNormalizeAndFilterDropsShortDocuments(t *testing.T) {
	kept, stats := NormalizeAndFilter([]domain.Document{
		{ID: "1", Text: "hello world"},
		{ID: "2", Text: "hi"},
	}, 5)

	if len(kept) != 1 || kept[0].ID != "1" {
		t.Fatalf("expected only doc 1 kept, got %+v", kept)
	}
	want := domain.NormalizeStats{Input: 2, Kept: 1, TooShort: 1, Dedup: 0}
	if stats != want {
		t.Fatalf("unexpected stats: got %+v want %+v", stats, want)
	}
}

func TestNormalizeAndFilterDeduplicatesFirstWins(t *testing.T) {
	kept, stats := NormalizeAndFilter([]domain.Document{
		{ID: "a", Text: "the same body of text"},
		{ID: "a-copy", Text: "   the same body of text \n"},
		{ID: "b", Text: "a different body of text"},
	}, 5)

	if len(kept) != 2 {
		t.Fatalf("expected 2 kept documents, got %d", len(kept))
	}
	if kept[0].ID != "a" || kept[1].ID != "b" {
		t.Fatalf("unexpected kept order: %s, %s", kept[0].ID, kept[1].ID)
	}
	if stats.Dedup != 1 || stats.Kept != 2 || stats.Input != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestNormalizeAndFilterTrimsAndStampsFingerprint(t *testing.T) {
	meta := map[string]any{"source": "web"}
	kept, _ := NormalizeAndFilter([]domain.Document{{ID: "1", Text: "  padded text here  ", Meta: meta}}, 1)
	if len(kept) != 1 {
		t.Fatalf("expected one document")
	}
	doc := kept[0]
	if doc.Text != "padded text here" {
		t.Fatalf("expected trimmed text, got %q", doc.Text)
	}
	if doc.Meta["fp"] != doc.Fingerprint || doc.Fingerprint != Fingerprint("padded text here") {
		t.Fatalf("fingerprint not stamped: %+v", doc)
	}
	if doc.Meta["source"] != "web" {
		t.Fatalf("expected meta passthrough, got %+v", doc.Meta)
	}
	if _, mutated := meta["fp"]; mutated {
		t.Fatalf("input meta must not be mutated")
	}
}

func TestNormalizeAndFilterEmptyTextCountsAsTooShort(t *testing.T) {
	kept, stats := NormalizeAndFilter([]domain.Document{{ID: "missing"}, {ID: "blank", Text: "   "}}, 0)
	if len(kept) != 0 {
		t.Fatalf("expected nothing kept, got %+v", kept)
	}
	if stats.TooShort != 2 {
		t.Fatalf("expected too_short=2, got %+v", stats)
	}
}

func TestNormalizeAndFilterCountsRunes(t *testing.T) {
	kept, _ := NormalizeAndFilter([]domain.Document{{ID: "cjk", Text: "服务器选型"}}, 5)
	if len(kept) != 1 {
		t.Fatalf("expected five CJK characters to satisfy min_chars=5")
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	if Fingerprint("abc") != Fingerprint("abc") {
		t.Fatalf("fingerprint must be deterministic")
	}
	if Fingerprint("abc") == Fingerprint("abd") {
		t.Fatalf("distinct texts should not collide")
	}
	if len(Fingerprint("")) != 64 {
		t.Fatalf("expected 64 hex characters")
	}
}
