package chunking

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
)

func sentenceOpts(maxChars, overlap int) domain.ChunkOptions {
	return domain.ChunkOptions{Strategy: domain.ChunkBySentence, MaxChars: maxChars, Overlap: overlap}
}

func TestChunkSentenceStrategySplitsOnPeriods(t *testing.T) {
	s := NewSplitter(domain.ChunkBySentence, 4, 0)
	chunks := s.Chunk("d1", "A. B. C.", sentenceOpts(4, 0))

	want := []string{"A.", "B.", "C."}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %+v", len(want), len(chunks), chunks)
	}
	for i, c := range chunks {
		if c.Text != want[i] || c.ChunkID != i || c.DocID != "d1" {
			t.Fatalf("chunk %d mismatch: %+v", i, c)
		}
	}
}

func TestChunkIDsAreDenseForBothStrategies(t *testing.T) {
	text := "First paragraph line one. Line two!\n\nSecond paragraph here?\n\nThird one。第四句！"
	s := NewSplitter(domain.ChunkBySentence, 10, 3)
	for _, strategy := range []domain.ChunkStrategy{domain.ChunkBySentence, domain.ChunkByParagraph} {
		chunks := s.Chunk("doc", text, domain.ChunkOptions{Strategy: strategy, MaxChars: 10, Overlap: 3})
		if len(chunks) == 0 {
			t.Fatalf("%s: expected chunks", strategy)
		}
		for i, c := range chunks {
			if c.ChunkID != i {
				t.Fatalf("%s: expected chunk id %d, got %d", strategy, i, c.ChunkID)
			}
		}
	}
}

func TestChunkRespectsMaxCharsExceptOversizedUnit(t *testing.T) {
	long := strings.Repeat("x", 30) + "."
	text := "Short one. " + long + " Tail."
	s := NewSplitter(domain.ChunkBySentence, 12, 0)
	chunks := s.Chunk("doc", text, sentenceOpts(12, 0))

	foundLong := false
	for _, c := range chunks {
		n := utf8.RuneCountInString(c.Text)
		if c.Text == long {
			foundLong = true
			continue
		}
		if n > 12 {
			t.Fatalf("chunk exceeds max_chars: %q (%d)", c.Text, n)
		}
	}
	if !foundLong {
		t.Fatalf("expected oversized unit kept whole, got %+v", chunks)
	}
}

func TestChunkCarriesOverlapTail(t *testing.T) {
	s := NewSplitter(domain.ChunkBySentence, 12, 4)
	chunks := s.Chunk("doc", "Alpha beta. Gamma delta.", sentenceOpts(12, 4))
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %+v", chunks)
	}
	if chunks[0].Text != "Alpha beta." {
		t.Fatalf("unexpected first chunk %q", chunks[0].Text)
	}
	if !strings.HasPrefix(chunks[1].Text, "eta.") {
		t.Fatalf("expected overlap prefix %q in %q", "eta.", chunks[1].Text)
	}
	if !strings.HasSuffix(chunks[1].Text, "Gamma delta.") {
		t.Fatalf("expected triggering unit in second chunk, got %q", chunks[1].Text)
	}
}

func TestChunkNonPositiveOverlapStartsClean(t *testing.T) {
	s := NewSplitter(domain.ChunkBySentence, 12, 0)
	for _, overlap := range []int{0, -5} {
		chunks := s.Chunk("doc", "Alpha beta. Gamma delta.", sentenceOpts(12, overlap))
		if len(chunks) != 2 || chunks[1].Text != "Gamma delta." {
			t.Fatalf("overlap=%d: expected clean second chunk, got %+v", overlap, chunks)
		}
	}
}

func TestChunkCoverageWithoutOverlap(t *testing.T) {
	text := "One. Two. Three. Four. Five."
	s := NewSplitter(domain.ChunkBySentence, 10, 0)
	chunks := s.Chunk("doc", text, sentenceOpts(10, 0))

	var joined []string
	for _, c := range chunks {
		joined = append(joined, c.Text)
	}
	if strings.Join(joined, " ") != text {
		t.Fatalf("chunks do not cover the unit sequence: %q", strings.Join(joined, " "))
	}
}

func TestChunkParagraphStrategy(t *testing.T) {
	text := "  para one  \n\n\n\npara two\n\n   \n\npara three"
	s := NewSplitter(domain.ChunkByParagraph, 5, 0)
	chunks := s.Chunk("doc", text, domain.ChunkOptions{Strategy: domain.ChunkByParagraph, MaxChars: 5, Overlap: 0})

	want := []string{"para one", "para two", "para three"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %+v", len(want), chunks)
	}
	for i := range want {
		if chunks[i].Text != want[i] {
			t.Fatalf("chunk %d: got %q want %q", i, chunks[i].Text, want[i])
		}
	}
}

func TestChunkPacksSmallUnitsTogether(t *testing.T) {
	s := NewSplitter(domain.ChunkBySentence, 400, 50)
	chunks := s.Chunk("doc", "Small. Units. Fit.", sentenceOpts(400, 50))
	if len(chunks) != 1 || chunks[0].Text != "Small. Units. Fit." {
		t.Fatalf("expected a single packed chunk, got %+v", chunks)
	}
}

func TestChunkEmptyText(t *testing.T) {
	s := NewSplitter(domain.ChunkBySentence, 10, 2)
	if got := s.Chunk("doc", "", sentenceOpts(10, 2)); len(got) != 0 {
		t.Fatalf("expected no chunks, got %+v", got)
	}
	if got := s.Chunk("doc", " \n \n", sentenceOpts(10, 2)); len(got) != 0 {
		t.Fatalf("expected no chunks for blank text, got %+v", got)
	}
}

func TestNewSplitterNormalizesDefaults(t *testing.T) {
	s := NewSplitter("unknown", 0, -1)
	got := s.Defaults()
	if got.Strategy != domain.ChunkBySentence || got.MaxChars != DefaultMaxChars || got.Overlap != 0 {
		t.Fatalf("unexpected normalized defaults: %+v", got)
	}
}
