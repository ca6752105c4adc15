package chunking

import (
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
)

const (
	DefaultMaxChars = 400
	DefaultOverlap  = 50
)

// sentenceEnders covers CJK and Latin terminal punctuation plus newline.
const sentenceEnders = "。！？.!?\n"

type Splitter struct {
	defaults domain.ChunkOptions
}

func NewSplitter(strategy domain.ChunkStrategy, maxChars, overlap int) *Splitter {
	return &Splitter{defaults: normalizeOptions(domain.ChunkOptions{
		Strategy: strategy,
		MaxChars: maxChars,
		Overlap:  overlap,
	})}
}

func (s *Splitter) Defaults() domain.ChunkOptions {
	return s.defaults
}

// Chunk splits text into units according to opts.Strategy and packs them
// greedily into chunks of at most opts.MaxChars characters. A single unit
// longer than MaxChars is kept whole. After each sealed chunk the next buffer
// starts with the last opts.Overlap characters of that chunk.
func (s *Splitter) Chunk(docID, text string, opts domain.ChunkOptions) []domain.Chunk {
	if text == "" {
		return nil
	}
	opts = normalizeOptions(opts)

	var units []string
	if opts.Strategy == domain.ChunkByParagraph {
		units = splitParagraphs(text)
	} else {
		units = splitSentences(text)
	}
	return pack(docID, units, opts.MaxChars, opts.Overlap)
}

func normalizeOptions(opts domain.ChunkOptions) domain.ChunkOptions {
	if opts.Strategy != domain.ChunkByParagraph {
		opts.Strategy = domain.ChunkBySentence
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxChars
	}
	if opts.Overlap < 0 {
		opts.Overlap = 0
	}
	return opts
}

func pack(docID string, units []string, maxChars, overlap int) []domain.Chunk {
	out := make([]domain.Chunk, 0, len(units))
	seal := func(buf []string) string {
		text := strings.TrimSpace(strings.Join(buf, ""))
		if text != "" {
			out = append(out, domain.Chunk{DocID: docID, ChunkID: len(out), Text: text})
		}
		return text
	}

	var buf []string
	bufLen := 0
	for _, unit := range units {
		unitLen := utf8.RuneCountInString(unit)
		if bufLen+unitLen <= maxChars || len(buf) == 0 {
			buf = append(buf, unit)
			bufLen += unitLen
			continue
		}

		sealed := seal(buf)
		tail := tailRunes(sealed, overlap)
		if tail != "" {
			buf = []string{tail, unit}
		} else {
			buf = []string{unit}
		}
		bufLen = utf8.RuneCountInString(tail) + unitLen
	}
	if len(buf) > 0 {
		seal(buf)
	}
	return out
}

func tailRunes(s string, n int) string {
	if n <= 0 || s == "" {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

// splitSentences keeps each ender with the preceding text. Units keep their
// leading whitespace; blank units are dropped.
func splitSentences(text string) []string {
	out := make([]string, 0, 16)
	var cur strings.Builder
	flush := func() {
		if strings.TrimSpace(cur.String()) != "" {
			out = append(out, cur.String())
		}
		cur.Reset()
	}
	for _, r := range text {
		cur.WriteRune(r)
		if strings.ContainsRune(sentenceEnders, r) {
			flush()
		}
	}
	flush()
	return out
}

func splitParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
