// Package preprocess cleans raw documents, fingerprints their content and
// drops too-short or duplicate entries before chunking.
package preprocess

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
)

const (
	DefaultMinChars = 20
	fingerprintKey  = "fp"
)

// CleanText trims surrounding whitespace.
func CleanText(text string) string {
	return strings.TrimSpace(text)
}

// Fingerprint returns the hex SHA-256 digest of text.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func isValid(text string, minChars int) bool {
	if text == "" {
		return false
	}
	return utf8.RuneCountInString(text) >= minChars
}

// NormalizeAndFilter trims every document, drops empty or short texts and
// deduplicates by fingerprint within this call. The first occurrence of a
// fingerprint wins and input order is preserved.
func NormalizeAndFilter(docs []domain.Document, minChars int) ([]domain.NormalizedDocument, domain.NormalizeStats) {
	if minChars < 0 {
		minChars = 0
	}

	seen := make(map[string]struct{}, len(docs))
	kept := make([]domain.NormalizedDocument, 0, len(docs))
	var stats domain.NormalizeStats

	for _, doc := range docs {
		stats.Input++
		text := CleanText(doc.Text)
		if !isValid(text, minChars) {
			stats.TooShort++
			continue
		}

		fp := Fingerprint(text)
		if _, dup := seen[fp]; dup {
			stats.Dedup++
			continue
		}
		seen[fp] = struct{}{}

		kept = append(kept, domain.NormalizedDocument{
			Document: domain.Document{
				ID:   doc.ID,
				Text: text,
				Meta: withFingerprint(doc.Meta, fp),
			},
			Fingerprint: fp,
		})
		stats.Kept++
	}
	return kept, stats
}

func withFingerprint(meta map[string]any, fp string) map[string]any {
	out := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	out[fingerprintKey] = fp
	return out
}

// Normalizer exposes NormalizeAndFilter through ports.Normalizer.
type Normalizer struct{}

func (Normalizer) Normalize(docs []domain.Document, minChars int) ([]domain.NormalizedDocument, domain.NormalizeStats) {
	return NormalizeAndFilter(docs, minChars)
}
