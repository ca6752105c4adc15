package lexical

import (
	"strings"
	"unicode"
)

// Tokenize lower-cases s and splits it on runs of non-word characters.
// Word characters are letters, digits, combining marks and underscore.
func Tokenize(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range s {
		if isWordRune(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
