// Package htmltext strips markup from HTML pages, keeping visible text with
// paragraph breaks at block boundaries.
package htmltext

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
)

var (
	skipped = map[string]bool{
		"script":   true,
		"style":    true,
		"noscript": true,
		"template": true,
		"head":     true,
	}
	blocks = map[string]bool{
		"p": true, "div": true, "section": true, "article": true, "main": true,
		"header": true, "footer": true, "li": true, "ul": true, "ol": true,
		"table": true, "tr": true, "br": true, "pre": true, "blockquote": true,
		"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	}
	manyNewlines = regexp.MustCompile(`\n{3,}`)
)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(_ context.Context, _ string, _ string, data []byte) (string, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "parse html", err)
	}

	var b strings.Builder
	walk(root, &b)
	return Collapse(b.String()), nil
}

func walk(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			b.WriteString(text)
			b.WriteByte('\n')
		}
		return
	case html.ElementNode:
		if skipped[n.Data] {
			return
		}
	case html.CommentNode:
		return
	}

	block := n.Type == html.ElementNode && blocks[n.Data]
	if block {
		b.WriteString("\n\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, b)
	}
	if block {
		b.WriteString("\n\n")
	}
}

// Collapse squeezes runs of blank lines into a single paragraph break.
func Collapse(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	text = manyNewlines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text)
}
