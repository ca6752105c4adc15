// Package extractor picks a text extractor for an uploaded file by MIME type,
// falling back to the file extension.
package extractor

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
	"github.com/kirillkom/hybrid-retrieval/internal/core/ports"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/extractor/htmltext"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/extractor/pdftext"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/extractor/sheettext"
)

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Router struct {
	byType map[string]ports.TextExtractor
	byExt  map[string]string
}

func NewRouter() *Router {
	plain := plaintext.NewExtractor()
	htmlExt := htmltext.NewExtractor()
	pdfExt := pdftext.NewExtractor(0)
	sheetExt := sheettext.NewExtractor(0)
	return &Router{
		byType: map[string]ports.TextExtractor{
			"text/plain":            plain,
			"text/markdown":         plain,
			"text/csv":              plain,
			"application/json":      plain,
			"text/html":             htmlExt,
			"application/xhtml+xml": htmlExt,
			"application/pdf":       pdfExt,
			xlsxType:                sheetExt,
		},
		byExt: map[string]string{
			".txt":      "text/plain",
			".md":       "text/markdown",
			".markdown": "text/markdown",
			".csv":      "text/csv",
			".json":     "application/json",
			".html":     "text/html",
			".htm":      "text/html",
			".xhtml":    "application/xhtml+xml",
			".pdf":      "application/pdf",
			".xlsx":     xlsxType,
		},
	}
}

func (r *Router) Extract(ctx context.Context, filename, mimeType string, data []byte) (string, error) {
	ext, ok := r.resolve(filename, mimeType)
	if !ok {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", fmt.Errorf("unsupported file type %q (%s)", mimeType, filename))
	}
	return ext.Extract(ctx, filename, mimeType, data)
}

func (r *Router) resolve(filename, mimeType string) (ports.TextExtractor, bool) {
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		if ext, ok := r.byType[strings.ToLower(mediaType)]; ok {
			return ext, true
		}
	}
	if mediaType, ok := r.byExt[strings.ToLower(filepath.Ext(filename))]; ok {
		return r.byType[mediaType], true
	}
	return nil, false
}
