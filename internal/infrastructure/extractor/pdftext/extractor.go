package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/extractor/htmltext"
)

type Extractor struct {
	maxBytes int64
}

// NewExtractor limits the extracted text to maxBytes; zero means 32MiB.
func NewExtractor(maxBytes int64) *Extractor {
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}
	return &Extractor{maxBytes: maxBytes}
}

func (e *Extractor) Extract(_ context.Context, filename, _ string, data []byte) (text string, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = domain.WrapError(domain.ErrInvalidInput, "extract pdf", fmt.Errorf("%s: malformed pdf: %v", filename, r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "open pdf", fmt.Errorf("%s: %w", filename, err))
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract pdf", fmt.Errorf("%s: %w", filename, err))
	}

	raw, err := io.ReadAll(io.LimitReader(plain, e.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return htmltext.Collapse(string(raw)), nil
}
