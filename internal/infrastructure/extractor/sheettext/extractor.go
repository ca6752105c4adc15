// Package sheettext flattens xlsx workbooks into text: one paragraph per
// sheet, one line per non-empty row, cells separated by " | ".
package sheettext

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/extractor/htmltext"
)

const cellSeparator = " | "

type Extractor struct {
	unzipLimit int64
}

// NewExtractor caps the unzipped workbook size; zero means 64MiB.
func NewExtractor(unzipLimit int64) *Extractor {
	if unzipLimit <= 0 {
		unzipLimit = 64 << 20
	}
	return &Extractor{unzipLimit: unzipLimit}
}

func (e *Extractor) Extract(ctx context.Context, filename, _ string, data []byte) (string, error) {
	book, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{
		UnzipSizeLimit:    e.unzipLimit,
		UnzipXMLSizeLimit: e.unzipLimit,
	})
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "open workbook", fmt.Errorf("%s: %w", filename, err))
	}
	defer book.Close()

	var b strings.Builder
	for _, sheet := range book.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		rows, err := book.GetRows(sheet)
		if err != nil {
			return "", domain.WrapError(domain.ErrInvalidInput, "read sheet", fmt.Errorf("%s/%s: %w", filename, sheet, err))
		}
		lines := sheetLines(rows)
		if len(lines) == 0 {
			continue
		}
		b.WriteString(sheet)
		b.WriteByte('\n')
		for _, line := range lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return htmltext.Collapse(b.String()), nil
}

func sheetLines(rows [][]string) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			if cell = strings.TrimSpace(cell); cell != "" {
				cells = append(cells, cell)
			}
		}
		if len(cells) > 0 {
			out = append(out, strings.Join(cells, cellSeparator))
		}
	}
	return out
}
