package sheettext

import (
	"context"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
)

func workbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	cells := map[string]string{
		"A1": "name", "B1": "port",
		"A2": "qdrant", "B2": "6333",
		"A4": "nats", "C4": "4222",
	}
	for cell, value := range cells {
		if err := f.SetCellValue("Sheet1", cell, value); err != nil {
			t.Fatalf("SetCellValue(%s) error = %v", cell, err)
		}
	}
	if _, err := f.NewSheet("Empty"); err != nil {
		t.Fatalf("NewSheet() error = %v", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}
	return buf.Bytes()
}

func TestExtractFlattensRows(t *testing.T) {
	text, err := NewExtractor(0).Extract(context.Background(), "services.xlsx", "", workbook(t))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want := "Sheet1\nname | port\nqdrant | 6333\nnats | 4222"
	if text != want {
		t.Fatalf("Extract() = %q, want %q", text, want)
	}
}

func TestExtractRejectsNonWorkbook(t *testing.T) {
	_, err := NewExtractor(0).Extract(context.Background(), "notes.xlsx", "", []byte("not a zip"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
