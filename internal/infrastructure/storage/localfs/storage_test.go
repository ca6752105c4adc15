package localfs

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
)

func TestSaveAndOpenRoundTrip(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "archive"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if err := s.Save(ctx, "docs/guide.html", strings.NewReader("<p>hi</p>")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	rc, err := s.Open(ctx, "docs/guide.html")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "<p>hi</p>" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestOpenMissingIsNotFound(t *testing.T) {
	s, _ := New(t.TempDir())
	if _, err := s.Open(context.Background(), "docs/missing.txt"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRejectsEscapingKeys(t *testing.T) {
	s, _ := New(t.TempDir())
	for _, key := range []string{"../etc/passwd", "docs/../../x", "/abs/path", ""} {
		if err := s.Save(context.Background(), key, strings.NewReader("x")); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("key %q: expected invalid input, got %v", key, err)
		}
	}
}

func TestNewRequiresPath(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
