package domain

import (
	"fmt"
	"time"
)

// Document is a caller-supplied unit of raw text. ID must be stable across
// re-indexing so vector upserts stay idempotent.
type Document struct {
	ID   string         `json:"id" yaml:"id"`
	Text string         `json:"text" yaml:"text"`
	Meta map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// NormalizedDocument is a trimmed document carrying its content fingerprint,
// also mirrored into Meta["fp"].
type NormalizedDocument struct {
	Document
	Fingerprint string `json:"fingerprint"`
}

type NormalizeStats struct {
	Input    int `json:"input"`
	Kept     int `json:"kept"`
	TooShort int `json:"too_short"`
	Dedup    int `json:"dedup"`
}

type ChunkStrategy string

const (
	ChunkBySentence  ChunkStrategy = "sentence"
	ChunkByParagraph ChunkStrategy = "paragraph"
)

type ChunkOptions struct {
	Strategy ChunkStrategy `json:"strategy"`
	MaxChars int           `json:"max_chars"`
	Overlap  int           `json:"overlap"`
}

// Chunk is a bounded retrieval unit. ChunkID is dense and 0-based per document.
type Chunk struct {
	DocID   string         `json:"doc_id"`
	ChunkID int            `json:"chunk_id"`
	Text    string         `json:"text"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// ExternalID is the identifier shared by the vector payload and the lexical entry.
func (c Chunk) ExternalID() string {
	return fmt.Sprintf("%s#%d", c.DocID, c.ChunkID)
}

// StoredChunk is the persisted source-of-truth row for a collection chunk.
type StoredChunk struct {
	Collection  string
	Chunk       Chunk
	Fingerprint string
}

type IngestReport struct {
	Collection string         `json:"collection"`
	Stats      NormalizeStats `json:"stats"`
	Documents  int            `json:"documents"`
	Chunks     int            `json:"chunks"`
	Dim        int            `json:"dim,omitempty"`
	Provider   string         `json:"provider,omitempty"`
}

// IngestJob is the asynchronous form of an ingest request carried over the queue.
type IngestJob struct {
	ID         string        `json:"id"`
	Collection string        `json:"collection"`
	Documents  []Document    `json:"documents"`
	Strategy   ChunkStrategy `json:"strategy,omitempty"`
	MaxChars   int           `json:"max_chars,omitempty"`
	Overlap    *int          `json:"overlap,omitempty"`
	MinChars   *int          `json:"min_chars,omitempty"`
	EnqueuedAt time.Time     `json:"enqueued_at"`
}
