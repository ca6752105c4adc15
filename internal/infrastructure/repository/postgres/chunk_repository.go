package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
)

// ChunkRepository is the source of truth the lexical index is rebuilt from.
type ChunkRepository struct {
	db *sql.DB
}

func NewChunkRepository(db *sql.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func (r *ChunkRepository) SaveChunks(ctx context.Context, chunks []domain.StoredChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save chunks tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, sc := range chunks {
		meta := sc.Chunk.Meta
		if meta == nil {
			meta = map[string]any{}
		}
		metaJSON, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshal chunk meta: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO retrieval_chunks (collection, id, doc_id, chunk_id, text, fingerprint, meta)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (collection, id) DO UPDATE
SET doc_id = EXCLUDED.doc_id,
	chunk_id = EXCLUDED.chunk_id,
	text = EXCLUDED.text,
	fingerprint = EXCLUDED.fingerprint,
	meta = EXCLUDED.meta
`,
			sc.Collection, sc.Chunk.ExternalID(), sc.Chunk.DocID, sc.Chunk.ChunkID, sc.Chunk.Text, sc.Fingerprint, metaJSON,
		)
		if err != nil {
			return fmt.Errorf("upsert chunk %s: %w", sc.Chunk.ExternalID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save chunks tx: %w", err)
	}
	return nil
}

// ListChunks returns the collection's chunks in insertion order.
func (r *ChunkRepository) ListChunks(ctx context.Context, collection string) ([]domain.LexicalDoc, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, text
FROM retrieval_chunks
WHERE collection = $1
ORDER BY seq ASC
`, collection)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	out := make([]domain.LexicalDoc, 0)
	for rows.Next() {
		var doc domain.LexicalDoc
		if err := rows.Scan(&doc.ID, &doc.Text); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return out, nil
}

func (r *ChunkRepository) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT DISTINCT collection
FROM retrieval_chunks
ORDER BY collection
`)
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}
	return out, nil
}

func (r *ChunkRepository) DeleteCollection(ctx context.Context, collection string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM retrieval_chunks WHERE collection = $1`, collection); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}
