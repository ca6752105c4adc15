package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const schemaLockID int64 = 2026101601

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS retrieval_chunks (
	seq BIGSERIAL PRIMARY KEY,
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	doc_id TEXT NOT NULL,
	chunk_id INTEGER NOT NULL,
	text TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	meta JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_retrieval_chunks_collection_seq ON retrieval_chunks(collection, seq);

CREATE TABLE IF NOT EXISTS evaluation_runs (
	id TEXT PRIMARY KEY,
	collection TEXT NOT NULL,
	top_k INTEGER NOT NULL,
	summary JSONB NOT NULL,
	results JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evaluation_runs_collection ON evaluation_runs(collection, created_at DESC);
`

// EnsureSchema creates the chunk and evaluation tables. Concurrent api and
// worker startups are serialized with an advisory lock.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}
	if _, err := tx.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
