package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
)

type EvaluationRepository struct {
	db *sql.DB
}

func NewEvaluationRepository(db *sql.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

func (r *EvaluationRepository) SaveReport(ctx context.Context, report *domain.EvaluationReport) error {
	summaryJSON, err := json.Marshal(report.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	results := report.Results
	if results == nil {
		results = []domain.EvaluationResult{}
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO evaluation_runs (id, collection, top_k, summary, results, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, report.ID, report.Collection, report.TopK, summaryJSON, resultsJSON, report.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert evaluation run: %w", err)
	}
	return nil
}

func (r *EvaluationRepository) GetReport(ctx context.Context, id string) (*domain.EvaluationReport, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, collection, top_k, summary, results, created_at
FROM evaluation_runs
WHERE id = $1
`, id)

	var report domain.EvaluationReport
	var summaryRaw, resultsRaw []byte
	err := row.Scan(&report.ID, &report.Collection, &report.TopK, &summaryRaw, &resultsRaw, &report.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get evaluation run", fmt.Errorf("evaluation %s", id))
		}
		return nil, fmt.Errorf("scan evaluation run: %w", err)
	}

	if err := json.Unmarshal(summaryRaw, &report.Summary); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	if err := json.Unmarshal(resultsRaw, &report.Results); err != nil {
		return nil, fmt.Errorf("unmarshal results: %w", err)
	}
	return &report, nil
}
