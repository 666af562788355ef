package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo persists reports in Postgres. The full report body is stored as a
// JSONB payload next to a few queryable columns.
type PGRepo struct {
	DB *sql.DB
}

// Insert stores one published report.
func (r *PGRepo) Insert(ctx context.Context, report Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO reports (id, generated_at, specs_analyzed, total_fields, payload)
		VALUES ($1, $2, $3, $4, $5)`,
		report.ID, report.GeneratedAt, report.SpecsAnalyzed, report.TotalFields, payload,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// Latest returns the most recently published report.
func (r *PGRepo) Latest(ctx context.Context) (Report, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT payload FROM reports
		ORDER BY generated_at DESC
		LIMIT 1`)
	return scanReport(row)
}

// Get returns a report by id.
func (r *PGRepo) Get(ctx context.Context, id string) (Report, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT payload FROM reports
		WHERE id = $1`, id)
	return scanReport(row)
}

func scanReport(row *sql.Row) (Report, error) {
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Report{}, ErrNotFound
		}
		return Report{}, fmt.Errorf("scan report: %w", err)
	}
	var report Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return Report{}, fmt.Errorf("decode report payload: %w", err)
	}
	return report, nil
}

var _ Repo = (*PGRepo)(nil)
