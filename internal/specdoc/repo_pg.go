package specdoc

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Latest returns the highest stored version for a service.
func (r *PGRepo) Latest(ctx context.Context, serviceName, namespace string) (Document, error) {
	const query = `
SELECT id, service_name, namespace, source_url, version, content_hash, raw_content,
       parse_valid, parse_errors, fetched_at
FROM spec_documents
WHERE service_name = $1 AND namespace = $2
ORDER BY version DESC
LIMIT 1`

	var doc Document
	var parseErrors sql.NullString
	err := r.DB.QueryRowContext(ctx, query, serviceName, namespace).Scan(
		&doc.ID,
		&doc.ServiceName,
		&doc.Namespace,
		&doc.SourceURL,
		&doc.Version,
		&doc.ContentHash,
		&doc.RawContent,
		&doc.ParseValid,
		&parseErrors,
		&doc.FetchedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	if parseErrors.Valid {
		if err := json.Unmarshal([]byte(parseErrors.String), &doc.ParseErrors); err != nil {
			doc.ParseErrors = nil
		}
	}
	return doc, nil
}

// Insert stores a new document version.
func (r *PGRepo) Insert(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO spec_documents (
	id, service_name, namespace, source_url, version, content_hash, raw_content,
	parse_valid, parse_errors, fetched_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	var parseErrors any
	if len(doc.ParseErrors) > 0 {
		payload, err := json.Marshal(doc.ParseErrors)
		if err != nil {
			return err
		}
		parseErrors = payload
	}

	_, err := r.DB.ExecContext(ctx, query,
		doc.ID,
		doc.ServiceName,
		doc.Namespace,
		doc.SourceURL,
		doc.Version,
		doc.ContentHash,
		doc.RawContent,
		doc.ParseValid,
		parseErrors,
		doc.FetchedAt,
	)
	return err
}

// PruneOlderThan deletes superseded versions fetched before cutoff.
func (r *PGRepo) PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	const query = `
DELETE FROM spec_documents d
WHERE d.fetched_at < $1
  AND d.version < (
	SELECT MAX(version) FROM spec_documents
	WHERE service_name = d.service_name AND namespace = d.namespace
  )`

	res, err := r.DB.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

var _ Repo = (*PGRepo)(nil)
