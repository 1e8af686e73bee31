package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals that no application exists for the submission id.
var ErrNotFound = errors.New("application: not found")

// PGRepository reads application statuses from PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Find fetches the status row keyed by id.
func (r *PGRepository) Find(ctx context.Context, id string) (Record, error) {
	const query = `
		SELECT submission_id, status, last_updated
		FROM application_statuses
		WHERE submission_id = $1
	`

	var rec Record
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rec.SubmissionID,
		&rec.Status,
		&rec.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("application: query by id: %w", err)
	}

	rec.LastUpdated = rec.LastUpdated.UTC()
	return rec, nil
}

// Upsert writes rec, replacing any existing row for the same submission id.
func (r *PGRepository) Upsert(ctx context.Context, rec Record) error {
	const query = `
		INSERT INTO application_statuses (submission_id, status, last_updated)
		VALUES ($1, $2, $3)
		ON CONFLICT (submission_id)
		DO UPDATE SET status = EXCLUDED.status, last_updated = EXCLUDED.last_updated
	`

	if _, err := r.pool.Exec(ctx, query, rec.SubmissionID, rec.Status, rec.LastUpdated); err != nil {
		return fmt.Errorf("application: upsert %s: %w", rec.SubmissionID, err)
	}
	return nil
}

// List returns up to limit records ordered by submission id.
func (r *PGRepository) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	const query = `
		SELECT submission_id, status, last_updated
		FROM application_statuses
		ORDER BY submission_id ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("application: list: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.SubmissionID, &rec.Status, &rec.LastUpdated); err != nil {
			return nil, fmt.Errorf("application: scan record: %w", err)
		}
		rec.LastUpdated = rec.LastUpdated.UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("application: iterate records: %w", err)
	}

	return records, nil
}
