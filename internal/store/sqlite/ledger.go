package sqlite

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/dmitrijs2005/learnkeeper/internal/models"
	"github.com/dmitrijs2005/learnkeeper/internal/timex"
)

type ledgerRepo struct{ t *tx }

func (r *ledgerRepo) Append(ctx context.Context, e models.PerformanceEntry) error {
	if err := r.t.checkWritable(); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	query := `INSERT INTO performance (id, username, course, correct, recorded_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.t.db.ExecContext(ctx, query, e.ID, e.Username, e.Course, e.Correct, e.RecordedAt.String()); err != nil {
		return fmt.Errorf("failed to insert performance entry: %w", err)
	}
	return nil
}

func (r *ledgerRepo) List(ctx context.Context) ([]models.PerformanceEntry, error) {
	rows, err := r.t.db.QueryContext(ctx, `SELECT id, username, course, correct, recorded_at FROM performance ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to select performance entries: %w", err)
	}
	defer rows.Close()

	var result []models.PerformanceEntry
	for rows.Next() {
		var (
			e  models.PerformanceEntry
			at string
		)
		if err := rows.Scan(&e.ID, &e.Username, &e.Course, &e.Correct, &at); err != nil {
			return nil, err
		}
		if e.RecordedAt, err = timex.ParseTimestamp(at); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
