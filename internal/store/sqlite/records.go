package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/learnkeeper/internal/models"
	"github.com/dmitrijs2005/learnkeeper/internal/store"
)

const recordColumns = `id, lookup, name, full_name, age, access_count, session_hours, password, role`

type recordsRepo struct{ t *tx }

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (models.UserRecord, error) {
	var (
		rec    models.UserRecord
		lookup sql.NullString
		age    sql.NullInt64
		role   string
	)
	if err := s.Scan(&rec.ID, &lookup, &rec.Name, &rec.FullName, &age,
		&rec.AccessCount, &rec.SessionHours, &rec.Password, &role); err != nil {
		return rec, err
	}
	rec.Lookup = lookup.String
	if age.Valid {
		rec.Age = models.IntPtr(int(age.Int64))
	}
	rec.Role = models.Role(role)
	return rec, nil
}

// recordArgs lists rec's columns after id, in recordColumns order.
func recordArgs(rec models.UserRecord) []any {
	lookup := sql.NullString{String: rec.Lookup, Valid: rec.Lookup != ""}
	var age sql.NullInt64
	if rec.Age != nil {
		age = sql.NullInt64{Int64: int64(*rec.Age), Valid: true}
	}
	return []any{lookup, rec.Name, rec.FullName, age, rec.AccessCount, rec.SessionHours, rec.Password, string(rec.EffectiveRole())}
}

func (r *recordsRepo) List(ctx context.Context) ([]models.UserRecord, error) {
	rows, err := r.t.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM records ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	var result []models.UserRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *recordsRepo) FindByLookup(ctx context.Context, token string) (models.UserRecord, error) {
	if token == "" {
		return models.UserRecord{}, store.ErrNotFound
	}
	row := r.t.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE lookup = ?`, token)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserRecord{}, store.ErrNotFound
	}
	if err != nil {
		return models.UserRecord{}, fmt.Errorf("query row scan failed: %w", err)
	}
	return rec, nil
}

func (r *recordsRepo) Insert(ctx context.Context, rec models.UserRecord) error {
	if err := r.t.checkWritable(); err != nil {
		return err
	}
	if rec.ID == "" {
		return errors.New("insert record: id is required")
	}
	query := `INSERT INTO records (` + recordColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	args := append([]any{rec.ID}, recordArgs(rec)...)
	if _, err := r.t.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

func (r *recordsRepo) Update(ctx context.Context, rec models.UserRecord) error {
	if err := r.t.checkWritable(); err != nil {
		return err
	}
	query := `UPDATE records SET lookup = ?, name = ?, full_name = ?, age = ?, access_count = ?,
		session_hours = ?, password = ?, role = ? WHERE id = ?`
	args := append(recordArgs(rec), rec.ID)
	res, err := r.t.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return expectOne(res)
}

func (r *recordsRepo) Delete(ctx context.Context, id string) error {
	if err := r.t.checkWritable(); err != nil {
		return err
	}
	res, err := r.t.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return expectOne(res)
}
