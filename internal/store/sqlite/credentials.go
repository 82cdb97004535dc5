package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/learnkeeper/internal/store"
)

type credentialsRepo struct{ t *tx }

func (r *credentialsRepo) Get(ctx context.Context, username string) (string, error) {
	var hash string
	err := r.t.db.QueryRowContext(ctx, `SELECT password_hash FROM credentials WHERE username = ?`, username).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to select credential: %w", err)
	}
	return hash, nil
}

func (r *credentialsRepo) Put(ctx context.Context, username, hash string) error {
	if err := r.t.checkWritable(); err != nil {
		return err
	}
	query := `INSERT INTO credentials (username, password_hash) VALUES (?, ?)
		ON CONFLICT(username) DO UPDATE SET password_hash = excluded.password_hash`
	if _, err := r.t.db.ExecContext(ctx, query, username, hash); err != nil {
		return fmt.Errorf("failed to upsert credential: %w", err)
	}
	return nil
}

func (r *credentialsRepo) Delete(ctx context.Context, username string) error {
	if err := r.t.checkWritable(); err != nil {
		return err
	}
	res, err := r.t.db.ExecContext(ctx, `DELETE FROM credentials WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return expectOne(res)
}

func (r *credentialsRepo) Usernames(ctx context.Context) ([]string, error) {
	rows, err := r.t.db.QueryContext(ctx, `SELECT username FROM credentials ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("failed to select usernames: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		names = append(names, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

// expectOne maps a statement that touched no row to store.ErrNotFound.
func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
