// Package sqlite is the single-file database store driver. All datasets
// live in one SQLite database whose schema is managed by goose migrations,
// so multi-dataset updates use the database's own transactions.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/learnkeeper/internal/dbx"
	"github.com/dmitrijs2005/learnkeeper/internal/logging"
	"github.com/dmitrijs2005/learnkeeper/internal/store"
	"github.com/dmitrijs2005/learnkeeper/internal/store/sqlite/migrations"
)

// DefaultFileName is the database file created inside the data directory.
const DefaultFileName = "learnkeeper.db"

// Store implements store.Store on a *sql.DB.
type Store struct {
	db  *sql.DB
	log logging.Logger
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and migrates it to
// the latest schema. path may be ":memory:".
func Open(ctx context.Context, path string, log logging.Logger) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// one connection: an in-memory database exists per connection and
	// SQLite allows a single writer anyway
	db.SetMaxOpenConns(1)

	log = log.With("component", "sqlite")
	if err := RunMigrations(ctx, db, log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	if path != ":memory:" {
		if err := os.Chmod(path, 0o600); err != nil {
			log.Warn(ctx, "could not restrict database permissions", "path", path, "error", err)
		}
	}

	return &Store{db: db, log: log}, nil
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB, log logging.Logger) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(gooseLogger{ctx: ctx, log: log})

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

func (s *Store) View(ctx context.Context, fn func(tx store.Tx) error) error {
	return dbx.WithReadTx(ctx, s.db, func(ctx context.Context, db dbx.DBTX) error {
		return fn(&tx{db: db})
	})
}

func (s *Store) Update(ctx context.Context, fn func(tx store.Tx) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, db dbx.DBTX) error {
		return fn(&tx{db: db, writable: true})
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}

type tx struct {
	db       dbx.DBTX
	writable bool
}

func (t *tx) Credentials() store.Credentials { return &credentialsRepo{t} }
func (t *tx) Records() store.Records         { return &recordsRepo{t} }
func (t *tx) Ledger() store.Ledger           { return &ledgerRepo{t} }

func (t *tx) checkWritable() error {
	if !t.writable {
		return store.ErrReadOnly
	}
	return nil
}

// gooseLogger routes goose progress output into the structured log.
type gooseLogger struct {
	ctx context.Context
	log logging.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Debug(l.ctx, fmt.Sprintf(format, v...))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Error(l.ctx, fmt.Sprintf(format, v...))
	os.Exit(1)
}
