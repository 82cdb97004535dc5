// Package jsonfile is the file-backed store driver.
//
// # Layout
//
// Each dataset lives in its own file inside the data directory:
//
//	dados.json        user records, a JSON array
//	usuarios.json     credentials, a JSON object username -> hash
//	desempenho.json   performance ledger, JSON Lines (a JSON array is read too)
//
// # Commits
//
// A transaction loads datasets lazily and keeps changes in memory. On
// commit every changed dataset is written whole to a staging file next to
// its target. A single staged file is renamed into place. Several staged
// files are first listed in a journal that is itself installed atomically;
// once the journal exists the commit is decided and the renames are applied.
// Open and every later transaction finish a journal left behind by a crash.
//
// Ledger appends that are the only change in a transaction are appended to
// the file in place instead of rewriting it.
//
// The driver serializes transactions within a process and does no
// cross-process locking.
package jsonfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/learnkeeper/internal/filex"
	"github.com/dmitrijs2005/learnkeeper/internal/logging"
	"github.com/dmitrijs2005/learnkeeper/internal/store"
)

// Default file names inside the data directory.
const (
	RecordsFileName     = "dados.json"
	CredentialsFileName = "usuarios.json"
	LedgerFileName      = "desempenho.json"
	journalFileName     = ".learnkeeper.journal"
)

// Paths locates the dataset files.
type Paths struct {
	Records     string
	Credentials string
	Ledger      string
}

// DefaultPaths returns the default file names inside dir.
func DefaultPaths(dir string) Paths {
	return Paths{
		Records:     filepath.Join(dir, RecordsFileName),
		Credentials: filepath.Join(dir, CredentialsFileName),
		Ledger:      filepath.Join(dir, LedgerFileName),
	}
}

func (p Paths) all() []string {
	return []string{p.Records, p.Credentials, p.Ledger}
}

// Store implements store.Store over JSON files.
type Store struct {
	paths   Paths
	journal string
	log     logging.Logger

	mu sync.Mutex
}

var _ store.Store = (*Store)(nil)

// Open prepares the directories, finishes an interrupted commit if one is
// pending and removes staging files of commits that never reached their
// journal.
func Open(ctx context.Context, paths Paths, log logging.Logger) (*Store, error) {
	for _, p := range paths.all() {
		if err := filex.EnsureDir(filepath.Dir(p)); err != nil {
			return nil, err
		}
	}

	s := &Store{
		paths:   paths,
		journal: filepath.Join(filepath.Dir(paths.Records), journalFileName),
		log:     log.With("component", "jsonfile"),
	}

	if err := s.recover(ctx); err != nil {
		return nil, err
	}
	if err := s.removeStrays(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Paths returns the dataset locations.
func (s *Store) Paths() Paths {
	return s.paths
}

func (s *Store) View(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.recover(ctx); err != nil {
		return err
	}
	return fn(newTx(s, false))
}

func (s *Store) Update(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.recover(ctx); err != nil {
		return err
	}

	t := newTx(s, true)
	if err := fn(t); err != nil {
		return err
	}
	return t.commit(ctx)
}

func (s *Store) Close() error { return nil }

func (s *Store) removeStrays(ctx context.Context) error {
	for _, p := range append(s.paths.all(), s.journal) {
		leftovers, err := filex.StagedFiles(p)
		if err != nil {
			return fmt.Errorf("list staged files: %w", err)
		}
		for _, f := range leftovers {
			s.log.Debug(ctx, "removing uncommitted staging file", "file", f)
			if err := os.Remove(f); err != nil {
				return fmt.Errorf("remove %s: %w", f, err)
			}
		}
	}
	return nil
}
