package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dmitrijs2005/learnkeeper/internal/filex"
)

type rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type journal struct {
	Renames []rename `json:"renames"`
}

// install moves staged files onto their targets as one atomic step.
func (s *Store) install(ctx context.Context, renames []rename) error {
	if len(renames) == 1 {
		r := renames[0]
		if err := os.Rename(r.From, r.To); err != nil {
			os.Remove(r.From)
			return fmt.Errorf("rename %s: %w", r.From, err)
		}
		filex.SyncDir(filepath.Dir(r.To))
		return nil
	}

	data, err := json.Marshal(journal{Renames: renames})
	if err != nil {
		return err
	}
	if err := filex.WriteFileAtomic(s.journal, data); err != nil {
		for _, r := range renames {
			os.Remove(r.From)
		}
		return fmt.Errorf("write journal: %w", err)
	}

	// the journal is in place: from here on the commit is decided and a
	// failure is finished by the next recover
	if err := rollForward(renames); err != nil {
		s.log.Error(ctx, "commit interrupted, will be completed on next access", "error", err)
		return err
	}
	return s.clearJournal()
}

// recover completes a commit whose journal survived.
func (s *Store) recover(ctx context.Context) error {
	data, err := os.ReadFile(s.journal)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}

	var j journal
	if err := json.Unmarshal(data, &j); err != nil {
		return fmt.Errorf("corrupt journal %s: %w", s.journal, err)
	}
	if err := s.validate(j); err != nil {
		return err
	}

	s.log.Warn(ctx, "completing interrupted commit", "files", len(j.Renames))
	if err := rollForward(j.Renames); err != nil {
		return err
	}
	return s.clearJournal()
}

// validate refuses journals that would move files outside the datasets.
func (s *Store) validate(j journal) error {
	targets := s.paths.all()
	for _, r := range j.Renames {
		if !slices.Contains(targets, r.To) || !strings.HasPrefix(r.From, r.To+".") {
			return fmt.Errorf("corrupt journal %s: unexpected rename %q -> %q", s.journal, r.From, r.To)
		}
	}
	return nil
}

func (s *Store) clearJournal() error {
	if err := os.Remove(s.journal); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove journal: %w", err)
	}
	filex.SyncDir(filepath.Dir(s.journal))
	return nil
}

// rollForward applies renames. Staged files that are already gone were
// applied by an earlier attempt.
func rollForward(renames []rename) error {
	for _, r := range renames {
		err := os.Rename(r.From, r.To)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("rename %s: %w", r.From, err)
		}
		filex.SyncDir(filepath.Dir(r.To))
	}
	return nil
}
