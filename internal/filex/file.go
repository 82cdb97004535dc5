// Package filex contains the file primitives the jsonfile store is built on:
// staged writes, atomic replacement and synced appends.
package filex

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
)

const stagedSuffix = ".tmp"

// EnsureDir creates dir and its parents with owner-only permissions.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// Exists reports whether path exists.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// WriteStaged writes data to a fresh sibling of path named
// "<path>.<uuid>.tmp", syncs it and returns its name. The target itself is
// not touched.
func WriteStaged(path string, data []byte) (string, error) {
	staged := fmt.Sprintf("%s.%s%s", path, uuid.New(), stagedSuffix)

	f, err := os.OpenFile(staged, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", staged, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(staged)
		return "", fmt.Errorf("write %s: %w", staged, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(staged)
		return "", fmt.Errorf("sync %s: %w", staged, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(staged)
		return "", fmt.Errorf("close %s: %w", staged, err)
	}
	return staged, nil
}

// StagedFiles lists leftovers of WriteStaged for path.
func StagedFiles(path string) ([]string, error) {
	return filepath.Glob(path + ".*" + stagedSuffix)
}

// WriteFileAtomic replaces path with data so that readers observe either
// the old or the new content, never a partial write. New files are created
// owner-only; an existing file keeps its mode.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := renameio.WriteFile(path, data, 0o600, renameio.WithTempDir(dir)); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	SyncDir(dir)
	return nil
}

// AppendSync appends data to path, creating it if needed, and syncs it.
func AppendSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("append %s: %w", path, err)
	}
	return f.Sync()
}

// SyncDir flushes directory metadata so renames survive a crash. Platforms
// that cannot sync directories are ignored.
func SyncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
