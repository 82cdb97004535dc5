package filex

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesNested(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))

	st, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, st.IsDir())
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	ok, err := Exists(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Exists(dir)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWriteStaged_LeavesTargetAlone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dados.json")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	staged, err := WriteStaged(path, []byte("new"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(staged, path+"."))
	assert.True(t, strings.HasSuffix(staged, ".tmp"))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))

	leftovers, err := StagedFiles(path)
	require.NoError(t, err)
	assert.Equal(t, []string{staged}, leftovers)
}

func TestWriteFileAtomic_ReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usuarios.json")

	require.NoError(t, WriteFileAtomic(path, []byte("{}")))
	require.NoError(t, WriteFileAtomic(path, []byte(`{"ana":"x"}`)))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"ana":"x"}`, string(got))

	leftovers, err := StagedFiles(path)
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestWriteFileAtomic_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chave.key")

	require.NoError(t, WriteFileAtomic(path, []byte("k1")))
	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	require.NoError(t, WriteFileAtomic(path, []byte("k2")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "chave.key", entries[0].Name())
}

func TestWriteFileAtomic_KeepsExistingMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dados.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o600))
	require.NoError(t, os.Chmod(path, 0o640))

	require.NoError(t, WriteFileAtomic(path, []byte("[{}]")))

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), st.Mode().Perm())
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "nope", "x.json"), []byte("{}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "replace ")
}

func TestAppendSync(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")

	require.NoError(t, AppendSync(path, []byte("a\n")))
	require.NoError(t, AppendSync(path, []byte("b\n")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(got))
}
