package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/learnkeeper/internal/logging"
	"github.com/dmitrijs2005/learnkeeper/internal/models"
	"github.com/dmitrijs2005/learnkeeper/internal/store"
	"github.com/dmitrijs2005/learnkeeper/internal/timex"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:", logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_MigratesSchema(t *testing.T) {
	s := openMemory(t)

	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('credentials', 'records', 'performance')`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestOpen_FilePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	ctx := context.Background()

	s, err := Open(ctx, path, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		return tx.Credentials().Put(ctx, "ana", "h")
	}))
	require.NoError(t, s.Close())

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	s, err = Open(ctx, path, logging.Discard())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.View(ctx, func(tx store.Tx) error {
		h, err := tx.Credentials().Get(ctx, "ana")
		require.NoError(t, err)
		assert.Equal(t, "h", h)
		return nil
	}))
}

func TestCredentials(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		c := tx.Credentials()
		require.NoError(t, c.Put(ctx, "zoe", "1"))
		require.NoError(t, c.Put(ctx, "ana", "2"))
		require.NoError(t, c.Put(ctx, "ana", "3"))
		require.NoError(t, c.Delete(ctx, "zoe"))
		assert.ErrorIs(t, c.Delete(ctx, "zoe"), store.ErrNotFound)
		return nil
	}))

	require.NoError(t, s.View(ctx, func(tx store.Tx) error {
		names, err := tx.Credentials().Usernames(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"ana"}, names)

		h, err := tx.Credentials().Get(ctx, "ana")
		require.NoError(t, err)
		assert.Equal(t, "3", h)

		_, err = tx.Credentials().Get(ctx, "zoe")
		assert.ErrorIs(t, err, store.ErrNotFound)
		return nil
	}))
}

func TestRecords(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		r := tx.Records()
		require.Error(t, r.Insert(ctx, models.UserRecord{Name: "x"}))
		require.NoError(t, r.Insert(ctx, models.UserRecord{ID: "b", Lookup: "tb", Name: "nb", Password: "p", Age: models.IntPtr(30), Role: models.RoleAdmin}))
		require.NoError(t, r.Insert(ctx, models.UserRecord{ID: "a", Name: "na", Password: "p"}))
		require.NoError(t, r.Insert(ctx, models.UserRecord{ID: "c", Name: "nc", Password: "p"}))
		require.Error(t, r.Insert(ctx, models.UserRecord{ID: "d", Lookup: "tb", Name: "nd", Password: "p"}))

		require.NoError(t, r.Update(ctx, models.UserRecord{ID: "a", Lookup: "ta", Name: "na", Password: "p", AccessCount: 4, SessionHours: 1.5}))
		assert.ErrorIs(t, r.Update(ctx, models.UserRecord{ID: "zz"}), store.ErrNotFound)

		require.NoError(t, r.Delete(ctx, "c"))
		assert.ErrorIs(t, r.Delete(ctx, "c"), store.ErrNotFound)
		return nil
	}))

	require.NoError(t, s.View(ctx, func(tx store.Tx) error {
		recs, err := tx.Records().List(ctx)
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "b", recs[0].ID, "insertion order")
		assert.Equal(t, models.RoleAdmin, recs[0].Role)
		require.NotNil(t, recs[0].Age)
		assert.Equal(t, 30, *recs[0].Age)
		assert.Nil(t, recs[1].Age)
		assert.Equal(t, models.RoleStudent, recs[1].Role)

		rec, err := tx.Records().FindByLookup(ctx, "ta")
		require.NoError(t, err)
		assert.Equal(t, 4, rec.AccessCount)
		assert.InDelta(t, 1.5, rec.SessionHours, 1e-9)

		_, err = tx.Records().FindByLookup(ctx, "")
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = tx.Records().FindByLookup(ctx, "nope")
		assert.ErrorIs(t, err, store.ErrNotFound)
		return nil
	}))
}

func TestLedger(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	at := timex.NewTimestamp(time.Date(2025, 3, 1, 10, 0, 0, 0, time.Local))

	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Ledger().Append(ctx, models.PerformanceEntry{ID: "01A", Username: "ana", Course: "python", Correct: 2, RecordedAt: at}))
		require.NoError(t, tx.Ledger().Append(ctx, models.PerformanceEntry{Username: "bob", Course: "python", Correct: 3, RecordedAt: at}))
		assert.Error(t, tx.Ledger().Append(ctx, models.PerformanceEntry{ID: "bad", Username: "bob", Course: "python", Correct: 4, RecordedAt: at}))
		return nil
	}))

	require.NoError(t, s.View(ctx, func(tx store.Tx) error {
		entries, err := tx.Ledger().List(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "01A", entries[0].ID)
		assert.NotEmpty(t, entries[1].ID)
		assert.True(t, at.Equal(entries[0].RecordedAt.Time))
		return nil
	}))
}

func TestUpdate_RollsBackOnError(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Update(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Credentials().Put(ctx, "ana", "h"))
		require.NoError(t, tx.Records().Insert(ctx, models.UserRecord{ID: "a", Name: "n", Password: "p"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, s.View(ctx, func(tx store.Tx) error {
		names, err := tx.Credentials().Usernames(ctx)
		require.NoError(t, err)
		assert.Empty(t, names)
		recs, err := tx.Records().List(ctx)
		require.NoError(t, err)
		assert.Empty(t, recs)
		return nil
	}))
}

func TestView_RejectsMutations(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	require.NoError(t, s.View(ctx, func(tx store.Tx) error {
		assert.ErrorIs(t, tx.Credentials().Put(ctx, "a", "b"), store.ErrReadOnly)
		assert.ErrorIs(t, tx.Credentials().Delete(ctx, "a"), store.ErrReadOnly)
		assert.ErrorIs(t, tx.Records().Insert(ctx, models.UserRecord{ID: "x"}), store.ErrReadOnly)
		assert.ErrorIs(t, tx.Records().Update(ctx, models.UserRecord{ID: "x"}), store.ErrReadOnly)
		assert.ErrorIs(t, tx.Records().Delete(ctx, "x"), store.ErrReadOnly)
		assert.ErrorIs(t, tx.Ledger().Append(ctx, models.PerformanceEntry{}), store.ErrReadOnly)
		return nil
	}))
}
