package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/learnkeeper/internal/models"
	"github.com/dmitrijs2005/learnkeeper/internal/store"
)

type credentialsRepo struct{ t *tx }

func (r credentialsRepo) Get(ctx context.Context, username string) (string, error) {
	st, err := r.t.loadCredentials(ctx)
	if err != nil {
		return "", err
	}
	h, ok := st.hashes[username]
	if !ok {
		return "", store.ErrNotFound
	}
	return h, nil
}

func (r credentialsRepo) Put(ctx context.Context, username, hash string) error {
	if err := r.t.checkWritable(); err != nil {
		return err
	}
	st, err := r.t.loadCredentials(ctx)
	if err != nil {
		return err
	}
	st.hashes[username] = hash
	st.dirty = true
	return nil
}

func (r credentialsRepo) Delete(ctx context.Context, username string) error {
	if err := r.t.checkWritable(); err != nil {
		return err
	}
	st, err := r.t.loadCredentials(ctx)
	if err != nil {
		return err
	}
	if _, ok := st.hashes[username]; !ok {
		return store.ErrNotFound
	}
	delete(st.hashes, username)
	st.dirty = true
	return nil
}

func (r credentialsRepo) Usernames(ctx context.Context) ([]string, error) {
	st, err := r.t.loadCredentials(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(st.hashes))
	for u := range st.hashes {
		names = append(names, u)
	}
	slices.Sort(names)
	return names, nil
}

type recordsRepo struct{ t *tx }

func (r recordsRepo) List(ctx context.Context) ([]models.UserRecord, error) {
	st, err := r.t.loadRecords(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(st.list), nil
}

func (r recordsRepo) FindByLookup(ctx context.Context, token string) (models.UserRecord, error) {
	if token == "" {
		return models.UserRecord{}, store.ErrNotFound
	}
	st, err := r.t.loadRecords(ctx)
	if err != nil {
		return models.UserRecord{}, err
	}
	for _, rec := range st.list {
		if rec.Lookup == token {
			return rec, nil
		}
	}
	return models.UserRecord{}, store.ErrNotFound
}

func (r recordsRepo) Insert(ctx context.Context, rec models.UserRecord) error {
	if err := r.t.checkWritable(); err != nil {
		return err
	}
	if rec.ID == "" {
		return errors.New("insert record: id is required")
	}
	st, err := r.t.loadRecords(ctx)
	if err != nil {
		return err
	}
	if r.index(st, rec.ID) >= 0 {
		return fmt.Errorf("insert record: duplicate id %s", rec.ID)
	}
	if rec.Lookup != "" {
		for _, other := range st.list {
			if other.Lookup == rec.Lookup {
				return errors.New("insert record: duplicate lookup token")
			}
		}
	}
	st.list = append(st.list, rec)
	st.dirty = true
	return nil
}

func (r recordsRepo) Update(ctx context.Context, rec models.UserRecord) error {
	if err := r.t.checkWritable(); err != nil {
		return err
	}
	st, err := r.t.loadRecords(ctx)
	if err != nil {
		return err
	}
	i := r.index(st, rec.ID)
	if i < 0 {
		return store.ErrNotFound
	}
	st.list[i] = rec
	st.dirty = true
	return nil
}

func (r recordsRepo) Delete(ctx context.Context, id string) error {
	if err := r.t.checkWritable(); err != nil {
		return err
	}
	st, err := r.t.loadRecords(ctx)
	if err != nil {
		return err
	}
	i := r.index(st, id)
	if i < 0 {
		return store.ErrNotFound
	}
	st.list = slices.Delete(st.list, i, i+1)
	st.dirty = true
	return nil
}

func (recordsRepo) index(st *recordsState, id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(st.list, func(rec models.UserRecord) bool { return rec.ID == id })
}

type ledgerRepo struct{ t *tx }

func (r ledgerRepo) Append(ctx context.Context, e models.PerformanceEntry) error {
	if err := r.t.checkWritable(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	st := r.t.ledgerState()
	st.pending = append(st.pending, e)
	return nil
}

func (r ledgerRepo) List(ctx context.Context) ([]models.PerformanceEntry, error) {
	st, err := r.t.loadLedger(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.PerformanceEntry, 0, len(st.entries)+len(st.pending))
	out = append(out, st.entries...)
	return append(out, st.pending...), nil
}
