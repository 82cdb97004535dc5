package jsonfile

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/learnkeeper/internal/filex"
	"github.com/dmitrijs2005/learnkeeper/internal/models"
	"github.com/dmitrijs2005/learnkeeper/internal/store"
)

type tx struct {
	s        *Store
	writable bool

	creds   *credentialsState
	records *recordsState
	ledger  *ledgerState
}

type credentialsState struct {
	hashes map[string]string
	dirty  bool
}

type recordsState struct {
	list  []models.UserRecord
	dirty bool
}

type ledgerState struct {
	// entries is nil until the file has been read.
	entries []models.PerformanceEntry
	loaded  bool
	// legacy is set when the file holds a JSON array.
	legacy  bool
	pending []models.PerformanceEntry
}

func newTx(s *Store, writable bool) *tx {
	return &tx{s: s, writable: writable}
}

func (t *tx) Credentials() store.Credentials { return credentialsRepo{t} }
func (t *tx) Records() store.Records         { return recordsRepo{t} }
func (t *tx) Ledger() store.Ledger           { return ledgerRepo{t} }

func (t *tx) checkWritable() error {
	if !t.writable {
		return store.ErrReadOnly
	}
	return nil
}

// readOrInit returns the file content, creating the file with empty when it
// does not exist yet.
func (t *tx) readOrInit(ctx context.Context, path string, empty []byte) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	t.s.log.Info(ctx, "initializing data file", "file", path)
	if err := filex.WriteFileAtomic(path, empty); err != nil {
		return nil, err
	}
	return empty, nil
}

func (t *tx) loadCredentials(ctx context.Context) (*credentialsState, error) {
	if t.creds != nil {
		return t.creds, nil
	}

	data, err := t.readOrInit(ctx, t.s.paths.Credentials, []byte("{}"))
	if err != nil {
		return nil, err
	}

	hashes := map[string]string{}
	if err := json.Unmarshal(data, &hashes); err != nil {
		return nil, fmt.Errorf("decode %s: %w", t.s.paths.Credentials, err)
	}
	if hashes == nil {
		hashes = map[string]string{}
	}

	t.creds = &credentialsState{hashes: hashes}
	return t.creds, nil
}

func (t *tx) loadRecords(ctx context.Context) (*recordsState, error) {
	if t.records != nil {
		return t.records, nil
	}

	data, err := t.readOrInit(ctx, t.s.paths.Records, []byte("[]"))
	if err != nil {
		return nil, err
	}

	var list []models.UserRecord
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode %s: %w", t.s.paths.Records, err)
	}

	st := &recordsState{list: list}
	// records from older files carry no id; a write transaction persists
	// the ids it hands out
	for i := range st.list {
		if st.list[i].ID == "" {
			st.list[i].ID = uuid.NewString()
			st.dirty = t.writable
		}
	}

	t.records = st
	return st, nil
}

func (t *tx) ledgerState() *ledgerState {
	if t.ledger == nil {
		t.ledger = &ledgerState{}
	}
	return t.ledger
}

func (t *tx) loadLedger(ctx context.Context) (*ledgerState, error) {
	st := t.ledgerState()
	if st.loaded {
		return st, nil
	}

	data, err := os.ReadFile(t.s.paths.Ledger)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", t.s.paths.Ledger, err)
	}

	entries, legacy, err := decodeLedger(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", t.s.paths.Ledger, err)
	}
	if len(entries.skipped) > 0 {
		t.s.log.Warn(ctx, "ignoring truncated ledger line", "file", t.s.paths.Ledger, "line", entries.skipped[0])
	}

	st.entries = entries.list
	st.legacy = legacy
	st.loaded = true
	return st, nil
}

type decodedLedger struct {
	list []models.PerformanceEntry
	// skipped holds line numbers of an incomplete trailing line.
	skipped []int
}

// decodeLedger accepts JSON Lines and the older single JSON array.
func decodeLedger(data []byte) (decodedLedger, bool, error) {
	var out decodedLedger

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return out, false, nil
	}

	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &out.list); err != nil {
			return out, true, err
		}
		return out, true, nil
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var e models.PerformanceEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			// an append cut short by a crash leaves a final line without
			// its newline; anything else is corruption
			if !bytes.HasSuffix(data, []byte("\n")) && isLastLine(data, line) {
				out.skipped = append(out.skipped, line)
				continue
			}
			return out, false, fmt.Errorf("line %d: %w", line, err)
		}
		out.list = append(out.list, e)
	}
	if err := sc.Err(); err != nil {
		return out, false, err
	}
	return out, false, nil
}

func isLastLine(data []byte, line int) bool {
	return bytes.Count(data, []byte("\n"))+1 == line
}

func encodeLines(entries []models.PerformanceEntry) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// ledgerNeedsRewrite reports whether pending entries cannot simply be
// appended: the file is still a JSON array, or it ends in a torn line.
func (t *tx) ledgerNeedsRewrite() (bool, error) {
	st := t.ledgerState()
	if st.loaded && st.legacy {
		return true, nil
	}

	f, err := os.Open(t.s.paths.Ledger)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return false, err
	}
	if fi.Size() == 0 {
		return false, nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, fi.Size()-1); err != nil {
		return false, err
	}
	if last[0] != '\n' {
		return true, nil
	}

	r := bufio.NewReader(f)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return false, nil
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			return b == '[', nil
		}
	}
}

func (t *tx) commit(ctx context.Context) error {
	var renames []rename
	discard := func() {
		for _, r := range renames {
			os.Remove(r.From)
		}
	}

	stage := func(path string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		staged, err := filex.WriteStaged(path, data)
		if err != nil {
			return err
		}
		renames = append(renames, rename{From: staged, To: path})
		return nil
	}

	if t.records != nil && t.records.dirty {
		list := t.records.list
		if list == nil {
			list = []models.UserRecord{}
		}
		if err := stage(t.s.paths.Records, list); err != nil {
			discard()
			return err
		}
	}

	if t.creds != nil && t.creds.dirty {
		if err := stage(t.s.paths.Credentials, t.creds.hashes); err != nil {
			discard()
			return err
		}
	}

	var appendOnly []byte
	if t.ledger != nil && len(t.ledger.pending) > 0 {
		rewrite, err := t.ledgerNeedsRewrite()
		if err != nil {
			discard()
			return err
		}

		if rewrite || len(renames) > 0 {
			st, err := t.loadLedger(ctx)
			if err != nil {
				discard()
				return err
			}
			data, err := encodeLines(append(st.entries, st.pending...))
			if err != nil {
				discard()
				return err
			}
			staged, err := filex.WriteStaged(t.s.paths.Ledger, data)
			if err != nil {
				discard()
				return err
			}
			renames = append(renames, rename{From: staged, To: t.s.paths.Ledger})
			if st.legacy {
				t.s.log.Info(ctx, "converting ledger to JSON Lines", "file", t.s.paths.Ledger)
			}
		} else {
			data, err := encodeLines(t.ledger.pending)
			if err != nil {
				return err
			}
			appendOnly = data
		}
	}

	if err := ctx.Err(); err != nil {
		discard()
		return err
	}

	if len(renames) > 0 {
		if err := t.s.install(ctx, renames); err != nil {
			return err
		}
	}
	if appendOnly != nil {
		if err := filex.AppendSync(t.s.paths.Ledger, appendOnly); err != nil {
			return err
		}
	}
	return nil
}
