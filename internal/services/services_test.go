package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/learnkeeper/internal/cryptox"
	"github.com/dmitrijs2005/learnkeeper/internal/logging"
	"github.com/dmitrijs2005/learnkeeper/internal/store"
	"github.com/dmitrijs2005/learnkeeper/internal/store/jsonfile"
	"github.com/dmitrijs2005/learnkeeper/internal/store/sqlite"
)

// fastParams keeps argon2id cheap in tests.
var fastParams = cryptox.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32}

type testEnv struct {
	dir      string
	store    store.Store
	cipher   *cryptox.FieldCipher
	creds    *CredentialStore
	records  *RecordStore
	ledger   *PerformanceLedger
	stats    *StatsEngine
	sessions *Sessions
}

type driver struct {
	name string
	open func(t *testing.T, dir string) store.Store
}

var drivers = []driver{
	{"jsonfile", func(t *testing.T, dir string) store.Store {
		s, err := jsonfile.Open(context.Background(), jsonfile.DefaultPaths(dir), logging.Discard())
		require.NoError(t, err)
		return s
	}},
	{"sqlite", func(t *testing.T, dir string) store.Store {
		s, err := sqlite.Open(context.Background(), filepath.Join(dir, sqlite.DefaultFileName), logging.Discard())
		require.NoError(t, err)
		return s
	}},
}

func testKey() cryptox.StaticKey {
	k := make([]byte, cryptox.KeySize)
	for i := range k {
		k[i] = byte(i * 7)
	}
	return cryptox.StaticKey(k)
}

func newEnv(t *testing.T, d driver) *testEnv {
	t.Helper()
	dir := t.TempDir()
	st := d.open(t, dir)
	t.Cleanup(func() { _ = st.Close() })
	return wire(dir, st)
}

func wire(dir string, st store.Store) *testEnv {
	return wireWithKeys(dir, st, testKey())
}

func wireWithKeys(dir string, st store.Store, keys cryptox.KeyProvider) *testEnv {
	log := logging.Discard()
	c := cryptox.NewFieldCipher(keys)
	creds := NewCredentialStoreWithParams(st, log, fastParams)
	records := NewRecordStore(st, c, cryptox.NewIndexer(keys), creds, log)
	ledger := NewPerformanceLedger(st, log)
	return &testEnv{
		dir:      dir,
		store:    st,
		cipher:   c,
		creds:    creds,
		records:  records,
		ledger:   ledger,
		stats:    NewStatsEngine(records, ledger),
		sessions: NewSessions(creds, records, 5, 0, log),
	}
}

// forEachDriver runs fn once per store driver.
func forEachDriver(t *testing.T, fn func(t *testing.T, env *testEnv)) {
	for _, d := range drivers {
		t.Run(d.name, func(t *testing.T) {
			fn(t, newEnv(t, d))
		})
	}
}
