package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/term"

	"github.com/dmitrijs2005/learnkeeper/internal/config"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.DataDir = filepath.Join(t.TempDir(), "data")
	c.Backend = backend
	c.LogLevel = "error"
	return c
}

func TestNewApp_CreatesDataFiles(t *testing.T) {
	for _, backend := range []string{config.BackendJSON, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			c := testConfig(t, backend)

			app, err := NewApp(context.Background(), c, Options{In: strings.NewReader(""), Out: &bytes.Buffer{}, LogOut: &bytes.Buffer{}})
			require.NoError(t, err)
			require.NoError(t, app.Run(context.Background()))

			assert.FileExists(t, c.Path(c.KeyFile))
			if backend == config.BackendSQLite {
				assert.FileExists(t, c.Path(c.DatabaseFile))
			}
		})
	}
}

func TestNewApp_RejectsBadKeyFile(t *testing.T) {
	c := testConfig(t, config.BackendJSON)
	require.NoError(t, os.MkdirAll(c.DataDir, 0o700))
	require.NoError(t, os.WriteFile(c.Path(c.KeyFile), []byte("too-short"), 0o600))

	_, err := NewApp(context.Background(), c, Options{In: strings.NewReader(""), Out: &bytes.Buffer{}, LogOut: &bytes.Buffer{}})
	require.Error(t, err)
}

func TestApp_RunScriptedSession(t *testing.T) {
	if testing.Short() {
		t.Skip("uses full-cost password hashing")
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		t.Skip("password prompts read from the terminal")
	}
	c := testConfig(t, config.BackendJSON)
	in := strings.Join([]string{
		"register", "ana", "pw", "Ana", "20", "student",
		"login", "ana", "pw",
		"result", "1", "2",
		"exit",
	}, "\n") + "\n"

	var out bytes.Buffer
	app, err := NewApp(context.Background(), c, Options{In: strings.NewReader(in), Out: &out, LogOut: &bytes.Buffer{}})
	require.NoError(t, err)
	require.NoError(t, app.Run(context.Background()))

	assert.Contains(t, out.String(), "Welcome, Ana (student).")
	assert.Contains(t, out.String(), "Recorded 2/3 for Computational Logic.")

	ledger, err := os.ReadFile(c.Path(c.LedgerFile))
	require.NoError(t, err)
	assert.Contains(t, string(ledger), `"usuario":"ana"`)
}
