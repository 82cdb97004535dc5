// Package app wires configuration, logging, storage and the services into
// the interactive CLI.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/learnkeeper/internal/cli"
	"github.com/dmitrijs2005/learnkeeper/internal/config"
	"github.com/dmitrijs2005/learnkeeper/internal/cryptox"
	"github.com/dmitrijs2005/learnkeeper/internal/filex"
	"github.com/dmitrijs2005/learnkeeper/internal/logging"
	"github.com/dmitrijs2005/learnkeeper/internal/services"
	"github.com/dmitrijs2005/learnkeeper/internal/store"
	"github.com/dmitrijs2005/learnkeeper/internal/store/jsonfile"
	"github.com/dmitrijs2005/learnkeeper/internal/store/sqlite"
)

type App struct {
	config *config.Config
	logger logging.Logger
	store  store.Store
	cli    *cli.App
}

// Options carries the process I/O. Zero values mean the standard streams.
type Options struct {
	In     io.Reader
	Out    io.Writer
	LogOut io.Writer
}

func NewApp(ctx context.Context, c *config.Config, opts Options) (*App, error) {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	logger, err := logging.New(logging.Options{Level: c.LogLevel, Format: c.LogFormat, Writer: opts.LogOut})
	if err != nil {
		return nil, err
	}

	if err := filex.EnsureDir(c.DataDir); err != nil {
		return nil, err
	}

	st, err := openStore(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	keys := cryptox.NewFileKeyProvider(c.Path(c.KeyFile))
	// generate the key up front so a broken key file fails at startup
	if _, err := keys.Load(); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("key init error: %w", err)
	}

	creds := services.NewCredentialStore(st, logger)
	records := services.NewRecordStore(st, cryptox.NewFieldCipher(keys), cryptox.NewIndexer(keys), creds, logger)
	ledger := services.NewPerformanceLedger(st, logger)

	ui := cli.NewApp(cli.Deps{
		Sessions: services.NewSessions(creds, records, c.LoginBurst, c.LoginInterval, logger),
		Records:  records,
		Users:    creds,
		Ledger:   ledger,
		Stats:    services.NewStatsEngine(records, ledger),
		Log:      logger,
	}, opts.In, opts.Out)

	return &App{config: c, logger: logger, store: st, cli: ui}, nil
}

func openStore(ctx context.Context, c *config.Config, logger logging.Logger) (store.Store, error) {
	switch c.Backend {
	case config.BackendSQLite:
		return sqlite.Open(ctx, c.Path(c.DatabaseFile), logger)
	default:
		return jsonfile.Open(ctx, jsonfile.Paths{
			Records:     c.Path(c.RecordsFile),
			Credentials: c.Path(c.CredentialsFile),
			Ledger:      c.Path(c.LedgerFile),
		}, logger)
	}
}

// Run serves the REPL until the user exits, input ends or the process is
// interrupted, then closes the store.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.logger.Info(ctx, "starting", "backend", app.config.Backend, "data_dir", app.config.DataDir)
	app.cli.Run(ctx)

	if err := app.store.Close(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}
	return nil
}
