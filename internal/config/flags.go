package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/learnkeeper/internal/flagx"
)

// parseFlags overlays cfg with command-line flags. Arguments that belong to
// other flag sets (such as -c) are filtered out first.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("learnkeeper", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "storage backend: json or sqlite")
	fs.StringVar(&cfg.KeyFile, "k", cfg.KeyFile, "key file")
	fs.StringVar(&cfg.DatabaseFile, "db", cfg.DatabaseFile, "SQLite database file")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text or json")
	fs.IntVar(&cfg.LoginBurst, "login-burst", cfg.LoginBurst, "failed logins allowed before throttling")
	fs.DurationVar(&cfg.LoginInterval, "login-interval", cfg.LoginInterval, "time to earn back one login attempt")

	return flagx.ParseKnown(fs, args)
}
