package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/learnkeeper/internal/logging"
)

// Storage backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds runtime settings for the learnkeeper CLI.
type Config struct {
	DataDir string
	Backend string

	KeyFile         string
	RecordsFile     string
	CredentialsFile string
	LedgerFile      string
	DatabaseFile    string

	LogLevel  string
	LogFormat string

	LoginBurst    int
	LoginInterval time.Duration
}

// LoadDefaults populates c with defaults that match the historical file
// layout in the working directory.
func (c *Config) LoadDefaults() {
	c.DataDir = "."
	c.Backend = BackendJSON
	c.KeyFile = "chave.key"
	c.RecordsFile = "dados.json"
	c.CredentialsFile = "usuarios.json"
	c.LedgerFile = "desempenho.json"
	c.DatabaseFile = "learnkeeper.db"
	c.LogLevel = "warn"
	c.LogFormat = "text"
	c.LoginBurst = 5
	c.LoginInterval = 30 * time.Second
}

// Load builds a Config from defaults, then the JSON file named by -c/-config
// in args (if any), then the flags in args. args excludes the program name.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
	if c.DataDir == "" {
		return fmt.Errorf("%w: data dir must not be empty", ErrInvalidConfig)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.LoginBurst < 1 {
		return fmt.Errorf("%w: login burst must be at least 1", ErrInvalidConfig)
	}
	if c.LoginInterval < 0 {
		return fmt.Errorf("%w: login interval must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Path resolves name against DataDir unless it is absolute.
func (c *Config) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}
