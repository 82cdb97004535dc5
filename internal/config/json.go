package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/learnkeeper/internal/flagx"
	"github.com/dmitrijs2005/learnkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so intervals can be written as "30s".
type JsonConfig struct {
	DataDir         string         `json:"data_dir"`
	Backend         string         `json:"backend"`
	KeyFile         string         `json:"key_file"`
	RecordsFile     string         `json:"records_file"`
	CredentialsFile string         `json:"credentials_file"`
	LedgerFile      string         `json:"ledger_file"`
	DatabaseFile    string         `json:"database_file"`
	LogLevel        string         `json:"log_level"`
	LogFormat       string         `json:"log_format"`
	LoginBurst      int            `json:"login_burst"`
	LoginInterval   timex.Duration `json:"login_interval"`
}

func toJson(c *Config) JsonConfig {
	return JsonConfig{
		DataDir:         c.DataDir,
		Backend:         c.Backend,
		KeyFile:         c.KeyFile,
		RecordsFile:     c.RecordsFile,
		CredentialsFile: c.CredentialsFile,
		LedgerFile:      c.LedgerFile,
		DatabaseFile:    c.DatabaseFile,
		LogLevel:        c.LogLevel,
		LogFormat:       c.LogFormat,
		LoginBurst:      c.LoginBurst,
		LoginInterval:   timex.Duration{Duration: c.LoginInterval},
	}
}

func (jc JsonConfig) apply(c *Config) {
	c.DataDir = jc.DataDir
	c.Backend = jc.Backend
	c.KeyFile = jc.KeyFile
	c.RecordsFile = jc.RecordsFile
	c.CredentialsFile = jc.CredentialsFile
	c.LedgerFile = jc.LedgerFile
	c.DatabaseFile = jc.DatabaseFile
	c.LogLevel = jc.LogLevel
	c.LogFormat = jc.LogFormat
	c.LoginBurst = jc.LoginBurst
	c.LoginInterval = jc.LoginInterval.Duration
}

// parseJson overlays cfg with the JSON file named by -c/-config in args.
// Keys absent from the file leave cfg untouched.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	jc := toJson(cfg)
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	jc.apply(cfg)
	return nil
}
