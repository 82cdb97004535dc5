// Package config loads runtime configuration for the learnkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-d string               data directory
//	-b string               storage backend: json or sqlite
//	-k string               key file
//	-db string              SQLite database file
//	-l string               log level: debug, info, warn, error
//	-log-format string      text or json
//	-login-burst int        failed logins allowed before throttling
//	-login-interval dur     time to earn back one login attempt
//
// # JSON schema
//
// Keys missing from the file keep their default. Durations are strings like
// "30s" or integer nanoseconds:
//
//	{
//	  "data_dir": "/var/lib/learnkeeper",
//	  "backend": "sqlite",
//	  "key_file": "chave.key",
//	  "records_file": "dados.json",
//	  "credentials_file": "usuarios.json",
//	  "ledger_file": "desempenho.json",
//	  "database_file": "learnkeeper.db",
//	  "log_level": "info",
//	  "log_format": "json",
//	  "login_burst": 5,
//	  "login_interval": "30s"
//	}
//
// Relative file names are resolved against the data directory.
package config
