package config

import "fmt"

// DefaultConfigFileName is the config file Load searches for, starting at
// the project directory and walking up to the filesystem root.
const DefaultConfigFileName = "postgres-language-server.jsonc"

const (
	DefaultPort            = 5432
	DefaultConnTimeoutSecs = 10
	DefaultIndentWidth     = 2
	DefaultOutput          = "auto"
)

// Defaults returns the configuration's baseline values as a nested map,
// suitable for confmap.Provider -- the lowest-precedence layer Load
// composes, below the config file, environment and flags.
func Defaults() map[string]any {
	return map[string]any{
		"vcs": map[string]any{
			"enabled":         false,
			"client_kind":     "git",
			"use_ignore_file": true,
		},
		"files": map[string]any{
			"ignore":  []string{},
			"include": []string{"**/*.sql", "**/*.pgsql"},
			"max_size": 1024 * 1024,
		},
		"migrations": map[string]any{
			"dir": "migrations",
		},
		"linter": map[string]any{
			"enabled": true,
			"rules": map[string]any{
				"recommended": true,
			},
		},
		"splinter": map[string]any{
			"enabled":        false,
			"disabled_rules": []string{},
		},
		"format": map[string]any{
			"enabled":      false,
			"indent_width": DefaultIndentWidth,
		},
		"typecheck":     map[string]any{"enabled": false},
		"plpgsql_check": map[string]any{"enabled": false},
		"db": map[string]any{
			"port":              DefaultPort,
			"conn_timeout_secs": DefaultConnTimeoutSecs,
			"disable_connection": false,
		},
		"verbose": false,
		"output":  DefaultOutput,
	}
}

// DSN renders the database connection string Load should hand to pgx:
// ConnectionString verbatim if set, otherwise a DSN assembled from the
// discrete host/port/user/password/database fields.
func (c DBConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s", c.Host, c.Port, c.Database)
	if c.Username != "" {
		dsn += fmt.Sprintf(" user=%s", c.Username)
	}
	if c.Password != "" {
		dsn += fmt.Sprintf(" password=%s", c.Password)
	}
	return dsn
}
