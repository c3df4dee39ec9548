package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// ConfigError reports a problem loading or parsing the config file at Path.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Load composes a Config from, in ascending order of precedence: built-in
// defaults, PG*/DATABASE_URL environment variables (as DB defaults), the
// project's postgres-language-server.jsonc file, PGLS_* environment
// variables, and finally flags. PG*/DATABASE_URL supply defaults rather
// than overrides, so that pass runs before the config file and flags
// layers rather than after them.
//
// configPath, if non-empty, is used verbatim; otherwise Load searches
// upward from projectDir for DefaultConfigFileName. flags may be nil, in
// which case the flag layer is skipped (used by the LSP entrypoint, which
// has no pflag.FlagSet of its own). It returns the resolved config, the
// path of the config file actually read (empty if none was found), and an
// error that is always a *ConfigError when non-nil.
func Load(configPath, projectDir string, flags *pflag.FlagSet) (*Config, string, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, "", &ConfigError{Path: "<defaults>", Err: err}
	}
	if err := k.Load(confmap.Provider(pgEnvDefaults(), "."), nil); err != nil {
		return nil, "", &ConfigError{Path: "<environment>", Err: err}
	}

	resolvedPath, err := resolveConfigPath(configPath, projectDir)
	if err != nil {
		return nil, "", &ConfigError{Path: configPath, Err: err}
	}
	if resolvedPath != "" {
		if err := k.Load(&jsoncProvider{path: resolvedPath}, yaml.Parser()); err != nil {
			return nil, "", &ConfigError{Path: resolvedPath, Err: err}
		}
	}

	if err := k.Load(env.Provider("PGLS_", ".", envTransform), nil); err != nil {
		return nil, "", &ConfigError{Path: "<environment>", Err: err}
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, flagTransform), nil); err != nil {
			return nil, "", &ConfigError{Path: "<flags>", Err: err}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, "", &ConfigError{Path: resolvedPath, Err: err}
	}
	return &cfg, resolvedPath, nil
}

// LoadFromDir loads configuration with no flag layer, for callers (the LSP
// server) that have a project directory but no cobra command of their own.
func LoadFromDir(projectDir string) (*Config, string, error) {
	return Load("", projectDir, nil)
}

// resolveConfigPath returns explicit if set, otherwise searches upward from
// dir for DefaultConfigFileName, returning "" if none exists anywhere up to
// the filesystem root -- not finding a config file is not an error, since
// pgls runs against its built-in defaults.
func resolveConfigPath(explicit, dir string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("cannot read config file: %w", err)
		}
		return explicit, nil
	}
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, DefaultConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// pgEnvDefaults maps the standard libpq environment variables to db.* keys,
// read as defaults -- lower precedence than the config file or PGLS_* vars.
func pgEnvDefaults() map[string]any {
	out := map[string]any{}
	db := map[string]any{}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		db["connection_string"] = v
	}
	if v := os.Getenv("PGHOST"); v != "" {
		db["host"] = v
	}
	if v := os.Getenv("PGPORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db["port"] = n
		}
	}
	if v := os.Getenv("PGUSER"); v != "" {
		db["username"] = v
	}
	if v := os.Getenv("PGPASSWORD"); v != "" {
		db["password"] = v
	}
	if v := os.Getenv("PGDATABASE"); v != "" {
		db["database"] = v
	}
	if len(db) > 0 {
		out["db"] = db
	}
	return out
}

// envKeyRemap is the small set of PGLS_* environment variables whose config
// key doesn't follow the plain underscore-to-dot convention.
var envKeyRemap = map[string]string{
	"db_connection_string": "db.connection_string",
	"db_conn_timeout_secs": "db.conn_timeout_secs",
	"db_disable_connection": "db.disable_connection",
	"plpgsql_check_enabled": "plpgsql_check.enabled",
}

// envTransform converts a PGLS_FOO_BAR variable name to its koanf key,
// foo.bar, except for the names listed in envKeyRemap. Variables that
// control the daemon itself (PGLS_LOG_PATH, PGLS_LOG_LEVEL,
// PGLS_LOG_PREFIX_NAME, PGLS_CONFIG_PATH) go through the same conversion
// (log.path, log.level, log.prefix.name, config.path).
func envTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, "PGLS_"))
	if remapped, ok := envKeyRemap[key]; ok {
		return remapped
	}
	return strings.ReplaceAll(key, "_", ".")
}

// flagKeyRemap mirrors envKeyRemap for the CLI flag layer: flags are
// kebab-case and mostly map 1:1 onto a dotted config key once dashes become
// underscores, except for the handful listed here.
var flagKeyRemap = map[string]string{
	"db-connection-string": "db.connection_string",
	"db-host":              "db.host",
	"db-port":              "db.port",
	"db-username":          "db.username",
	"db-password":          "db.password",
	"db-database":          "db.database",
}

// flagTransform is the posflag callback: only changed flags are loaded (so
// a flag's zero value never shadows a config-file setting), and the flag's
// kebab-case name is remapped to its dotted config key.
func flagTransform(f *pflag.Flag) (string, any) {
	if !f.Changed {
		return "", nil
	}
	key, ok := flagKeyRemap[f.Name]
	if !ok {
		key = strings.ReplaceAll(f.Name, "-", "_")
	}
	return key, f.Value.String()
}
