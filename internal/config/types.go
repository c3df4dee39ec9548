package config

// Config is the fully merged configuration pgls runs with, assembled by
// Load from defaults, the project's postgres-language-server.jsonc file,
// environment variables, and CLI flags, in that order of precedence.
type Config struct {
	Schema     string       `koanf:"$schema"`
	Extends    []string     `koanf:"extends"`
	VCS        VCSConfig    `koanf:"vcs"`
	Files      FilesConfig  `koanf:"files"`
	Migrations Migrations   `koanf:"migrations"`
	Linter     LinterConfig `koanf:"linter"`
	Splinter   DBLinterConfig `koanf:"splinter"`
	Format     FormatConfig `koanf:"format"`
	Typecheck  FeatureToggle `koanf:"typecheck"`
	PLPgSQLCheck FeatureToggle `koanf:"plpgsql_check"`
	DB         DBConfig     `koanf:"db"`

	// Verbose and Output are ambient CLI-level settings layered on top of the
	// file format above; they have no on-disk key of their own beyond what
	// the --verbose/--output flags bind to.
	Verbose bool   `koanf:"verbose"`
	Output  string `koanf:"output"`
}

// VCSConfig controls how pgls discovers files under version control, used
// by `check --staged`/`--changed`/`--since`.
type VCSConfig struct {
	Enabled       bool   `koanf:"enabled"`
	ClientKind    string `koanf:"client_kind"`
	UseIgnoreFile bool   `koanf:"use_ignore_file"`
}

// FilesConfig controls which on-disk files pgls considers.
type FilesConfig struct {
	Ignore  []string `koanf:"ignore"`
	Include []string `koanf:"include"`
	MaxSize int      `koanf:"max_size"`
}

// Migrations names the directory whose files pgls treats as ordered
// migrations for the purposes of "table created earlier in this file"
// analysis across files.
type Migrations struct {
	Dir string `koanf:"dir"`
}

// FeatureToggle is the shape shared by the typecheck and plpgsql_check
// top-level config keys: just an on/off switch.
type FeatureToggle struct {
	Enabled bool `koanf:"enabled"`
}

// DBLinterConfig is the splinter/pglinter bridge's configuration.
type DBLinterConfig struct {
	Enabled         bool     `koanf:"enabled"`
	DisabledRules   []string `koanf:"disabled_rules"`
}

// FormatConfig controls the pretty-printer.
type FormatConfig struct {
	Enabled     bool `koanf:"enabled"`
	IndentWidth int  `koanf:"indent_width"`
}

// LinterConfig is the `linter` top-level key. Rules is left as a raw map
// because its shape is recursive and dynamic (a group name maps to either
// `{recommended, <rule>: level}` or, at the top, `{recommended}` alone);
// RuleLevel below is the one place that structure is interpreted.
type LinterConfig struct {
	Enabled bool           `koanf:"enabled"`
	Rules   map[string]any `koanf:"rules"`
}

// RuleLevel resolves the configured level ("off", "warn", "error", "info")
// and any options for group/rule. When no explicit entry exists it returns
// "warn" if the rule's group (or, absent a group setting, the linter as a
// whole) opts into recommended rules, and "off" otherwise.
func (l LinterConfig) RuleLevel(group, rule string) (level string, options map[string]any) {
	recommended, _ := l.Rules["recommended"].(bool)

	groupRaw, ok := l.Rules[group].(map[string]any)
	if !ok {
		if recommended {
			return "warn", nil
		}
		return "off", nil
	}
	if groupRecommended, ok := groupRaw["recommended"].(bool); ok {
		recommended = groupRecommended
	}

	switch v := groupRaw[rule].(type) {
	case string:
		return v, nil
	case map[string]any:
		lvl, _ := v["level"].(string)
		opts, _ := v["options"].(map[string]any)
		if lvl == "" {
			lvl = "warn"
		}
		return lvl, opts
	default:
		if recommended {
			return "warn", nil
		}
		return "off", nil
	}
}

// DBConfig describes how pgls connects to the database backing the schema
// cache, typechecker, plpgsql-check and db-linter bridge.
type DBConfig struct {
	ConnectionString                string   `koanf:"connection_string"`
	Host                             string   `koanf:"host"`
	Port                             int      `koanf:"port"`
	Username                         string   `koanf:"username"`
	Password                         string   `koanf:"password"`
	Database                         string   `koanf:"database"`
	AllowStatementExecutionsAgainst  []string `koanf:"allow_statement_executions_against"`
	ConnTimeoutSecs                  int      `koanf:"conn_timeout_secs"`
	DisableConnection                bool     `koanf:"disable_connection"`
}
