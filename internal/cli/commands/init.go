package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// defaultConfigTemplate is the postgres-language-server.jsonc created by
// `pgls init`, documenting every top-level key with its default value.
const defaultConfigTemplate = `{
  "$schema": "https://pgls.dev/schema.json",
  "vcs": {
    "enabled": false,
    "client_kind": "git",
    "use_ignore_file": true
  },
  "files": {
    "include": ["**/*.sql", "**/*.pgsql"],
    "ignore": [],
    "max_size": 1048576
  },
  "migrations": {
    "dir": "migrations"
  },
  "linter": {
    "enabled": true,
    "rules": {
      "recommended": true
    }
  },
  "splinter": {
    "enabled": false,
    "disabled_rules": []
  },
  "format": {
    "enabled": false,
    "indent_width": 2
  },
  "typecheck": {
    "enabled": false
  },
  "plpgsql_check": {
    "enabled": false
  },
  "db": {
    "host": "localhost",
    "port": 5432,
    "database": "postgres",
    "conn_timeout_secs": 10,
    "disable_connection": false
  }
}
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a default postgres-language-server.jsonc",
		Long: `Write a postgres-language-server.jsonc documenting every configuration
key at its default value, so a project can start from a known baseline and
override only what it needs.`,
		Example: `  # Initialize in the current directory
  pgls init

  # Initialize in a new directory
  pgls init ./myproject

  # Overwrite an existing config
  pgls init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("init: create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, "postgres-language-server.jsonc")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("init: %s already exists; use --force to overwrite", configPath)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("init: write %s: %w", configPath, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", configPath)
	return nil
}
