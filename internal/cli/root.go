// Package cli provides the command-line interface for pgls.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pg-lang-server/pgls/internal/cli/commands"
	"github.com/pg-lang-server/pgls/internal/config"
)

var (
	cfgFile     string
	projectDir  string
	verboseFlag bool
	outputFlag  string
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// configKey stores the loaded *config.Config in a command's context.
type configKey struct{}

// loggerKey stores the request-scoped *slog.Logger in a command's context.
type loggerKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pgls",
		Short: "pgls - a Postgres-focused language server and developer toolchain",
		Long: `pgls analyses SQL and PL/pgSQL source in editor buffers and on disk,
producing diagnostics, completions, hover information, semantic tokens
and pretty-printed output over LSP and a CLI.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, _, err := config.Load(cfgFile, projectDir, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("pgls {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to postgres-language-server.jsonc")
	rootCmd.PersistentFlags().StringVar(&projectDir, "project-dir", "", "project root to search for the config file from")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "", "output format (auto|text|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(commands.NewCheckCommand(GetConfig, GetLogger))
	rootCmd.AddCommand(commands.NewCleanCommand())
	rootCmd.AddCommand(commands.NewStartCommand(GetConfig))
	rootCmd.AddCommand(commands.NewStopCommand(GetConfig))
	rootCmd.AddCommand(commands.NewRunServerCommand(GetConfig, GetLogger))
	rootCmd.AddCommand(commands.NewLSPProxyCommand(GetConfig))
	rootCmd.AddCommand(commands.NewPrintSocketCommand(GetConfig))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the config loaded by the root command's
// PersistentPreRunE from ctx, falling back to built-in defaults if none was
// loaded (e.g. in a unit test that calls a command directly).
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	var cfg config.Config
	return &cfg
}

// GetLogger retrieves the request-scoped logger from ctx, falling back to a
// discarding logger.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
