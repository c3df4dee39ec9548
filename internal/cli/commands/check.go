package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pg-lang-server/pgls/internal/config"
	"github.com/pg-lang-server/pgls/internal/dbpool"
	"github.com/pg-lang-server/pgls/internal/discover"
	"github.com/pg-lang-server/pgls/internal/reporter"
	"github.com/pg-lang-server/pgls/pkg/analyser"
	"github.com/pg-lang-server/pgls/pkg/dblinter"
	"github.com/pg-lang-server/pgls/pkg/diagnostic"
	"github.com/pg-lang-server/pgls/pkg/pgast"
	"github.com/pg-lang-server/pgls/pkg/plpgsqlcheck"
	"github.com/pg-lang-server/pgls/pkg/schema"
	"github.com/pg-lang-server/pgls/pkg/typecheck"
	"github.com/pg-lang-server/pgls/pkg/workspace"
)

// CheckOptions are check's resolved flags.
type CheckOptions struct {
	ProjectDir string
	Staged     bool
	Changed    bool
	Since      string
	Reporter   string
}

// NewCheckCommand creates the check command. getConfig/getLogger are passed
// as function values, rather than this package importing internal/cli
// directly, to avoid an import cycle (internal/cli imports
// internal/cli/commands).
func NewCheckCommand(getConfig func(context.Context) *config.Config, getLogger func(context.Context) *slog.Logger) *cobra.Command {
	opts := CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check [files...]",
		Short: "Lint and typecheck SQL/PL/pgSQL files",
		Long: `Run pgls's analyser, typechecker, plpgsql_check bridge and db-linter
bridge over a set of files and report the combined diagnostics.

With no file arguments and no --staged/--changed/--since flag, check
discovers every file under --project-dir matching the configured
files.include/files.ignore globs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, getConfig(cmd.Context()), getLogger(cmd.Context()), opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.ProjectDir, "project-dir", ".", "project root to discover files from")
	cmd.Flags().BoolVar(&opts.Staged, "staged", false, "check only git-staged files")
	cmd.Flags().BoolVar(&opts.Changed, "changed", false, "check only files with unstaged git changes")
	cmd.Flags().StringVar(&opts.Since, "since", "", "check only files changed since REV")
	cmd.Flags().StringVar(&opts.Reporter, "reporter", "terminal", "output format (terminal|github|gitlab|junit)")

	return cmd
}

func runCheck(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, opts CheckOptions, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	files, err := resolveFiles(opts, cfg.Files, args)
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}

	ast := pgast.New()
	runner := analyser.NewRunner(ast)

	pool, err := dbpool.Open(ctx, cfg.DB)
	if err != nil {
		logger.Warn("database unavailable, continuing without it", "error", err)
		pool = nil
	}
	if pool != nil {
		defer pool.Close()
	}

	var typecheckChecker *typecheck.Checker
	var plpgsqlChecker *plpgsqlcheck.Checker
	var dbLinterChecker *dblinter.Checker
	var cache *schema.Cache

	if pool != nil {
		cache, err = schema.NewLoader(pool, logger).Load(ctx)
		if err != nil {
			logger.Warn("loading schema cache", "error", err)
		} else {
			runner.Schema = cache
		}

		if cfg.Typecheck.Enabled {
			if conn, err := pool.Acquire(ctx); err != nil {
				logger.Warn("acquiring typecheck connection", "error", err)
			} else {
				typecheckChecker = typecheck.NewChecker(conn.Conn())
			}
		}
		if cfg.PLPgSQLCheck.Enabled {
			plpgsqlChecker = plpgsqlcheck.NewChecker(pool.PLPGSQLQuerier())
		}
		if cfg.Splinter.Enabled {
			dbLinterChecker = dblinter.NewChecker(pool.DBLinterQuerier())
		}
	}

	var results []workspace.FileDiagnostics
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("check: reading %s: %w", path, err)
		}

		doc := workspace.NewDocument("file://"+path, string(content))
		diags := runner.Run(ctx, doc)
		if typecheckChecker != nil {
			diags = append(diags, typecheckDiagnosticsForDoc(ctx, typecheckChecker, doc)...)
		}
		diagnostic.ByDocumentOrder(diags)
		results = append(results, workspace.FileDiagnostics{Path: path, Diagnostics: diags})
	}

	if plpgsqlChecker != nil && cache != nil {
		if diags := plpgsqlDiagnosticsForCache(ctx, plpgsqlChecker, cache); len(diags) > 0 {
			diagnostic.ByDocumentOrder(diags)
			results = append(results, workspace.FileDiagnostics{Path: "(database functions)", Diagnostics: diags})
		}
	}
	if dbLinterChecker != nil {
		if diags, err := dbLinterChecker.Check(ctx, cfg.Splinter.DisabledRules); err != nil {
			logger.Warn("db-linter check failed", "error", err)
		} else if len(diags) > 0 {
			diagnostic.ByDocumentOrder(diags)
			results = append(results, workspace.FileDiagnostics{Path: "(database)", Diagnostics: diags})
		}
	}

	rpt, err := reporter.ByName(opts.Reporter)
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}
	if err := rpt.Render(cmd.OutOrStdout(), results); err != nil {
		return fmt.Errorf("check: rendering report: %w", err)
	}

	if reporter.HasErrors(results) {
		return fmt.Errorf("check: found %d diagnostic(s), some at error severity or above", reporter.TotalCount(results))
	}
	return nil
}

func resolveFiles(opts CheckOptions, filesCfg config.FilesConfig, args []string) ([]string, error) {
	projectDir := opts.ProjectDir
	if projectDir == "" {
		projectDir = "."
	}

	if len(args) > 0 {
		out := make([]string, 0, len(args))
		for _, a := range args {
			if filepath.IsAbs(a) {
				out = append(out, a)
				continue
			}
			out = append(out, filepath.Join(projectDir, a))
		}
		return out, nil
	}

	switch {
	case opts.Staged:
		return discover.Staged(projectDir)
	case opts.Changed:
		return discover.Changed(projectDir)
	case opts.Since != "":
		return discover.Since(projectDir, opts.Since)
	default:
		return discover.Files(projectDir, filesCfg, nil)
	}
}

func typecheckDiagnosticsForDoc(ctx context.Context, checker *typecheck.Checker, doc *workspace.Document) []diagnostic.Diagnostic {
	var out []diagnostic.Diagnostic
	for _, stmt := range doc.Statements() {
		if stmt.ID.Kind() != workspace.KindRoot {
			continue
		}
		text := stmt.Text(doc)
		if len(typecheck.Detect(text)) == 0 {
			continue
		}
		out = append(out, checker.Check(ctx, text, typecheck.StaticTypes{})...)
	}
	return out
}

func plpgsqlDiagnosticsForCache(ctx context.Context, checker *plpgsqlcheck.Checker, cache *schema.Cache) []diagnostic.Diagnostic {
	var out []diagnostic.Diagnostic
	for _, fn := range cache.Functions {
		if !strings.EqualFold(fn.Language, "plpgsql") || fn.Body == nil {
			continue
		}
		diags, err := checker.Check(ctx, fn.OID, *fn.Body)
		if err != nil {
			continue
		}
		out = append(out, diags...)
	}
	return out
}
