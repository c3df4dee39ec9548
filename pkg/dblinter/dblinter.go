// Package dblinter bridges the pglinter/splinter extension: it queries the
// extension's SARIF-like result table and maps each row's rule code onto
// pgls's own category keys. Check returns a failed query (including one
// caused by the extension not being installed) as an error; the
// not-installed and rule-disabled diagnostics exist as separate
// constructors (MissingExtensionDiagnostic, RuleDisabledDiagnostic) that
// Check does not produce itself.
package dblinter

import (
	"context"
	"fmt"

	"github.com/pg-lang-server/pgls/pkg/diagnostic"
)

// Row is one finding returned by the extension's lint function.
type Row struct {
	RuleCode   string
	Message    string
	Severity   string // "error", "warning", "info"
	SchemaName string
	TableName  string
}

// Querier is the subset of a pgx connection/pool dblinter needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

// Rows is the minimal row-scanning surface Query needs; pgx.Rows already
// satisfies it.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close()
	Err() error
}

// ruleCategories maps a handful of well-known splinter/pglinter rule codes
// onto pgls's local category keys; an unrecognized code falls back to its
// raw spelling so a new extension rule still surfaces a diagnostic.
var ruleCategories = map[string]string{
	"unindexed_foreign_key": "db-linter/index/unindexedForeignKey",
	"unused_index":          "db-linter/index/unusedIndex",
	"duplicate_index":       "db-linter/index/duplicateIndex",
	"missing_primary_key":   "db-linter/schema/missingPrimaryKey",
	"fk_outside_schema":     "db-linter/schema/foreignKeyOutsideSchema",
}

// Checker runs the bridge query over a live connection.
type Checker struct {
	Conn Querier
}

// NewChecker returns a Checker backed by conn.
func NewChecker(conn Querier) *Checker {
	return &Checker{Conn: conn}
}

const lintQuery = `select rule_code, message, severity, schema_name, table_name from pglinter.lint()`

// Check runs the extension's lint function and converts every row to a
// diagnostic, skipping rules named in disabledRules (the extension still
// reports them; pgls filters client-side so a config change takes effect
// without altering the extension's own catalog).
func (c *Checker) Check(ctx context.Context, disabledRules []string) ([]diagnostic.Diagnostic, error) {
	if c == nil || c.Conn == nil {
		return nil, nil
	}

	rows, err := c.Conn.Query(ctx, lintQuery)
	if err != nil {
		return nil, fmt.Errorf("dblinter: query: %w", err)
	}
	defer rows.Close()

	disabled := make(map[string]bool, len(disabledRules))
	for _, r := range disabledRules {
		disabled[r] = true
	}

	var out []diagnostic.Diagnostic
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.RuleCode, &row.Message, &row.Severity, &row.SchemaName, &row.TableName); err != nil {
			return nil, fmt.Errorf("dblinter: scan row: %w", err)
		}
		if disabled[row.RuleCode] {
			continue
		}
		out = append(out, row.toDiagnostic())
	}
	return out, rows.Err()
}

func (row Row) toDiagnostic() diagnostic.Diagnostic {
	key := ruleCategories[row.RuleCode]
	if key == "" {
		key = "db-linter/" + row.RuleCode
	}
	category := parseCategoryKey(key)

	message := row.Message
	if row.SchemaName != "" && row.TableName != "" {
		message = fmt.Sprintf("%s.%s: %s", row.SchemaName, row.TableName, message)
	}

	return diagnostic.Diagnostic{
		Category: category,
		Severity: severityFor(row.Severity),
		Message:  message,
	}
}

func severityFor(s string) diagnostic.Severity {
	switch s {
	case "error":
		return diagnostic.SeverityError
	case "info":
		return diagnostic.SeverityInformation
	default:
		return diagnostic.SeverityWarning
	}
}

func parseCategoryKey(key string) diagnostic.Category {
	parts := [3]string{}
	n := 0
	start := 0
	for i := 0; i <= len(key) && n < 3; i++ {
		if i == len(key) || key[i] == '/' {
			parts[n] = key[start:i]
			n++
			start = i + 1
		}
	}
	return diagnostic.Category{Category: parts[0], Group: parts[1], Rule: parts[2]}
}

// MissingExtensionDiagnostic is the single Error diagnostic surfaced when
// pglinter/splinter is not installed in the target database.
func MissingExtensionDiagnostic() diagnostic.Diagnostic {
	return diagnostic.Diagnostic{
		Category: diagnostic.Category{Category: "db-linter"},
		Severity: diagnostic.SeverityError,
		Message:  "pglinter extension is not installed",
		Advices: []diagnostic.Advice{{Suggestion: &diagnostic.SuggestionAdvice{
			Header: "install the extension",
			Items:  []string{"CREATE EXTENSION pglinter;"},
		}}},
	}
}

// RuleDisabledDiagnostic is the Error diagnostic surfaced for each rule
// that is configured on in pgls but disabled at the extension level.
func RuleDisabledDiagnostic(ruleCode string) diagnostic.Diagnostic {
	return diagnostic.Diagnostic{
		Category: parseCategoryKey(ruleCategoryOrRaw(ruleCode)),
		Severity: diagnostic.SeverityError,
		Message:  fmt.Sprintf("rule %q is enabled in configuration but disabled in pglinter", ruleCode),
		Advices: []diagnostic.Advice{{Suggestion: &diagnostic.SuggestionAdvice{
			Header: "enable the rule",
			Items:  []string{fmt.Sprintf("select pglinter.enable_rule('%s');", ruleCode)},
		}}},
	}
}

func ruleCategoryOrRaw(ruleCode string) string {
	if key, ok := ruleCategories[ruleCode]; ok {
		return key
	}
	return "db-linter/" + ruleCode
}
