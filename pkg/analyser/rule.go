// Package analyser is the rule engine: it walks a document's statements in
// order, threads a running transaction context through them, and runs every
// registered Rule against each one. Rules themselves live in subpackages
// under pkg/analyser/rules and register with Register from an init func.
package analyser

import "github.com/pg-lang-server/pgls/pkg/diagnostic"

// Source names an upstream tool or advisory a rule's check is adapted from,
// for documentation and cross-referencing.
type Source struct {
	Tool string // e.g. "squawk", "eugene"
	Name string // the upstream rule's own id, e.g. "adding-field-with-default"
}

// Metadata describes a rule for discovery, the config surface, and
// diagnostic categorization. It deliberately carries no behavior.
type Metadata struct {
	Group       string // e.g. "safety"
	Name        string // e.g. "addSerialColumn"
	Severity    diagnostic.Severity
	Recommended bool
	Sources     []Source
}

// DiagnosticCategory renders the rule's metadata as the diagnostic.Category
// every diagnostic it raises is filed under.
func (m Metadata) DiagnosticCategory() diagnostic.Category {
	return diagnostic.Category{Category: "lint", Group: m.Group, Rule: m.Name}
}

// Rule is one AST-based lint check. Run is called once per root statement
// in document order; schema-cache-backed checks must treat ctx.Schema as
// possibly nil and fail open rather than assume a live connection.
type Rule interface {
	Metadata() Metadata
	Run(ctx *RuleContext) []diagnostic.Diagnostic
}
