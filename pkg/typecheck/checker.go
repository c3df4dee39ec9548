package typecheck

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pg-lang-server/pgls/pkg/diagnostic"
)

// Preparer is the subset of *pgx.Conn (and an acquired *pgxpool.Conn, which
// embeds one) needed for a dry-run prepare: it validates syntax and
// name/type resolution without executing the query.
type Preparer interface {
	Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error)
}

// Checker runs the typecheck procedure against a live connection.
type Checker struct {
	Conn Preparer
}

// NewChecker returns a Checker backed by conn.
func NewChecker(conn Preparer) *Checker {
	return &Checker{Conn: conn}
}

// Check validates stmtText, returning zero diagnostics on success. A nil
// Checker (no database connection) always returns a single Information
// "typecheck unavailable" diagnostic rather than an error: database
// unavailability is not a per-statement error.
func (c *Checker) Check(ctx context.Context, stmtText string, types TypeResolver) []diagnostic.Diagnostic {
	if c == nil || c.Conn == nil {
		return []diagnostic.Diagnostic{unavailableDiagnostic()}
	}

	params := Detect(stmtText)
	rewritten, mappings := Rewrite(stmtText, params, types)

	_, err := c.Conn.Prepare(ctx, "", rewritten)
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(ctx.Err(), context.Canceled) {
		return []diagnostic.Diagnostic{unavailableDiagnostic()}
	}

	return []diagnostic.Diagnostic{c.toDiagnostic(err, mappings)}
}

func unavailableDiagnostic() diagnostic.Diagnostic {
	return diagnostic.Diagnostic{
		Category: diagnostic.Category{Category: "typecheck"},
		Severity: diagnostic.SeverityInformation,
		Message:  "typecheck skipped: database unavailable",
	}
}

func (c *Checker) toDiagnostic(err error, mappings []Mapping) diagnostic.Diagnostic {
	var pgErr *pgconn.PgError
	severity := diagnostic.SeverityError
	message := err.Error()
	var span diagnostic.Span
	var mapping *Mapping

	if errors.As(err, &pgErr) {
		severity = severityFromPgCode(pgErr.Severity)
		message = pgErr.Message
		if pgErr.Position > 0 {
			span, mapping = MapOffset(int(pgErr.Position)-1, mappings)
		}
	}

	if mapping != nil {
		message = rewriteMessage(message, mapping)
	}

	return diagnostic.Diagnostic{
		Category: diagnostic.Category{Category: "typecheck"},
		Severity: severity,
		Span:     &span,
		Message:  message,
	}
}

func severityFromPgCode(pgSeverity string) diagnostic.Severity {
	switch pgSeverity {
	case "ERROR", "FATAL", "PANIC":
		return diagnostic.SeverityError
	case "WARNING":
		return diagnostic.SeverityWarning
	case "NOTICE", "DEBUG", "INFO", "LOG":
		return diagnostic.SeverityInformation
	default:
		return diagnostic.SeverityError
	}
}

var (
	invalidInputRe = regexp.MustCompile(`invalid input syntax for type (\w+): "([^"]*)"`)
	operatorRe     = regexp.MustCompile(`operator does not exist: .+`)
)

// rewriteMessage replaces a database message's reference to the synthetic
// literal with the original parameter name and its declared type, for a
// small set of known message patterns. Messages matching neither pattern
// are returned unchanged -- the heuristic rewriter intentionally does not
// attempt every possible database message.
func rewriteMessage(message string, m *Mapping) string {
	name := paramLabel(m.Param)

	if loc := invalidInputRe.FindStringSubmatchIndex(message); loc != nil {
		wantType := message[loc[2]:loc[3]]
		return fmt.Sprintf("`%s` is of type %s, not %s", name, m.Type, wantType)
	}
	if operatorRe.MatchString(message) {
		return fmt.Sprintf("%s; parameter `%s` is of type %s", message, name, m.Type)
	}
	return message
}

func paramLabel(p Param) string {
	if p.Kind == ParamPositional {
		return fmt.Sprintf("$%d", p.Index)
	}
	return p.Name
}
