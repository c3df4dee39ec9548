package reporter

import (
	"fmt"
	"io"

	"github.com/pg-lang-server/pgls/pkg/diagnostic"
	"github.com/pg-lang-server/pgls/pkg/workspace"
)

// Terminal renders diagnostics as human-readable text, one file section per
// path and one line per diagnostic, followed by a summary line.
type Terminal struct{}

func (Terminal) Render(w io.Writer, files []workspace.FileDiagnostics) error {
	errs, warns, hints := 0, 0, 0

	for _, f := range files {
		if len(f.Diagnostics) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s\n", f.Path); err != nil {
			return err
		}
		for _, d := range f.Diagnostics {
			switch {
			case d.Severity >= diagnostic.SeverityError:
				errs++
			case d.Severity == diagnostic.SeverityWarning:
				warns++
			default:
				hints++
			}
			if err := renderDiagnosticLine(w, d); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "%d error(s), %d warning(s), %d hint(s)\n", errs, warns, hints)
	return err
}

func renderDiagnosticLine(w io.Writer, d diagnostic.Diagnostic) error {
	loc := ""
	if d.Span != nil {
		loc = fmt.Sprintf("%d-%d ", d.Span.Start, d.Span.End)
	}
	if _, err := fmt.Fprintf(w, "  %s%s [%s] %s\n", loc, d.Severity, d.Category.Key(), d.Message); err != nil {
		return err
	}
	for _, a := range d.Advices {
		switch {
		case a.Log != nil:
			if _, err := fmt.Fprintf(w, "    %s\n", a.Log.Message); err != nil {
				return err
			}
		case a.Frame != nil:
			if _, err := fmt.Fprintf(w, "    %d-%d: %s\n", a.Frame.Span.Start, a.Frame.Span.End, a.Frame.Message); err != nil {
				return err
			}
		case a.Suggestion != nil:
			if _, err := fmt.Fprintf(w, "    %s\n", a.Suggestion.Header); err != nil {
				return err
			}
			for _, item := range a.Suggestion.Items {
				if _, err := fmt.Fprintf(w, "      - %s\n", item); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
