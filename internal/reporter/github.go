package reporter

import (
	"fmt"
	"io"

	"github.com/pg-lang-server/pgls/pkg/diagnostic"
	"github.com/pg-lang-server/pgls/pkg/workspace"
)

// GitHub renders diagnostics as GitHub Actions workflow commands
// (`::error file=...::message`), enough for a CI step to annotate a pull
// request; it does not attempt GitHub's full checks-API diagnostic schema.
type GitHub struct{}

func (GitHub) Render(w io.Writer, files []workspace.FileDiagnostics) error {
	for _, f := range files {
		for _, d := range f.Diagnostics {
			line, col := 1, 1
			if d.Span != nil {
				line = d.Span.Start
			}
			_, err := fmt.Fprintf(w, "::%s file=%s,line=%d,col=%d::%s (%s)\n",
				githubLevel(d.Severity), f.Path, line, col, d.Message, d.Category.Key())
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func githubLevel(s diagnostic.Severity) string {
	switch {
	case s >= diagnostic.SeverityError:
		return "error"
	case s == diagnostic.SeverityWarning:
		return "warning"
	default:
		return "notice"
	}
}
