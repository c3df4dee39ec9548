// Package reporter renders a pull's diagnostics for the `check` CLI
// command. Every format implements the same Reporter contract so
// internal/cli's --reporter flag can select one without the rest of the CLI
// knowing anything about output formats, separating building a report from
// rendering it.
package reporter

import (
	"fmt"
	"io"

	"github.com/pg-lang-server/pgls/pkg/workspace"
)

// Reporter renders diagnostics grouped by file to w.
type Reporter interface {
	Render(w io.Writer, files []workspace.FileDiagnostics) error
}

// ByName returns the reporter registered under name ("terminal", "github",
// "gitlab", "junit"), or an error if name is unknown.
func ByName(name string) (Reporter, error) {
	switch name {
	case "", "terminal":
		return Terminal{}, nil
	case "github":
		return GitHub{}, nil
	case "gitlab":
		return GitLab{}, nil
	case "junit":
		return JUnit{}, nil
	default:
		return nil, fmt.Errorf("reporter: unknown reporter %q", name)
	}
}

// TotalCount returns the number of diagnostics across every file.
func TotalCount(files []workspace.FileDiagnostics) int {
	n := 0
	for _, f := range files {
		n += len(f.Diagnostics)
	}
	return n
}

// HasErrors reports whether any file carries an Error-or-above diagnostic,
// the condition the CLI's exit code depends on.
func HasErrors(files []workspace.FileDiagnostics) bool {
	for _, f := range files {
		if f.HasErrors() {
			return true
		}
	}
	return false
}
