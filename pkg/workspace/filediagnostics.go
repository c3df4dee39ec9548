package workspace

import "github.com/pg-lang-server/pgls/pkg/diagnostic"

// FileDiagnostics pairs a file path with the diagnostics raised against it,
// the unit reporters (internal/reporter) render.
type FileDiagnostics struct {
	Path        string
	Diagnostics []diagnostic.Diagnostic
}

// HasErrors reports whether any diagnostic in f is Error severity or above,
// the signal the CLI's exit code is computed from.
func (f FileDiagnostics) HasErrors() bool {
	for _, d := range f.Diagnostics {
		if d.Severity >= diagnostic.SeverityError {
			return true
		}
	}
	return false
}
