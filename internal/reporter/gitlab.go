package reporter

import (
	"crypto/sha1" //nolint:gosec // fingerprint only needs to be stable, not cryptographically secure
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pg-lang-server/pgls/pkg/diagnostic"
	"github.com/pg-lang-server/pgls/pkg/workspace"
)

// GitLab renders diagnostics as a GitLab Code Quality report: a JSON array
// of issues with description, check_name, fingerprint, severity and
// location. Fields GitLab's schema allows but pgls has no equivalent for
// (categories, content) are omitted rather than faked.
type GitLab struct{}

type gitlabIssue struct {
	Description string            `json:"description"`
	CheckName   string            `json:"check_name"`
	Fingerprint string            `json:"fingerprint"`
	Severity    string            `json:"severity"`
	Location    gitlabLocation    `json:"location"`
}

type gitlabLocation struct {
	Path  string       `json:"path"`
	Lines gitlabLines  `json:"lines"`
}

type gitlabLines struct {
	Begin int `json:"begin"`
}

func (GitLab) Render(w io.Writer, files []workspace.FileDiagnostics) error {
	var issues []gitlabIssue
	for _, f := range files {
		for _, d := range f.Diagnostics {
			line := 1
			if d.Span != nil {
				line = d.Span.Start
			}
			issues = append(issues, gitlabIssue{
				Description: d.Message,
				CheckName:   d.Category.Key(),
				Fingerprint: fingerprint(f.Path, d),
				Severity:    gitlabSeverity(d.Severity),
				Location:    gitlabLocation{Path: f.Path, Lines: gitlabLines{Begin: line}},
			})
		}
	}
	if issues == nil {
		issues = []gitlabIssue{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(issues)
}

func gitlabSeverity(s diagnostic.Severity) string {
	switch {
	case s >= diagnostic.SeverityError:
		return "major"
	case s == diagnostic.SeverityWarning:
		return "minor"
	default:
		return "info"
	}
}

func fingerprint(path string, d diagnostic.Diagnostic) string {
	h := sha1.New() //nolint:gosec // non-cryptographic dedup key
	fmt.Fprintf(h, "%s|%s|%s", path, d.Category.Key(), d.Message)
	return hex.EncodeToString(h.Sum(nil))
}
