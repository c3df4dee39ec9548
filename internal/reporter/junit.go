package reporter

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/pg-lang-server/pgls/pkg/diagnostic"
	"github.com/pg-lang-server/pgls/pkg/workspace"
)

// JUnit renders diagnostics as a JUnit XML test report: one <testsuite> per
// file, one <testcase> per diagnostic (failing if Error or above, passing
// otherwise), which is the minimal shape most CI dashboards need to show
// per-file diagnostic counts.
type JUnit struct{}

type junitSuites struct {
	XMLName xml.Name     `xml:"testsuites"`
	Suites  []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name     string      `xml:"name,attr"`
	Tests    int         `xml:"tests,attr"`
	Failures int         `xml:"failures,attr"`
	Cases    []junitCase `xml:"testcase"`
}

type junitCase struct {
	Name    string        `xml:"name,attr"`
	Failure *junitFailure `xml:"failure,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Text    string `xml:",chardata"`
}

func (JUnit) Render(w io.Writer, files []workspace.FileDiagnostics) error {
	root := junitSuites{}
	for _, f := range files {
		suite := junitSuite{Name: f.Path, Tests: len(f.Diagnostics)}
		for i, d := range f.Diagnostics {
			tc := junitCase{Name: fmt.Sprintf("%s#%d", d.Category.Key(), i)}
			if d.Severity >= diagnostic.SeverityError {
				suite.Failures++
				tc.Failure = &junitFailure{Message: d.Message, Text: d.Description}
			}
			suite.Cases = append(suite.Cases, tc)
		}
		root.Suites = append(root.Suites, suite)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(root); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
