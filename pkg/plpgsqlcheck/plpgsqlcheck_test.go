package plpgsqlcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pg-lang-server/pgls/pkg/diagnostic"
)

func TestSeverityForMapsLevels(t *testing.T) {
	assert.Equal(t, diagnostic.SeverityError, severityFor("error"))
	assert.Equal(t, diagnostic.SeverityWarning, severityFor("warning"))
	assert.Equal(t, diagnostic.SeverityHint, severityFor("notice"))
	assert.Equal(t, diagnostic.SeverityInformation, severityFor("unknown"))
}

func TestSpanInBodyUsesQueryPositionWhenPresent(t *testing.T) {
	body := "begin\n  select * from users where id = 1;\nend;"
	issue := Issue{
		Statement: &StatementRef{LineNumber: 2, Text: "select * from users where id = 1;"},
		Query:     &QueryRef{Text: "select * from users where id = 1", Position: 8},
	}
	span := issue.spanInBody(body)
	assert.Equal(t, body[span.Start:span.End], "*")
}

func TestSpanInBodyExtendsIfStatementToThen(t *testing.T) {
	body := "begin\n  if x > 1 then\n    raise notice 'hi';\n  end if;\nend;"
	issue := Issue{Statement: &StatementRef{LineNumber: 2, Text: "if x > 1 then"}}
	span := issue.spanInBody(body)
	require.Greater(t, span.End, span.Start)
	assert.Contains(t, body[span.Start:span.End], "then")
}

func TestMissingExtensionDiagnosticSuggestsInstall(t *testing.T) {
	d := MissingExtensionDiagnostic()
	require.Len(t, d.Advices, 1)
	require.NotNil(t, d.Advices[0].Suggestion)
	assert.Contains(t, d.Advices[0].Suggestion.Items[0], "CREATE EXTENSION")
}
