package analyser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pg-lang-server/pgls/pkg/diagnostic"
)

func TestDiagnosticBuilderAssemblesAdvices(t *testing.T) {
	span := diagnostic.Span{Start: 3, End: 9}
	d := NewDiagnostic("volatile default").
		Span(span).
		Description("longer summary").
		Detail(nil, "detail line").
		Note("a note").
		Warning("a warning").
		Suggestions("try one of", []string{"a", "b"}).
		Build()

	assert.Equal(t, "volatile default", d.Message)
	assert.Equal(t, "longer summary", d.Description)
	require.NotNil(t, d.Span)
	assert.Equal(t, span, *d.Span)
	require.Len(t, d.Advices, 4)
	assert.NotNil(t, d.Advices[0].Frame)
	assert.NotNil(t, d.Advices[1].Log)
	assert.NotNil(t, d.Advices[2].Log)
	assert.NotNil(t, d.Advices[3].Suggestion)
}

func TestSuggestionsSkippedWhenEmpty(t *testing.T) {
	d := NewDiagnostic("msg").Suggestions("header", nil).Build()
	assert.Empty(t, d.Advices)
}
