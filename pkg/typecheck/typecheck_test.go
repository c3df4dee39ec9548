package typecheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFindsEveryParamSpelling(t *testing.T) {
	params := Detect(`select * from users where id = @one and name = :two or tag = :'three' or id2 = $1`)
	require.Len(t, params, 4)
	assert.Equal(t, ParamNamed, params[0].Kind)
	assert.Equal(t, "one", params[0].Name)
	assert.Equal(t, ParamNamed, params[1].Kind)
	assert.Equal(t, "two", params[1].Name)
	assert.Equal(t, ParamQuotedNamed, params[2].Kind)
	assert.Equal(t, "three", params[2].Name)
	assert.Equal(t, ParamPositional, params[3].Kind)
	assert.Equal(t, 1, params[3].Index)
}

func TestDetectIgnoresParamSyntaxInsideStringLiterals(t *testing.T) {
	params := Detect(`select '@not_a_param' from users where id = @one`)
	require.Len(t, params, 1)
	assert.Equal(t, "one", params[0].Name)
}

func TestRewriteProducesSafeLiteralsAndMapping(t *testing.T) {
	stmt := `select * from users where id = @one`
	params := Detect(stmt)
	rewritten, mappings := Rewrite(stmt, params, StaticTypes{ByName: map[string]string{"one": "text"}})

	assert.Equal(t, `select * from users where id = ''`, rewritten)
	require.Len(t, mappings, 1)
	assert.Equal(t, "text", mappings[0].Type)
}

func TestSafeLiteralCoversCommonTypes(t *testing.T) {
	assert.Equal(t, "0", SafeLiteral("int4"))
	assert.Equal(t, "''", SafeLiteral("text"))
	assert.Equal(t, "false", SafeLiteral("boolean"))
	assert.Equal(t, "NULL", SafeLiteral(""))
	assert.Equal(t, "NULL::money", SafeLiteral("money"))
}

func TestMapOffsetReturnsParamSpanInsideReplacement(t *testing.T) {
	stmt := `select * from users where id = @one`
	params := Detect(stmt)
	_, mappings := Rewrite(stmt, params, StaticTypes{ByName: map[string]string{"one": "int"}})

	span, m := MapOffset(mappings[0].RewrittenSpan.Start, mappings)
	require.NotNil(t, m)
	assert.Equal(t, params[0].Span, span)
}

func TestRewriteMessageHandlesInvalidInputSyntax(t *testing.T) {
	m := &Mapping{Param: Param{Kind: ParamNamed, Name: "one"}, Type: "text"}
	got := rewriteMessage(`invalid input syntax for type integer: "x"`, m)
	assert.Equal(t, "`one` is of type text, not integer", got)
}

func TestCheckWithNilCheckerReportsUnavailable(t *testing.T) {
	var c *Checker
	diags := c.Check(t.Context(), "select 1", StaticTypes{})
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "unavailable")
}
