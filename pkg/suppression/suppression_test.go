package suppression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pg-lang-server/pgls/pkg/diagnostic"
)

func TestParseSpecifier(t *testing.T) {
	cases := []struct {
		in   string
		want Specifier
	}{
		{"lint", Specifier{Category: "lint"}},
		{"lint/safety", Specifier{Category: "lint", Group: "safety"}},
		{"lint/safety/addSerialColumn", Specifier{Category: "lint", Group: "safety", Rule: "addSerialColumn"}},
	}
	for _, tc := range cases {
		got, err := ParseSpecifier(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestParseSpecifierTooManySegments(t *testing.T) {
	_, err := ParseSpecifier("lint/safety/rule/extra")
	assert.Error(t, err)
}

func TestParseCommentLine(t *testing.T) {
	c, err := ParseComment("-- pgls-ignore lint/safety/addSerialColumn", 100, 5)
	require.NoError(t, err)
	assert.Equal(t, KindLine, c.Kind)
	assert.Equal(t, "addSerialColumn", c.Specifier.Rule)
	assert.Equal(t, 5, c.Line)
}

func TestParseCommentWithExplanation(t *testing.T) {
	c, err := ParseComment("-- pgls-ignore lint/safety: known false positive", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, "known false positive", c.Explanation)
}

func TestParseCommentRejectsUnknownTag(t *testing.T) {
	_, err := ParseComment("-- pgls-ignore-bogus lint/safety", 0, 1)
	assert.Error(t, err)
}

func TestParseCommentRejectsMissingSpecifier(t *testing.T) {
	_, err := ParseComment("-- pgls-ignore", 0, 1)
	assert.Error(t, err)
}

func TestScanSuppressesMatchingLine(t *testing.T) {
	text := "alter table accounts add column x int; -- pgls-ignore lint/safety/addingFieldWithDefault\n"
	set := Scan(text)
	cat := diagnostic.Category{Category: "lint", Group: "safety", Rule: "addingFieldWithDefault"}
	assert.True(t, set.Suppressed(1, cat))
	assert.False(t, set.Suppressed(2, cat))
}

func TestScanFileWideSuppression(t *testing.T) {
	text := "-- pgls-ignore-all lint/safety\nalter table t add column x int;\nalter table t add column y int;\n"
	set := Scan(text)
	cat := diagnostic.Category{Category: "lint", Group: "safety", Rule: "addSerialColumn"}
	assert.True(t, set.Suppressed(2, cat))
	assert.True(t, set.Suppressed(3, cat))
}

func TestScanRangeSuppression(t *testing.T) {
	text := "-- pgls-ignore-start lint/safety\nalter table t add column x int;\n-- pgls-ignore-end lint/safety\nalter table t add column y int;\n"
	set := Scan(text)
	cat := diagnostic.Category{Category: "lint", Group: "safety", Rule: "addSerialColumn"}
	assert.True(t, set.Suppressed(2, cat))
	assert.False(t, set.Suppressed(4, cat))
}

func TestScanUnterminatedRangeSuppressesToEndOfFile(t *testing.T) {
	text := "-- pgls-ignore-start lint/safety\nalter table t add column x int;\nalter table t add column y int;\n"
	set := Scan(text)
	cat := diagnostic.Category{Category: "lint", Group: "safety", Rule: "addSerialColumn"}
	assert.True(t, set.Suppressed(3, cat))
}

func TestScanRecordsMalformedSuppressionAsError(t *testing.T) {
	text := "select 1; -- pgls-ignore-bogus lint/safety\n"
	set := Scan(text)
	assert.NotEmpty(t, set.Errors)
}
