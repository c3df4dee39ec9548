package diagnostic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryKey(t *testing.T) {
	cases := []struct {
		name string
		cat  Category
		want string
	}{
		{"rule", Category{Category: "lint", Group: "safety", Rule: "banDropTable"}, "lint/safety/banDropTable"},
		{"group only", Category{Category: "lint", Group: "safety"}, "lint/safety"},
		{"bare", Category{Category: "syntax"}, "syntax"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cat.Key())
		})
	}
}

func TestByDocumentOrder(t *testing.T) {
	diags := []Diagnostic{
		{Category: Category{Category: "lint", Group: "safety", Rule: "b"}, Severity: SeverityWarning, Span: &Span{Start: 10, End: 20}},
		{Category: Category{Category: "lint", Group: "safety", Rule: "a"}, Severity: SeverityWarning, Span: &Span{Start: 10, End: 20}},
		{Category: Category{Category: "syntax"}, Severity: SeverityError, Span: &Span{Start: 0, End: 5}},
		{Category: Category{Category: "typecheck"}, Severity: SeverityError}, // no span
	}

	ByDocumentOrder(diags)

	assert.Equal(t, "typecheck", diags[0].Category.Key()) // no-span sorts first (-1)
	assert.Equal(t, "syntax", diags[1].Category.Key())
	assert.Equal(t, "lint/safety/a", diags[2].Category.Key())
	assert.Equal(t, "lint/safety/b", diags[3].Category.Key())
}

func TestSpanOverlaps(t *testing.T) {
	a := Span{Start: 0, End: 10}
	b := Span{Start: 5, End: 15}
	c := Span{Start: 10, End: 20}

	assert.True(t, a.Overlaps(b))
	assert.False(t, a.Overlaps(c)) // half-open: [0,10) and [10,20) don't touch
}
