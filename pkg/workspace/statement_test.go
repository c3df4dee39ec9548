package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootIDEqualityByContent(t *testing.T) {
	a := NewRootID("select 1;")
	b := NewRootID("select 1;")
	c := NewRootID("select 2;")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestChildIDRequiresMatchingParent(t *testing.T) {
	p1 := NewRootID("create function f() ...")
	p2 := NewRootID("create function g() ...")

	c1 := NewChildID(p1, "select 1;")
	c2 := NewChildID(p2, "select 1;")

	assert.False(t, c1.Equal(c2), "same body under different parents must differ")
	assert.True(t, c1.IsChildOf(p1))
	assert.False(t, c1.IsChildOf(p2))
}

func TestChildIDContentChangeAffectsIdentity(t *testing.T) {
	parent := NewRootID("create function f() ...")
	c1 := NewChildID(parent, "select 1;")
	c2 := NewChildID(parent, "select 2;")
	assert.False(t, c1.Equal(c2))
}

func TestRootIDNeverEqualsChildID(t *testing.T) {
	parent := NewRootID("select 1;")
	child := NewChildID(parent, "select 1;")
	assert.False(t, parent.Equal(child))
}
