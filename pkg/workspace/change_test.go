package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyChangeUnrelatedEditLeavesOtherStatementsUnchanged(t *testing.T) {
	doc := NewDocument("file:///t.sql", "select 1;\nselect 2;\nselect 3;")
	firstID := doc.Statements()[0].ID

	changes := doc.ApplyChange("select 1;\nselect 22;\nselect 3;")

	require.Len(t, changes, 1)
	assert.Equal(t, Modified, changes[0].Kind)
	assert.Equal(t, "select 2;", changes[0].Old.Text(&Document{text: "select 1;\nselect 2;\nselect 3;"}))

	got, ok := doc.Statement(firstID)
	require.True(t, ok, "unrelated statement must keep its id across the edit")
	assert.Equal(t, "select 1;", got.Text(doc))
}

func TestApplyChangeAppendIsAdded(t *testing.T) {
	doc := NewDocument("file:///t.sql", "select 1;")
	changes := doc.ApplyChange("select 1;\nselect 2;")

	require.Len(t, changes, 1)
	assert.Equal(t, Added, changes[0].Kind)
	assert.Equal(t, "select 2;", changes[0].New.Text(doc))
}

func TestApplyChangeRemovalIsDeleted(t *testing.T) {
	doc := NewDocument("file:///t.sql", "select 1;\nselect 2;")
	changes := doc.ApplyChange("select 1;")

	require.Len(t, changes, 1)
	assert.Equal(t, Deleted, changes[0].Kind)
}

func TestApplyChangeBumpsVersion(t *testing.T) {
	doc := NewDocument("file:///t.sql", "select 1;")
	require.Equal(t, Version(0), doc.Version())
	doc.ApplyChange("select 2;")
	assert.Equal(t, Version(1), doc.Version())
}

func TestApplyChangeIdenticalTextProducesNoChanges(t *testing.T) {
	doc := NewDocument("file:///t.sql", "select 1;\nselect 2;")
	changes := doc.ApplyChange("select 1;\nselect 2;")
	assert.Empty(t, changes)
}
