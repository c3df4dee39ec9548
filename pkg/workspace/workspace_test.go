package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspaceOpenChangeClose(t *testing.T) {
	w := New()
	w.Open("file:///t.sql", "select 1;")

	doc, ok := w.Document("file:///t.sql")
	require.True(t, ok)
	assert.Equal(t, 1, doc.Count())

	changes, err := w.Change("file:///t.sql", "select 1;\nselect 2;")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, Added, changes[0].Kind)

	w.Close("file:///t.sql")
	_, ok = w.Document("file:///t.sql")
	assert.False(t, ok)
}

func TestWorkspaceChangeOnUnopenedDocumentErrors(t *testing.T) {
	w := New()
	_, err := w.Change("file:///missing.sql", "select 1;")
	assert.Error(t, err)
}

func TestWorkspaceURIsListsOpenDocuments(t *testing.T) {
	w := New()
	w.Open("file:///a.sql", "select 1;")
	w.Open("file:///b.sql", "select 2;")

	uris := w.URIs()
	assert.ElementsMatch(t, []string{"file:///a.sql", "file:///b.sql"}, uris)
}
