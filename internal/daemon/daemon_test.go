package daemon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDIsStablePerDirectory(t *testing.T) {
	a := ID("/tmp/projectA")
	b := ID("/tmp/projectA")
	c := ID("/tmp/projectB")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestSocketPathIncludesID(t *testing.T) {
	path := SocketPath("/tmp/projectA")
	assert.Contains(t, path, ID("/tmp/projectA"))
	assert.Contains(t, path, ".sock")
}

func TestWriteReadRemovePID(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WritePID(dir, 1234))

	pid, err := ReadPID(dir)
	require.NoError(t, err)
	assert.Equal(t, 1234, pid)

	require.NoError(t, RemovePID(dir))
	pid, err = ReadPID(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, pid)
}

func TestReadPIDWithNoFileReturnsZero(t *testing.T) {
	pid, err := ReadPID(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, pid)
}
