// Package main provides tests for the pgls CLI.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pg-lang-server/pgls/internal/cli"
)

func TestVersionCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	err := cmd.Execute()
	require.NoError(t, err, "version command error")

	output := buf.String()
	assert.Contains(t, output, "pgls", "version output should mention pgls")
}

func TestHelpCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	require.NoError(t, err, "help command error")

	output := buf.String()
	expectedCommands := []string{"version", "init", "check", "clean", "start", "stop", "print-socket"}
	for _, expected := range expectedCommands {
		assert.Contains(t, output, expected, "help output should contain %q", expected)
	}
}

func TestUnknownCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"unknown-command"})

	err := cmd.Execute()
	assert.Error(t, err, "unknown command should return an error")
}

func TestInitAndCheckRoundTrip(t *testing.T) {
	dir := t.TempDir()

	initCmd := cli.NewRootCmd()
	initCmd.SetArgs([]string{"init", dir})
	require.NoError(t, initCmd.Execute(), "init command error")

	configPath := filepath.Join(dir, "postgres-language-server.jsonc")
	_, err := os.Stat(configPath)
	require.NoError(t, err, "init should create a config file")

	sqlPath := filepath.Join(dir, "query.sql")
	require.NoError(t, os.WriteFile(sqlPath, []byte("select 1;\n"), 0o644))

	checkCmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	checkCmd.SetOut(buf)
	checkCmd.SetErr(buf)
	checkCmd.SetArgs([]string{"check", "--project-dir", dir, sqlPath})

	err = checkCmd.Execute()
	assert.NoError(t, err, "check of a valid statement should not error")
}

func TestInitRefusesToOverwriteWithoutForce(t *testing.T) {
	dir := t.TempDir()

	first := cli.NewRootCmd()
	first.SetArgs([]string{"init", dir})
	require.NoError(t, first.Execute())

	second := cli.NewRootCmd()
	second.SetArgs([]string{"init", dir})
	err := second.Execute()
	assert.Error(t, err, "init without --force should refuse to overwrite")

	third := cli.NewRootCmd()
	third.SetArgs([]string{"init", dir, "--force"})
	assert.NoError(t, third.Execute(), "init --force should overwrite")
}

func TestPrintSocketCommand(t *testing.T) {
	dir := t.TempDir()

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"print-socket", "--project-dir", dir})

	err := cmd.Execute()
	require.NoError(t, err, "print-socket command error")
	assert.Contains(t, buf.String(), "pgls-", "printed socket path should be pgls's own")
}

func TestCleanCommand(t *testing.T) {
	dir := t.TempDir()

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"clean", "--project-dir", dir})

	err := cmd.Execute()
	require.NoError(t, err, "clean command error")
	assert.Contains(t, buf.String(), "Removed 0 stale daemon file(s)")
}

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}
