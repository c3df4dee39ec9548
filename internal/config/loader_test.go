package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripJSONCommentsPreservesStringsAndOffsets(t *testing.T) {
	src := []byte(`{
  // a line comment
  "linter": { "enabled": true }, /* block
  comment */ "format": { "enabled": false }
}`)
	stripped := StripJSONComments(src)
	require.Equal(t, len(src), len(stripped))
	assert.NotContains(t, string(stripped), "//")
	assert.NotContains(t, string(stripped), "/*")
	assert.Contains(t, string(stripped), `"linter"`)
	assert.Contains(t, string(stripped), `"format"`)
}

func TestStripJSONCommentsIgnoresCommentMarkersInStrings(t *testing.T) {
	src := []byte(`{"message": "not // a comment or /* block */"}`)
	stripped := StripJSONComments(src)
	assert.Equal(t, string(src), string(stripped))
}

func TestLoadUsesDefaultsWhenNoConfigFileFound(t *testing.T) {
	dir := t.TempDir()
	cfg, path, err := Load("", dir, nil)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.True(t, cfg.Linter.Enabled)
	assert.Equal(t, DefaultPort, cfg.DB.Port)
	assert.Equal(t, DefaultOutput, cfg.Output)
}

func TestLoadReadsJSONCConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `{
  // disable the pretty printer
  "format": { "enabled": false },
  "db": { "host": "db.internal", "port": 5433 }
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFileName), []byte(content), 0o644))

	cfg, path, err := Load("", dir, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultConfigFileName), path)
	assert.False(t, cfg.Format.Enabled)
	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 5433, cfg.DB.Port)
}

func TestLoadWalksUpToFindConfigFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, DefaultConfigFileName), []byte(`{"verbose": true}`), 0o644))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, path, err := Load("", nested, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, DefaultConfigFileName), path)
	assert.True(t, cfg.Verbose)
}

func TestLinterConfigRuleLevelFallsBackToRecommended(t *testing.T) {
	l := LinterConfig{
		Enabled: true,
		Rules: map[string]any{
			"recommended": true,
			"safety": map[string]any{
				"addSerialColumn": "off",
			},
		},
	}
	level, _ := l.RuleLevel("safety", "addSerialColumn")
	assert.Equal(t, "off", level)

	level, _ = l.RuleLevel("safety", "disallowUniqueConstraint")
	assert.Equal(t, "warn", level)

	level, _ = l.RuleLevel("unknownGroup", "whatever")
	assert.Equal(t, "warn", level)
}

func TestDBConfigDSNPrefersConnectionString(t *testing.T) {
	db := DBConfig{ConnectionString: "postgres://x", Host: "ignored"}
	assert.Equal(t, "postgres://x", db.DSN())

	db = DBConfig{Host: "localhost", Port: 5432, Database: "app", Username: "u"}
	assert.Equal(t, "host=localhost port=5432 dbname=app user=u", db.DSN())
}
