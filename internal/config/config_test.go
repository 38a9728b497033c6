package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	content := `site:
  title: My Study Notes
  source: notes
  output: public
check:
  languages: [ts, tsx]
ai:
  model: gemini-2.0-flash
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "My Study Notes", cfg.Site.Title)
	assert.Equal(t, "public", cfg.Site.Output)
	assert.Equal(t, []string{"ts", "tsx"}, cfg.Check.Languages)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "Notes", cfg.Site.Title)
	assert.Equal(t, "notes", cfg.Site.Source)
	assert.Equal(t, "_site", cfg.Site.Output)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("NOTESMITH_API_KEY", "secret")
	t.Setenv("NOTESMITH_SOURCE", "elsewhere")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.AI.APIKey)
	assert.Equal(t, "elsewhere", cfg.Site.Source)
}
