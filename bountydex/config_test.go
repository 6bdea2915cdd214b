package bountydex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[db]
host = "localhost"
port = 5432
user = "bounty"
password = "secret"
database = "bountydex"
pool_size = 10

[source]
base_url = "https://example.com/feed"
category_id = 42

[prices]
dir = "/var/lib/bountydex/prices"

[web]
host = "0.0.0.0"
port = 9090
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, 10, cfg.DB.PoolSize)
	assert.Equal(t, "https://example.com/feed", cfg.Source.BaseURL)
	assert.Equal(t, 42, cfg.Source.CategoryID)
	assert.Equal(t, "/var/lib/bountydex/prices", cfg.Prices.Dir)
	assert.Equal(t, 9090, cfg.Web.Port)
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
[db]
host = "localhost"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://tcgcsv.com/tcgplayer", cfg.Source.BaseURL)
	assert.Equal(t, 68, cfg.Source.CategoryID)
	assert.Equal(t, "prices", cfg.Prices.Dir)
	assert.Equal(t, 8080, cfg.Web.Port)
	assert.False(t, cfg.Spaces.Enabled)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("no/such/config.toml")
	assert.Error(t, err)
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	path := writeConfig(t, "[db\nhost=")
	_, err := LoadConfig(path)
	assert.Error(t, err)
}
