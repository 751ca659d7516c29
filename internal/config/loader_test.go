package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rulesession.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoaderLoad(t *testing.T) {
	t.Run("defaults when file is missing", func(t *testing.T) {
		cfg, err := NewLoader(filepath.Join(t.TempDir(), "missing.json")).Load()
		require.NoError(t, err)
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, "realtime", cfg.Session.Clock)
		assert.NotEmpty(t, cfg.DataDir)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := writeConfig(t, `{
			"logging": {"level": "debug"},
			"session": {"clock": "pseudo", "entry_points": ["orders"]},
			"audit": {"enabled": true, "types": ["object_inserted"]},
			"data_dir": "/var/lib/rulesession"
		}`)

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.True(t, cfg.Logging.Redaction)
		assert.Equal(t, "pseudo", cfg.Session.Clock)
		assert.Equal(t, []string{"orders"}, cfg.Session.EntryPoints)
		assert.Equal(t, []string{"object_inserted"}, cfg.Audit.Types)
		assert.Equal(t, filepath.Join("/var/lib/rulesession", "audit.db"), cfg.Audit.Path)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := writeConfig(t, `{"logging": {"level": "debug"}}`)
		t.Setenv("RULESESSION_LOGGING_LEVEL", "warn")
		t.Setenv("RULESESSION_SESSION_CLOCK", "pseudo")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.Equal(t, "pseudo", cfg.Session.Clock)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := Load(writeConfig(t, "invalid json"))
		assert.Error(t, err)
	})
}

func TestLoaderSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rulesession.json")
	cfg := DefaultConfig()
	cfg.Session.Clock = "pseudo"
	cfg.Audit.Types = []string{"after_match_fired"}
	cfg.DataDir = t.TempDir()

	require.NoError(t, NewLoader(path).Save(cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pseudo", loaded.Session.Clock)
	assert.Equal(t, []string{"after_match_fired"}, loaded.Audit.Types)
	assert.Equal(t, cfg.DataDir, loaded.DataDir)
}

func TestLoaderGetConfigPath(t *testing.T) {
	assert.Equal(t, "/custom/rulesession.json", NewLoader("/custom/rulesession.json").GetConfigPath())

	path := NewLoader("").GetConfigPath()
	assert.Contains(t, path, ".rulesession")
}
