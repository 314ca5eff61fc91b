package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func flagsFor(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("todos", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultServerURL, cfg.Server.URL)
	assert.Zero(t, cfg.Server.Timeout)
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, 1000, cfg.Journal.MaxEntries)
	assert.True(t, cfg.UI.ConfirmClear)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Empty(t, cfg.File)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  url: http://localhost:3000/todos
  timeout: 5s
ui:
  confirm_clear: false
journal:
  enabled: false
  max_entries: 50
logging:
  level: debug
`)

	cfg, err := Load(flagsFor(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/todos", cfg.Server.URL)
	assert.Equal(t, 5*time.Second, cfg.Server.Timeout)
	assert.False(t, cfg.UI.ConfirmClear)
	assert.Equal(t, 50, cfg.Journal.MaxEntries)
	assert.False(t, cfg.Journal.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, path, cfg.File)
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, "server:\n  url: http://file.example/todos\n")

	t.Run("EnvOverridesFile", func(t *testing.T) {
		t.Setenv("TODOS_SERVER_URL", "http://env.example/todos")
		cfg, err := Load(flagsFor(t, "--config", path))
		require.NoError(t, err)
		assert.Equal(t, "http://env.example/todos", cfg.Server.URL)
	})

	t.Run("FlagOverridesEnv", func(t *testing.T) {
		t.Setenv("TODOS_SERVER_URL", "http://env.example/todos")
		cfg, err := Load(flagsFor(t, "--config", path, "--server-url", "http://flag.example/todos"))
		require.NoError(t, err)
		assert.Equal(t, "http://flag.example/todos", cfg.Server.URL)
	})
}

func TestLoadErrors(t *testing.T) {
	t.Run("MissingExplicitFile", func(t *testing.T) {
		_, err := Load(flagsFor(t, "--config", filepath.Join(t.TempDir(), "nope.yaml")))
		assert.Error(t, err)
	})

	t.Run("InvalidURL", func(t *testing.T) {
		path := writeConfig(t, "server:\n  url: not-a-url\n")
		_, err := Load(flagsFor(t, "--config", path))
		assert.ErrorContains(t, err, "invalid server url")
	})

	t.Run("ZeroJournalEntries", func(t *testing.T) {
		path := writeConfig(t, "journal:\n  max_entries: 0\n")
		_, err := Load(flagsFor(t, "--config", path))
		assert.ErrorContains(t, err, "max_entries")
	})
}

func TestSaveConfigRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.URL = "http://saved.example/todos"
	cfg.Server.Timeout = 3 * time.Second
	cfg.Journal.Enabled = false
	cfg.Journal.MaxEntries = 25

	path, err := SaveConfig(cfg, filepath.Join(t.TempDir(), "sub", "config.yaml"))
	require.NoError(t, err)

	loaded, err := Load(flagsFor(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, cfg.Server, loaded.Server)
	assert.False(t, loaded.Journal.Enabled)
	assert.Equal(t, 25, loaded.Journal.MaxEntries)
}
