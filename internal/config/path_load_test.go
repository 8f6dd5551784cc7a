package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	t.Run("explicit wins", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
		path, err := ResolvePath("/etc/murmur.jsonc")
		require.NoError(t, err)
		require.Equal(t, "/etc/murmur.jsonc", path)
	})

	t.Run("xdg config home", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
		path, err := ResolvePath("")
		require.NoError(t, err)
		require.Equal(t, "/tmp/xdg/murmur/config.jsonc", path)
	})

	t.Run("home fallback", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("HOME", "/tmp/home")
		path, err := ResolvePath("")
		require.NoError(t, err)
		require.Equal(t, "/tmp/home/.config/murmur/config.jsonc", path)
	})
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("MURMUR_API_KEY", "")
	path := filepath.Join(t.TempDir(), "missing.jsonc")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.False(t, loaded.Exists)
	require.Equal(t, path, loaded.Path)
	require.Equal(t, Default(), loaded.Config)
	require.Len(t, loaded.Warnings, 1)
	require.Contains(t, loaded.Warnings[0].Message, "not found")
}

func TestLoadParsesFile(t *testing.T) {
	t.Setenv("MURMUR_API_KEY", "")
	path := filepath.Join(t.TempDir(), "config.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "speech": {"language": "de"},
  "shortcuts": {"hold": "F8"},
}`), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, "de", loaded.Config.Speech.Language)
	require.Equal(t, "F8", loaded.Config.Shortcuts.Hold)
	require.Equal(t, "Super+Shift+D", loaded.Config.Shortcuts.Toggle)
}

func TestLoadAppliesAPIKeyFromEnvironment(t *testing.T) {
	t.Setenv("MURMUR_API_KEY", "sk-env")
	path := filepath.Join(t.TempDir(), "config.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"correction": {"enable": true, "provider": "openai", "model": "gpt-4o-mini", "api_key": "sk-file"}}`), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "sk-env", loaded.Config.Correction.APIKey)
}

func TestLoadReportsParseErrorsWithPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"speech": {"model": }}`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), path)
}
