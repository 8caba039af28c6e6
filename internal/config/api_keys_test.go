package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAPIKeys(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, "api_keys.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"openai":["sk-one","sk-two"]}`), 0o600))

	cfg := &LocalConfig{APIKeysPath: "api_keys.json"}
	keys, err := LoadAPIKeys(home, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"sk-one", "sk-two"}, keys["openai"])
}

func TestLoadAPIKeysAbsolutePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"openai":["sk"]}`), 0o600))

	cfg := &LocalConfig{APIKeysPath: path}
	keys, err := LoadAPIKeys(t.TempDir(), cfg)
	require.NoError(t, err)
	assert.Len(t, keys["openai"], 1)
}

func TestLoadAPIKeysErrors(t *testing.T) {
	t.Run("unconfigured path", func(t *testing.T) {
		_, err := LoadAPIKeys(t.TempDir(), &LocalConfig{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not configured")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadAPIKeys(t.TempDir(), &LocalConfig{APIKeysPath: "nope.json"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("invalid json", func(t *testing.T) {
		home := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(home, "k.json"), []byte("nope"), 0o600))
		_, err := LoadAPIKeys(home, &LocalConfig{APIKeysPath: "k.json"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid JSON")
	})
}
