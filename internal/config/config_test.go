package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeConfig(t *testing.T) *LocalConfig {
	t.Helper()
	cfg, err := LoadLocalConfig(t.TempDir())
	require.NoError(t, err)

	chainID := uint64(100)
	migrated := true
	staking := true
	cfg.HomeChainID = &chainID
	cfg.RPC = "http://localhost:8545"
	cfg.PasswordMigrated = &migrated
	cfg.UseStaking = &staking
	cfg.APIKeysPath = "../.api_keys.json"
	cfg.MetadataHash = "f01701220" + "00"
	cfg.MechHash = "bafybeitest"
	cfg.ToolsToPackagesHash = map[string]string{}
	return cfg
}

func TestLocalConfigRoundTrip(t *testing.T) {
	cfg := completeConfig(t)
	agentID := int64(9)
	cfg.AgentID = &agentID
	cfg.MechAddress = "0x00000000000000000000000000000000000000aa"
	cfg.MechToSubscription = map[string]map[string]string{
		cfg.MechAddress: {"tokenAddress": "0x01", "tokenId": "7"},
	}
	require.NoError(t, cfg.Store())

	loaded, err := LoadLocalConfig(t.TempDir())
	require.NoError(t, err)
	assert.False(t, loaded.Exists(), "a fresh home has no config yet")

	loaded, err = LoadLocalConfig(homeOf(cfg))
	require.NoError(t, err)
	assert.True(t, loaded.Exists())
	require.NotNil(t, loaded.HomeChainID)
	assert.Equal(t, uint64(100), *loaded.HomeChainID)
	assert.Equal(t, cfg.RPC, loaded.RPC)
	require.NotNil(t, loaded.AgentID)
	assert.Equal(t, int64(9), *loaded.AgentID)
	assert.Equal(t, cfg.MechAddress, loaded.MechAddress)
	assert.Equal(t, cfg.MechToSubscription, loaded.MechToSubscription)
}

func TestLoadLocalConfigRejectsUnknownKeys(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(LocalConfigPath(home), []byte(`{"rpc":"x","bogus_key":1}`), 0o600))

	_, err := LoadLocalConfig(home)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown key "bogus_key"`)
}

func TestLoadLocalConfigMissingFileIsEmpty(t *testing.T) {
	cfg, err := LoadLocalConfig(t.TempDir())
	require.NoError(t, err)
	assert.False(t, cfg.Exists())
	assert.Empty(t, cfg.RPC)
	assert.Nil(t, cfg.HomeChainID)
}

func TestValidateForRun(t *testing.T) {
	t.Run("complete config passes", func(t *testing.T) {
		require.NoError(t, completeConfig(t).ValidateForRun())
	})

	t.Run("names the first missing field", func(t *testing.T) {
		cfg := completeConfig(t)
		cfg.RPC = ""
		err := cfg.ValidateForRun()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"rpc" is required`)
	})

	t.Run("optional fields may stay unset", func(t *testing.T) {
		cfg := completeConfig(t)
		cfg.AgentID = nil
		cfg.MechAddress = ""
		cfg.ToolsToPackagesHash = nil
		require.NoError(t, cfg.ValidateForRun())
	})

	t.Run("metadata hash is required", func(t *testing.T) {
		cfg := completeConfig(t)
		cfg.MetadataHash = ""
		err := cfg.ValidateForRun()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"metadata_hash" is required`)
	})
}

func homeOf(cfg *LocalConfig) string {
	return filepath.Dir(cfg.Path())
}
