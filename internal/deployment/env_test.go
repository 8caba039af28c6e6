package deployment

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autonolas-community/mechctl/internal/config"
	"github.com/autonolas-community/mechctl/internal/mech"
	"github.com/autonolas-community/mechctl/internal/service"
)

const testMultisig = "0x00000000000000000000000000000000000000aa"

func deployedService() *service.Service {
	return &service.Service{
		Hash:        "hash-a",
		HomeChainID: "100",
		ChainConfigs: map[string]service.ChainConfig{
			"100": {
				LedgerConfig: service.LedgerConfig{RPC: "http://localhost:8545", Chain: 100},
				ChainData: service.ChainData{
					ServiceID: 42,
					Multisig:  testMultisig,
				},
			},
		},
	}
}

func TestBuildEnv(t *testing.T) {
	cfg := &config.LocalConfig{
		ToolsToPackagesHash: map[string]string{"openai-gpt-4": "bafybeitool"},
	}
	apiKeys := map[string][]string{"openai": {"sk-one"}}
	mechToConfig := map[string]mech.Config{
		"0x00000000000000000000000000000000000000bb": {IsMarketplaceMech: true},
	}

	env, err := BuildEnv(cfg, deployedService(), apiKeys, mechToConfig)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8545", env["CUSTOM_CHAIN_RPC"])
	assert.Equal(t, "42", env["ON_CHAIN_SERVICE_ID"])
	assert.Equal(t, "10", env["RESET_PAUSE_DURATION"])
	assert.Equal(t, "0.02", env["MINIMUM_GAS_BALANCE"])
	assert.Equal(t, "/logs/mech.db", env["DB_PATH"])
	assert.NotEmpty(t, env["STAKING_TOKEN_CONTRACT_ADDRESS"])
	assert.NotEmpty(t, env["OPEN_AUTONOMY_SUBGRAPH_URL"])

	var safes map[string]string
	require.NoError(t, json.Unmarshal([]byte(env["SAFE_CONTRACT_ADDRESSES"]), &safes))
	assert.Equal(t, map[string]string{"gnosis": testMultisig}, safes)

	var keys map[string][]string
	require.NoError(t, json.Unmarshal([]byte(env["API_KEYS"]), &keys))
	assert.Equal(t, apiKeys, keys)

	var mechs map[string]mech.Config
	require.NoError(t, json.Unmarshal([]byte(env["MECH_TO_CONFIG"]), &mechs))
	assert.Equal(t, mechToConfig, mechs)

	var tools map[string]string
	require.NoError(t, json.Unmarshal([]byte(env["TOOLS_TO_PACKAGE_HASH"]), &tools))
	assert.Equal(t, cfg.ToolsToPackagesHash, tools)

	// No subscription map configured, so the variable stays out of the
	// environment rather than carrying a JSON null.
	_, ok := env["MECH_TO_SUBSCRIPTION"]
	assert.False(t, ok)
}

func TestBuildEnvIncludesSubscriptionMapWhenSet(t *testing.T) {
	cfg := &config.LocalConfig{
		MechToSubscription: map[string]map[string]string{
			"0x00000000000000000000000000000000000000bb": {
				"tokenAddress": "0x00000000000000000000000000000000000000cc",
				"tokenId":      "1",
			},
		},
	}

	env, err := BuildEnv(cfg, deployedService(), nil, nil)
	require.NoError(t, err)

	var subscriptions map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(env["MECH_TO_SUBSCRIPTION"]), &subscriptions))
	assert.Equal(t, cfg.MechToSubscription, subscriptions)
}

func TestBuildEnvRequiresMultisig(t *testing.T) {
	svc := deployedService()
	homeCfg := svc.ChainConfigs["100"]
	homeCfg.ChainData.Multisig = ""
	svc.ChainConfigs["100"] = homeCfg

	_, err := BuildEnv(&config.LocalConfig{}, svc, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no multisig recorded")
}

func TestBuildEnvRejectsUnknownHomeChain(t *testing.T) {
	svc := deployedService()
	svc.HomeChainID = "999"

	_, err := BuildEnv(&config.LocalConfig{}, svc, nil, nil)
	require.Error(t, err)
}
