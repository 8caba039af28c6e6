package deployment

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/autonolas-community/mechctl/internal/chains"
	"github.com/autonolas-community/mechctl/internal/config"
	"github.com/autonolas-community/mechctl/internal/mech"
	"github.com/autonolas-community/mechctl/internal/service"
)

const subgraphURL = "https://subgraph.autonolas.tech/subgraphs/name/autonolas-staging"

// BuildEnv assembles the environment map handed to the containerized
// worker. It is a pure function of already-validated local state; nothing
// here touches the process environment.
func BuildEnv(
	cfg *config.LocalConfig,
	svc *service.Service,
	apiKeys map[string][]string,
	mechToConfig map[string]mech.Config,
) (map[string]string, error) {
	homeChain, err := svc.HomeChain()
	if err != nil {
		return nil, err
	}
	meta, err := chains.MetadataFor(homeChain)
	if err != nil {
		return nil, err
	}
	homeCfg, err := svc.HomeChainConfig()
	if err != nil {
		return nil, err
	}
	if homeCfg.ChainData.Multisig == "" {
		return nil, fmt.Errorf("service has no multisig recorded for chain %s", svc.HomeChainID)
	}

	safes := map[string]string{}
	for chainID, chainCfg := range svc.ChainConfigs {
		var id uint64
		fmt.Sscanf(chainID, "%d", &id)
		chain, err := chains.FromID(id)
		if err != nil {
			return nil, err
		}
		safes[strings.ToLower(chain.String())] = chainCfg.ChainData.Multisig
	}

	env := map[string]string{
		"CUSTOM_CHAIN_RPC":               homeCfg.LedgerConfig.RPC,
		"OPEN_AUTONOMY_SUBGRAPH_URL":     subgraphURL,
		"ON_CHAIN_SERVICE_ID":            fmt.Sprintf("%d", homeCfg.ChainData.ServiceID),
		"RESET_PAUSE_DURATION":           "10",
		"MINIMUM_GAS_BALANCE":            "0.02",
		"DB_PATH":                        "/logs/mech.db",
		"STAKING_TOKEN_CONTRACT_ADDRESS": meta.Staking.StakingToken.Hex(),
	}

	jsonValues := map[string]interface{}{
		"SAFE_CONTRACT_ADDRESSES": safes,
		"API_KEYS":                apiKeys,
		"MECH_TO_CONFIG":          mechToConfig,
		"TOOLS_TO_PACKAGE_HASH":   cfg.ToolsToPackagesHash,
	}
	// An unset subscription map leaves the variable out entirely; the
	// worker falls back to its own default.
	if cfg.MechToSubscription != nil {
		jsonValues["MECH_TO_SUBSCRIPTION"] = cfg.MechToSubscription
	}

	for key, value := range jsonValues {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", key, err)
		}
		env[key] = string(encoded)
	}

	return env, nil
}
