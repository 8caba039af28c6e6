package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/autonolas-community/mechctl/internal/chainio"
	"github.com/autonolas-community/mechctl/internal/chains"
	"github.com/autonolas-community/mechctl/internal/config"
	"github.com/autonolas-community/mechctl/internal/logger"
	"github.com/autonolas-community/mechctl/internal/output"
)

const (
	defaultMechHash     = "bafybeiceat2qaz7bqrpgobj3qiubjqyzehydexku2qhe6ob4w2woaehunq"
	defaultMetadataHash = "f01701220caa53607238e340da63b296acab232c18a48e954f0af6ff2b835b2d93f1962f0"
	defaultAPIKeysPath  = "../.api_keys.json"
)

// ensureLocalConfig fills the unset local config fields interactively and
// persists the result. Fields that are already set are never prompted for
// again.
func ensureLocalConfig(ctx context.Context, cfg *config.LocalConfig, home string, p output.Prompter, log logger.Logger) error {
	log.Section("Local configuration")

	if cfg.HomeChainID == nil {
		fmt.Println("Select the chain for your service")
		chain, err := output.ChooseChain(p, chains.Supported())
		if err != nil {
			return err
		}
		id := chain.ID()
		cfg.HomeChainID = &id
	}

	chain, err := chains.FromID(*cfg.HomeChainID)
	if err != nil {
		return err
	}

	if cfg.RPC == "" {
		rpc, err := p.Input(fmt.Sprintf("Please enter a %s RPC URL:", chain), "")
		if err != nil {
			return err
		}
		log.Info("Checking RPC...")
		if err := chainio.CheckRPC(ctx, rpc); err != nil {
			return err
		}
		log.Info("RPC checks passed.")
		cfg.RPC = rpc
	}

	if cfg.MechHash == "" {
		set, err := p.Confirm(fmt.Sprintf("Do you want to set the mech hash (default %s)?", defaultMechHash))
		if err != nil {
			return err
		}
		cfg.MechHash = defaultMechHash
		if set {
			if cfg.MechHash, err = p.Input("Please enter the mech hash:", defaultMechHash); err != nil {
				return err
			}
		}
	}

	if cfg.PasswordMigrated == nil {
		migrated := false
		cfg.PasswordMigrated = &migrated
	}

	if cfg.UseStaking == nil {
		useStaking := true
		cfg.UseStaking = &useStaking
	}

	if cfg.APIKeysPath == "" {
		path, err := p.Input("Please provide the path to your api_keys.json file", defaultAPIKeysPath)
		if err != nil {
			return err
		}
		cfg.APIKeysPath = path
	}
	if _, err := config.LoadAPIKeys(home, cfg); err != nil {
		return err
	}

	if cfg.MetadataHash == "" {
		hash, err := p.Input("Please provide the metadata hash", defaultMetadataHash)
		if err != nil {
			return err
		}
		cfg.MetadataHash = hash
	}

	if cfg.ToolsToPackagesHash == nil {
		set, err := p.Confirm("Do you want to set the tools to packages hash map?")
		if err != nil {
			return err
		}
		if set {
			tools, err := promptToolsMap(p)
			if err != nil {
				return err
			}
			cfg.ToolsToPackagesHash = tools
		}
	}

	if cfg.MechToSubscription == nil {
		set, err := p.Confirm("Do you want to set the mech to subscription map?")
		if err != nil {
			return err
		}
		if set {
			subscriptions, err := promptSubscriptionMap(p)
			if err != nil {
				return err
			}
			cfg.MechToSubscription = subscriptions
		}
	}

	if err := cfg.Store(); err != nil {
		return err
	}
	log.Debug("Local config stored", zap.String("path", cfg.Path()))
	return nil
}

// promptToolsMap reads a JSON object mapping tool names to package hashes,
// with a bounded number of attempts.
func promptToolsMap(p output.Prompter) (map[string]string, error) {
	for attempt := 0; attempt < output.MaxSelectAttempts; attempt++ {
		raw, err := p.Input("Please enter the tools to packages hash map as JSON:", "{}")
		if err != nil {
			return nil, err
		}
		var tools map[string]string
		if err := json.Unmarshal([]byte(raw), &tools); err != nil {
			fmt.Println("Error: Please enter a valid JSON object.")
			continue
		}
		return tools, nil
	}
	return nil, fmt.Errorf("no valid tools map entered after %d attempts", output.MaxSelectAttempts)
}

// promptSubscriptionMap reads a JSON object mapping mech addresses to their
// subscription NFT parameters, with a bounded number of attempts.
func promptSubscriptionMap(p output.Prompter) (map[string]map[string]string, error) {
	for attempt := 0; attempt < output.MaxSelectAttempts; attempt++ {
		raw, err := p.Input("Please enter the mech to subscription map as JSON:", "{}")
		if err != nil {
			return nil, err
		}
		var subscriptions map[string]map[string]string
		if err := json.Unmarshal([]byte(raw), &subscriptions); err != nil {
			fmt.Println("Error: Please enter a valid JSON object.")
			continue
		}
		return subscriptions, nil
	}
	return nil, fmt.Errorf("no valid subscription map entered after %d attempts", output.MaxSelectAttempts)
}
