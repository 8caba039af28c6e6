package service

import (
	"fmt"

	"github.com/autonolas-community/mechctl/internal/chains"
	"github.com/autonolas-community/mechctl/internal/config"
)

const (
	serviceName        = "mech"
	serviceDescription = "The mech executes AI tasks requested on-chain and delivers the results to the requester."
	serviceVersion     = "v0.1.0"
	serviceImage       = "https://gateway.autonolas.tech/ipfs/bafybeidzpenez565d7vp7jexfrwisa2wijzx6vwcffli57buznyyqkrceq"
	serviceNFT         = "bafybeiaakdeconw7j5z76fgghfdjmsr6tzejotxcwnvmp3nroaw3glgyve"

	stakingProgramID = "mech_marketplace"
)

// NewTemplate derives the service template from the local config. The
// template is regenerated on every invocation and never stored; its content
// hash is the identity the manager reconciles against.
func NewTemplate(cfg *config.LocalConfig) (*ServiceTemplate, error) {
	if cfg.HomeChainID == nil {
		return nil, fmt.Errorf("local config field %q is required", "home_chain_id")
	}
	chain, err := chains.FromID(*cfg.HomeChainID)
	if err != nil {
		return nil, err
	}
	meta, err := chains.MetadataFor(chain)
	if err != nil {
		return nil, err
	}

	useStaking := true
	if cfg.UseStaking != nil {
		useStaking = *cfg.UseStaking
	}

	chainID := fmt.Sprintf("%d", *cfg.HomeChainID)
	return &ServiceTemplate{
		Name:           serviceName,
		Hash:           cfg.MechHash,
		Description:    serviceDescription,
		Image:          serviceImage,
		ServiceVersion: serviceVersion,
		HomeChainID:    chainID,
		Configurations: map[string]ConfigurationTemplate{
			chainID: {
				StakingProgramID: stakingProgramID,
				RPC:              cfg.RPC,
				NFT:              serviceNFT,
				CostOfBond:       chains.CostOfBond,
				Threshold:        1,
				UseStaking:       useStaking,
				FundRequirements: FundRequirements{
					Agent: meta.AgentTopUp,
					Safe:  meta.SafeTopUp,
				},
			},
		},
	}, nil
}
