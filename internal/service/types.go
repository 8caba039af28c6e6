package service

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/autonolas-community/mechctl/internal/chains"
)

// OnChainState is the registry contract's lifecycle state for a service.
// It is always read from the chain and never mutated locally.
type OnChainState uint8

const (
	NonExistent OnChainState = iota
	PreRegistration
	ActiveRegistration
	Funded
	Deployed
	Terminated
	Unbonded
)

func (s OnChainState) String() string {
	switch s {
	case NonExistent:
		return "NON_EXISTENT"
	case PreRegistration:
		return "PRE_REGISTRATION"
	case ActiveRegistration:
		return "ACTIVE_REGISTRATION"
	case Funded:
		return "FUNDED"
	case Deployed:
		return "DEPLOYED"
	case Terminated:
		return "TERMINATED"
	case Unbonded:
		return "UNBONDED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(s))
	}
}

// FundRequirements holds the per-role steady-state funding targets in wei.
type FundRequirements struct {
	Agent *big.Int `json:"agent"`
	Safe  *big.Int `json:"safe"`
}

// ConfigurationTemplate is the per-chain slice of a service template.
type ConfigurationTemplate struct {
	StakingProgramID string           `json:"staking_program_id"`
	RPC              string           `json:"rpc"`
	NFT              string           `json:"nft"`
	CostOfBond       *big.Int         `json:"cost_of_bond"`
	Threshold        uint32           `json:"threshold"`
	UseStaking       bool             `json:"use_staking"`
	FundRequirements FundRequirements `json:"fund_requirements"`
}

// ServiceTemplate is a derived, non-persisted descriptor regenerated from
// the local config on every run. Its content hash is the sole identity used
// to reconcile against the tracked service record.
type ServiceTemplate struct {
	Name           string                           `json:"name"`
	Hash           string                           `json:"hash"`
	Description    string                           `json:"description"`
	Image          string                           `json:"image"`
	ServiceVersion string                           `json:"service_version"`
	HomeChainID    string                           `json:"home_chain_id"`
	Configurations map[string]ConfigurationTemplate `json:"configurations"`
}

// LedgerConfig holds the connection parameters for a chain.
type LedgerConfig struct {
	RPC   string `json:"rpc"`
	Chain uint64 `json:"chain"`
}

// ChainData is the mutable on-chain deployment record for one chain. It
// advances as the deployment driver moves the service through registry
// states.
type ChainData struct {
	// ServiceID is the registry token id, zero until the service is minted.
	ServiceID uint64 `json:"token"`

	// Multisig is the service safe address once deployed.
	Multisig string `json:"multisig"`

	Staked     bool                  `json:"staked"`
	UserParams ConfigurationTemplate `json:"user_params"`
}

// ChainConfig pairs ledger connection parameters with the deployment data
// for a single chain.
type ChainConfig struct {
	LedgerConfig LedgerConfig `json:"ledger_config"`
	ChainData    ChainData    `json:"chain_data"`
}

// ServiceKey is an agent instance key generated when the service record is
// created; the address is registered on chain as the agent instance.
type ServiceKey struct {
	Address    string `json:"address"`
	PrivateKey string `json:"private_key"`
}

// Service is the persisted record tracking one logical service definition,
// keyed by its template content hash.
type Service struct {
	path string

	Hash           string                 `json:"hash"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	Image          string                 `json:"image"`
	ServiceVersion string                 `json:"service_version"`
	HomeChainID    string                 `json:"home_chain_id"`
	Keys           []ServiceKey           `json:"keys"`
	ChainConfigs   map[string]ChainConfig `json:"chain_configs"`
}

// AgentInstance returns the address of the service's agent instance key.
func (s *Service) AgentInstance() (common.Address, error) {
	if len(s.Keys) == 0 {
		return common.Address{}, fmt.Errorf("service %s has no agent keys", s.Hash)
	}
	return common.HexToAddress(s.Keys[0].Address), nil
}

// HomeChain resolves the service's home chain type.
func (s *Service) HomeChain() (chains.ChainType, error) {
	var id uint64
	if _, err := fmt.Sscanf(s.HomeChainID, "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid home chain id %q: %w", s.HomeChainID, err)
	}
	return chains.FromID(id)
}

// HomeChainConfig returns the chain config for the home chain.
func (s *Service) HomeChainConfig() (*ChainConfig, error) {
	cfg, ok := s.ChainConfigs[s.HomeChainID]
	if !ok {
		return nil, fmt.Errorf("service %s has no configuration for home chain %s", s.Hash, s.HomeChainID)
	}
	return &cfg, nil
}

// SetChainConfig stores an updated chain config back on the service record.
// The caller still has to Store the service for the change to persist.
func (s *Service) SetChainConfig(chainID string, cfg ChainConfig) {
	if s.ChainConfigs == nil {
		s.ChainConfigs = map[string]ChainConfig{}
	}
	s.ChainConfigs[chainID] = cfg
}

func newServiceKey() (ServiceKey, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return ServiceKey{}, fmt.Errorf("failed to generate agent key: %w", err)
	}
	return ServiceKey{
		Address:    crypto.PubkeyToAddress(key.PublicKey).Hex(),
		PrivateKey: hex.EncodeToString(crypto.FromECDSA(key)),
	}, nil
}

func newFromTemplate(template *ServiceTemplate, path string) *Service {
	svc := &Service{
		path:           path,
		Hash:           template.Hash,
		Name:           template.Name,
		Description:    template.Description,
		Image:          template.Image,
		ServiceVersion: template.ServiceVersion,
		HomeChainID:    template.HomeChainID,
		ChainConfigs:   map[string]ChainConfig{},
	}
	for chainID, cfg := range template.Configurations {
		svc.ChainConfigs[chainID] = ChainConfig{
			LedgerConfig: LedgerConfig{RPC: cfg.RPC, Chain: mustParseChainID(chainID)},
			ChainData:    ChainData{UserParams: cfg},
		}
	}
	return svc
}

func mustParseChainID(chainID string) uint64 {
	var id uint64
	fmt.Sscanf(chainID, "%d", &id)
	return id
}
