package service

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/autonolas-community/mechctl/internal/chainio"
	"github.com/autonolas-community/mechctl/internal/chains"
	"github.com/autonolas-community/mechctl/internal/logger"
	"github.com/autonolas-community/mechctl/internal/metadata"
	"github.com/autonolas-community/mechctl/internal/safe"
)

const serviceRegistryABI = `[
	{
		"name": "getService",
		"type": "function",
		"stateMutability": "view",
		"inputs": [{"name": "serviceId", "type": "uint256"}],
		"outputs": [{
			"name": "service",
			"type": "tuple",
			"components": [
				{"name": "securityDeposit", "type": "uint96"},
				{"name": "multisig", "type": "address"},
				{"name": "configHash", "type": "bytes32"},
				{"name": "threshold", "type": "uint32"},
				{"name": "maxNumAgentInstances", "type": "uint32"},
				{"name": "numAgentInstances", "type": "uint32"},
				{"name": "state", "type": "uint8"},
				{"name": "agentIds", "type": "uint32[]"}
			]
		}]
	},
	{
		"name": "totalSupply",
		"type": "function",
		"stateMutability": "view",
		"inputs": [],
		"outputs": [{"name": "", "type": "uint256"}]
	},
	{
		"name": "approve",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "spender", "type": "address"},
			{"name": "id", "type": "uint256"}
		],
		"outputs": []
	}
]`

const serviceManagerABI = `[
	{
		"name": "create",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "serviceOwner", "type": "address"},
			{"name": "token", "type": "address"},
			{"name": "configHash", "type": "bytes32"},
			{"name": "agentIds", "type": "uint32[]"},
			{"name": "agentParams", "type": "tuple[]", "components": [
				{"name": "slots", "type": "uint32"},
				{"name": "bond", "type": "uint96"}
			]},
			{"name": "threshold", "type": "uint32"}
		],
		"outputs": [{"name": "serviceId", "type": "uint256"}]
	},
	{
		"name": "activateRegistration",
		"type": "function",
		"stateMutability": "payable",
		"inputs": [{"name": "serviceId", "type": "uint256"}],
		"outputs": [{"name": "success", "type": "bool"}]
	},
	{
		"name": "registerAgents",
		"type": "function",
		"stateMutability": "payable",
		"inputs": [
			{"name": "serviceId", "type": "uint256"},
			{"name": "agentInstances", "type": "address[]"},
			{"name": "agentIds", "type": "uint32[]"}
		],
		"outputs": [{"name": "success", "type": "bool"}]
	},
	{
		"name": "deploy",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "serviceId", "type": "uint256"},
			{"name": "multisigImplementation", "type": "address"},
			{"name": "data", "type": "bytes"}
		],
		"outputs": [{"name": "multisig", "type": "address"}]
	}
]`

const stakingABI = `[
	{
		"name": "stake",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [{"name": "serviceId", "type": "uint256"}],
		"outputs": []
	}
]`

var (
	registryParseOnce sync.Once
	registryABIParsed abi.ABI
	managerABIParsed  abi.ABI
	stakingABIParsed  abi.ABI
	registryParseErr  error
)

func registryABIs() (registry, manager, staking abi.ABI, err error) {
	registryParseOnce.Do(func() {
		registryABIParsed, registryParseErr = abi.JSON(strings.NewReader(serviceRegistryABI))
		if registryParseErr != nil {
			return
		}
		managerABIParsed, registryParseErr = abi.JSON(strings.NewReader(serviceManagerABI))
		if registryParseErr != nil {
			return
		}
		stakingABIParsed, registryParseErr = abi.JSON(strings.NewReader(stakingABI))
	})
	return registryABIParsed, managerABIParsed, stakingABIParsed, registryParseErr
}

// registryService mirrors the registry contract's service record.
type registryService struct {
	SecurityDeposit      *big.Int
	Multisig             common.Address
	ConfigHash           [32]byte
	Threshold            uint32
	MaxNumAgentInstances uint32
	NumAgentInstances    uint32
	State                uint8
	AgentIds             []uint32
}

type agentParams struct {
	Slots uint32
	Bond  *big.Int
}

// etherDeposit is the native value sent alongside token-secured
// registration calls; the actual deposit is pulled in the staking token.
var etherDeposit = big.NewInt(1)

// StoreFunc persists a service record after a completed state transition.
type StoreFunc func(*Service) error

// TxProvider resolves the master safe's transaction builder. It is a
// function because the safe may only come into existence partway through a
// run.
type TxProvider func() (*safe.TxBuilder, error)

// ChainRegistry drives the on-chain service registry through the safe's
// transaction builder. All state transitions are submitted as safe
// transactions since the safe is the service owner.
type ChainRegistry struct {
	client    *chainio.Client
	contracts chains.ContractAddresses
	safeTx    TxProvider
	store     StoreFunc
	log       logger.Logger
}

// NewChainRegistry returns a registry client for one chain.
func NewChainRegistry(client *chainio.Client, contracts chains.ContractAddresses, safeTx TxProvider, store StoreFunc, log logger.Logger) *ChainRegistry {
	return &ChainRegistry{client: client, contracts: contracts, safeTx: safeTx, store: store, log: log}
}

// State queries the registry lifecycle state of a service. A zero service
// id means the service was never minted.
func (r *ChainRegistry) State(ctx context.Context, serviceID uint64) (OnChainState, error) {
	if serviceID == 0 {
		return NonExistent, nil
	}
	info, err := r.getService(ctx, serviceID)
	if err != nil {
		return NonExistent, err
	}
	return OnChainState(info.State), nil
}

func (r *ChainRegistry) getService(ctx context.Context, serviceID uint64) (*registryService, error) {
	regABI, _, _, err := registryABIs()
	if err != nil {
		return nil, err
	}
	contract := bind.NewBoundContract(r.contracts.ServiceRegistry, regABI, r.client.Eth(), r.client.Eth(), r.client.Eth())

	var out []interface{}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "getService", new(big.Int).SetUint64(serviceID)); err != nil {
		return nil, fmt.Errorf("failed to query service %d: %w", serviceID, err)
	}
	info := abi.ConvertType(out[0], new(registryService)).(*registryService)
	return info, nil
}

func (r *ChainRegistry) totalSupply(ctx context.Context) (uint64, error) {
	regABI, _, _, err := registryABIs()
	if err != nil {
		return 0, err
	}
	contract := bind.NewBoundContract(r.contracts.ServiceRegistry, regABI, r.client.Eth(), r.client.Eth(), r.client.Eth())

	var out []interface{}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "totalSupply"); err != nil {
		return 0, fmt.Errorf("failed to query registry supply: %w", err)
	}
	supply := abi.ConvertType(out[0], new(big.Int)).(*big.Int)
	return supply.Uint64(), nil
}

// EnsureDeployed walks the service through the registry lifecycle until it
// reaches DEPLOYED (and staked, when staking is enabled). Progress is
// persisted after every completed transition so an aborted run resumes
// from the last reached state.
func (r *ChainRegistry) EnsureDeployed(ctx context.Context, svc *Service, chainID string, fallback chains.StakingParams) error {
	cfg, ok := svc.ChainConfigs[chainID]
	if !ok {
		return fmt.Errorf("service %s has no configuration for chain %s", svc.Hash, chainID)
	}
	params := cfg.ChainData.UserParams

	for {
		state, err := r.State(ctx, cfg.ChainData.ServiceID)
		if err != nil {
			return err
		}
		r.log.Debug("Registry state", zap.Uint64("service_id", cfg.ChainData.ServiceID), zap.Stringer("state", state))

		switch state {
		case NonExistent:
			serviceID, err := r.mint(ctx, svc, params, fallback)
			if err != nil {
				return err
			}
			cfg.ChainData.ServiceID = serviceID

		case PreRegistration:
			if err := r.activate(ctx, cfg.ChainData.ServiceID, params); err != nil {
				return err
			}

		case ActiveRegistration:
			if err := r.registerAgents(ctx, svc, cfg.ChainData.ServiceID, params, fallback); err != nil {
				return err
			}

		case Funded:
			multisig, err := r.deploy(ctx, cfg.ChainData.ServiceID, cfg.ChainData.Multisig)
			if err != nil {
				return err
			}
			cfg.ChainData.Multisig = multisig.Hex()

		case Deployed:
			if params.UseStaking && !cfg.ChainData.Staked {
				if err := r.stake(ctx, cfg.ChainData.ServiceID, fallback); err != nil {
					return err
				}
				cfg.ChainData.Staked = true
				svc.SetChainConfig(chainID, cfg)
				return r.store(svc)
			}
			svc.SetChainConfig(chainID, cfg)
			return r.store(svc)

		default:
			return fmt.Errorf("service %d is in state %s; resolve it manually before re-running", cfg.ChainData.ServiceID, state)
		}

		svc.SetChainConfig(chainID, cfg)
		if err := r.store(svc); err != nil {
			return err
		}
	}
}

// mint registers the service record on chain and returns its new id.
func (r *ChainRegistry) mint(ctx context.Context, svc *Service, params ConfigurationTemplate, fallback chains.StakingParams) (uint64, error) {
	_, mgrABI, _, err := registryABIs()
	if err != nil {
		return 0, err
	}
	txb, err := r.safeTx()
	if err != nil {
		return 0, err
	}

	configHash, err := metadata.ContentDigest(svc.Hash)
	if err != nil {
		return 0, err
	}

	token := common.Address{}
	bond := params.CostOfBond
	if params.UseStaking {
		token = r.contracts.OLASToken
		bond = chains.CostOfBondStaking

		// The token utility pulls both the security deposit and the
		// agent bond from the safe during registration.
		allowance := new(big.Int).Add(fallback.MinStakingDeposit, bond)
		if err := txb.ApproveERC20(ctx, token, r.contracts.ServiceRegistryTokenUtility, allowance); err != nil {
			return 0, fmt.Errorf("failed to approve staking token: %w", err)
		}
	}

	r.log.Info("Minting service", zap.String("hash", svc.Hash))
	data, err := mgrABI.Pack("create",
		txb.Address(),
		token,
		configHash,
		fallback.AgentIDs,
		[]agentParams{{Slots: 1, Bond: bond}},
		params.Threshold,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to pack service creation: %w", err)
	}
	if _, err := txb.Exec(ctx, r.contracts.ServiceManagerToken, big.NewInt(0), data, safe.Call); err != nil {
		return 0, err
	}

	// Service ids are minted sequentially, the newest one is ours.
	return r.totalSupply(ctx)
}

func (r *ChainRegistry) activate(ctx context.Context, serviceID uint64, params ConfigurationTemplate) error {
	_, mgrABI, _, err := registryABIs()
	if err != nil {
		return err
	}

	txb, err := r.safeTx()
	if err != nil {
		return err
	}

	r.log.Info("Activating registration", zap.Uint64("service_id", serviceID))
	data, err := mgrABI.Pack("activateRegistration", new(big.Int).SetUint64(serviceID))
	if err != nil {
		return fmt.Errorf("failed to pack registration activation: %w", err)
	}

	value := params.CostOfBond
	if params.UseStaking {
		value = etherDeposit
	}
	_, err = txb.Exec(ctx, r.contracts.ServiceManagerToken, value, data, safe.Call)
	return err
}

func (r *ChainRegistry) registerAgents(ctx context.Context, svc *Service, serviceID uint64, params ConfigurationTemplate, fallback chains.StakingParams) error {
	_, mgrABI, _, err := registryABIs()
	if err != nil {
		return err
	}

	txb, err := r.safeTx()
	if err != nil {
		return err
	}

	instance, err := svc.AgentInstance()
	if err != nil {
		return err
	}

	r.log.Info("Registering agent instance",
		zap.Uint64("service_id", serviceID),
		zap.String("instance", instance.Hex()),
	)
	data, err := mgrABI.Pack("registerAgents",
		new(big.Int).SetUint64(serviceID),
		[]common.Address{instance},
		fallback.AgentIDs,
	)
	if err != nil {
		return fmt.Errorf("failed to pack agent registration: %w", err)
	}

	value := params.CostOfBond
	if params.UseStaking {
		value = etherDeposit
	}
	_, err = txb.Exec(ctx, r.contracts.ServiceManagerToken, value, data, safe.Call)
	return err
}

// deploy finalizes the service and creates (or rebinds) its multisig. A
// service that already had a multisig before a migration is redeployed to
// the same address.
func (r *ChainRegistry) deploy(ctx context.Context, serviceID uint64, existingMultisig string) (common.Address, error) {
	_, mgrABI, _, err := registryABIs()
	if err != nil {
		return common.Address{}, err
	}
	txb, err := r.safeTx()
	if err != nil {
		return common.Address{}, err
	}

	implementation := r.contracts.GnosisSafeMultisig
	var payload []byte
	if existingMultisig != "" {
		implementation = r.contracts.GnosisSafeMultisigSameAddr
		payload = common.HexToAddress(existingMultisig).Bytes()
	}

	r.log.Info("Deploying service", zap.Uint64("service_id", serviceID))
	data, err := mgrABI.Pack("deploy", new(big.Int).SetUint64(serviceID), implementation, payload)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to pack service deployment: %w", err)
	}
	if _, err := txb.Exec(ctx, r.contracts.ServiceManagerToken, big.NewInt(0), data, safe.Call); err != nil {
		return common.Address{}, err
	}

	info, err := r.getService(ctx, serviceID)
	if err != nil {
		return common.Address{}, err
	}
	return info.Multisig, nil
}

// stake locks the service NFT into the staking program.
func (r *ChainRegistry) stake(ctx context.Context, serviceID uint64, fallback chains.StakingParams) error {
	regABI, _, stkABI, err := registryABIs()
	if err != nil {
		return err
	}
	txb, err := r.safeTx()
	if err != nil {
		return err
	}

	r.log.Info("Staking service", zap.Uint64("service_id", serviceID))
	approve, err := regABI.Pack("approve", fallback.StakingToken, new(big.Int).SetUint64(serviceID))
	if err != nil {
		return fmt.Errorf("failed to pack staking approval: %w", err)
	}
	if _, err := txb.Exec(ctx, r.contracts.ServiceRegistry, big.NewInt(0), approve, safe.Call); err != nil {
		return err
	}

	data, err := stkABI.Pack("stake", new(big.Int).SetUint64(serviceID))
	if err != nil {
		return fmt.Errorf("failed to pack staking call: %w", err)
	}
	_, err = txb.Exec(ctx, fallback.StakingToken, big.NewInt(0), data, safe.Call)
	return err
}
