package mech

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/autonolas-community/mechctl/internal/chains"
	"github.com/autonolas-community/mechctl/internal/config"
	"github.com/autonolas-community/mechctl/internal/logger"
	"github.com/autonolas-community/mechctl/internal/metadata"
	"github.com/autonolas-community/mechctl/internal/safe"
)

const agentFactoryABI = `[
	{
		"name": "create",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "serviceMultisig", "type": "address"},
			{"name": "hash", "type": "bytes32"},
			{"name": "price", "type": "uint256"},
			{"name": "mechMarketplace", "type": "address"}
		],
		"outputs": [{"name": "mech", "type": "address"}]
	},
	{
		"name": "CreateMech",
		"type": "event",
		"anonymous": false,
		"inputs": [
			{"name": "mech", "type": "address", "indexed": true},
			{"name": "agentId", "type": "uint256", "indexed": true},
			{"name": "price", "type": "uint256", "indexed": false}
		]
	}
]`

var (
	factoryParseOnce sync.Once
	factoryABIParsed abi.ABI
	factoryParseErr  error
)

func factoryABI() (abi.ABI, error) {
	factoryParseOnce.Do(func() {
		factoryABIParsed, factoryParseErr = abi.JSON(strings.NewReader(agentFactoryABI))
	})
	return factoryABIParsed, factoryParseErr
}

// RequestPrice is the fixed price a requester pays per mech task, 0.01 of
// the native token.
var RequestPrice = chains.WeiFromMilliEther(10)

// Executor submits a call through the master safe.
type Executor interface {
	Exec(ctx context.Context, to common.Address, value *big.Int, data []byte, op safe.Operation) (*types.Receipt, error)
}

// Factory performs the one-time on-chain creation of the mech agent
// contract. Creation is a non-repeatable action: once the local config
// carries an agent id the step is permanently skipped.
type Factory struct {
	contracts chains.ContractAddresses
	exec      Executor
	log       logger.Logger
}

// NewFactory returns the agent factory step for one chain.
func NewFactory(contracts chains.ContractAddresses, exec Executor, log logger.Logger) *Factory {
	return &Factory{contracts: contracts, exec: exec, log: log}
}

// Deploy creates the mech contract for the service multisig and persists
// the emitted mech address and agent id into the local config. A config
// with agent_id already set is returned untouched.
func (f *Factory) Deploy(ctx context.Context, cfg *config.LocalConfig, multisig common.Address) error {
	if cfg.AgentID != nil {
		f.log.Debug("Mech already created, skipping", zap.Int64("agent_id", *cfg.AgentID))
		return nil
	}

	f.log.Section("Creating a new Mech On Chain")

	digest, err := metadata.DecodeHexCID(cfg.MetadataHash)
	if err != nil {
		return err
	}

	parsed, err := factoryABI()
	if err != nil {
		return err
	}
	data, err := parsed.Pack("create", multisig, digest, RequestPrice, f.contracts.MechMarketplace)
	if err != nil {
		return fmt.Errorf("failed to pack mech creation: %w", err)
	}

	receipt, err := f.exec.Exec(ctx, f.contracts.AgentFactory, big.NewInt(0), data, safe.Call)
	if err != nil {
		return err
	}

	mechAddr, agentID, err := parseCreateMech(receipt)
	if err != nil {
		return err
	}
	f.log.Info("Mech created",
		zap.String("mech_address", mechAddr.Hex()),
		zap.Int64("agent_id", agentID),
	)

	cfg.MechAddress = mechAddr.Hex()
	cfg.AgentID = &agentID
	return cfg.Store()
}

// parseCreateMech scans the receipt for the factory's CreateMech event.
func parseCreateMech(receipt *types.Receipt) (common.Address, int64, error) {
	parsed, err := factoryABI()
	if err != nil {
		return common.Address{}, 0, err
	}
	event := parsed.Events["CreateMech"]

	for _, log := range receipt.Logs {
		if len(log.Topics) < 3 || log.Topics[0] != event.ID {
			continue
		}
		mechAddr := common.BytesToAddress(log.Topics[1].Bytes())
		agentID := new(big.Int).SetBytes(log.Topics[2].Bytes())
		return mechAddr, agentID.Int64(), nil
	}
	return common.Address{}, 0, fmt.Errorf("transaction %s emitted no CreateMech event", receipt.TxHash.Hex())
}
