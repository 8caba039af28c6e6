// Package safe drives the operator's multisig: one-time proxy creation
// and the transaction builder every on-chain deployment step submits
// through.
package safe

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"math/rand"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/autonolas-community/mechctl/internal/chainio"
	"github.com/autonolas-community/mechctl/internal/chains"
	"github.com/autonolas-community/mechctl/internal/logger"
)

// Deployer creates single-owner safes through the chain's proxy factory.
type Deployer struct {
	client    *chainio.Client
	contracts chains.ContractAddresses
	log       logger.Logger
}

// NewDeployer returns a safe deployer for the client's chain.
func NewDeployer(client *chainio.Client, contracts chains.ContractAddresses, log logger.Logger) *Deployer {
	return &Deployer{client: client, contracts: contracts, log: log}
}

// Create deploys a 1-of-1 safe owned by the key's address and returns the
// proxy address along with the salt nonce used, so the same address can be
// reproduced on other chains.
func (d *Deployer) Create(ctx context.Context, key *ecdsa.PrivateKey, saltNonce *uint64) (common.Address, uint64, error) {
	factory, gnosis, err := parsedABIs()
	if err != nil {
		return common.Address{}, 0, err
	}

	owner := crypto.PubkeyToAddress(key.PublicKey)
	initializer, err := gnosis.Pack("setup",
		[]common.Address{owner},
		big.NewInt(1),
		common.Address{},
		[]byte{},
		common.Address{},
		common.Address{},
		big.NewInt(0),
		common.Address{},
	)
	if err != nil {
		return common.Address{}, 0, fmt.Errorf("failed to pack safe setup: %w", err)
	}

	nonce := uint64(rand.Int63())
	if saltNonce != nil {
		nonce = *saltNonce
	}

	data, err := factory.Pack("createProxyWithNonce",
		d.contracts.GnosisSafeSingleton,
		initializer,
		new(big.Int).SetUint64(nonce),
	)
	if err != nil {
		return common.Address{}, 0, fmt.Errorf("failed to pack proxy creation: %w", err)
	}

	receipt, err := d.client.Submit(ctx, key, d.contracts.GnosisSafeProxyFactory, big.NewInt(0), data)
	if err != nil {
		return common.Address{}, 0, fmt.Errorf("safe creation failed: %w", err)
	}

	proxy, err := parseProxyCreation(receipt)
	if err != nil {
		return common.Address{}, 0, err
	}

	d.log.Info("Safe created",
		zap.String("safe", proxy.Hex()),
		zap.String("owner", owner.Hex()),
	)
	return proxy, nonce, nil
}

func parseProxyCreation(receipt *types.Receipt) (common.Address, error) {
	factory, _, err := parsedABIs()
	if err != nil {
		return common.Address{}, err
	}
	event := factory.Events["ProxyCreation"]

	for _, log := range receipt.Logs {
		if len(log.Topics) == 0 || log.Topics[0] != event.ID {
			continue
		}
		values, err := event.Inputs.Unpack(log.Data)
		if err != nil {
			return common.Address{}, fmt.Errorf("failed to decode ProxyCreation event: %w", err)
		}
		proxy, ok := values[0].(common.Address)
		if !ok {
			return common.Address{}, fmt.Errorf("unexpected ProxyCreation payload")
		}
		return proxy, nil
	}
	return common.Address{}, fmt.Errorf("safe creation receipt carries no ProxyCreation event")
}
