// Package chainio wraps the ledger RPC endpoint: balance queries, fee
// estimation, and transaction submission for a single configured chain.
package chainio

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/autonolas-community/mechctl/internal/chains"
	"github.com/autonolas-community/mechctl/internal/logger"
)

// Client is a ledger RPC client bound to one chain.
type Client struct {
	eth     *ethclient.Client
	chain   chains.ChainType
	chainID *big.Int
	rpcURL  string
	log     logger.Logger
}

// Dial connects to the RPC endpoint and verifies it serves the expected
// chain id.
func Dial(ctx context.Context, rpcURL string, chain chains.ChainType, log logger.Logger) (*Client, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("RPC URL is required")
	}

	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	if chainID.Uint64() != chain.ID() {
		eth.Close()
		return nil, fmt.Errorf("RPC endpoint serves chain %d, expected %d", chainID.Uint64(), chain.ID())
	}

	log.Debug("Connected to RPC endpoint",
		zap.String("chain", chain.String()),
		zap.Uint64("chainId", chainID.Uint64()),
	)

	return &Client{
		eth:     eth,
		chain:   chain,
		chainID: chainID,
		rpcURL:  rpcURL,
		log:     log,
	}, nil
}

// Chain returns the chain the client is bound to.
func (c *Client) Chain() chains.ChainType {
	return c.chain
}

// ChainID returns the confirmed chain id.
func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// Eth exposes the underlying ethclient for contract binding.
func (c *Client) Eth() *ethclient.Client {
	return c.eth
}

// Balance returns the native token balance of an account.
func (c *Client) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := c.eth.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance of %s: %w", account.Hex(), err)
	}
	return balance, nil
}

// ERC20Balance returns an account's balance of an ERC-20 token.
func (c *Client) ERC20Balance(ctx context.Context, token, account common.Address) (*big.Int, error) {
	contract, err := NewERC20(token, c.eth)
	if err != nil {
		return nil, err
	}

	var out []interface{}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", account); err != nil {
		return nil, fmt.Errorf("failed to query token balance: %w", err)
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf return type")
	}
	return balance, nil
}

// WaitMined blocks until the transaction is included and returns an error
// when it reverted.
func (c *Client) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for transaction %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return nil, fmt.Errorf("transaction %s reverted", tx.Hash().Hex())
	}
	return receipt, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}
