package safe

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/autonolas-community/mechctl/internal/chainio"
)

// TxBuilder submits transactions through a safe on behalf of its single
// EOA owner. Because the owner is also the sender of execTransaction, the
// safe accepts a pre-validated signature and no off-chain signing round is
// needed.
type TxBuilder struct {
	client *chainio.Client
	safe   common.Address
	key    *ecdsa.PrivateKey
}

// NewTxBuilder returns a transaction builder for the given safe.
func NewTxBuilder(client *chainio.Client, safeAddr common.Address, key *ecdsa.PrivateKey) *TxBuilder {
	return &TxBuilder{client: client, safe: safeAddr, key: key}
}

// Address returns the safe address the builder submits through.
func (b *TxBuilder) Address() common.Address {
	return b.safe
}

// Exec wraps a call in execTransaction and submits it from the owner EOA.
func (b *TxBuilder) Exec(ctx context.Context, to common.Address, value *big.Int, data []byte, op Operation) (*types.Receipt, error) {
	_, gnosis, err := parsedABIs()
	if err != nil {
		return nil, err
	}

	owner := crypto.PubkeyToAddress(b.key.PublicKey)
	callData, err := gnosis.Pack("execTransaction",
		to,
		value,
		data,
		uint8(op),
		big.NewInt(0),
		big.NewInt(0),
		big.NewInt(0),
		common.Address{},
		common.Address{},
		preValidatedSignature(owner),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to pack safe transaction: %w", err)
	}

	receipt, err := b.client.Submit(ctx, b.key, b.safe, big.NewInt(0), callData)
	if err != nil {
		return nil, fmt.Errorf("safe transaction failed: %w", err)
	}
	return receipt, nil
}

// TransferNative moves native funds out of the safe.
func (b *TxBuilder) TransferNative(ctx context.Context, to common.Address, amount *big.Int) error {
	_, err := b.Exec(ctx, to, amount, nil, Call)
	return err
}

// TransferERC20 moves token funds out of the safe.
func (b *TxBuilder) TransferERC20(ctx context.Context, token, to common.Address, amount *big.Int) error {
	data, err := chainio.ERC20TransferData(to, amount)
	if err != nil {
		return err
	}
	_, err = b.Exec(ctx, token, big.NewInt(0), data, Call)
	return err
}

// ApproveERC20 grants a spender allowance from the safe, used for the
// staking deposit.
func (b *TxBuilder) ApproveERC20(ctx context.Context, token, spender common.Address, amount *big.Int) error {
	data, err := chainio.ERC20ApproveData(spender, amount)
	if err != nil {
		return err
	}
	_, err = b.Exec(ctx, token, big.NewInt(0), data, Call)
	return err
}

// preValidatedSignature encodes the v=1 scheme the safe accepts when the
// listed owner is the execTransaction sender: r carries the owner address,
// s is unused.
func preValidatedSignature(owner common.Address) []byte {
	sig := make([]byte, 65)
	copy(sig[12:32], owner.Bytes())
	sig[64] = 1
	return sig
}
