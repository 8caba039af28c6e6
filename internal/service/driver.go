package service

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/autonolas-community/mechctl/internal/chains"
	"github.com/autonolas-community/mechctl/internal/funding"
	"github.com/autonolas-community/mechctl/internal/logger"
)

// Balances supplies account balance reads for the funding gates.
type Balances interface {
	Native(ctx context.Context, account common.Address) (*big.Int, error)
	Token(ctx context.Context, token, account common.Address) (*big.Int, error)
}

// Wallet is the master wallet surface the driver needs: its address, the
// safe registered for a chain, and native transfers out of the EOA.
type Wallet interface {
	EOA() common.Address
	Safe(chain chains.ChainType) (common.Address, bool)
	Transfer(ctx context.Context, to common.Address, amount *big.Int) error
}

// SafeDeployer creates the master safe for a chain and records it on the
// wallet.
type SafeDeployer interface {
	Create(ctx context.Context, chain chains.ChainType) (common.Address, error)
}

// Registry is the on-chain service registry surface.
type Registry interface {
	State(ctx context.Context, serviceID uint64) (OnChainState, error)
	EnsureDeployed(ctx context.Context, svc *Service, chainID string, fallback chains.StakingParams) error
}

// Driver executes the per-chain deployment sequence: strictly ordered,
// balance-gated steps that are safe to re-run after partial completion.
// Every wait blocks until chain state changes; cancelling the context is
// the only way to abort a funding gate.
type Driver struct {
	balances Balances
	wallet   Wallet
	safes    SafeDeployer
	registry Registry
	log      logger.Logger
	poll     time.Duration
}

// NewDriver wires a deployment driver. A zero poll interval falls back to
// the default one-second cadence.
func NewDriver(balances Balances, wallet Wallet, safes SafeDeployer, registry Registry, log logger.Logger, poll time.Duration) *Driver {
	if poll <= 0 {
		poll = funding.DefaultPollInterval
	}
	return &Driver{
		balances: balances,
		wallet:   wallet,
		safes:    safes,
		registry: registry,
		log:      log,
		poll:     poll,
	}
}

// Run provisions the service on every configured chain, one chain at a
// time in ascending chain id order.
func (d *Driver) Run(ctx context.Context, svc *Service) error {
	chainIDs := make([]string, 0, len(svc.ChainConfigs))
	for chainID := range svc.ChainConfigs {
		chainIDs = append(chainIDs, chainID)
	}
	sort.Strings(chainIDs)

	for _, chainID := range chainIDs {
		if err := d.runChain(ctx, svc, chainID); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) runChain(ctx context.Context, svc *Service, chainID string) error {
	cfg := svc.ChainConfigs[chainID]
	chain, err := chains.FromID(cfg.LedgerConfig.Chain)
	if err != nil {
		return err
	}
	meta, err := chains.MetadataFor(chain)
	if err != nil {
		return err
	}

	state, err := d.registry.State(ctx, cfg.ChainData.ServiceID)
	if err != nil {
		return err
	}
	serviceExists := state != NonExistent

	if err := d.waitWalletFunds(ctx, chain, meta); err != nil {
		return err
	}

	safeAddr, err := d.ensureSafe(ctx, chain)
	if err != nil {
		return err
	}

	d.log.Section(fmt.Sprintf("[%s] Set up the service in the Olas Protocol", meta.Name))

	if !serviceExists {
		if err := d.fundSafe(ctx, meta, safeAddr); err != nil {
			return err
		}
	}

	if cfg.ChainData.UserParams.UseStaking && !serviceExists {
		if err := d.waitStakingBond(ctx, meta, safeAddr); err != nil {
			return err
		}
	}

	if err := d.registry.EnsureDeployed(ctx, svc, chainID, meta.Staking); err != nil {
		return err
	}

	// EnsureDeployed recorded the service multisig; refresh our view.
	cfg = svc.ChainConfigs[chainID]
	return d.fundService(ctx, meta, cfg)
}

// waitWalletFunds blocks until the master wallet can pay for the next
// stage. Without a safe the wallet must also cover safe creation, so the
// higher first-time threshold applies.
func (d *Driver) waitWalletFunds(ctx context.Context, chain chains.ChainType, meta chains.Metadata) error {
	eoa := d.wallet.EOA()
	balance, err := d.balances.Native(ctx, eoa)
	if err != nil {
		return err
	}
	d.log.Info(fmt.Sprintf("[%s] Main wallet balance: %s", meta.Name, chains.FormatWei(balance, meta.Token)))

	required := meta.OperationalFundReq
	if _, ok := d.wallet.Safe(chain); !ok {
		required = meta.FirstTimeTopUp
	}
	d.log.Info(fmt.Sprintf(
		"[%s] Please make sure main wallet %s has at least %s",
		meta.Name, eoa.Hex(), chains.FormatWei(required, meta.Token),
	))

	balance, err = funding.WaitForFunds(ctx, func() (*big.Int, error) {
		return d.balances.Native(ctx, eoa)
	}, required, d.poll)
	if err != nil {
		return err
	}
	d.log.Info(fmt.Sprintf("[%s] Main wallet updated balance: %s", meta.Name, chains.FormatWei(balance, meta.Token)))
	return nil
}

func (d *Driver) ensureSafe(ctx context.Context, chain chains.ChainType) (common.Address, error) {
	if addr, ok := d.wallet.Safe(chain); ok {
		return addr, nil
	}
	d.log.Info(fmt.Sprintf("[%s] Creating Safe", chain))
	return d.safes.Create(ctx, chain)
}

// fundSafe tops the master safe up to the first-time threshold. The loop
// re-checks the balance before every transfer, so partially landed
// transfers never cause over-funding once the threshold is crossed.
func (d *Driver) fundSafe(ctx context.Context, meta chains.Metadata, safeAddr common.Address) error {
	d.log.Info(fmt.Sprintf(
		"[%s] Please make sure master safe address %s has at least %s",
		meta.Name, safeAddr.Hex(), chains.FormatWei(meta.FirstTimeTopUp, meta.Token),
	))

	for {
		balance, err := d.balances.Native(ctx, safeAddr)
		if err != nil {
			return err
		}
		if balance.Cmp(meta.FirstTimeTopUp) >= 0 {
			d.log.Info(fmt.Sprintf("[%s] Safe updated balance: %s", meta.Name, chains.FormatWei(balance, meta.Token)))
			return nil
		}

		d.log.Info(fmt.Sprintf("[%s] Funding Safe", meta.Name))
		if err := d.wallet.Transfer(ctx, safeAddr, meta.FirstTimeTopUp); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.poll):
		}
	}
}

// waitStakingBond blocks until the safe holds enough of the staking token
// to cover the staking deposit plus the agent bond, so the staking
// transaction cannot revert on allowance.
func (d *Driver) waitStakingBond(ctx context.Context, meta chains.Metadata, safeAddr common.Address) error {
	required := new(big.Int).Add(chains.CostOfStaking, chains.CostOfBondStaking)
	token := meta.Contracts.OLASToken

	d.log.Info(fmt.Sprintf(
		"[%s] Please make sure address %s has at least %s",
		meta.Name, safeAddr.Hex(), chains.FormatWei(required, "OLAS"),
	))

	balance, err := funding.WaitForFunds(ctx, func() (*big.Int, error) {
		return d.balances.Token(ctx, token, safeAddr)
	}, required, d.poll)
	if err != nil {
		return err
	}
	d.log.Info(fmt.Sprintf("[%s] Safe updated balance: %s", meta.Name, chains.FormatWei(balance, "OLAS")))
	return nil
}

// fundService tops the service multisig up to its steady-state threshold.
func (d *Driver) fundService(ctx context.Context, meta chains.Metadata, cfg ChainConfig) error {
	if cfg.ChainData.Multisig == "" {
		return fmt.Errorf("service has no multisig recorded after deployment")
	}
	target := cfg.ChainData.UserParams.FundRequirements.Safe
	if target == nil {
		target = meta.SafeTopUp
	}

	multisig := common.HexToAddress(cfg.ChainData.Multisig)
	balance, err := d.balances.Native(ctx, multisig)
	if err != nil {
		return err
	}
	if balance.Cmp(target) >= 0 {
		return nil
	}

	topup := new(big.Int).Sub(target, balance)
	d.log.Info(fmt.Sprintf(
		"[%s] Funding service safe %s with %s",
		meta.Name, multisig.Hex(), chains.FormatWei(topup, meta.Token),
	))
	return d.wallet.Transfer(ctx, multisig, topup)
}
