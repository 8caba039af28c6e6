package commands

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/autonolas-community/mechctl/internal/account"
	"github.com/autonolas-community/mechctl/internal/chainio"
	"github.com/autonolas-community/mechctl/internal/chains"
	"github.com/autonolas-community/mechctl/internal/config"
	"github.com/autonolas-community/mechctl/internal/deployment"
	"github.com/autonolas-community/mechctl/internal/logger"
	"github.com/autonolas-community/mechctl/internal/mech"
	"github.com/autonolas-community/mechctl/internal/output"
	"github.com/autonolas-community/mechctl/internal/safe"
	"github.com/autonolas-community/mechctl/internal/service"
	"github.com/autonolas-community/mechctl/internal/wallet"
)

func runAction(c *cli.Context) error {
	ctx := c.Context
	log := GetLogger(c)
	prompter := output.NewPrompter()

	log.Title("Mech service setup")
	fmt.Println("This command will assist you in setting up and running the mech service.")

	home, err := config.OperateHome()
	if err != nil {
		return err
	}
	cfg, err := config.LoadLocalConfig(home)
	if err != nil {
		return err
	}
	if rpc := c.String("rpc"); rpc != "" {
		cfg.RPC = rpc
	}
	if err := ensureLocalConfig(ctx, cfg, home, prompter, log); err != nil {
		return err
	}
	if err := cfg.ValidateForRun(); err != nil {
		return err
	}

	password, err := ensureAccount(cfg, home, prompter, log)
	if err != nil {
		return err
	}

	mw, err := ensureWallet(home, password, prompter, log)
	if err != nil {
		return err
	}

	template, err := service.NewTemplate(cfg)
	if err != nil {
		return err
	}
	manager, err := service.NewManager(config.ServicesDir(home), log)
	if err != nil {
		return err
	}
	svc, _, err := manager.Reconcile(template)
	if err != nil {
		return err
	}

	chain, err := chains.FromID(*cfg.HomeChainID)
	if err != nil {
		return err
	}
	meta, err := chains.MetadataFor(chain)
	if err != nil {
		return err
	}

	client, err := chainio.Dial(ctx, cfg.RPC, chain, log)
	if err != nil {
		return err
	}
	defer client.Close()

	safeTx := func() (*safe.TxBuilder, error) {
		addr, ok := mw.Safe(chain)
		if !ok {
			return nil, fmt.Errorf("no safe recorded for chain %s", chain)
		}
		return safe.NewTxBuilder(client, addr, mw.PrivateKey()), nil
	}
	registry := service.NewChainRegistry(client, meta.Contracts, safeTx, manager.Store, log)

	driver := service.NewDriver(
		chainBalances{client},
		masterWallet{mw, client},
		safeCreator{mw, safe.NewDeployer(client, meta.Contracts, log)},
		registry,
		log,
		0,
	)
	if err := driver.Run(ctx, svc); err != nil {
		return err
	}

	// The mech contract is created once the service multisig is known.
	homeCfg, err := svc.HomeChainConfig()
	if err != nil {
		return err
	}
	txb, err := safeTx()
	if err != nil {
		return err
	}
	factory := mech.NewFactory(meta.Contracts, txb, log)
	if err := factory.Deploy(ctx, cfg, common.HexToAddress(homeCfg.ChainData.Multisig)); err != nil {
		return err
	}

	return launch(ctx, cfg, svc, home, log)
}

// launch assembles the worker environment and starts the container.
func launch(ctx context.Context, cfg *config.LocalConfig, svc *service.Service, home string, log logger.Logger) error {
	apiKeys, err := config.LoadAPIKeys(home, cfg)
	if err != nil {
		return err
	}
	mechToConfig, err := mech.ToConfig(cfg)
	if err != nil {
		return err
	}
	env, err := deployment.BuildEnv(cfg, svc, apiKeys, mechToConfig)
	if err != nil {
		return err
	}

	dep := newDeployment(home, log)
	if err := dep.Build(ctx, imageTag(cfg.MechHash), env); err != nil {
		return err
	}
	if err := dep.Start(ctx); err != nil {
		return err
	}

	log.Section("Running the service")
	return nil
}

// imageTag shortens the mech package hash into a usable image tag.
func imageTag(mechHash string) string {
	tag := strings.TrimPrefix(mechHash, "bafybei")
	if len(tag) > 16 {
		tag = tag[:16]
	}
	if tag == "" {
		return "latest"
	}
	return tag
}

// ensureAccount creates the local user account on first run, or verifies
// the operator's password on subsequent runs.
func ensureAccount(cfg *config.LocalConfig, home string, prompter output.Prompter, log logger.Logger) (string, error) {
	log.Section("Set up local user account")

	path := config.UserAccountPath(home)
	if !account.Exists(path) {
		log.Info("Creating a new local user account...")
		password, err := prompter.NewSecret("Please enter a password:")
		if err != nil {
			return "", err
		}
		if _, err := account.New(password, path); err != nil {
			return "", err
		}
		migrated := true
		cfg.PasswordMigrated = &migrated
		if err := cfg.Store(); err != nil {
			return "", err
		}
		return password, nil
	}

	acct, err := account.Load(path)
	if err != nil {
		return "", err
	}
	if cfg.PasswordMigrated == nil || !*cfg.PasswordMigrated {
		return migratePassword(cfg, acct, home, prompter, log)
	}
	password, err := prompter.Secret("Please enter your password:")
	if err != nil {
		return "", err
	}
	if !acct.Verify(password) {
		return "", fmt.Errorf("invalid password")
	}
	return password, nil
}

// legacyPassword is the default password early installations shipped with.
const legacyPassword = "12345"

// migratePassword replaces the legacy default password with one chosen by
// the operator and re-encrypts the wallet keystore to match.
func migratePassword(cfg *config.LocalConfig, acct *account.UserAccount, home string, prompter output.Prompter, log logger.Logger) (string, error) {
	log.Info("Add password...")
	password, err := prompter.NewSecret("Please enter a new password:")
	if err != nil {
		return "", err
	}
	if err := acct.UpdatePassword(legacyPassword, password); err != nil {
		return "", err
	}
	if err := wallet.RotatePassword(config.WalletsDir(home), legacyPassword, password); err != nil {
		return "", err
	}
	migrated := true
	cfg.PasswordMigrated = &migrated
	if err := cfg.Store(); err != nil {
		return "", err
	}
	return password, nil
}

// ensureWallet creates the master wallet on first run, displaying the
// recovery phrase exactly once and requiring acknowledgment, or loads it
// from encrypted storage.
func ensureWallet(home, password string, prompter output.Prompter, log logger.Logger) (*wallet.MasterWallet, error) {
	manager, err := wallet.NewManager(config.WalletsDir(home), password)
	if err != nil {
		return nil, err
	}

	if manager.Exists() {
		return manager.Load()
	}

	log.Info("Creating the main wallet...")
	mw, mnemonic, err := manager.Create()
	if err != nil {
		return nil, err
	}

	fmt.Println()
	fmt.Println("Please save the mnemonic phrase for the main wallet:")
	fmt.Println(strings.Join(mnemonic, " "))
	fmt.Println()
	if err := prompter.Acknowledge("Press enter to continue..."); err != nil {
		return nil, err
	}
	return mw, nil
}

// chainBalances adapts the RPC client to the driver's balance reads.
type chainBalances struct {
	client *chainio.Client
}

func (b chainBalances) Native(ctx context.Context, account common.Address) (*big.Int, error) {
	return b.client.Balance(ctx, account)
}

func (b chainBalances) Token(ctx context.Context, token, account common.Address) (*big.Int, error) {
	return b.client.ERC20Balance(ctx, token, account)
}

// masterWallet adapts the master wallet to the driver's wallet surface.
type masterWallet struct {
	w      *wallet.MasterWallet
	client *chainio.Client
}

func (m masterWallet) EOA() common.Address {
	return m.w.EOA()
}

func (m masterWallet) Safe(chain chains.ChainType) (common.Address, bool) {
	return m.w.Safe(chain)
}

func (m masterWallet) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	return m.w.Transfer(ctx, m.client, to, amount)
}

// safeCreator deploys the master safe and records it on the wallet.
type safeCreator struct {
	w        *wallet.MasterWallet
	deployer *safe.Deployer
}

func (s safeCreator) Create(ctx context.Context, chain chains.ChainType) (common.Address, error) {
	addr, nonce, err := s.deployer.Create(ctx, s.w.PrivateKey(), s.w.SafeNonce)
	if err != nil {
		return common.Address{}, err
	}
	if err := s.w.RecordSafe(chain, addr, nonce); err != nil {
		return common.Address{}, err
	}
	return addr, nil
}
