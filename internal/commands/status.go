package commands

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/autonolas-community/mechctl/internal/chains"
	"github.com/autonolas-community/mechctl/internal/config"
	"github.com/autonolas-community/mechctl/internal/output"
	"github.com/autonolas-community/mechctl/internal/service"
	"github.com/autonolas-community/mechctl/internal/wallet"
)

func statusAction(c *cli.Context) error {
	log := GetLogger(c)

	home, err := config.OperateHome()
	if err != nil {
		return err
	}
	cfg, err := config.LoadLocalConfig(home)
	if err != nil {
		return err
	}
	if !cfg.Exists() {
		fmt.Println("No local configuration found. Run 'mechctl run' first.")
		return nil
	}

	rows := [][]string{}
	if cfg.HomeChainID != nil {
		rows = append(rows, []string{"Home chain id", fmt.Sprintf("%d", *cfg.HomeChainID)})
	}
	rows = append(rows,
		[]string{"RPC", cfg.RPC},
		[]string{"Mech hash", cfg.MechHash},
		[]string{"Metadata hash", cfg.MetadataHash},
		[]string{"Mech address", cfg.MechAddress},
	)
	if cfg.AgentID != nil {
		rows = append(rows, []string{"Agent id", fmt.Sprintf("%d", *cfg.AgentID)})
	}
	if cfg.UseStaking != nil {
		rows = append(rows, []string{"Staking", fmt.Sprintf("%t", *cfg.UseStaking)})
	}

	if mw, err := wallet.ReadRecord(config.WalletsDir(home)); err == nil {
		rows = append(rows, []string{"Master wallet", mw.Address})
		for _, chain := range chains.Supported() {
			if safeAddr, ok := mw.Safe(chain); ok {
				rows = append(rows, []string{fmt.Sprintf("Master safe (%s)", chain), safeAddr.Hex()})
			}
		}
	}

	manager, err := service.NewManager(config.ServicesDir(home), log)
	if err != nil {
		return err
	}
	services, err := manager.List()
	if err != nil {
		return err
	}
	for _, svc := range services {
		rows = append(rows, []string{"Service hash", svc.Hash})
		if chainCfg, err := svc.HomeChainConfig(); err == nil {
			rows = append(rows,
				[]string{"Service id", fmt.Sprintf("%d", chainCfg.ChainData.ServiceID)},
				[]string{"Service multisig", chainCfg.ChainData.Multisig},
				[]string{"Staked", fmt.Sprintf("%t", chainCfg.ChainData.Staked)},
			)
		}
	}

	output.PrintStatusTable(os.Stdout, rows)
	return nil
}
