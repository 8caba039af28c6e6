package commands

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/autonolas-community/mechctl/internal/config"
	"github.com/autonolas-community/mechctl/internal/deployment"
)

// newDeployment is replaced in tests to substitute the command runner.
var newDeployment = deployment.New

func stopAction(c *cli.Context) error {
	log := GetLogger(c)
	log.Title("Stop mech service")

	home, err := config.OperateHome()
	if err != nil {
		return err
	}
	cfg, err := config.LoadLocalConfig(home)
	if err != nil {
		return err
	}
	if !cfg.Exists() {
		fmt.Println("Nothing to clean. Exiting.")
		return nil
	}

	dep := newDeployment(home, log)
	if !dep.Exists() {
		fmt.Println("No deployment found. Exiting.")
		return nil
	}
	if err := dep.Stop(c.Context); err != nil {
		return err
	}

	log.Section("Service stopped")
	return nil
}
