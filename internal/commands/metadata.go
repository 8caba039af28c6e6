package commands

import (
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/autonolas-community/mechctl/internal/config"
	"github.com/autonolas-community/mechctl/internal/metadata"
	"github.com/autonolas-community/mechctl/internal/output"
)

const defaultMetadataPath = "./.metadata_hash.json"

func metadataAction(c *cli.Context) error {
	ctx := c.Context
	log := GetLogger(c)
	prompter := output.NewPrompter()

	log.Title("Metadata hash setup")

	home, err := config.OperateHome()
	if err != nil {
		return err
	}
	cfg, err := config.LoadLocalConfig(home)
	if err != nil {
		return err
	}

	path, err := prompter.Input("Please provide the path to your metadata_hash.json file", defaultMetadataPath)
	if err != nil {
		return err
	}
	if _, err := metadata.Load(path); err != nil {
		return err
	}

	apiURL := c.String("ipfs-api")
	if apiURL == "" {
		apiURL = metadata.DefaultIPFSAPI
	}
	hash, err := metadata.Pin(ctx, apiURL, path)
	if err != nil {
		return err
	}

	cfg.MetadataHash = hash
	if err := cfg.Store(); err != nil {
		return err
	}

	log.Info("Metadata hash generated and stored in config", zap.String("hash", hash))
	return nil
}
