package mech

import (
	"fmt"

	"github.com/autonolas-community/mechctl/internal/config"
)

// Config is the per-mech runtime configuration handed to the worker.
type Config struct {
	UseDynamicPricing bool `json:"use_dynamic_pricing"`
	IsMarketplaceMech bool `json:"is_marketplace_mech"`
}

// ToConfig maps the deployed mech address to its runtime configuration.
func ToConfig(cfg *config.LocalConfig) (map[string]Config, error) {
	if cfg.MechAddress == "" {
		return nil, fmt.Errorf("local config has no mech address recorded")
	}
	return map[string]Config{
		cfg.MechAddress: {
			UseDynamicPricing: false,
			IsMarketplaceMech: true,
		},
	}, nil
}
