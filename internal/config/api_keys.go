package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadAPIKeys reads the tool API key file referenced by the config. The
// document maps tool names to one or more keys; the mech worker rotates
// through them at request time.
func LoadAPIKeys(home string, cfg *LocalConfig) (map[string][]string, error) {
	if cfg.APIKeysPath == "" {
		return nil, fmt.Errorf("api keys path not configured")
	}

	path := cfg.APIKeysPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(home, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("api keys file not found at %s", cfg.APIKeysPath)
		}
		return nil, fmt.Errorf("failed to read api keys file: %w", err)
	}

	keys := make(map[string][]string)
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("api keys file contains invalid JSON: %w", err)
	}
	return keys, nil
}
