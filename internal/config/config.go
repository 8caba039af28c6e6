package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultHomeDirName is the operate home created next to the caller's
	// working directory; all persisted state lives under it.
	DefaultHomeDirName = ".mechctl"

	localConfigFile = "local_config.json"
	userAccountFile = "user.json"
	walletsDirName  = "wallets"
	servicesDirName = "services"
)

// LocalConfig is the persisted operator configuration. Every field is
// optional on disk: fields are filled incrementally across runs and a field,
// once set, is never prompted for again.
type LocalConfig struct {
	path string

	HomeChainID         *uint64           `json:"home_chain_id,omitempty"`
	RPC                 string            `json:"rpc,omitempty"`
	PasswordMigrated    *bool             `json:"password_migrated,omitempty"`
	UseStaking          *bool             `json:"use_staking,omitempty"`
	APIKeysPath         string            `json:"api_keys_path,omitempty"`
	MetadataHash        string            `json:"metadata_hash,omitempty"`
	MechHash            string            `json:"mech_hash,omitempty"`
	ToolsToPackagesHash map[string]string `json:"tools_to_packages_hash,omitempty"`

	// MechToSubscription maps a mech address to its subscription NFT
	// parameters, handed through to the worker verbatim.
	MechToSubscription map[string]map[string]string `json:"mech_to_subscription,omitempty"`

	AgentID     *int64 `json:"agent_id,omitempty"`
	MechAddress string `json:"mech_address,omitempty"`
}

// fieldSpec is the explicit schema for the persisted document: which keys
// may appear and which of them must be set before a deployment run. This
// replaces any type-introspection based optionality handling.
type fieldSpec struct {
	key            string
	requiredForRun bool
}

var localConfigSchema = []fieldSpec{
	{key: "home_chain_id", requiredForRun: true},
	{key: "rpc", requiredForRun: true},
	{key: "password_migrated", requiredForRun: false},
	{key: "use_staking", requiredForRun: false},
	{key: "api_keys_path", requiredForRun: true},
	{key: "metadata_hash", requiredForRun: true},
	{key: "mech_hash", requiredForRun: true},
	{key: "tools_to_packages_hash", requiredForRun: false},
	{key: "mech_to_subscription", requiredForRun: false},
	{key: "agent_id", requiredForRun: false},
	{key: "mech_address", requiredForRun: false},
}

// OperateHome resolves the operate home directory, creating it if absent.
func OperateHome() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	home := filepath.Join(cwd, DefaultHomeDirName)
	if err := os.MkdirAll(home, 0o755); err != nil {
		return "", fmt.Errorf("failed to create operate home: %w", err)
	}
	return home, nil
}

// LocalConfigPath returns the path of the persisted config inside home.
func LocalConfigPath(home string) string {
	return filepath.Join(home, localConfigFile)
}

// UserAccountPath returns the path of the user account record inside home.
func UserAccountPath(home string) string {
	return filepath.Join(home, userAccountFile)
}

// WalletsDir returns the wallet storage directory inside home.
func WalletsDir(home string) string {
	return filepath.Join(home, walletsDirName)
}

// ServicesDir returns the service storage directory inside home.
func ServicesDir(home string) string {
	return filepath.Join(home, servicesDirName)
}

// LoadLocalConfig reads the persisted config, returning an empty record
// bound to the path when the file does not exist yet.
func LoadLocalConfig(home string) (*LocalConfig, error) {
	path := LocalConfigPath(home)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &LocalConfig{path: path}, nil
		}
		return nil, fmt.Errorf("failed to read local config: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse local config: %w", err)
	}
	for key := range raw {
		if !knownConfigKey(key) {
			return nil, fmt.Errorf("local config contains unknown key %q", key)
		}
	}

	cfg := &LocalConfig{path: path}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse local config: %w", err)
	}
	return cfg, nil
}

func knownConfigKey(key string) bool {
	for _, spec := range localConfigSchema {
		if spec.key == key {
			return true
		}
	}
	return false
}

// Store writes the config back to disk atomically.
func (c *LocalConfig) Store() error {
	if c.path == "" {
		return fmt.Errorf("local config has no path bound")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal local config: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write local config: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("failed to write local config: %w", err)
	}
	return nil
}

// Path returns the on-disk location of the config.
func (c *LocalConfig) Path() string {
	return c.path
}

// Exists reports whether the config file is already present on disk.
func (c *LocalConfig) Exists() bool {
	if c.path == "" {
		return false
	}
	_, err := os.Stat(c.path)
	return err == nil
}

// ValidateForRun checks the explicit schema: every field the deployment
// run depends on must be set. The error names the first missing key.
func (c *LocalConfig) ValidateForRun() error {
	set := map[string]bool{
		"home_chain_id":          c.HomeChainID != nil,
		"rpc":                    c.RPC != "",
		"password_migrated":      c.PasswordMigrated != nil,
		"use_staking":            c.UseStaking != nil,
		"api_keys_path":          c.APIKeysPath != "",
		"metadata_hash":          c.MetadataHash != "",
		"mech_hash":              c.MechHash != "",
		"tools_to_packages_hash": c.ToolsToPackagesHash != nil,
		"mech_to_subscription":   c.MechToSubscription != nil,
		"agent_id":               c.AgentID != nil,
		"mech_address":           c.MechAddress != "",
	}
	for _, spec := range localConfigSchema {
		if spec.requiredForRun && !set[spec.key] {
			return fmt.Errorf("local config field %q is required", spec.key)
		}
	}
	return nil
}
