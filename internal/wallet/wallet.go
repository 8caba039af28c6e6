// Package wallet implements the operator's master wallet: a single
// keystore-encrypted key plus the per-chain safe addresses it controls.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	gethkeystore "github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/tyler-smith/go-bip39"

	"github.com/autonolas-community/mechctl/internal/chainio"
	"github.com/autonolas-community/mechctl/internal/chains"
)

const (
	recordFile   = "ethereum.json"
	keystoreFile = "ethereum.txt"
)

// MasterWallet owns the operator key. The key material is stored
// keystore-encrypted and unlocked with the account password; the record
// file tracks the derived address and the safes deployed per chain.
type MasterWallet struct {
	dir string
	key *ecdsa.PrivateKey

	Address   string            `json:"address"`
	Safes     map[string]string `json:"safes"`
	SafeNonce *uint64           `json:"safe_nonce,omitempty"`
}

// Manager creates and loads master wallets under the wallets directory.
type Manager struct {
	dir      string
	password string
}

// NewManager returns a wallet manager rooted at dir.
func NewManager(dir, password string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create wallets directory: %w", err)
	}
	return &Manager{dir: dir, password: password}, nil
}

// Exists reports whether a wallet has been created already.
func (m *Manager) Exists() bool {
	if _, err := os.Stat(filepath.Join(m.dir, recordFile)); err != nil {
		return false
	}
	if _, err := os.Stat(filepath.Join(m.dir, keystoreFile)); err != nil {
		return false
	}
	return true
}

// Create generates fresh key material, encrypts it with the manager's
// password, and returns the wallet along with the recovery phrase. The
// phrase is shown to the operator exactly once and never persisted.
func (m *Manager) Create() (*MasterWallet, []string, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate recovery phrase: %w", err)
	}

	key, err := deriveKey(mnemonic)
	if err != nil {
		return nil, nil, err
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, nil, err
	}
	encrypted, err := gethkeystore.EncryptKey(&gethkeystore.Key{
		Id:         id,
		Address:    crypto.PubkeyToAddress(key.PublicKey),
		PrivateKey: key,
	}, m.password, gethkeystore.StandardScryptN, gethkeystore.StandardScryptP)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encrypt key: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.dir, keystoreFile), encrypted, 0o600); err != nil {
		return nil, nil, fmt.Errorf("failed to write keystore: %w", err)
	}

	wallet := &MasterWallet{
		dir:     m.dir,
		key:     key,
		Address: crypto.PubkeyToAddress(key.PublicKey).Hex(),
		Safes:   make(map[string]string),
	}
	if err := wallet.Store(); err != nil {
		return nil, nil, err
	}
	return wallet, strings.Fields(mnemonic), nil
}

// deriveKey walks the standard Ethereum BIP-44 path m/44'/60'/0'/0/0 from
// the mnemonic, so the recovery phrase restores the same account in any
// standard wallet.
func deriveKey(mnemonic string) (*ecdsa.PrivateKey, error) {
	seed := bip39.NewSeed(mnemonic, "")
	node, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("failed to derive master key: %w", err)
	}
	for _, child := range []uint32{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + 60,
		hdkeychain.HardenedKeyStart + 0,
		0,
		0,
	} {
		if node, err = node.Derive(child); err != nil {
			return nil, fmt.Errorf("failed to derive account key: %w", err)
		}
	}
	priv, err := node.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("failed to derive account key: %w", err)
	}
	return priv.ToECDSA(), nil
}

// Load decrypts an existing wallet with the manager's password.
func (m *Manager) Load() (*MasterWallet, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, recordFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet record: %w", err)
	}
	wallet := &MasterWallet{dir: m.dir}
	if err := json.Unmarshal(data, wallet); err != nil {
		return nil, fmt.Errorf("failed to parse wallet record: %w", err)
	}
	if wallet.Safes == nil {
		wallet.Safes = make(map[string]string)
	}

	encrypted, err := os.ReadFile(filepath.Join(m.dir, keystoreFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore: %w", err)
	}
	key, err := gethkeystore.DecryptKey(encrypted, m.password)
	if err != nil {
		return nil, fmt.Errorf("failed to unlock wallet: %w", err)
	}
	wallet.key = key.PrivateKey

	if got := crypto.PubkeyToAddress(key.PrivateKey.PublicKey).Hex(); got != wallet.Address {
		return nil, fmt.Errorf("wallet record address %s does not match keystore %s", wallet.Address, got)
	}
	return wallet, nil
}

// RotatePassword re-encrypts the keystore under a new password. A missing
// keystore is not an error: the wallet may not have been created yet.
func RotatePassword(dir, oldPassword, newPassword string) error {
	path := filepath.Join(dir, keystoreFile)
	encrypted, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read keystore: %w", err)
	}
	key, err := gethkeystore.DecryptKey(encrypted, oldPassword)
	if err != nil {
		return fmt.Errorf("failed to unlock wallet: %w", err)
	}
	reencrypted, err := gethkeystore.EncryptKey(key, newPassword, gethkeystore.StandardScryptN, gethkeystore.StandardScryptP)
	if err != nil {
		return fmt.Errorf("failed to encrypt key: %w", err)
	}
	if err := os.WriteFile(path, reencrypted, 0o600); err != nil {
		return fmt.Errorf("failed to write keystore: %w", err)
	}
	return nil
}

// ReadRecord parses the wallet record without unlocking the keystore, for
// read-only surfaces that need addresses but never sign.
func ReadRecord(dir string) (*MasterWallet, error) {
	data, err := os.ReadFile(filepath.Join(dir, recordFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet record: %w", err)
	}
	wallet := &MasterWallet{dir: dir}
	if err := json.Unmarshal(data, wallet); err != nil {
		return nil, fmt.Errorf("failed to parse wallet record: %w", err)
	}
	if wallet.Safes == nil {
		wallet.Safes = make(map[string]string)
	}
	return wallet, nil
}

// Store persists the wallet record (never the key material).
func (w *MasterWallet) Store() error {
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal wallet record: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, recordFile), data, 0o600); err != nil {
		return fmt.Errorf("failed to write wallet record: %w", err)
	}
	return nil
}

// EOA returns the wallet's externally owned account address.
func (w *MasterWallet) EOA() common.Address {
	return common.HexToAddress(w.Address)
}

// PrivateKey exposes the unlocked key for transaction signing.
func (w *MasterWallet) PrivateKey() *ecdsa.PrivateKey {
	return w.key
}

// Safe returns the safe deployed on a chain, if any.
func (w *MasterWallet) Safe(chain chains.ChainType) (common.Address, bool) {
	addr, ok := w.Safes[strconv.FormatUint(chain.ID(), 10)]
	if !ok || addr == "" {
		return common.Address{}, false
	}
	return common.HexToAddress(addr), true
}

// RecordSafe persists a newly created safe address for a chain.
func (w *MasterWallet) RecordSafe(chain chains.ChainType, safe common.Address, nonce uint64) error {
	w.Safes[strconv.FormatUint(chain.ID(), 10)] = safe.Hex()
	if w.SafeNonce == nil {
		// Same salt nonce on every chain keeps the safe address portable.
		w.SafeNonce = &nonce
	}
	return w.Store()
}

// Transfer moves native funds from the EOA to the given account.
func (w *MasterWallet) Transfer(ctx context.Context, client *chainio.Client, to common.Address, amount *big.Int) error {
	_, err := client.Submit(ctx, w.key, to, amount, nil)
	if err != nil {
		return fmt.Errorf("failed to transfer %s wei to %s: %w", amount, to.Hex(), err)
	}
	return nil
}
