package account

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
)

// UserAccount is the local operator account record. It stores only a
// password digest; the password itself unlocks the wallet keystore.
type UserAccount struct {
	path string

	PasswordSHA string `json:"password_sha"`
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Exists reports whether an account record is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// New creates and persists a fresh account record.
func New(password, path string) (*UserAccount, error) {
	account := &UserAccount{
		path:        path,
		PasswordSHA: hashPassword(password),
	}
	if err := account.store(); err != nil {
		return nil, err
	}
	return account, nil
}

// Load reads an existing account record.
func Load(path string) (*UserAccount, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read user account: %w", err)
	}
	account := &UserAccount{path: path}
	if err := json.Unmarshal(data, account); err != nil {
		return nil, fmt.Errorf("failed to parse user account: %w", err)
	}
	return account, nil
}

// Verify checks a password against the stored digest.
func (a *UserAccount) Verify(password string) bool {
	return hashPassword(password) == a.PasswordSHA
}

// UpdatePassword replaces the stored digest after validating the old one.
func (a *UserAccount) UpdatePassword(oldPassword, newPassword string) error {
	if !a.Verify(oldPassword) {
		return fmt.Errorf("old password is not valid")
	}
	a.PasswordSHA = hashPassword(newPassword)
	return a.store()
}

func (a *UserAccount) store() error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user account: %w", err)
	}
	if err := os.WriteFile(a.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write user account: %w", err)
	}
	return nil
}
