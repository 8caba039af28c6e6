package wallet

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autonolas-community/mechctl/internal/chains"
)

func TestCreateAndLoadRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("keystore scrypt parameters are expensive")
	}

	dir := t.TempDir()
	manager, err := NewManager(dir, "hunter2")
	require.NoError(t, err)
	assert.False(t, manager.Exists())

	created, mnemonic, err := manager.Create()
	require.NoError(t, err)
	assert.True(t, manager.Exists())
	assert.Len(t, mnemonic, 12, "128 bits of entropy yield a 12-word phrase")
	assert.NotEqual(t, common.Address{}, created.EOA())

	loaded, err := manager.Load()
	require.NoError(t, err)
	assert.Equal(t, created.Address, loaded.Address)
	assert.Equal(t, created.EOA(), loaded.EOA())
	require.NotNil(t, loaded.PrivateKey())

	wrong, err := NewManager(dir, "not-the-password")
	require.NoError(t, err)
	_, err = wrong.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unlock wallet")
}

func TestDeriveKeyFollowsStandardDerivationPath(t *testing.T) {
	// Known BIP-44 vector: account 0 at m/44'/60'/0'/0/0 for this phrase
	// resolves to this address in any standard Ethereum wallet.
	mnemonic := "tag volcano eject telephone begin truck boring parent mood trumpet hungry unusual"

	key, err := deriveKey(mnemonic)
	require.NoError(t, err)

	addr := crypto.PubkeyToAddress(key.PublicKey)
	assert.Equal(t, common.HexToAddress("0xC49926C4124cEe1cbA0Ea94Ea31a6c12318df947"), addr)
}

func TestRotatePassword(t *testing.T) {
	if testing.Short() {
		t.Skip("keystore scrypt parameters are expensive")
	}

	dir := t.TempDir()
	manager, err := NewManager(dir, "old-pass")
	require.NoError(t, err)
	created, _, err := manager.Create()
	require.NoError(t, err)

	require.NoError(t, RotatePassword(dir, "old-pass", "new-pass"))

	rotated, err := NewManager(dir, "new-pass")
	require.NoError(t, err)
	loaded, err := rotated.Load()
	require.NoError(t, err)
	assert.Equal(t, created.Address, loaded.Address)

	stale, err := NewManager(dir, "old-pass")
	require.NoError(t, err)
	_, err = stale.Load()
	require.Error(t, err, "the old password no longer unlocks the keystore")
}

func TestRotatePasswordWithoutKeystore(t *testing.T) {
	require.NoError(t, RotatePassword(t.TempDir(), "old", "new"))
}

func testWallet(t *testing.T) *MasterWallet {
	t.Helper()
	return &MasterWallet{
		dir:     t.TempDir(),
		Address: "0x00000000000000000000000000000000000000aa",
		Safes:   map[string]string{},
	}
}

func TestSafeLookupBeforeCreation(t *testing.T) {
	w := testWallet(t)
	_, ok := w.Safe(chains.Gnosis)
	assert.False(t, ok)
}

func TestRecordSafePersistsAddressAndNonce(t *testing.T) {
	w := testWallet(t)
	safeAddr := common.HexToAddress("0x00000000000000000000000000000000000000bb")

	require.NoError(t, w.RecordSafe(chains.Gnosis, safeAddr, 12345))

	got, ok := w.Safe(chains.Gnosis)
	require.True(t, ok)
	assert.Equal(t, safeAddr, got)
	require.NotNil(t, w.SafeNonce)
	assert.Equal(t, uint64(12345), *w.SafeNonce)
}

func TestRecordSafeKeepsFirstNonce(t *testing.T) {
	w := testWallet(t)

	require.NoError(t, w.RecordSafe(chains.Gnosis, common.HexToAddress("0x01"), 111))
	require.NoError(t, w.RecordSafe(chains.Gnosis, common.HexToAddress("0x02"), 222))

	// The salt nonce pins the safe address across chains, so only the
	// first recorded value counts.
	require.NotNil(t, w.SafeNonce)
	assert.Equal(t, uint64(111), *w.SafeNonce)
}

func TestReadRecordDoesNotNeedPassword(t *testing.T) {
	w := testWallet(t)
	require.NoError(t, w.RecordSafe(chains.Gnosis, common.HexToAddress("0x01"), 7))

	record, err := ReadRecord(w.dir)
	require.NoError(t, err)
	assert.Equal(t, w.Address, record.Address)

	got, ok := record.Safe(chains.Gnosis)
	require.True(t, ok)
	assert.Equal(t, common.HexToAddress("0x01"), got)
	assert.Nil(t, record.PrivateKey(), "the key stays locked")
}

func TestReadRecordMissingWallet(t *testing.T) {
	_, err := ReadRecord(t.TempDir())
	require.Error(t, err)
}

func TestSafeIgnoresEmptyRecord(t *testing.T) {
	w := testWallet(t)
	w.Safes["100"] = ""

	_, ok := w.Safe(chains.Gnosis)
	assert.False(t, ok)
}
