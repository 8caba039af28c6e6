package account

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accountPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "user.json")
}

func TestNewPersistsAccount(t *testing.T) {
	path := accountPath(t)
	assert.False(t, Exists(path))

	created, err := New("hunter2", path)
	require.NoError(t, err)
	assert.True(t, Exists(path))

	// Only a digest is stored, never the password itself.
	assert.NotContains(t, created.PasswordSHA, "hunter2")
	assert.Len(t, created.PasswordSHA, 64)
}

func TestLoadAndVerify(t *testing.T) {
	path := accountPath(t)
	_, err := New("hunter2", path)
	require.NoError(t, err)

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.True(t, loaded.Verify("hunter2"))
	assert.False(t, loaded.Verify("wrong"))
	assert.False(t, loaded.Verify(""))
}

func TestLoadMissingAccount(t *testing.T) {
	_, err := Load(accountPath(t))
	require.Error(t, err)
}

func TestUpdatePassword(t *testing.T) {
	path := accountPath(t)
	acct, err := New("old-pass", path)
	require.NoError(t, err)

	require.NoError(t, acct.UpdatePassword("old-pass", "new-pass"))

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, reloaded.Verify("new-pass"))
	assert.False(t, reloaded.Verify("old-pass"))
}

func TestUpdatePasswordRejectsWrongOldPassword(t *testing.T) {
	acct, err := New("old-pass", accountPath(t))
	require.NoError(t, err)

	err = acct.UpdatePassword("wrong", "new-pass")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "old password is not valid")
	assert.True(t, acct.Verify("old-pass"))
}
