package safe

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreValidatedSignatureLayout(t *testing.T) {
	owner := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	sig := preValidatedSignature(owner)

	require.Len(t, sig, 65)

	// r is the owner address left-padded to 32 bytes.
	assert.Equal(t, make([]byte, 12), sig[:12])
	assert.Equal(t, owner.Bytes(), sig[12:32])

	// s is unused and v=1 selects the pre-validated scheme.
	assert.Equal(t, make([]byte, 32), sig[32:64])
	assert.Equal(t, byte(1), sig[64])
}

func TestParsedABIs(t *testing.T) {
	factory, gnosis, err := parsedABIs()
	require.NoError(t, err)

	assert.Contains(t, factory.Methods, "createProxyWithNonce")
	assert.Contains(t, factory.Events, "ProxyCreation")
	assert.Contains(t, gnosis.Methods, "setup")
	assert.Contains(t, gnosis.Methods, "execTransaction")
}

func proxyCreationReceipt(t *testing.T, proxy, singleton common.Address) *types.Receipt {
	t.Helper()
	factory, _, err := parsedABIs()
	require.NoError(t, err)

	data, err := factory.Events["ProxyCreation"].Inputs.Pack(proxy, singleton)
	require.NoError(t, err)
	return &types.Receipt{
		Logs: []*types.Log{
			{
				Topics: []common.Hash{factory.Events["ProxyCreation"].ID},
				Data:   data,
			},
		},
	}
}

func TestParseProxyCreation(t *testing.T) {
	proxy := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	singleton := common.HexToAddress("0x00000000000000000000000000000000000000cc")

	got, err := parseProxyCreation(proxyCreationReceipt(t, proxy, singleton))
	require.NoError(t, err)
	assert.Equal(t, proxy, got)
}

func TestParseProxyCreationSkipsForeignLogs(t *testing.T) {
	proxy := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	receipt := proxyCreationReceipt(t, proxy, common.Address{})
	receipt.Logs = append([]*types.Log{
		{Topics: []common.Hash{common.HexToHash("0x01")}},
	}, receipt.Logs...)

	got, err := parseProxyCreation(receipt)
	require.NoError(t, err)
	assert.Equal(t, proxy, got)
}

func TestParseProxyCreationRequiresEvent(t *testing.T) {
	_, err := parseProxyCreation(&types.Receipt{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no ProxyCreation event")
}
