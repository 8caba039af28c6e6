package chains

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromID(t *testing.T) {
	chain, err := FromID(100)
	require.NoError(t, err)
	assert.Equal(t, Gnosis, chain)

	_, err = FromID(999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestFromNameIsCaseInsensitive(t *testing.T) {
	for _, name := range []string{"gnosis", "Gnosis", "GNOSIS"} {
		chain, err := FromName(name)
		require.NoError(t, err)
		assert.Equal(t, Gnosis, chain)
	}

	_, err := FromName("mainnet")
	require.Error(t, err)
}

func TestSupportedIsSorted(t *testing.T) {
	supported := Supported()
	require.NotEmpty(t, supported)
	for i := 1; i < len(supported); i++ {
		assert.Less(t, supported[i-1], supported[i])
	}
}

func TestWeiFromMilliEther(t *testing.T) {
	assert.Zero(t, WeiFromMilliEther(500).Cmp(big.NewInt(5e17)))
	assert.Zero(t, WeiFromMilliEther(10).Cmp(big.NewInt(1e16)))
	assert.Zero(t, WeiFromMilliEther(0).Sign())
}

func TestFormatWei(t *testing.T) {
	tests := []struct {
		name string
		wei  *big.Int
		want string
	}{
		{name: "nil amount", wei: nil, want: "0.000000 xDAI"},
		{name: "zero", wei: big.NewInt(0), want: "0.000000 xDAI"},
		{name: "half token", wei: big.NewInt(5e17), want: "0.500000 xDAI"},
		{name: "whole tokens", wei: new(big.Int).Mul(big.NewInt(150), big.NewInt(1e18)), want: "150.000000 xDAI"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatWei(tt.wei, "xDAI"))
		})
	}
}

func TestMetadataForGnosis(t *testing.T) {
	meta, err := MetadataFor(Gnosis)
	require.NoError(t, err)

	assert.Equal(t, "Gnosis", meta.Name)
	assert.Equal(t, "xDAI", meta.Token)
	assert.Positive(t, meta.FirstTimeTopUp.Sign())
	assert.Positive(t, meta.OperationalFundReq.Sign())
	assert.NotEqual(t, meta.Contracts.ServiceRegistry, meta.Contracts.ServiceManagerToken)
	assert.Equal(t, []uint32{43}, meta.Staking.AgentIDs)
}
