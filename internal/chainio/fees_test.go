package chainio

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gwei(values ...int64) []*big.Int {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		out[i] = new(big.Int).Mul(big.NewInt(v), big.NewInt(1e9))
	}
	return out
}

func TestMedianWithoutOutliers(t *testing.T) {
	tests := []struct {
		name    string
		rewards []*big.Int
		want    *big.Int
	}{
		{
			name:    "empty history",
			rewards: nil,
			want:    nil,
		},
		{
			name:    "single value",
			rewards: gwei(3),
			want:    gwei(3)[0],
		},
		{
			name:    "plain median of odd count",
			rewards: gwei(1, 2, 3, 4, 5),
			want:    gwei(3)[0],
		},
		{
			name:    "unsorted input is sorted first",
			rewards: gwei(5, 1, 4, 2, 3),
			want:    gwei(3)[0],
		},
		{
			name: "outlier jump in upper half trims the lower values",
			// 1,1,2,2 then a 50x jump: the median is taken from the
			// values above the jump.
			rewards: gwei(1, 1, 2, 2, 100, 110),
			want:    gwei(110)[0],
		},
		{
			name: "jump in lower half is kept",
			// The steep increase sits below the midpoint, so no
			// trimming happens and the plain median wins.
			rewards: gwei(1, 100, 110, 120, 130, 140),
			want:    gwei(120)[0],
		},
		{
			name: "small increases never trim",
			// All increases stay below the 200% boundary.
			rewards: gwei(10, 15, 20, 25, 30),
			want:    gwei(20)[0],
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := medianWithoutOutliers(tt.rewards)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Zero(t, tt.want.Cmp(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestMedianWithoutOutliersDoesNotMutateInput(t *testing.T) {
	rewards := gwei(5, 1, 3)
	medianWithoutOutliers(rewards)
	assert.Zero(t, rewards[0].Cmp(gwei(5)[0]), "input order is preserved")
}
