package chainio

import (
	"context"
	"fmt"
	"math/big"
	"sort"
)

const (
	feeHistoryBlocks     = 10
	feeHistoryPercentile = 5.0

	// A jump between consecutive observed rewards larger than this
	// percentage marks the lower observations as outliers.
	priorityFeeIncreaseBoundary = 200.0
)

// EstimatePriorityFee derives a priority fee from recent fee history.
// When defaultPriorityFee is non-nil it is returned as-is. A nil result
// with nil error means the history carried no usable rewards and the
// caller should fall back to the node's suggestion.
func (c *Client) EstimatePriorityFee(ctx context.Context, defaultPriorityFee *big.Int) (*big.Int, error) {
	if defaultPriorityFee != nil {
		return defaultPriorityFee, nil
	}

	history, err := c.eth.FeeHistory(ctx, feeHistoryBlocks, nil, []float64{feeHistoryPercentile})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fee history: %w", err)
	}

	var rewards []*big.Int
	for _, perBlock := range history.Reward {
		if len(perBlock) == 0 || perBlock[0] == nil || perBlock[0].Sign() <= 0 {
			continue
		}
		rewards = append(rewards, perBlock[0])
	}
	return medianWithoutOutliers(rewards), nil
}

// medianWithoutOutliers sorts the rewards, locates the steepest relative
// increase between neighbors, and, when that jump exceeds the boundary in
// the upper half of the list, takes the median of the values above it.
func medianWithoutOutliers(rewards []*big.Int) *big.Int {
	if len(rewards) == 0 {
		return nil
	}

	values := make([]*big.Int, len(rewards))
	copy(values, rewards)
	sort.Slice(values, func(i, j int) bool { return values[i].Cmp(values[j]) < 0 })

	highestIncrease := 0.0
	highestIncreaseIndex := 0
	for i := 1; i < len(values); i++ {
		prev, _ := new(big.Float).SetInt(values[i-1]).Float64()
		cur, _ := new(big.Float).SetInt(values[i]).Float64()
		if prev == 0 {
			continue
		}
		increase := (cur - prev) / prev * 100
		if increase > highestIncrease {
			highestIncrease = increase
			highestIncreaseIndex = i
		}
	}

	if highestIncrease > priorityFeeIncreaseBoundary && highestIncreaseIndex >= len(values)/2 {
		values = values[highestIncreaseIndex:]
	}

	return new(big.Int).Set(values[len(values)/2])
}

// SuggestFees returns EIP-1559 fee caps for the next transaction: the
// estimated priority fee plus twice the latest base fee as headroom.
func (c *Client) SuggestFees(ctx context.Context) (maxFeePerGas, maxPriorityFeePerGas *big.Int, err error) {
	tip, err := c.EstimatePriorityFee(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	if tip == nil {
		tip, err = c.eth.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get gas tip suggestion: %w", err)
		}
	}

	header, err := c.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get latest header: %w", err)
	}

	feeCap := new(big.Int).Add(tip, new(big.Int).Mul(header.BaseFee, big.NewInt(2)))
	return feeCap, tip, nil
}
