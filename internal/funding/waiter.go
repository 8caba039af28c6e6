// Package funding implements the balance gates that pace the on-chain
// deployment: each gate blocks until an observed balance clears its
// threshold.
package funding

import (
	"context"
	"math/big"
	"time"
)

// Getter returns the currently observed balance of an account or token
// holding. Transport errors are returned as-is.
type Getter func() (*big.Int, error)

// DefaultPollInterval paces the busy-poll between balance observations.
const DefaultPollInterval = time.Second

// WaitForFunds polls get at the given interval until the observed balance
// reaches threshold, and returns that balance. There is no upper bound on
// the wait: cancelling ctx is the only way to abort. Any error from get is
// propagated immediately so that RPC outages surface instead of spinning
// silently; the call is safe to repeat once the outage is resolved.
func WaitForFunds(ctx context.Context, get Getter, threshold *big.Int, interval time.Duration) (*big.Int, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	for {
		balance, err := get()
		if err != nil {
			return nil, err
		}
		if balance.Cmp(threshold) >= 0 {
			return balance, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}
