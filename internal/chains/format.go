package chains

import (
	"fmt"
	"math/big"
)

// FormatWei renders a wei amount as a decimal token string for
// operator-facing messages, e.g. "0.500000 xDAI".
func FormatWei(wei *big.Int, token string) string {
	if wei == nil {
		return "0.000000 " + token
	}
	f := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e18))
	return fmt.Sprintf("%.6f %s", f, token)
}
