package chainio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// The probe sends an eth_newFilter request with deliberately invalid
// params: a healthy endpoint that supports filters answers with an
// "invalid params" error, anything else indicates a broken or limited RPC.
var probeRequest = map[string]interface{}{
	"jsonrpc": "2.0",
	"method":  "eth_newFilter",
	"params":  []string{"invalid"},
	"id":      1,
}

type rpcErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CheckRPC probes the RPC endpoint before any deployment step runs. The
// returned error carries a specific operator-facing message per failure
// class.
func CheckRPC(ctx context.Context, rpcURL string) error {
	body, err := json.Marshal(probeRequest)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rpcURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build RPC request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send RPC request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("RPC endpoint answered with status %s", resp.Status)
	}

	var parsed rpcErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("the received RPC response is malformed, verify the RPC address and behavior")
	}

	switch parsed.Error.Message {
	case "invalid params":
		return nil
	case "Out of requests":
		return fmt.Errorf("the provided RPC is out of requests")
	case "The method eth_newFilter does not exist/is not available":
		return fmt.Errorf("the provided RPC does not support eth_newFilter")
	case "":
		return fmt.Errorf("the received RPC response is malformed, verify the RPC address and behavior")
	default:
		return fmt.Errorf("unknown RPC error: %s", parsed.Error.Message)
	}
}
