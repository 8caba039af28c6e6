package chainio

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rpcStub(t *testing.T, errorMessage string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":%q}}`, errorMessage)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCheckRPCHealthyEndpoint(t *testing.T) {
	server := rpcStub(t, "invalid params")
	require.NoError(t, CheckRPC(context.Background(), server.URL))
}

func TestCheckRPCErrorClasses(t *testing.T) {
	tests := []struct {
		name    string
		message string
		wantErr string
	}{
		{
			name:    "rate limited",
			message: "Out of requests",
			wantErr: "out of requests",
		},
		{
			name:    "filters unsupported",
			message: "The method eth_newFilter does not exist/is not available",
			wantErr: "does not support eth_newFilter",
		},
		{
			name:    "unexpected error",
			message: "execution aborted",
			wantErr: "unknown RPC error: execution aborted",
		},
		{
			name:    "no error field",
			message: "",
			wantErr: "malformed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := rpcStub(t, tt.message)
			err := CheckRPC(context.Background(), server.URL)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCheckRPCNonJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>not an rpc</html>")
	}))
	t.Cleanup(server.Close)

	err := CheckRPC(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

func TestCheckRPCHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	err := CheckRPC(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestCheckRPCUnreachableEndpoint(t *testing.T) {
	err := CheckRPC(context.Background(), "http://127.0.0.1:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send RPC request")
}
