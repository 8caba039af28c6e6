package safe

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Operation is the safe-internal call type.
type Operation uint8

const (
	Call         Operation = 0
	DelegateCall Operation = 1
)

// The proxy factory and safe singleton ABIs cover only what the
// provisioner uses: deterministic proxy creation and owner-executed
// transactions.
const proxyFactoryABI = `[
	{
		"inputs": [
			{"name": "_singleton", "type": "address"},
			{"name": "initializer", "type": "bytes"},
			{"name": "saltNonce", "type": "uint256"}
		],
		"name": "createProxyWithNonce",
		"outputs": [{"name": "proxy", "type": "address"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": false, "name": "proxy", "type": "address"},
			{"indexed": false, "name": "singleton", "type": "address"}
		],
		"name": "ProxyCreation",
		"type": "event"
	}
]`

const safeABI = `[
	{
		"inputs": [
			{"name": "_owners", "type": "address[]"},
			{"name": "_threshold", "type": "uint256"},
			{"name": "to", "type": "address"},
			{"name": "data", "type": "bytes"},
			{"name": "fallbackHandler", "type": "address"},
			{"name": "paymentToken", "type": "address"},
			{"name": "payment", "type": "uint256"},
			{"name": "paymentReceiver", "type": "address"}
		],
		"name": "setup",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "to", "type": "address"},
			{"name": "value", "type": "uint256"},
			{"name": "data", "type": "bytes"},
			{"name": "operation", "type": "uint8"},
			{"name": "safeTxGas", "type": "uint256"},
			{"name": "baseGas", "type": "uint256"},
			{"name": "gasPrice", "type": "uint256"},
			{"name": "gasToken", "type": "address"},
			{"name": "refundReceiver", "type": "address"},
			{"name": "signatures", "type": "bytes"}
		],
		"name": "execTransaction",
		"outputs": [{"name": "success", "type": "bool"}],
		"stateMutability": "payable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getOwners",
		"outputs": [{"name": "", "type": "address[]"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "nonce",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

var (
	parseOnce  sync.Once
	factoryABI abi.ABI
	gnosisABI  abi.ABI
	parseErr   error
)

func parsedABIs() (abi.ABI, abi.ABI, error) {
	parseOnce.Do(func() {
		factoryABI, parseErr = abi.JSON(strings.NewReader(proxyFactoryABI))
		if parseErr != nil {
			return
		}
		gnosisABI, parseErr = abi.JSON(strings.NewReader(safeABI))
	})
	return factoryABI, gnosisABI, parseErr
}
