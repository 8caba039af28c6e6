package chains

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ChainType identifies a supported chain by its numeric chain id.
type ChainType uint64

const (
	Gnosis ChainType = 100
)

// ID returns the numeric chain id.
func (c ChainType) ID() uint64 {
	return uint64(c)
}

func (c ChainType) String() string {
	meta, err := MetadataFor(c)
	if err != nil {
		return fmt.Sprintf("chain-%d", uint64(c))
	}
	return meta.Name
}

// FromID resolves a chain type from a chain id.
func FromID(id uint64) (ChainType, error) {
	chain := ChainType(id)
	if _, err := MetadataFor(chain); err != nil {
		return 0, err
	}
	return chain, nil
}

// FromName resolves a chain type from its metadata name, case-insensitive.
func FromName(name string) (ChainType, error) {
	for chain, meta := range chainMetadata {
		if strings.EqualFold(meta.Name, name) {
			return chain, nil
		}
	}
	return 0, fmt.Errorf("unknown chain %q", name)
}

// Supported returns the wired chains in ascending chain id order.
func Supported() []ChainType {
	out := make([]ChainType, 0, len(chainMetadata))
	for chain := range chainMetadata {
		out = append(out, chain)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Metadata holds the static per-chain constants that gate the deployment.
type Metadata struct {
	Name string

	// Native token symbol, used only for operator-facing messages.
	Token string

	// Funding thresholds in wei. FirstTimeTopUp applies while the safe
	// does not exist yet and must additionally cover safe creation gas.
	FirstTimeTopUp     *big.Int
	OperationalFundReq *big.Int

	// Steady-state top-up applied to the service safe after deployment.
	SafeTopUp  *big.Int
	AgentTopUp *big.Int

	Contracts ContractAddresses
	Staking   StakingParams
}

// ContractAddresses is the per-chain table of protocol contracts.
type ContractAddresses struct {
	ServiceRegistry             common.Address
	ServiceManagerToken         common.Address
	ServiceRegistryTokenUtility common.Address
	GnosisSafeProxyFactory      common.Address
	GnosisSafeSingleton         common.Address
	GnosisSafeMultisig          common.Address
	GnosisSafeMultisigSameAddr  common.Address
	OLASToken                   common.Address
	MechMarketplace             common.Address
	AgentFactory                common.Address
}

// StakingParams is the fallback parameter set passed to deploy-from-safe,
// used only when on-chain discovery of the staking program fails.
type StakingParams struct {
	AgentIDs          []uint32
	StakingToken      common.Address
	ActivityChecker   common.Address
	MinStakingDeposit *big.Int
	CostOfBond        *big.Int
}

// WeiFromMilliEther converts a milliether amount to wei,
// avoiding float arithmetic on chain amounts.
func WeiFromMilliEther(milli int64) *big.Int {
	wei := new(big.Int).Mul(big.NewInt(milli), big.NewInt(1e15))
	return wei
}

var (
	// CostOfStaking is the staking deposit (100 OLAS).
	CostOfStaking = new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18))

	// CostOfBondStaking is the agent bond while staked (50 OLAS).
	CostOfBondStaking = new(big.Int).Mul(big.NewInt(50), big.NewInt(1e18))

	// CostOfBond is the non-staking registration bond in wei.
	CostOfBond = big.NewInt(1)
)

var chainMetadata = map[ChainType]Metadata{
	Gnosis: {
		Name:               "Gnosis",
		Token:              "xDAI",
		FirstTimeTopUp:     WeiFromMilliEther(500),
		OperationalFundReq: WeiFromMilliEther(500),
		SafeTopUp:          WeiFromMilliEther(500),
		AgentTopUp:         WeiFromMilliEther(500),
		Contracts: ContractAddresses{
			ServiceRegistry:             common.HexToAddress("0x9338b5153AE39BB89f50468E608eD9d764B755fD"),
			ServiceManagerToken:         common.HexToAddress("0x04b0007b2aFb398015B76e5f22993a1fddF83644"),
			ServiceRegistryTokenUtility: common.HexToAddress("0xa45E64d13A30a51b91ae0eb182e88a40e9b18eD8"),
			GnosisSafeProxyFactory:      common.HexToAddress("0xa6B71E26C5e0845f74c812102Ca7114b6a896AB2"),
			GnosisSafeSingleton:         common.HexToAddress("0xd9Db270c1B5E3Bd161E8c8503c55cEABeE709552"),
			GnosisSafeMultisig:          common.HexToAddress("0x3d77596beb0f130a4415df3D2D8232B3d3D31e44"),
			GnosisSafeMultisigSameAddr:  common.HexToAddress("0x3C1fF68f5aa342D296d4DEe4Bb1cACCA912D95fE"),
			OLASToken:                   common.HexToAddress("0xcE11e14225575945b8E6Dc0D4F2dD4C570f79d9f"),
			MechMarketplace:             common.HexToAddress("0x4554fE75c1f5576c1d7F765B2A036c199Adae329"),
			AgentFactory:                common.HexToAddress("0x6D8CbEbCAD7397c63347D44448147Db05E7d17B0"),
		},
		Staking: StakingParams{
			AgentIDs:          []uint32{43},
			StakingToken:      common.HexToAddress("0x998dEFafD094817EF329f6dc79c703f1CF18bC90"),
			ActivityChecker:   common.HexToAddress("0x32B5A40B43C4eDb123c9cFa6ea97432380a38dDF"),
			MinStakingDeposit: CostOfStaking,
			CostOfBond:        CostOfBond,
		},
	},
}

// MetadataFor returns the static metadata for a chain.
func MetadataFor(chain ChainType) (Metadata, error) {
	meta, ok := chainMetadata[chain]
	if !ok {
		return Metadata{}, fmt.Errorf("chain id %d is not supported", uint64(chain))
	}
	return meta, nil
}
