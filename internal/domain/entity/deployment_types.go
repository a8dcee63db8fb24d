package entity

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Fixed deployment literals for the NFT contract.
const (
	DefaultMaxSupply       uint64 = 10000
	DefaultSecondary       uint64 = 3125
	DefaultTertiary        uint64 = 3
	DefaultSaleStartOffset uint64 = 0
)

// DefaultBaseURI is the metadata base URI passed to the constructor.
const DefaultBaseURI = "http://isotop.top/"

// DeploymentParameters is the constructor input of the NFT contract.
// Owner is the account that sends the creation transaction.
type DeploymentParameters struct {
	MaxSupply uint64
	Secondary uint64
	Tertiary  uint64
	BaseURI   string
	Owner     common.Address
}

// NewDeploymentParameters returns the fixed parameters owned by the given address.
func NewDeploymentParameters(owner common.Address) DeploymentParameters {
	return DeploymentParameters{
		MaxSupply: DefaultMaxSupply,
		Secondary: DefaultSecondary,
		Tertiary:  DefaultTertiary,
		BaseURI:   DefaultBaseURI,
		Owner:     owner,
	}
}

// SaleConfiguration is the argument set of the non-auction sale setup call.
type SaleConfiguration struct {
	StartOffset    uint64
	StartTimestamp uint64
}

// NewSaleConfiguration returns the sale configuration starting at the given chain time.
func NewSaleConfiguration(chainTime uint64) SaleConfiguration {
	return SaleConfiguration{
		StartOffset:    DefaultSaleStartOffset,
		StartTimestamp: chainTime,
	}
}

// DeploymentRecord describes one completed deploy and configure sequence.
type DeploymentRecord struct {
	Network         NetworkIdentity
	Class           NetworkClass
	ContractAddress common.Address
	DeployTxHash    common.Hash
	ConfigureTxHash common.Hash
	Parameters      DeploymentParameters
	Sale            SaleConfiguration
	DeployedAt      time.Time
}

// Outcome summarises how a run ended.
type Outcome string

// Constants for run outcomes.
const (
	OutcomeDeployed Outcome = "deployed"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

// RunResult is the report of one orchestration run. Deployments holds every branch
// that completed before the run ended, even when Err is set.
type RunResult struct {
	Network     NetworkIdentity
	Classes     []NetworkClass
	Deployments []DeploymentRecord
	Err         error
}

// Outcome derives the outcome from the recorded state.
func (r RunResult) Outcome() Outcome {
	switch {
	case r.Err != nil:
		return OutcomeFailed
	case len(r.Deployments) > 0:
		return OutcomeDeployed
	default:
		return OutcomeSkipped
	}
}
