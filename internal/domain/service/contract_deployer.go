package service

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"isotop-deployer/internal/domain/entity"
)

// ContractDeployer constructs the NFT contract on chain.
type ContractDeployer interface {
	// Deploy sends the creation transaction from the given account and waits for it to be mined.
	Deploy(ctx context.Context, from entity.Account, params entity.DeploymentParameters) (DeployedContract, error)
}

// DeployedContract is the live handle to a freshly constructed contract.
type DeployedContract interface {
	Address() common.Address
	DeployTxHash() common.Hash
	// ConfigureSale calls setupNonAuctionSaleInfo and returns the mined transaction hash.
	ConfigureSale(ctx context.Context, sale entity.SaleConfiguration) (common.Hash, error)
}
