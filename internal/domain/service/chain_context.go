package service

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"

	"isotop-deployer/internal/domain/entity"
)

// ChainContext answers "which network" and "what time" for the current run.
type ChainContext interface {
	ActiveNetwork(ctx context.Context) (entity.NetworkIdentity, error)
	// CurrentTime returns the chain-relative timestamp in seconds.
	CurrentTime(ctx context.Context) (uint64, error)
}

// ChainBackend is what contract bindings need to transact and wait for receipts.
type ChainBackend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// BackendProvider hands out the connection to the active network.
type BackendProvider interface {
	Backend(ctx context.Context) (ChainBackend, error)
	ChainID(ctx context.Context) (*big.Int, error)
}
