package repository

import (
	"context"

	"isotop-deployer/internal/domain/entity"
)

// AccountProvider resolves the role accounts for a network.
type AccountProvider interface {
	// ResolveAccounts returns four distinct accounts or an error wrapping domain.ErrAccountResolution.
	ResolveAccounts(ctx context.Context, id entity.NetworkIdentity) (entity.AccountSet, error)
}
