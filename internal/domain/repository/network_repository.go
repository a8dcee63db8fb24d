package repository

import (
	"context"

	"isotop-deployer/internal/domain/entity"
)

// NetworkRepository exposes the static network classification tables and endpoint definitions.
type NetworkRepository interface {
	// Tables returns the LOCAL_NETWORKS / TEST_NETWORKS membership tables.
	Tables() entity.NetworkTables

	// Definition returns the endpoint definition for a network, reporting whether one exists.
	Definition(ctx context.Context, id entity.NetworkIdentity) (entity.NetworkDefinition, bool, error)
}
