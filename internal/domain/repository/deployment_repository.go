package repository

import (
	"context"

	"isotop-deployer/internal/domain/entity"
)

// DeploymentRepository keeps the deployments completed by this process.
type DeploymentRepository interface {
	// Record stores a completed deployment.
	Record(ctx context.Context, record entity.DeploymentRecord) error

	// List returns the deployments recorded for a network, oldest first.
	List(ctx context.Context, id entity.NetworkIdentity) ([]entity.DeploymentRecord, error)
}
