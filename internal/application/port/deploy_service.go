package port

import (
	"context"

	"isotop-deployer/internal/domain/entity"
)

// DeployService defines the deployment orchestration entry point.
type DeployService interface {
	// Run performs one orchestration run. It never panics; failures are reported in the result.
	Run(ctx context.Context) entity.RunResult
}
