package service

import (
	"context"

	"isotop-deployer/internal/domain/entity"
)

// EndpointProbe checks that a JSON-RPC endpoint answers before it is used.
type EndpointProbe interface {
	Probe(ctx context.Context, rpcURL entity.RPCURL) (entity.EndpointStatus, error)
}
