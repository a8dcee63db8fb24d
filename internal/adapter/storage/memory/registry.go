package memory

import (
	"context"
	"fmt"
	"sync"

	"isotop-deployer/internal/config"
	"isotop-deployer/internal/domain/entity"
	domainRepo "isotop-deployer/internal/domain/repository"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainRepo.DeploymentRepository = (*Registry)(nil)

const deploymentsKeyPrefix = "deployments_"

// Registry implements domainRepo.DeploymentRepository using the go-cache in-memory library.
// Nothing is persisted; records live as long as the process.
type Registry struct {
	mu     sync.Mutex
	cache  *cache.Cache
	logger *zap.Logger
}

// NewRegistry creates a new in-memory deployment registry.
func NewRegistry(cfg config.RegistryConfig, logger *zap.Logger) *Registry {
	defaultExpiration := cfg.GetDefaultExpiration()
	cleanupInterval := cfg.GetCleanupInterval()

	c := cache.New(defaultExpiration, cleanupInterval)
	logger.Debug(
		"Initialized go-cache for deployment registry",
		zap.Duration("defaultExpiration", defaultExpiration),
		zap.Duration("cleanupInterval", cleanupInterval),
	)

	return &Registry{
		cache:  c,
		logger: logger.Named("DeploymentRegistry"),
	}
}

// Record appends a deployment to the network's list.
func (r *Registry) Record(_ context.Context, record entity.DeploymentRecord) error {
	if record.Network == "" {
		return fmt.Errorf("deployment record has no network")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := deploymentsKey(record.Network)
	records, err := r.load(key)
	if err != nil {
		return err
	}
	records = append(records, record)
	r.cache.SetDefault(key, records)

	r.logger.Debug("Deployment recorded",
		zap.String("key", key),
		zap.String("contract", record.ContractAddress.Hex()),
		zap.Int("count", len(records)),
	)
	return nil
}

// List returns a copy of the network's deployments, oldest first.
func (r *Registry) List(_ context.Context, id entity.NetworkIdentity) ([]entity.DeploymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load(deploymentsKey(id))
	if err != nil {
		return nil, err
	}
	out := make([]entity.DeploymentRecord, len(records))
	copy(out, records)
	return out, nil
}

func (r *Registry) load(key string) ([]entity.DeploymentRecord, error) {
	x, found := r.cache.Get(key)
	if !found {
		return nil, nil
	}
	records, ok := x.([]entity.DeploymentRecord)
	if !ok {
		r.logger.Warn("Registry data type mismatch for key",
			zap.String("key", key), zap.String("type", fmt.Sprintf("%T", x)),
		)
		return nil, fmt.Errorf("registry entry %s has unexpected type %T", key, x)
	}
	return records, nil
}

func deploymentsKey(id entity.NetworkIdentity) string {
	return deploymentsKeyPrefix + id.String()
}
