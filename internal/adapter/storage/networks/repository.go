package networks

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	dto "isotop-deployer/internal/adapter/storage/networks/dto"
	"isotop-deployer/internal/config"
	"isotop-deployer/internal/domain/entity"
	domainRepo "isotop-deployer/internal/domain/repository"
	"isotop-deployer/internal/pkg/apperrors"
)

// Compile-time check
var _ domainRepo.NetworkRepository = (*Repository)(nil)

// Repository implements NetworkRepository from a YAML file loaded once at startup.
type Repository struct {
	tables      entity.NetworkTables
	definitions map[entity.NetworkIdentity]entity.NetworkDefinition
	logger      *zap.Logger
}

// NewRepository reads the networks file named in cfg. A missing file falls back to the
// built-in tables; a malformed one is an error.
func NewRepository(cfg config.NetworkConfig, logger *zap.Logger) (*Repository, error) {
	logger = logger.Named("NetworkStorage")

	raw, err := readFile(cfg.DefinitionsPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Warn("Networks file not found, using built-in network tables",
			zap.String("path", cfg.DefinitionsPath),
		)
		raw = defaultFile
	case err != nil:
		return nil, err
	}

	return newRepository(raw, logger)
}

func newRepository(raw dto.FileRaw, logger *zap.Logger) (*Repository, error) {
	definitions, err := toDomainDefinitions(raw.Networks)
	if err != nil {
		return nil, err
	}
	tables := toDomainTables(raw, definitions)

	if overlap := tables.Overlap(); len(overlap) > 0 {
		logger.Warn("Networks present in both local and test tables will be deployed twice",
			zap.Any("networks", overlap),
		)
	}

	logger.Info("Loaded network tables",
		zap.Strings("local", tables.Local.Names()),
		zap.Strings("test", tables.Test.Names()),
		zap.Int("definitions", len(definitions)),
	)

	return &Repository{
		tables:      tables,
		definitions: definitions,
		logger:      logger,
	}, nil
}

// Tables returns the classification tables.
func (r *Repository) Tables() entity.NetworkTables {
	return r.tables
}

// Definition returns the endpoint definition of a network.
func (r *Repository) Definition(_ context.Context, id entity.NetworkIdentity) (entity.NetworkDefinition, bool, error) {
	def, ok := r.definitions[id]
	if !ok {
		r.logger.Debug("No definition for network", zap.String("network", id.String()))
	}
	return def, ok, nil
}

func readFile(path string) (dto.FileRaw, error) {
	var raw dto.FileRaw
	data, err := os.ReadFile(path)
	if err != nil {
		return raw, fmt.Errorf("read networks file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return raw, fmt.Errorf("%w: parse networks file %s: %v", apperrors.ErrInvalidInput, path, err)
	}
	return raw, nil
}
