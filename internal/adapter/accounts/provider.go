package accounts

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"isotop-deployer/internal/config"
	"isotop-deployer/internal/domain"
	"isotop-deployer/internal/domain/entity"
	domainRepo "isotop-deployer/internal/domain/repository"
)

// Compile-time check
var _ domainRepo.AccountProvider = (*Provider)(nil)

// devKeys are the first four publicly known Anvil/Hardhat development accounts.
// They are only used for local networks with no keys of their own.
var devKeys = []string{
	"ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
	"59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d",
	"5de4111afa1a4b94908f83103eb1f1706367c2e68ca870fc3fb9a804cdab365a",
	"7c852118294e51e653712a81e05800f419141751be58f605c371e15141b007a6",
}

// LookupEnvFunc reads an environment variable.
type LookupEnvFunc func(key string) (string, bool)

// Provider resolves role accounts from keys in the network definition, an environment
// override, or the development keys on local networks.
type Provider struct {
	networks  domainRepo.NetworkRepository
	lookupEnv LookupEnvFunc
	logger    *zap.Logger
}

// NewProvider creates an account provider reading overrides from the process environment.
func NewProvider(networks domainRepo.NetworkRepository, logger *zap.Logger) *Provider {
	return NewProviderWithEnv(networks, os.LookupEnv, logger)
}

// NewProviderWithEnv creates an account provider with a custom environment lookup.
func NewProviderWithEnv(networks domainRepo.NetworkRepository, lookupEnv LookupEnvFunc, logger *zap.Logger) *Provider {
	return &Provider{
		networks:  networks,
		lookupEnv: lookupEnv,
		logger:    logger.Named("AccountProvider"),
	}
}

// EnvKey returns the variable holding comma separated keys for a network,
// e.g. ISOTOP_DEPLOYER_ACCOUNTS_GANACHE_LOCAL.
func EnvKey(id entity.NetworkIdentity) string {
	name := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(id.String()))
	return config.EnvPrefix + "_ACCOUNTS_" + name
}

// ResolveAccounts maps the first four keys to admin, creator, consumer and operator.
func (p *Provider) ResolveAccounts(ctx context.Context, id entity.NetworkIdentity) (entity.AccountSet, error) {
	keys, source, err := p.keysFor(ctx, id)
	if err != nil {
		return entity.AccountSet{}, fmt.Errorf("%w: %v", domain.ErrAccountResolution, err)
	}
	if len(keys) < len(entity.Roles) {
		return entity.AccountSet{}, fmt.Errorf("%w: network %s has %d keys from %s, need %d",
			domain.ErrAccountResolution, id, len(keys), source, len(entity.Roles),
		)
	}

	resolved := make([]entity.Account, len(entity.Roles))
	for i, role := range entity.Roles {
		acc, err := toAccount(role, keys[i])
		if err != nil {
			return entity.AccountSet{}, fmt.Errorf("%w: %s key from %s: %v", domain.ErrAccountResolution, role, source, err)
		}
		resolved[i] = acc
	}

	set := entity.AccountSet{
		Admin:    resolved[0],
		Creator:  resolved[1],
		Consumer: resolved[2],
		Operator: resolved[3],
	}
	if err := set.Validate(); err != nil {
		return entity.AccountSet{}, fmt.Errorf("%w: %v", domain.ErrAccountResolution, err)
	}

	p.logger.Info("Resolved accounts",
		zap.String("network", id.String()),
		zap.String("source", source),
		zap.String("admin", set.Admin.Address.Hex()),
		zap.String("creator", set.Creator.Address.Hex()),
		zap.String("consumer", set.Consumer.Address.Hex()),
		zap.String("operator", set.Operator.Address.Hex()),
	)
	return set, nil
}

// keysFor picks the key source: environment first, then the definition, then dev keys.
func (p *Provider) keysFor(ctx context.Context, id entity.NetworkIdentity) ([]string, string, error) {
	envKey := EnvKey(id)
	if raw, ok := p.lookupEnv(envKey); ok && strings.TrimSpace(raw) != "" {
		return splitKeys(raw), "env " + envKey, nil
	}

	def, found, err := p.networks.Definition(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("look up network %s: %w", id, err)
	}
	if found && len(def.AccountKeys) > 0 {
		return def.AccountKeys, "networks file", nil
	}

	if p.networks.Tables().IsLocal(id) {
		return devKeys, "development keys", nil
	}
	return nil, "none", nil
}

func splitKeys(raw string) []string {
	parts := strings.Split(raw, ",")
	keys := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			keys = append(keys, part)
		}
	}
	return keys
}

func toAccount(role entity.Role, hexKey string) (entity.Account, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return entity.Account{}, fmt.Errorf("parse private key: %w", err)
	}
	publicKey, ok := key.Public().(*ecdsa.PublicKey)
	if !ok {
		return entity.Account{}, fmt.Errorf("failed to get public key")
	}
	return entity.Account{
		Role:       role,
		Address:    crypto.PubkeyToAddress(*publicKey),
		PrivateKey: key,
	}, nil
}
