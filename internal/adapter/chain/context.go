package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"isotop-deployer/internal/config"
	"isotop-deployer/internal/domain"
	"isotop-deployer/internal/domain/entity"
	domainRepo "isotop-deployer/internal/domain/repository"
	domainService "isotop-deployer/internal/domain/service"
)

// Compile-time checks
var (
	_ domainService.ChainContext    = (*Context)(nil)
	_ domainService.BackendProvider = (*Context)(nil)
)

// Context is the chain context of one run. The active network is fixed at construction;
// the RPC connection is opened on first use.
type Context struct {
	active   entity.NetworkIdentity
	networks domainRepo.NetworkRepository
	probe    domainService.EndpointProbe
	logger   *zap.Logger

	mu      sync.Mutex
	client  *ethclient.Client
	chainID *big.Int
}

// NewContext creates a chain context for the configured active network.
// probe may be nil to skip the endpoint check.
func NewContext(
	cfg config.NetworkConfig,
	networks domainRepo.NetworkRepository,
	probe domainService.EndpointProbe,
	logger *zap.Logger,
) *Context {
	return &Context{
		active:   entity.NetworkIdentity(strings.TrimSpace(cfg.Active)),
		networks: networks,
		probe:    probe,
		logger:   logger.Named("ChainContext"),
	}
}

// ActiveNetwork returns the network this run is bound to.
func (c *Context) ActiveNetwork(_ context.Context) (entity.NetworkIdentity, error) {
	if c.active == "" {
		return "", fmt.Errorf("%w: no active network configured", domain.ErrNetworkDetection)
	}
	return c.active, nil
}

// CurrentTime returns the timestamp of the latest block.
func (c *Context) CurrentTime(ctx context.Context) (uint64, error) {
	client, _, err := c.connect(ctx)
	if err != nil {
		return 0, err
	}
	header, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("fetch latest header on %s: %w", c.active, err)
	}
	return header.Time, nil
}

// Backend returns the connection to the active network, dialing it if needed.
func (c *Context) Backend(ctx context.Context) (domainService.ChainBackend, error) {
	client, _, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// ChainID returns the chain ID reported by the active network's endpoint.
func (c *Context) ChainID(ctx context.Context) (*big.Int, error) {
	_, chainID, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	return chainID, nil
}

// Close releases the RPC connection.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		c.client.Close()
		c.client = nil
		c.chainID = nil
	}
}

// connect returns the live client and a copy of its chain ID, both read under the lock.
func (c *Context) connect(ctx context.Context) (*ethclient.Client, *big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, new(big.Int).Set(c.chainID), nil
	}

	network, err := c.ActiveNetwork(ctx)
	if err != nil {
		return nil, nil, err
	}

	def, found, err := c.networks.Definition(ctx, network)
	if err != nil {
		return nil, nil, fmt.Errorf("look up network %s: %w", network, err)
	}
	if !found {
		return nil, nil, fmt.Errorf("%w: %s has no rpc endpoint definition", domain.ErrNetworkNotConfigured, network)
	}

	if c.probe != nil {
		status, err := c.probe.Probe(ctx, def.RPCURL)
		if err != nil {
			return nil, nil, fmt.Errorf("endpoint of %s is not usable: %w", network, err)
		}
		c.logger.Info("Endpoint reachable",
			zap.String("network", network.String()),
			zap.Uint64("headBlock", status.BlockNumber),
			zap.Duration("latency", status.Latency),
		)
	}

	client, err := ethclient.DialContext(ctx, def.RPCURL.String())
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", network, err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("query chain id of %s: %w", network, err)
	}
	if def.ChainID != 0 && (!chainID.IsUint64() || chainID.Uint64() != def.ChainID) {
		client.Close()
		return nil, nil, fmt.Errorf("%w: %s expects %d, endpoint reports %s",
			domain.ErrChainIDMismatch, network, def.ChainID, chainID,
		)
	}

	c.logger.Debug("Connected to network",
		zap.String("network", network.String()),
		zap.String("chainId", chainID.String()),
	)
	c.client = client
	c.chainID = chainID
	return client, new(big.Int).Set(chainID), nil
}
