package contract

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"isotop-deployer/internal/config"
	"isotop-deployer/internal/domain/entity"
	domainService "isotop-deployer/internal/domain/service"
)

// Compile-time checks
var (
	_ domainService.ContractDeployer = (*Deployer)(nil)
	_ domainService.DeployedContract = (*Instance)(nil)
)

// Deployer deploys the NFT artifact through go-ethereum contract bindings.
type Deployer struct {
	artifactPath string
	txTimeout    time.Duration
	backends     domainService.BackendProvider
	logger       *zap.Logger

	mu       sync.Mutex
	artifact *Artifact
}

// NewDeployer creates a deployer. The artifact is loaded on first use.
func NewDeployer(cfg config.ContractConfig, backends domainService.BackendProvider, logger *zap.Logger) *Deployer {
	return &Deployer{
		artifactPath: cfg.ArtifactPath,
		txTimeout:    cfg.GetTxTimeout(),
		backends:     backends,
		logger:       logger.Named("ContractDeployer"),
	}
}

// NewDeployerWithArtifact creates a deployer around an already parsed artifact.
func NewDeployerWithArtifact(artifact *Artifact, cfg config.ContractConfig, backends domainService.BackendProvider, logger *zap.Logger) *Deployer {
	d := NewDeployer(cfg, backends, logger)
	d.artifact = artifact
	return d
}

// Deploy sends the creation transaction signed by from and waits until the code is on chain.
// The sender becomes the contract owner, so from must be the account in params.Owner.
func (d *Deployer) Deploy(
	ctx context.Context,
	from entity.Account,
	params entity.DeploymentParameters,
) (domainService.DeployedContract, error) {
	if from.Address != params.Owner {
		return nil, fmt.Errorf("sender %s is not the owner %s", from.Address.Hex(), params.Owner.Hex())
	}

	artifact, err := d.loadArtifact()
	if err != nil {
		return nil, err
	}

	backend, err := d.backends.Backend(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := d.transactor(ctx, from)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("Sending contract creation",
		zap.String("contract", artifact.Name),
		zap.String("from", from.Address.Hex()),
		zap.Uint64("maxSupply", params.MaxSupply),
		zap.Uint64("secondary", params.Secondary),
		zap.Uint64("tertiary", params.Tertiary),
		zap.String("baseURI", params.BaseURI),
	)

	_, tx, bound, err := bind.DeployContract(opts, artifact.ABI, artifact.Bytecode, backend,
		new(big.Int).SetUint64(params.MaxSupply),
		new(big.Int).SetUint64(params.Secondary),
		new(big.Int).SetUint64(params.Tertiary),
		params.BaseURI,
	)
	if err != nil {
		return nil, fmt.Errorf("send creation transaction: %w", err)
	}

	waitCtx, cancel := d.waitContext(ctx)
	defer cancel()

	address, err := bind.WaitDeployed(waitCtx, backend, tx)
	if err != nil {
		return nil, fmt.Errorf("wait for creation %s: %w", tx.Hash().Hex(), err)
	}

	d.logger.Info("Contract deployed",
		zap.String("address", address.Hex()),
		zap.String("txHash", tx.Hash().Hex()),
	)

	return &Instance{
		address:  address,
		deployTx: tx.Hash(),
		from:     from,
		bound:    bound,
		backend:  backend,
		deployer: d,
	}, nil
}

func (d *Deployer) loadArtifact() (*Artifact, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.artifact != nil {
		return d.artifact, nil
	}
	artifact, err := LoadArtifact(d.artifactPath)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("Loaded contract artifact",
		zap.String("path", d.artifactPath),
		zap.String("contract", artifact.Name),
		zap.Int("bytecodeSize", len(artifact.Bytecode)),
	)
	d.artifact = artifact
	return artifact, nil
}

func (d *Deployer) transactor(ctx context.Context, from entity.Account) (*bind.TransactOpts, error) {
	if from.PrivateKey == nil {
		return nil, fmt.Errorf("account %s has no signing key", from.Address.Hex())
	}
	chainID, err := d.backends.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := bind.NewKeyedTransactorWithChainID(from.PrivateKey, chainID)
	if err != nil {
		return nil, fmt.Errorf("create transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

func (d *Deployer) waitContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.txTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.txTimeout)
}

// Instance is a deployed NFT contract.
type Instance struct {
	address  common.Address
	deployTx common.Hash
	from     entity.Account
	bound    *bind.BoundContract
	backend  domainService.ChainBackend
	deployer *Deployer
}

// Address returns the contract address.
func (i *Instance) Address() common.Address {
	return i.address
}

// DeployTxHash returns the creation transaction hash.
func (i *Instance) DeployTxHash() common.Hash {
	return i.deployTx
}

// ConfigureSale calls setupNonAuctionSaleInfo(startOffset, startTimestamp) from the deploying account.
func (i *Instance) ConfigureSale(ctx context.Context, sale entity.SaleConfiguration) (common.Hash, error) {
	opts, err := i.deployer.transactor(ctx, i.from)
	if err != nil {
		return common.Hash{}, err
	}

	tx, err := i.bound.Transact(opts, SaleSetupMethod,
		new(big.Int).SetUint64(sale.StartOffset),
		new(big.Int).SetUint64(sale.StartTimestamp),
	)
	if err != nil {
		return common.Hash{}, fmt.Errorf("send %s: %w", SaleSetupMethod, err)
	}

	waitCtx, cancel := i.deployer.waitContext(ctx)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, i.backend, tx)
	if err != nil {
		return tx.Hash(), fmt.Errorf("wait for %s %s: %w", SaleSetupMethod, tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return tx.Hash(), fmt.Errorf("%s %s reverted in block %s", SaleSetupMethod, tx.Hash().Hex(), receipt.BlockNumber)
	}

	i.deployer.logger.Info("Sale configured",
		zap.String("address", i.address.Hex()),
		zap.String("txHash", tx.Hash().Hex()),
		zap.Uint64("startOffset", sale.StartOffset),
		zap.Uint64("startTimestamp", sale.StartTimestamp),
	)
	return tx.Hash(), nil
}
