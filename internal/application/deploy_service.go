package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"isotop-deployer/internal/application/port"
	"isotop-deployer/internal/domain"
	"isotop-deployer/internal/domain/entity"
	domainRepo "isotop-deployer/internal/domain/repository"
	domainService "isotop-deployer/internal/domain/service"

	"go.uber.org/zap"
)

// Compile-time check to ensure deployService implements DeployService
var _ port.DeployService = (*deployService)(nil)

// deployService implements the port.DeployService interface orchestrating one deployment run.
type deployService struct {
	chain       domainService.ChainContext
	accounts    domainRepo.AccountProvider
	networks    domainRepo.NetworkRepository
	deployer    domainService.ContractDeployer
	deployments domainRepo.DeploymentRepository
	logger      *zap.Logger
}

// NewDeployService creates a new instance of the deploy service.
// deployments may be nil when completed deployments need not be kept.
func NewDeployService(
	chain domainService.ChainContext,
	accounts domainRepo.AccountProvider,
	networks domainRepo.NetworkRepository,
	deployer domainService.ContractDeployer,
	deployments domainRepo.DeploymentRepository,
	logger *zap.Logger,
) port.DeployService {
	return &deployService{
		chain:       chain,
		accounts:    accounts,
		networks:    networks,
		deployer:    deployer,
		deployments: deployments,
		logger:      logger.Named("DeployService"),
	}
}

// Run detects the network, resolves accounts and deploys once per matching network class.
// Any failure after detection ends the run; it is logged with a stack trace and returned
// in the result.
func (s *deployService) Run(ctx context.Context) (result entity.RunResult) {
	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("%w: %v", domain.ErrUnexpectedFailure, r)
			s.reportFailure(result, zap.Stack("panicStack"))
		}
	}()

	network, err := s.chain.ActiveNetwork(ctx)
	if err != nil {
		result.Err = wrapAs(domain.ErrNetworkDetection, err)
		s.reportFailure(result)
		return result
	}
	result.Network = network
	s.logger.Info("Current Network: "+network.String(), zap.String("network", network.String()))

	if err := s.deploy(ctx, &result); err != nil {
		result.Err = err
		s.reportFailure(result)
		return result
	}

	s.logger.Info("Deployment run finished",
		zap.String("network", network.String()),
		zap.String("outcome", string(result.Outcome())),
		zap.Int("deployments", len(result.Deployments)),
	)
	return result
}

// deploy runs account resolution, classification and the per-class branches.
// The local and test branches are independent; a network in both is deployed twice.
func (s *deployService) deploy(ctx context.Context, result *entity.RunResult) error {
	network := result.Network

	accounts, err := s.accounts.ResolveAccounts(ctx, network)
	if err != nil {
		return wrapAs(domain.ErrAccountResolution, err)
	}

	tables := s.networks.Tables()
	result.Classes = tables.Classify(network)

	deployed := false
	if tables.IsLocal(network) {
		record, err := s.deployBranch(ctx, network, entity.NetworkClassLocal, accounts.Admin)
		if err != nil {
			return err
		}
		result.Deployments = append(result.Deployments, record)
		deployed = true
	}

	if tables.IsTest(network) {
		record, err := s.deployBranch(ctx, network, entity.NetworkClassTest, accounts.Admin)
		if err != nil {
			return err
		}
		result.Deployments = append(result.Deployments, record)
		deployed = true
	}

	if !deployed {
		s.logger.Info("Network is neither local nor test, nothing to deploy",
			zap.String("network", network.String()),
			zap.Any("classes", result.Classes),
		)
	}
	return nil
}

// deployBranch constructs the contract and then configures its sale state.
func (s *deployService) deployBranch(
	ctx context.Context,
	network entity.NetworkIdentity,
	class entity.NetworkClass,
	admin entity.Account,
) (entity.DeploymentRecord, error) {
	params := entity.NewDeploymentParameters(admin.Address)
	s.logger.Info("Deploying contract",
		zap.String("network", network.String()),
		zap.String("class", string(class)),
		zap.String("owner", params.Owner.Hex()),
	)

	contract, err := s.deployer.Deploy(ctx, admin, params)
	if err != nil {
		return entity.DeploymentRecord{}, wrapAs(domain.ErrDeploymentTransaction, err)
	}

	chainTime, err := s.chain.CurrentTime(ctx)
	if err != nil {
		return entity.DeploymentRecord{}, fmt.Errorf("%w: read chain time for %s: %v",
			domain.ErrConfigurationTransaction, contract.Address().Hex(), err,
		)
	}

	sale := entity.NewSaleConfiguration(chainTime)
	configureTx, err := contract.ConfigureSale(ctx, sale)
	if err != nil {
		return entity.DeploymentRecord{}, fmt.Errorf("%w: contract %s: %v",
			domain.ErrConfigurationTransaction, contract.Address().Hex(), err,
		)
	}

	record := entity.DeploymentRecord{
		Network:         network,
		Class:           class,
		ContractAddress: contract.Address(),
		DeployTxHash:    contract.DeployTxHash(),
		ConfigureTxHash: configureTx,
		Parameters:      params,
		Sale:            sale,
		DeployedAt:      time.Unix(int64(chainTime), 0).UTC(),
	}

	if s.deployments != nil {
		if err := s.deployments.Record(ctx, record); err != nil {
			s.logger.Warn("Failed to record deployment", zap.String("contract", record.ContractAddress.Hex()), zap.Error(err))
		}
	}

	s.logger.Info("Contract deployed and configured",
		zap.String("network", network.String()),
		zap.String("class", string(class)),
		zap.String("address", record.ContractAddress.Hex()),
		zap.Uint64("saleStart", sale.StartTimestamp),
	)
	return record, nil
}

// reportFailure emits the diagnostic trace of a failed run.
func (s *deployService) reportFailure(result entity.RunResult, extra ...zap.Field) {
	fields := []zap.Field{
		zap.String("network", result.Network.String()),
		zap.Int("completedDeployments", len(result.Deployments)),
		zap.Error(result.Err),
	}
	s.logger.Error("Deployment run failed", append(fields, extra...)...)
}

// wrapAs tags err with sentinel unless it already carries it.
func wrapAs(sentinel, err error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
