package application

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"isotop-deployer/internal/domain"
	"isotop-deployer/internal/domain/entity"
	domainService "isotop-deployer/internal/domain/service"
)

// MockChainContext is a mock implementation of ChainContext.
type MockChainContext struct {
	mock.Mock
}

func (m *MockChainContext) ActiveNetwork(ctx context.Context) (entity.NetworkIdentity, error) {
	args := m.Called(ctx)
	return args.Get(0).(entity.NetworkIdentity), args.Error(1)
}

func (m *MockChainContext) CurrentTime(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

// MockAccountProvider is a mock implementation of AccountProvider.
type MockAccountProvider struct {
	mock.Mock
}

func (m *MockAccountProvider) ResolveAccounts(ctx context.Context, id entity.NetworkIdentity) (entity.AccountSet, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(entity.AccountSet), args.Error(1)
}

// MockDeployer is a mock implementation of ContractDeployer.
type MockDeployer struct {
	mock.Mock
}

func (m *MockDeployer) Deploy(ctx context.Context, from entity.Account, params entity.DeploymentParameters) (domainService.DeployedContract, error) {
	args := m.Called(ctx, from, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domainService.DeployedContract), args.Error(1)
}

// MockContract is a mock implementation of DeployedContract.
type MockContract struct {
	mock.Mock
	address common.Address
}

func (m *MockContract) Address() common.Address {
	return m.address
}

func (m *MockContract) DeployTxHash() common.Hash {
	return common.BytesToHash(m.address.Bytes())
}

func (m *MockContract) ConfigureSale(ctx context.Context, sale entity.SaleConfiguration) (common.Hash, error) {
	args := m.Called(ctx, sale)
	return args.Get(0).(common.Hash), args.Error(1)
}

// stubNetworks serves fixed tables.
type stubNetworks struct {
	tables entity.NetworkTables
}

func (s stubNetworks) Tables() entity.NetworkTables {
	return s.tables
}

func (s stubNetworks) Definition(context.Context, entity.NetworkIdentity) (entity.NetworkDefinition, bool, error) {
	return entity.NetworkDefinition{}, false, nil
}

// memoryRecorder collects recorded deployments.
type memoryRecorder struct {
	records []entity.DeploymentRecord
	err     error
}

func (r *memoryRecorder) Record(_ context.Context, record entity.DeploymentRecord) error {
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, record)
	return nil
}

func (r *memoryRecorder) List(context.Context, entity.NetworkIdentity) ([]entity.DeploymentRecord, error) {
	return r.records, nil
}

const chainNow uint64 = 1_700_000_000

var (
	adminAddr    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	contractAddr = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	configureTx  = common.HexToHash("0xbeef")
)

func testTables() entity.NetworkTables {
	return entity.NetworkTables{
		Local:   entity.NewNetworkSet("development", "shared"),
		Test:    entity.NewNetworkSet("sepolia", "shared"),
		Defined: entity.NewNetworkSet("development", "sepolia", "mainnet"),
	}
}

func testAccounts() entity.AccountSet {
	return entity.AccountSet{
		Admin:    entity.Account{Role: entity.RoleAdmin, Address: adminAddr},
		Creator:  entity.Account{Role: entity.RoleCreator, Address: common.HexToAddress("0xa2")},
		Consumer: entity.Account{Role: entity.RoleConsumer, Address: common.HexToAddress("0xa3")},
		Operator: entity.Account{Role: entity.RoleOperator, Address: common.HexToAddress("0xa4")},
	}
}

func expectedParams() entity.DeploymentParameters {
	return entity.DeploymentParameters{
		MaxSupply: 10000,
		Secondary: 3125,
		Tertiary:  3,
		BaseURI:   "http://isotop.top/",
		Owner:     adminAddr,
	}
}

type fixture struct {
	chain    *MockChainContext
	accounts *MockAccountProvider
	deployer *MockDeployer
	recorder *memoryRecorder
	logs     *observer.ObservedLogs
	svc      *deployService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{
		chain:    new(MockChainContext),
		accounts: new(MockAccountProvider),
		deployer: new(MockDeployer),
		recorder: &memoryRecorder{},
		logs:     logs,
	}
	f.svc = NewDeployService(
		f.chain, f.accounts, stubNetworks{tables: testTables()}, f.deployer, f.recorder, zap.New(core),
	).(*deployService)
	return f
}

func (f *fixture) assertAll(t *testing.T, mocks ...interface{ AssertExpectations(mock.TestingT) bool }) {
	t.Helper()
	f.chain.AssertExpectations(t)
	f.accounts.AssertExpectations(t)
	f.deployer.AssertExpectations(t)
	for _, m := range mocks {
		m.AssertExpectations(t)
	}
}

func TestDeployService_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("unclassified network deploys nothing", func(t *testing.T) {
		for _, network := range []entity.NetworkIdentity{"mainnet", "unheard-of"} {
			f := newFixture(t)
			f.chain.On("ActiveNetwork", ctx).Return(network, nil)
			f.accounts.On("ResolveAccounts", ctx, network).Return(testAccounts(), nil)

			result := f.svc.Run(ctx)

			require.NoError(t, result.Err)
			assert.Equal(t, entity.OutcomeSkipped, result.Outcome())
			assert.Empty(t, result.Deployments)
			f.deployer.AssertNotCalled(t, "Deploy", mock.Anything, mock.Anything, mock.Anything)
			f.chain.AssertNotCalled(t, "CurrentTime", mock.Anything)
			f.assertAll(t)
		}
	})

	t.Run("production and unknown classes are reported", func(t *testing.T) {
		f := newFixture(t)
		f.chain.On("ActiveNetwork", ctx).Return(entity.NetworkIdentity("mainnet"), nil)
		f.accounts.On("ResolveAccounts", ctx, entity.NetworkIdentity("mainnet")).Return(testAccounts(), nil)

		result := f.svc.Run(ctx)
		assert.Equal(t, []entity.NetworkClass{entity.NetworkClassProduction}, result.Classes)
	})

	for _, tc := range []struct {
		network entity.NetworkIdentity
		class   entity.NetworkClass
	}{
		{network: "development", class: entity.NetworkClassLocal},
		{network: "sepolia", class: entity.NetworkClassTest},
	} {
		t.Run("single class network deploys once: "+tc.network.String(), func(t *testing.T) {
			f := newFixture(t)
			contract := &MockContract{address: contractAddr}

			f.chain.On("ActiveNetwork", ctx).Return(tc.network, nil)
			f.accounts.On("ResolveAccounts", ctx, tc.network).Return(testAccounts(), nil)
			deployCall := f.deployer.On("Deploy", ctx, testAccounts().Admin, expectedParams()).Return(contract, nil).Once()
			timeCall := f.chain.On("CurrentTime", ctx).Return(chainNow, nil).Once().NotBefore(deployCall)
			contract.On("ConfigureSale", ctx, entity.SaleConfiguration{StartOffset: 0, StartTimestamp: chainNow}).
				Return(configureTx, nil).Once().NotBefore(timeCall)

			result := f.svc.Run(ctx)

			require.NoError(t, result.Err)
			assert.Equal(t, entity.OutcomeDeployed, result.Outcome())
			assert.Equal(t, tc.network, result.Network)
			assert.Equal(t, []entity.NetworkClass{tc.class}, result.Classes)
			require.Len(t, result.Deployments, 1)

			record := result.Deployments[0]
			assert.Equal(t, tc.class, record.Class)
			assert.Equal(t, contractAddr, record.ContractAddress)
			assert.Equal(t, configureTx, record.ConfigureTxHash)
			assert.Equal(t, expectedParams(), record.Parameters)
			assert.Equal(t, chainNow, record.Sale.StartTimestamp)
			assert.Equal(t, int64(chainNow), record.DeployedAt.Unix())
			assert.Equal(t, result.Deployments, f.recorder.records)

			f.assertAll(t, contract)
		})
	}

	t.Run("network in both tables deploys twice", func(t *testing.T) {
		f := newFixture(t)
		first := &MockContract{address: common.HexToAddress("0xc1")}
		second := &MockContract{address: common.HexToAddress("0xc2")}
		network := entity.NetworkIdentity("shared")

		f.chain.On("ActiveNetwork", ctx).Return(network, nil)
		f.accounts.On("ResolveAccounts", ctx, network).Return(testAccounts(), nil)
		f.deployer.On("Deploy", ctx, testAccounts().Admin, expectedParams()).Return(first, nil).Once()
		f.deployer.On("Deploy", ctx, testAccounts().Admin, expectedParams()).Return(second, nil).Once()
		f.chain.On("CurrentTime", ctx).Return(chainNow, nil).Once()
		f.chain.On("CurrentTime", ctx).Return(chainNow+12, nil).Once()
		first.On("ConfigureSale", ctx, entity.NewSaleConfiguration(chainNow)).Return(configureTx, nil).Once()
		second.On("ConfigureSale", ctx, entity.NewSaleConfiguration(chainNow+12)).Return(configureTx, nil).Once()

		result := f.svc.Run(ctx)

		require.NoError(t, result.Err)
		assert.Equal(t, []entity.NetworkClass{entity.NetworkClassLocal, entity.NetworkClassTest}, result.Classes)
		require.Len(t, result.Deployments, 2)
		assert.Equal(t, entity.NetworkClassLocal, result.Deployments[0].Class)
		assert.Equal(t, entity.NetworkClassTest, result.Deployments[1].Class)
		assert.Equal(t, result.Deployments[0].Parameters, result.Deployments[1].Parameters)
		assert.NotEqual(t, result.Deployments[0].ContractAddress, result.Deployments[1].ContractAddress)
		f.deployer.AssertNumberOfCalls(t, "Deploy", 2)
		f.assertAll(t, first, second)
	})

	t.Run("account resolution failure is contained", func(t *testing.T) {
		f := newFixture(t)
		f.chain.On("ActiveNetwork", ctx).Return(entity.NetworkIdentity("development"), nil)
		f.accounts.On("ResolveAccounts", ctx, entity.NetworkIdentity("development")).
			Return(entity.AccountSet{}, errors.New("only 2 keys"))

		var result entity.RunResult
		require.NotPanics(t, func() { result = f.svc.Run(ctx) })

		require.Error(t, result.Err)
		assert.ErrorIs(t, result.Err, domain.ErrAccountResolution)
		assert.Equal(t, entity.OutcomeFailed, result.Outcome())
		f.deployer.AssertNotCalled(t, "Deploy", mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, 1, f.logs.FilterMessage("Deployment run failed").Len())
	})

	t.Run("deploy failure skips configuration", func(t *testing.T) {
		f := newFixture(t)
		f.chain.On("ActiveNetwork", ctx).Return(entity.NetworkIdentity("development"), nil)
		f.accounts.On("ResolveAccounts", ctx, entity.NetworkIdentity("development")).Return(testAccounts(), nil)
		f.deployer.On("Deploy", ctx, testAccounts().Admin, expectedParams()).Return(nil, errors.New("out of gas"))

		result := f.svc.Run(ctx)

		assert.ErrorIs(t, result.Err, domain.ErrDeploymentTransaction)
		assert.Empty(t, result.Deployments)
		f.chain.AssertNotCalled(t, "CurrentTime", mock.Anything)
		assert.Empty(t, f.recorder.records)
		f.assertAll(t)
	})

	t.Run("configuration failure keeps the deployed contract", func(t *testing.T) {
		f := newFixture(t)
		contract := &MockContract{address: contractAddr}
		f.chain.On("ActiveNetwork", ctx).Return(entity.NetworkIdentity("sepolia"), nil)
		f.accounts.On("ResolveAccounts", ctx, entity.NetworkIdentity("sepolia")).Return(testAccounts(), nil)
		f.deployer.On("Deploy", ctx, testAccounts().Admin, expectedParams()).Return(contract, nil).Once()
		f.chain.On("CurrentTime", ctx).Return(chainNow, nil)
		contract.On("ConfigureSale", ctx, entity.NewSaleConfiguration(chainNow)).Return(common.Hash{}, errors.New("reverted"))

		result := f.svc.Run(ctx)

		assert.ErrorIs(t, result.Err, domain.ErrConfigurationTransaction)
		assert.Contains(t, result.Err.Error(), contractAddr.Hex())
		f.deployer.AssertNumberOfCalls(t, "Deploy", 1)
		f.assertAll(t, contract)
	})

	t.Run("chain time failure is a configuration failure", func(t *testing.T) {
		f := newFixture(t)
		contract := &MockContract{address: contractAddr}
		f.chain.On("ActiveNetwork", ctx).Return(entity.NetworkIdentity("development"), nil)
		f.accounts.On("ResolveAccounts", ctx, entity.NetworkIdentity("development")).Return(testAccounts(), nil)
		f.deployer.On("Deploy", ctx, testAccounts().Admin, expectedParams()).Return(contract, nil)
		f.chain.On("CurrentTime", ctx).Return(uint64(0), errors.New("connection reset"))

		result := f.svc.Run(ctx)

		assert.ErrorIs(t, result.Err, domain.ErrConfigurationTransaction)
		contract.AssertNotCalled(t, "ConfigureSale", mock.Anything, mock.Anything)
	})

	t.Run("first branch failure stops the second branch", func(t *testing.T) {
		f := newFixture(t)
		network := entity.NetworkIdentity("shared")
		f.chain.On("ActiveNetwork", ctx).Return(network, nil)
		f.accounts.On("ResolveAccounts", ctx, network).Return(testAccounts(), nil)
		f.deployer.On("Deploy", ctx, testAccounts().Admin, expectedParams()).Return(nil, errors.New("nonce too low"))

		result := f.svc.Run(ctx)

		assert.ErrorIs(t, result.Err, domain.ErrDeploymentTransaction)
		f.deployer.AssertNumberOfCalls(t, "Deploy", 1)
	})

	t.Run("network detection failure is reported", func(t *testing.T) {
		f := newFixture(t)
		f.chain.On("ActiveNetwork", ctx).Return(entity.NetworkIdentity(""), errors.New("no network"))

		result := f.svc.Run(ctx)

		assert.ErrorIs(t, result.Err, domain.ErrNetworkDetection)
		f.accounts.AssertNotCalled(t, "ResolveAccounts", mock.Anything, mock.Anything)
	})

	t.Run("collaborator panic is recovered", func(t *testing.T) {
		f := newFixture(t)
		f.chain.On("ActiveNetwork", ctx).Return(entity.NetworkIdentity("development"), nil)
		f.accounts.On("ResolveAccounts", ctx, entity.NetworkIdentity("development")).Return(testAccounts(), nil)
		f.deployer.On("Deploy", ctx, testAccounts().Admin, expectedParams()).Run(func(mock.Arguments) {
			panic("nil backend")
		})

		var result entity.RunResult
		require.NotPanics(t, func() { result = f.svc.Run(ctx) })

		assert.ErrorIs(t, result.Err, domain.ErrUnexpectedFailure)
		assert.Equal(t, entity.NetworkIdentity("development"), result.Network)
		failures := f.logs.FilterMessage("Deployment run failed").All()
		require.Len(t, failures, 1)
		assert.Contains(t, failures[0].ContextMap(), "panicStack")
	})

	t.Run("recorder failure does not fail the run", func(t *testing.T) {
		f := newFixture(t)
		f.recorder.err = errors.New("registry unavailable")
		contract := &MockContract{address: contractAddr}
		f.chain.On("ActiveNetwork", ctx).Return(entity.NetworkIdentity("development"), nil)
		f.accounts.On("ResolveAccounts", ctx, entity.NetworkIdentity("development")).Return(testAccounts(), nil)
		f.deployer.On("Deploy", ctx, testAccounts().Admin, expectedParams()).Return(contract, nil)
		f.chain.On("CurrentTime", ctx).Return(chainNow, nil)
		contract.On("ConfigureSale", ctx, entity.NewSaleConfiguration(chainNow)).Return(configureTx, nil)

		result := f.svc.Run(ctx)

		require.NoError(t, result.Err)
		assert.Len(t, result.Deployments, 1)
		assert.Equal(t, 1, f.logs.FilterMessage("Failed to record deployment").Len())
	})

	t.Run("repeated runs deploy again", func(t *testing.T) {
		f := newFixture(t)
		contract := &MockContract{address: contractAddr}
		f.chain.On("ActiveNetwork", ctx).Return(entity.NetworkIdentity("development"), nil)
		f.accounts.On("ResolveAccounts", ctx, entity.NetworkIdentity("development")).Return(testAccounts(), nil)
		f.deployer.On("Deploy", ctx, testAccounts().Admin, expectedParams()).Return(contract, nil)
		f.chain.On("CurrentTime", ctx).Return(chainNow, nil)
		contract.On("ConfigureSale", ctx, entity.NewSaleConfiguration(chainNow)).Return(configureTx, nil)

		f.svc.Run(ctx)
		f.svc.Run(ctx)

		f.deployer.AssertNumberOfCalls(t, "Deploy", 2)
		assert.Len(t, f.recorder.records, 2)
	})

	t.Run("announces the active network", func(t *testing.T) {
		f := newFixture(t)
		f.chain.On("ActiveNetwork", ctx).Return(entity.NetworkIdentity("mainnet"), nil)
		f.accounts.On("ResolveAccounts", ctx, entity.NetworkIdentity("mainnet")).Return(testAccounts(), nil)

		f.svc.Run(ctx)

		assert.Equal(t, 1, f.logs.FilterMessage("Current Network: mainnet").Len())
	})
}
