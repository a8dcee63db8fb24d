package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"isotop-deployer/internal/adapter/accounts"
	"isotop-deployer/internal/adapter/chain"
	"isotop-deployer/internal/adapter/contract"
	"isotop-deployer/internal/adapter/rpc"
	"isotop-deployer/internal/adapter/storage/memory"
	"isotop-deployer/internal/adapter/storage/networks"
	"isotop-deployer/internal/application"
	"isotop-deployer/internal/config"
	"isotop-deployer/internal/domain/entity"
	domainService "isotop-deployer/internal/domain/service"
	"isotop-deployer/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	// --- Configuration ---
	cfgPath := "configs"
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("Failed to load configuration from %s: %v", cfgPath, err)
		return 1
	}

	// --- Logger ---
	appLogger, err := logger.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Printf("Failed to setup logger: %v", err)
		return 1
	}
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if timeout := cfg.App.GetRunTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// --- Dependency Injection (Manual) ---
	networkRepo, err := networks.NewRepository(cfg.Network, appLogger)
	if err != nil {
		appLogger.Error("Failed to load network tables", zap.Error(err))
		return 1
	}

	var probe domainService.EndpointProbe
	if cfg.Probe.Enabled {
		probe = rpc.NewProbe(cfg.Probe, appLogger)
	}
	chainCtx := chain.NewContext(cfg.Network, networkRepo, probe, appLogger)
	defer chainCtx.Close()

	accountProvider := accounts.NewProvider(networkRepo, appLogger)
	deployer := contract.NewDeployer(cfg.Contract, chainCtx, appLogger)
	registry := memory.NewRegistry(cfg.Registry, appLogger)

	deployService := application.NewDeployService(chainCtx, accountProvider, networkRepo, deployer, registry, appLogger)

	// --- Run ---
	result := deployService.Run(ctx)

	recorded, err := registry.List(ctx, result.Network)
	if err != nil {
		appLogger.Warn("Failed to list recorded deployments", zap.Error(err))
	}
	for _, rec := range recorded {
		appLogger.Info("Contract address",
			zap.String("network", rec.Network.String()),
			zap.String("class", string(rec.Class)),
			zap.String("address", rec.ContractAddress.Hex()),
			zap.String("deployTx", rec.DeployTxHash.Hex()),
			zap.String("configureTx", rec.ConfigureTxHash.Hex()),
		)
	}

	if result.Outcome() == entity.OutcomeFailed && cfg.App.FailOnError {
		return 1
	}
	return 0
}
