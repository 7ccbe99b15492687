package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/shopbot/gateway"
	"github.com/example/shopbot/pkg/app"
	"github.com/example/shopbot/pkg/config"
	"github.com/example/shopbot/pkg/discovery"
	"github.com/example/shopbot/pkg/grpc"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", os.Getenv("SHOPBOT_CONFIG"), "path to the YAML config file")
	flag.Parse()

	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := cfg.Log.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting API Gateway",
		zap.String("storage", cfg.Storage.Driver),
		zap.Int("port", cfg.Gateway.Port),
		zap.String("host", cfg.Gateway.Host))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		logger.Fatal("Failed to build services", zap.Error(err))
	}

	// Health service
	health := grpc.NewHealthServer(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port), a.Deps, logger)
	go health.Watch(ctx, 15*time.Second)

	gw := gateway.NewGateway(cfg, logger, gateway.Deps{
		Orchestrator: a.Orchestrator,
		Catalog:      a.Catalog,
		Carts:        a.Carts,
		Orders:       a.Orders,
		History:      a.History,
		Replay:       a.Replay,
		Metrics:      a.Metrics,
		Health:       health,
	})
	gw.SetupRoutes()

	// Start servers in goroutines
	errCh := make(chan error, 2)
	go func() {
		if err := gw.Start(); err != nil {
			errCh <- fmt.Errorf("gateway: %w", err)
		}
	}()
	go func() {
		if err := health.Start(); err != nil {
			errCh <- fmt.Errorf("health: %w", err)
		}
	}()

	// Setup service discovery
	var (
		sd        *discovery.ServiceDiscovery
		instances = []*discovery.ServiceInstance{
			{Name: cfg.Server.Name, Protocol: "http", Host: cfg.Gateway.Host, Port: cfg.Gateway.Port},
			{Name: cfg.Server.Name, Protocol: "grpc", Host: cfg.Server.Host, Port: cfg.Server.Port},
		}
	)
	if len(cfg.Etcd.Endpoints) > 0 {
		sd, err = discovery.NewServiceDiscovery(&cfg.Etcd, logger)
		if err != nil {
			logger.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
		} else {
			for _, inst := range instances {
				if err := sd.Register(ctx, inst); err != nil {
					logger.Warn("Failed to register service", zap.String("key", inst.Key(cfg.Etcd.Prefix)), zap.Error(err))
				}
			}
		}
	}

	logger.Info("Gateway started successfully")

	// Wait for interrupt signal
	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-errCh:
		logger.Error("Server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if sd != nil {
		for _, inst := range instances {
			if err := sd.Deregister(shutdownCtx, inst); err != nil {
				logger.Error("Failed to deregister service", zap.Error(err))
			}
		}
		sd.Close()
	}
	if err := gw.Shutdown(shutdownCtx); err != nil {
		logger.Error("Gateway shutdown failed", zap.Error(err))
	}
	health.Stop()
	if err := a.Close(shutdownCtx); err != nil {
		logger.Error("Failed to close stores", zap.Error(err))
	}

	logger.Info("Gateway stopped")
}
