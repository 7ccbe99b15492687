// Package app assembles the shop assistant from configuration. Both the HTTP
// gateway and the Telegram bot run on the same assembly.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/example/shopbot/pkg/audit"
	"github.com/example/shopbot/pkg/cart"
	"github.com/example/shopbot/pkg/config"
	"github.com/example/shopbot/pkg/dialogue"
	"github.com/example/shopbot/pkg/grpc"
	"github.com/example/shopbot/pkg/llm"
	"github.com/example/shopbot/pkg/metrics"
	"github.com/example/shopbot/pkg/models"
	"github.com/example/shopbot/pkg/order"
	"github.com/example/shopbot/pkg/repository"
	"go.uber.org/zap"
)

type cartStore interface {
	cart.Store
	order.CartTaker
}

// Replay stores chat results by idempotency key.
type Replay interface {
	Load(ctx context.Context, userID, key string, dest interface{}) (bool, error)
	Save(ctx context.Context, userID, key string, value interface{}) error
}

type App struct {
	Config       *config.Config
	Logger       *zap.Logger
	Catalog      repository.CatalogSource
	History      dialogue.HistoryStore
	Replay       Replay
	Carts        *cart.Mutator
	Orders       *order.Finalizer
	Orchestrator *dialogue.Orchestrator
	Metrics      *metrics.Registry
	Audit        *audit.Recorder
	// Deps are pinged by the health checks.
	Deps map[string]grpc.Pinger

	closers []func(ctx context.Context) error
}

// Options replace parts of the assembly. Model is used by tests instead of
// the configured language model client.
type Options struct {
	Model dialogue.LanguageModel
}

// New connects the configured stores and builds the services on top of them.
// On error everything opened so far is closed again.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.NewRegistry(),
		Deps:    map[string]grpc.Pinger{},
	}
	if err := a.build(ctx, opts); err != nil {
		a.Close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, opts Options) error {
	cfg, logger := a.Config, a.Logger
	var (
		carts  cartStore
		orders order.Store
		sinks  []audit.Sink
	)
	switch cfg.Storage.Driver {
	case "memory":
		a.Catalog = repository.NewMemoryCatalog(DefaultCatalog()...)
		a.History = repository.NewMemoryHistory(cfg.Chat.MaxStoredMessages)
		a.Replay = repository.NewMemoryReplay(cfg.Redis.ReplayTTL)
		carts = repository.NewMemoryCarts()
		orders = repository.NewMemoryOrders()
		sinks = append(sinks, audit.NewLogSink(logger))

	case "mongo":
		mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
		if err != nil {
			return fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		a.closers = append(a.closers, mongoRepo.Close)
		a.Deps["mongodb"] = mongoRepo
		if err := mongoRepo.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}

		redisRepo := repository.NewRedisRepository(&cfg.Redis)
		a.closers = append(a.closers, func(context.Context) error { return redisRepo.Close() })
		a.Deps["redis"] = redisRepo

		mysqlStore, err := repository.NewOrderStore(&cfg.MySQL)
		if err != nil {
			return fmt.Errorf("failed to connect to MySQL: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return mysqlStore.Close() })
		a.Deps["mysql"] = mysqlStore

		a.Catalog = repository.NewCachedCatalog(mongoRepo.Catalog(), redisRepo, logger)
		a.History = mongoRepo.History(cfg.Chat.MaxStoredMessages)
		a.Replay = redisRepo.Replay()
		carts = mongoRepo.Carts()
		orders = mysqlStore
		sinks = append(sinks, audit.NewMongoSink(mongoRepo, cfg.Server.Name))

	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		ks := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		a.closers = append(a.closers, func(context.Context) error { return ks.Close() })
		sinks = append(sinks, ks)
	}

	// The recorder must stop before the sinks' stores close, so its closer
	// goes last and runs first.
	recorder, err := audit.NewRecorder(logger, sinks...)
	if err != nil {
		return err
	}
	a.Audit = recorder
	a.closers = append(a.closers, func(context.Context) error {
		if failures, err := a.Audit.Flush(5 * time.Second); err == nil && failures > 0 {
			logger.Warn("Audit writes failed", zap.Int("failures", failures))
		}
		return a.Audit.Stop()
	})

	a.Carts = cart.NewMutator(carts, logger, cart.WithAuditor(a.Audit), cart.WithMetrics(a.Metrics))
	a.Orders = order.NewFinalizer(carts, orders, logger,
		order.WithStatus(models.OrderStatus(cfg.Orders.Status)),
		order.WithAuditor(a.Audit),
		order.WithMetrics(a.Metrics))

	model := opts.Model
	if model == nil {
		model = llm.NewClient(cfg.LLM, logger)
	}
	a.Orchestrator = dialogue.NewOrchestrator(a.Catalog, a.History, a.Carts, a.Orders, model, logger, a.Metrics,
		dialogue.Options{
			HistoryWindow:   cfg.Chat.HistoryWindow,
			OpeningQuestion: cfg.Chat.OpeningQuestion,
		})
	return nil
}

// Close releases everything in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.Logger.Error("Close failed", zap.Error(err))
			if first == nil {
				first = err
			}
		}
	}
	a.closers = nil
	return first
}
