package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ariefcatur/go-shop-orders/internal/config"
	"github.com/ariefcatur/go-shop-orders/internal/inventory"
	kafkax "github.com/ariefcatur/go-shop-orders/internal/kafka"
	"github.com/ariefcatur/go-shop-orders/internal/logger"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/ariefcatur/go-shop-orders/internal/postgres"
	"github.com/ariefcatur/go-shop-orders/internal/redisx"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Must(logger.New("info")).Fatal("invalid configuration", zap.Error(err))
	}
	name := cfg.ServiceName + "-inventory"
	log := logger.Must(logger.New(cfg.LogLevel)).With(zap.String("service", name))
	defer func() { _ = log.Sync() }()

	if err := run(cfg, name, log); err != nil {
		log.Error("reconciler stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, name string, log *zap.Logger) error {
	if len(cfg.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required for the reconciler")
	}
	if cfg.Storage != config.StoragePostgres {
		return errors.New("the reconciler needs STORAGE=postgres")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, postgres.PoolOptions{})
	if err != nil {
		return err
	}
	defer db.Close()

	svc := &inventory.Service{
		Ledger:      &postgres.Ledger{DB: db},
		Products:    &postgres.ProductRepo{DB: db},
		Logger:      logger.Named(log, "inventory"),
		ServiceName: name,
	}
	if cfg.RedisAddr != "" {
		rdb, err := redisx.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer rdb.Close()
		svc.Dedup = &redisx.Deduper{Redis: rdb}
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.InventoryGroup, orders.TopicStockReleaseRequested,
		cfg.InventoryWorkers, logger.Named(log, "kafka"))
	log.Info("reconciler started", zap.String("group", cfg.InventoryGroup),
		zap.String("topic", orders.TopicStockReleaseRequested), zap.Int("workers", cfg.InventoryWorkers))
	return cons.Start(ctx, svc.HandleReleaseRequested)
}
