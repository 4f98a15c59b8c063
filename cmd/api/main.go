package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ariefcatur/go-shop-orders/internal/auth"
	"github.com/ariefcatur/go-shop-orders/internal/config"
	"github.com/ariefcatur/go-shop-orders/internal/httpx"
	"github.com/ariefcatur/go-shop-orders/internal/inventory"
	kafkax "github.com/ariefcatur/go-shop-orders/internal/kafka"
	"github.com/ariefcatur/go-shop-orders/internal/logger"
	"github.com/ariefcatur/go-shop-orders/internal/memstore"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/ariefcatur/go-shop-orders/internal/postgres"
	"github.com/ariefcatur/go-shop-orders/internal/redisx"
)

type storage struct {
	users    orders.UserRepository
	products orders.ProductRepository
	orders   orders.OrderRepository
	ledger   orders.StockLedger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Must(logger.New("info")).Fatal("invalid configuration", zap.Error(err))
	}
	log := logger.Must(logger.New(cfg.LogLevel)).With(zap.String("service", cfg.ServiceName))
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("api stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStorage, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStorage()

	svc := &orders.Service{
		Users:                st.users,
		Products:             st.products,
		Orders:               st.orders,
		Ledger:               st.ledger,
		Logger:               logger.Named(log, "orders"),
		ServiceName:          cfg.ServiceName,
		CompensationAttempts: cfg.CompensationAttempts,
		CompensationBackoff:  cfg.CompensationBackoff,
	}
	ordersHandler := &httpx.OrdersHandler{Service: svc, Logger: logger.Named(log, "http")}

	if cfg.RedisAddr != "" {
		rdb, err := redisx.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer rdb.Close()
		svc.Cache = &redisx.OrderCache{Redis: rdb}
		ordersHandler.Idempotency = &redisx.Idempotency{Redis: rdb}
		log.Info("redis enabled", zap.String("addr", cfg.RedisAddr))
	}

	if len(cfg.KafkaBrokers) > 0 {
		prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, logger.Named(log, "kafka"))
		prod.Start()
		defer func() {
			prod.Close()
			prod.WaitClosed()
		}()
		svc.Events = &kafkax.Publisher{Producer: prod}
		log.Info("kafka enabled", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	catalog := orders.NewCatalog(st.users, st.products, logger.Named(log, "catalog"))
	authn := &auth.Authenticator{Users: st.users, Cost: cfg.BcryptCost}
	inv := &inventory.Service{Ledger: st.ledger, Products: st.products, Logger: logger.Named(log, "inventory")}

	httpLog := logger.Named(log, "http")
	router := httpx.NewRouter(httpLog, cfg.RequestTimeout)
	api := &httpx.API{
		Users:    &httpx.UsersHandler{Catalog: catalog, Auth: authn, Logger: httpLog},
		Products: &httpx.ProductsHandler{Catalog: catalog, Inventory: inv, Logger: httpLog},
		Orders:   ordersHandler,
		Auth:     authn,
		Logger:   httpLog,
	}
	api.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.String("storage", cfg.Storage))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStorage(ctx context.Context, cfg config.Config, log *zap.Logger) (storage, func(), error) {
	if cfg.Storage == config.StorageMemory {
		m := memstore.New()
		log.Warn("using in-memory storage; data is lost on restart")
		return storage{users: m, products: m, orders: m, ledger: m}, func() {}, nil
	}

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, postgres.PoolOptions{})
	if err != nil {
		return storage{}, nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return storage{}, nil, err
	}
	return pgStorage(db), db.Close, nil
}

func pgStorage(db *pgxpool.Pool) storage {
	return storage{
		users:    &postgres.UserRepo{DB: db},
		products: &postgres.ProductRepo{DB: db},
		orders:   &postgres.OrderRepo{DB: db},
		ledger:   &postgres.Ledger{DB: db},
	}
}
