package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/epitome-ke/storefront-checkout/internal/checkout"
	"github.com/epitome-ke/storefront-checkout/internal/config"
	"github.com/epitome-ke/storefront-checkout/internal/httpx"
	kafkax "github.com/epitome-ke/storefront-checkout/internal/kafka"
	"github.com/epitome-ke/storefront-checkout/internal/logging"
	"github.com/epitome-ke/storefront-checkout/internal/mpesa"
	"github.com/epitome-ke/storefront-checkout/internal/orders"
	"github.com/epitome-ke/storefront-checkout/internal/payment"
	"github.com/epitome-ke/storefront-checkout/internal/postgres"
	"github.com/epitome-ke/storefront-checkout/internal/redisx"
	"github.com/epitome-ke/storefront-checkout/internal/statuscache"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.MPesa.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.ServiceName, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api exited", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := redisx.Ping(ctx, rdb); err != nil {
		return err
	}
	cache := statuscache.New(rdb)

	// Kafka producer, one for every lifecycle topic
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, logger.Named("kafka"))
	prod.Start(ctx)
	pub := kafkax.EventPublisher{P: prod}

	// M-Pesa
	gw := mpesa.NewClient(mpesa.Config{
		BaseURL:        cfg.MPesa.ResolvedBaseURL(),
		ConsumerKey:    cfg.MPesa.ConsumerKey,
		ConsumerSecret: cfg.MPesa.ConsumerSecret,
		ShortCode:      cfg.MPesa.ShortCode,
		Passkey:        cfg.MPesa.Passkey,
		CallbackURL:    cfg.MPesa.CallbackURL,
		Timeout:        cfg.MPesa.Timeout,
	}, redisx.NewTokenStore(rdb, cfg.MPesa.ShortCode), logger.Named("mpesa"))

	// Services & handlers
	store := &orders.Repo{DB: db}
	router := httpx.NewRouter(logger)
	(&httpx.OrdersHandler{
		Checkout: &checkout.Service{
			Store:     store,
			Publisher: pub,
			Cache:     cache,
			Log:       logger.Named("checkout"),
			Producer:  cfg.ServiceName,
		},
		Store: store,
		Cache: cache,
		Log:   logger,
	}).Register(router)
	(&httpx.PaymentsHandler{
		Initiator: &payment.Initiator{
			Store:     store,
			Gateway:   gw,
			Publisher: pub,
			Cache:     cache,
			Log:       logger.Named("payment"),
			Producer:  cfg.ServiceName,
			Timeout:   cfg.MPesa.Timeout,
		},
		Reconciler: &payment.Reconciler{
			Store:     store,
			Gateway:   gw,
			Publisher: pub,
			Cache:     cache,
			Dedup:     redisx.NewDeduper(rdb, cfg.ServiceName),
			Log:       logger.Named("reconciler"),
			Producer:  cfg.ServiceName,
			Timeout:   cfg.MPesa.Timeout,
		},
		Log: logger,
	}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		prod.Close()      // no new publishes; flush what is queued
		prod.WaitClosed() // drain
		return err
	})
	return g.Wait()
}
