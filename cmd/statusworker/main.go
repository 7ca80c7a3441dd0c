package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/epitome-ke/storefront-checkout/internal/config"
	kafkax "github.com/epitome-ke/storefront-checkout/internal/kafka"
	"github.com/epitome-ke/storefront-checkout/internal/logging"
	"github.com/epitome-ke/storefront-checkout/internal/orders"
	"github.com/epitome-ke/storefront-checkout/internal/redisx"
	"github.com/epitome-ke/storefront-checkout/internal/statuscache"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.ServiceName+"-statusworker", cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := redisx.Ping(ctx, rdb); err != nil {
		logger.Fatal("redis", zap.Error(err))
	}

	proj := &statuscache.Projector{Cache: statuscache.New(rdb), Log: logger}

	// Consumer
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.StatusGroup, orders.Topics, cfg.StatusWorkers, logger)
	logger.Info("status consumer started",
		zap.String("group", cfg.StatusGroup),
		zap.Strings("topics", orders.Topics),
		zap.Int("workers", cfg.StatusWorkers))
	if err := cons.Start(ctx, proj.Handle); err != nil {
		logger.Error("consumer exit", zap.Error(err))
	}
	logger.Info("status consumer stopped")
}
