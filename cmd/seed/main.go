// Command seed loads the starter catalog into Postgres. It is safe to run
// more than once.
package main

import (
	"context"
	"log"
	"time"

	"github.com/epitome-ke/storefront-checkout/internal/catalog"
	"github.com/epitome-ke/storefront-checkout/internal/config"
	"github.com/epitome-ke/storefront-checkout/internal/logging"
	"github.com/epitome-ke/storefront-checkout/internal/postgres"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.ServiceName+"-seed", cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}
	stats, err := catalog.Seed(ctx, db)
	if err != nil {
		logger.Fatal("seed", zap.Error(err))
	}
	logger.Info("catalog seeded",
		zap.Int64("categories", stats.Categories),
		zap.Int64("products", stats.Products),
		zap.Int64("variants", stats.Variants))
}
