// cmd/historian/main.go drains logged match actions from the Redis queue into
// Postgres and marks idle matches abandoned.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/bloodrecall/internal/cache"
	"github.com/jason-s-yu/bloodrecall/internal/config"
	"github.com/jason-s-yu/bloodrecall/internal/database"
	"github.com/jason-s-yu/bloodrecall/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := cfg.NewLogger().WithField("service", "historian")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.ConnectDB(ctx, cfg.PostgresURL()); err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer database.Close()
	if err := database.Migrate(ctx); err != nil {
		logger.Fatalf("migrate: %v", err)
	}

	if err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.HistorianQueue); err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer cache.Rdb.Close()

	svc := historian.NewService(
		historian.RedisSource(cache.Rdb),
		historian.PostgresSink(),
		historian.Options{
			BatchSize:  cfg.HistorianBatchSize,
			FlushDelay: cfg.HistorianFlush,
			Inactivity: cfg.AbandonAfter,
		},
		logger,
	)
	if err := svc.Run(ctx); err != nil {
		logger.WithError(err).Error("historian exited")
		os.Exit(1)
	}
}
