// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/bloodrecall/internal/auth"
	"github.com/jason-s-yu/bloodrecall/internal/cache"
	"github.com/jason-s-yu/bloodrecall/internal/config"
	"github.com/jason-s-yu/bloodrecall/internal/database"
	"github.com/jason-s-yu/bloodrecall/internal/game"
	"github.com/jason-s-yu/bloodrecall/internal/handlers"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := cfg.NewLogger()

	if err := auth.Init(cfg.TokenExpire); err != nil {
		logger.Fatalf("auth: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var persist handlers.Persistence
	if err := database.ConnectDB(ctx, cfg.PostgresURL()); err != nil {
		logger.WithError(err).Warn("database unavailable; matches will not be persisted")
	} else {
		defer database.Close()
		if err := database.Migrate(ctx); err != nil {
			logger.Fatalf("migrate: %v", err)
		}
		persist = handlers.PostgresPersistence()
	}

	if err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.HistorianQueue); err != nil {
		logger.WithError(err).Warn("redis unavailable; match actions will not be logged")
		cache.Rdb = nil
	}

	srv := handlers.NewServer(game.NewStore(), cfg, persist, logger)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Running on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, m := range srv.Store.List() {
			srv.Store.Delete(m.ID)
		}
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("server exited")
		os.Exit(1)
	}
	if cache.Rdb != nil {
		_ = cache.Rdb.Close()
	}
	logger.Info("server stopped")
}
