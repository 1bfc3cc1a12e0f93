package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"railbook/internal/config"
	"railbook/internal/database"
	"railbook/internal/modules/booking"
	"railbook/internal/modules/catalog"
	"railbook/internal/modules/station"
	"railbook/internal/pkg/logger"
	"railbook/internal/repository"
	"railbook/internal/server"
	"railbook/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger.Setup(cfg.AppEnv, cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stations, err := station.Load(cfg.StationsCSV)
	if err != nil {
		logrus.Fatalf("stations: %v", err)
	}
	trains, err := catalog.Load(cfg.TrainsCSV)
	if err != nil {
		logrus.Fatalf("trains: %v", err)
	}

	pending, closePending, err := pendingStore(ctx, cfg)
	if err != nil {
		logrus.Fatalf("pending store: %v", err)
	}
	defer closePending()

	app, err := server.New(cfg, server.Deps{
		DB:       db,
		Stations: stations,
		Trains:   trains,
		Pending:  pending,
	})
	if err != nil {
		logrus.Fatalf("server: %v", err)
	}
	if err := app.Users.Migrate(ctx); err != nil {
		logrus.Fatalf("migrate: %v", err)
	}
	restored, err := app.Bookings.RestoreHolds(ctx)
	if err != nil {
		logrus.Fatalf("restore held berths: %v", err)
	}
	logrus.WithField("bookings", restored).Info("held berths restored")

	sweeper := worker.NewPendingSweeper(app.Bookings, cfg.PendingSweepInterval)
	go sweeper.Start(ctx)

	srv := new(server.Server)
	go func() {
		if err := srv.Run(cfg.HTTPAddr, app.Router); err != nil {
			logrus.Errorf("http server: %v", err)
			stop()
		}
	}()

	logrus.WithFields(logrus.Fields{
		"env":           cfg.AppEnv,
		"pending_store": cfg.PendingStore,
		"hold":          cfg.HoldOnPending,
		"atomic":        cfg.AtomicAllocation,
		"restock":       cfg.RestockOnCancel,
	}).Info("railbook started")

	<-ctx.Done()
	logrus.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("server shutdown: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func pendingStore(ctx context.Context, cfg *config.Config) (booking.PendingStore, func(), error) {
	if cfg.PendingStore != config.PendingStoreRedis {
		return repository.NewMemoryPendingStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	logrus.WithField("addr", cfg.RedisAddr).Info("pending bookings stored in redis")
	return repository.NewRedisPendingStore(client, ""), func() { _ = client.Close() }, nil
}
