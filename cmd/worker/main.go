package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"campusd/internal/config"
	"campusd/internal/logging"
	"campusd/internal/queue"
	"campusd/internal/store"
	"campusd/internal/worker"
)

// Worker logs queued notifications and marks finished bookings completed.
func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Env, "worker")
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := &worker.Worker{
		Interval: cfg.SweepInterval,
		Log:      logger,
	}

	// A memory store lives inside the api process, which sweeps it itself.
	if cfg.StoreBackend != "memory" {
		backend, err := store.Open(ctx, cfg, logger)
		if err != nil {
			logger.Fatal("store open failed", zap.Error(err))
		}
		defer func() { _ = backend.Close() }()
		w.Bookings = backend.Booking
	}

	if cfg.QueueBackend != "memory" {
		redisClient := store.NewRedis(cfg.RedisAddr)
		defer func() { _ = redisClient.Close() }()
		if !redisClient.Healthy(ctx) {
			logger.Warn("redis not reachable, consumer will keep retrying", zap.String("addr", cfg.RedisAddr))
		}
		w.Queue = queue.NewRedisQueue(redisClient.Client, queue.DefaultKey)
	}

	if w.Queue == nil && w.Bookings == nil {
		logger.Warn("nothing to do: memory store and memory queue are served by the api process")
		return
	}

	logger.Info("worker started", zap.Duration("sweep_interval", cfg.SweepInterval))
	if err := w.Run(ctx); err != nil {
		logger.Fatal("worker failed", zap.Error(err))
	}
	logger.Info("worker stopped")
}
