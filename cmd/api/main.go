package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"campusd/internal/auth"
	"campusd/internal/booking"
	"campusd/internal/config"
	"campusd/internal/functions"
	"campusd/internal/handler"
	"campusd/internal/httpmiddleware"
	"campusd/internal/logging"
	"campusd/internal/notify"
	"campusd/internal/query"
	"campusd/internal/queue"
	"campusd/internal/session"
	"campusd/internal/store"
	"campusd/internal/worker"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Env, "api")
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, logger); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}
}

func runHTTP(cfg config.App, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer func() { _ = redisClient.Close() }()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(256)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, queue.DefaultKey)
	}

	cache := query.NewClient(cfg.CacheTTL)
	registry := session.NewRegistry(session.Deps{
		Cache:      cache,
		Attendance: backend.Attendance,
		Booking:    backend.Booking,
		Advisor:    functions.NewClient(cfg.FunctionsURL),
		Publisher:  notify.NewPublisher(q, logger.Named("notify")),
		Log:        logger,
	})

	// In-process parts of the worker that cannot run elsewhere: an in-memory
	// queue has no other consumer and an in-memory store no other writer.
	embedded := &worker.Worker{
		Interval: cfg.SweepInterval,
		Log:      logger.Named("worker"),
		OnSweep:  func(int) { cache.Invalidate(booking.KeyBookings) },
	}
	if cfg.QueueBackend == "memory" {
		embedded.Queue = q
	}
	if cfg.StoreBackend == "memory" {
		embedded.Bookings = backend.Booking
	}
	go func() {
		if err := embedded.Run(ctx); err != nil {
			logger.Error("embedded worker stopped", zap.Error(err))
		}
	}()

	checks := map[string]handler.Check{"db": backend.Healthy}
	if cfg.QueueBackend != "memory" {
		checks["redis"] = redisClient.Healthy
	}
	h := handler.New(registry, auth.NewIssuer(cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL), logger, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.SecurityHeaders())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.Healthz)

	v1 := r.Group("/v1",
		httpmiddleware.CORS(httpmiddleware.APICORS),
		httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware(),
	)
	h.Register(v1)

	functions.FromConfig(cfg.Groq, logger.Named("functions")).Register(r.Group("/functions/v1"))

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreBackend), zap.String("queue", cfg.QueueBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced shutdown", zap.Error(err))
	}

	logger.Info("server exited")
	return nil
}
