package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/matheusmosca/order-fulfillment-service/internal/api"
	"github.com/matheusmosca/order-fulfillment-service/internal/cache"
	"github.com/matheusmosca/order-fulfillment-service/internal/config"
	"github.com/matheusmosca/order-fulfillment-service/internal/fulfillment"
	"github.com/matheusmosca/order-fulfillment-service/internal/obs"
	"github.com/matheusmosca/order-fulfillment-service/internal/queue"
	"github.com/matheusmosca/order-fulfillment-service/internal/repository"
)

const serviceName = "order-fulfillment-api"

func main() {
	cfg := config.Load()
	log := obs.NewLogger(serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := obs.InitTracer(ctx, cfg.OTLPEndpoint, serviceName)
	if err != nil {
		log.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	defer tp.Shutdown(context.Background())

	mp, err := obs.InitMetrics(ctx, cfg.OTLPEndpoint, serviceName)
	if err != nil {
		log.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}
	defer mp.Shutdown(context.Background())

	pool, err := repository.Connect(ctx, cfg.DatabaseDSN(), log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	store := repository.NewPostgres(pool)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	publisher := queue.NewPublisher(cfg.KafkaBrokers, cfg.OrderTopic)
	defer publisher.Close()

	results := queue.NewResultBackend(redisClient, cfg.ResultTTL)
	priceCache := cache.New(store, cache.NewRedisBackend(redisClient), cache.Options{
		LocalSize: cfg.LocalCacheSize,
		LocalTTL:  cfg.LocalCacheTTL,
		SharedTTL: cfg.SharedCacheTTL,
	}, log)

	metrics, err := obs.NewWorkerMetrics(otel.Meter("fulfillment"))
	if err != nil {
		log.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}
	fulfiller := fulfillment.NewService(store, metrics, log, fulfillment.Options{
		MaxAttempts:          cfg.WorkerMaxAttempts,
		RetryInitialInterval: cfg.RetryInitialInterval,
		RetryMaxInterval:     cfg.RetryMaxInterval,
	})

	orders := api.NewOrderUseCase(publisher, store, results, fulfiller, log)
	products := api.NewProductUseCase(store, priceCache, log)
	customers := api.NewCustomerUseCase(store, log)
	router := api.NewRouter(api.NewHandler(orders, products, customers), serviceName)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("api stopped")
}
