package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/matheusmosca/order-fulfillment-service/internal/config"
	"github.com/matheusmosca/order-fulfillment-service/internal/entities"
	"github.com/matheusmosca/order-fulfillment-service/internal/fulfillment"
	"github.com/matheusmosca/order-fulfillment-service/internal/obs"
	"github.com/matheusmosca/order-fulfillment-service/internal/queue"
	"github.com/matheusmosca/order-fulfillment-service/internal/repository"
)

const serviceName = "order-fulfillment-worker"

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
	results := queue.NewResultBackend(redisClient, cfg.ResultTTL)

	metrics, err := obs.NewWorkerMetrics(otel.Meter("fulfillment"))
	if err != nil {
		log.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}
	svc := fulfillment.NewService(store, metrics, log, fulfillment.Options{
		MaxAttempts:          cfg.WorkerMaxAttempts,
		RetryInitialInterval: cfg.RetryInitialInterval,
		RetryMaxInterval:     cfg.RetryMaxInterval,
	})

	go svc.RunSweeper(ctx, cfg.PendingSweepInterval, cfg.PendingMaxAge)

	consumer := queue.NewConsumer(queue.ConsumerConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.OrderTopic,
		DLQTopic: cfg.OrderDLQTopic,
		GroupID:  cfg.ConsumerGroup,
	}, log)
	defer consumer.Close()

	handler := func(ctx context.Context, job queue.OrderJob) error {
		result, err := svc.ProcessWithRetry(ctx, job.OrderID, job.ProductID, job.CustomerID)
		if err != nil {
			return err
		}
		publishResult(ctx, results, log, result)
		return nil
	}

	log.Info("worker consuming", "topic", cfg.OrderTopic, "group", cfg.ConsumerGroup)
	if err := consumer.Run(ctx, handler); err != nil {
		log.Error("consumer stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("worker stopped")
}

// publishResult mirrors the terminal outcome to the result backend so
// pollers can see it before (or without) reading the orders table.
// Best-effort: the orders table already holds the truth.
func publishResult(ctx context.Context, results *queue.ResultBackend, log *slog.Logger, result fulfillment.Result) {
	jr := queue.JobResult{
		OrderID: result.OrderID,
		Status:  string(result.Status),
		Reason:  result.Reason,
	}
	if result.Status == entities.OrderStatusCompleted && result.PricePaid.Valid {
		jr.PricePaid = result.PricePaid.Decimal.String()
	}
	if err := results.Publish(ctx, jr); err != nil {
		log.Warn("failed to publish job result", "order_id", result.OrderID, "error", err)
	}
}
