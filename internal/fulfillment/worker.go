// Package fulfillment implements the order-fulfillment protocol: the
// worker state machine that locks the contended rows, validates them,
// atomically debits stock and wallet, and records exactly one terminal
// outcome per order no matter how often the job is redelivered.
package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/order-fulfillment-service/internal/entities"
	"github.com/matheusmosca/order-fulfillment-service/internal/obs"
	"github.com/matheusmosca/order-fulfillment-service/internal/pricing"
	"github.com/matheusmosca/order-fulfillment-service/internal/repository"
)

// Terminal failure reasons. These are correct business outcomes, never
// retried, and always durably recorded on the order row.
const (
	ReasonNotFound            = "not_found"
	ReasonInsufficientStock   = "insufficient_stock"
	ReasonInsufficientBalance = "insufficient_balance"
	ReasonUnexpected          = "unexpected_error"
)

// Result is the worker's terminal outcome for one job.
type Result struct {
	OrderID   string               `json:"order_id"`
	Status    entities.OrderStatus `json:"status"`
	PricePaid decimal.NullDecimal  `json:"price_paid,omitempty"`
	Reason    string               `json:"reason,omitempty"`
}

// Options tunes the retry policy for transient store errors.
type Options struct {
	MaxAttempts          uint
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
}

// Service orchestrates fulfillment against the resource store. It holds
// no shared in-memory state: every mutation goes through row locks.
type Service struct {
	store   repository.Store
	log     *slog.Logger
	metrics *obs.WorkerMetrics
	tracer  trace.Tracer
	opts    Options
}

// NewService wires the worker with its collaborators.
func NewService(store repository.Store, metrics *obs.WorkerMetrics, log *slog.Logger, opts Options) *Service {
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 5
	}
	if opts.RetryInitialInterval == 0 {
		opts.RetryInitialInterval = 100 * time.Millisecond
	}
	if opts.RetryMaxInterval == 0 {
		opts.RetryMaxInterval = 5 * time.Second
	}
	return &Service{
		store:   store,
		log:     log,
		metrics: metrics,
		tracer:  otel.Tracer("fulfillment"),
		opts:    opts,
	}
}

// Process runs one fulfillment attempt for an order job. It is safe to
// invoke any number of times with the same orderID: once an order is
// resolved, replays return the recorded outcome without touching stock
// or balance.
//
// A non-nil error is always a transient store failure; business-rule
// failures come back as a FAILED Result with a nil error.
func (s *Service) Process(ctx context.Context, orderID, productID, customerID string) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "fulfillment.process", trace.WithAttributes(
		attribute.String("order_id", orderID),
		attribute.String("product_id", productID),
		attribute.String("customer_id", customerID),
	))
	defer span.End()

	// Idempotency fast path, no locks taken.
	existing, err := s.store.GetOrder(ctx, orderID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return Result{}, fmt.Errorf("failed to look up order: %w", err)
	}
	if existing != nil && existing.Status.Resolved() {
		s.log.Info("duplicate delivery for resolved order", "order_id", orderID, "status", existing.Status)
		return resultFromOrder(existing), nil
	}

	result, err := s.fulfill(ctx, orderID, productID, customerID)
	if err != nil {
		span.RecordError(err)
		if repository.IsTransient(err) {
			return Result{}, err
		}
		// Unexpected failure: record a terminal FAILED best-effort and
		// stop; redelivering cannot fix it.
		s.log.Error("unexpected fulfillment error", "order_id", orderID, "error", err)
		s.markFailedBestEffort(ctx, orderID, customerID, productID)
		s.countFailure(ctx, ReasonUnexpected)
		return Result{OrderID: orderID, Status: entities.OrderStatusFailed, Reason: ReasonUnexpected}, nil
	}

	switch result.Status {
	case entities.OrderStatusCompleted:
		s.metrics.OrdersCompleted.Add(ctx, 1)
		s.log.Info("order completed", "order_id", orderID, "price_paid", result.PricePaid.Decimal.String())
	case entities.OrderStatusFailed:
		s.countFailure(ctx, result.Reason)
		s.log.Warn("order failed", "order_id", orderID, "reason", result.Reason)
	}
	return result, nil
}

// fulfill holds the critical section. Lock order is fixed across every
// writer: product first, then customer, so concurrent workers converge
// on a single total order and cannot deadlock.
func (s *Service) fulfill(ctx context.Context, orderID, productID, customerID string) (Result, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	product, err := s.store.GetProductForUpdate(ctx, tx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.reject(ctx, tx, orderID, customerID, productID, decimal.NullDecimal{}, ReasonNotFound)
		}
		return Result{}, err
	}

	customer, err := s.store.GetCustomerForUpdate(ctx, tx, customerID)
	customerMissing := errors.Is(err, repository.ErrNotFound)
	if err != nil && !customerMissing {
		return Result{}, err
	}

	// Re-check the order under the product lock: a concurrent delivery
	// of the same job may have resolved it while we were blocked.
	order, err := s.store.GetOrderTx(ctx, tx, orderID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return Result{}, err
	}
	if order != nil && order.Status.Resolved() {
		_ = tx.Rollback(ctx)
		return resultFromOrder(order), nil
	}

	// Authoritative price: engine against the locked row, never the cache.
	price := pricing.CurrentPrice(product.BasePrice, product.Stock, product.InitialStock)
	priced := decimal.NewNullDecimal(price)

	if order == nil {
		order = entities.NewOrder(orderID, customerID, productID)
		order.PricePaid = priced
		if err := s.store.CreateOrder(ctx, tx, order); err != nil {
			return Result{}, err
		}
	}

	if customerMissing {
		return s.failPending(ctx, tx, orderID, ReasonNotFound)
	}
	if product.Stock <= 0 {
		return s.failPending(ctx, tx, orderID, ReasonInsufficientStock)
	}
	if customer.WalletBalance.LessThan(price) {
		return s.failPending(ctx, tx, orderID, ReasonInsufficientBalance)
	}

	if err := s.store.AdjustStock(ctx, tx, productID, -1); err != nil {
		return Result{}, err
	}
	if err := s.store.DebitWallet(ctx, tx, customerID, price); err != nil {
		return Result{}, err
	}
	if err := s.store.CompleteOrder(ctx, tx, orderID, price); err != nil {
		return Result{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("failed to commit fulfillment: %w", err)
	}

	return Result{OrderID: orderID, Status: entities.OrderStatusCompleted, PricePaid: priced}, nil
}

// reject records a FAILED order when no PENDING row exists yet (the
// product was missing, so no price could be resolved).
func (s *Service) reject(ctx context.Context, tx repository.Tx, orderID, customerID, productID string, price decimal.NullDecimal, reason string) (Result, error) {
	order, err := s.store.GetOrderTx(ctx, tx, orderID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return Result{}, err
	}
	if order != nil && order.Status.Resolved() {
		_ = tx.Rollback(ctx)
		return resultFromOrder(order), nil
	}
	if order == nil {
		order = entities.NewOrder(orderID, customerID, productID)
		order.PricePaid = price
		if err := s.store.CreateOrder(ctx, tx, order); err != nil {
			return Result{}, err
		}
	}
	return s.failPending(ctx, tx, orderID, reason)
}

// failPending flips the already-present PENDING row to FAILED and
// commits. Business failures are durable, final outcomes.
func (s *Service) failPending(ctx context.Context, tx repository.Tx, orderID, reason string) (Result, error) {
	if err := s.store.SetOrderStatus(ctx, tx, orderID, entities.OrderStatusFailed); err != nil {
		return Result{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("failed to commit rejection: %w", err)
	}
	return Result{OrderID: orderID, Status: entities.OrderStatusFailed, Reason: reason}, nil
}

// markFailedBestEffort writes a terminal FAILED state in a fresh
// transaction after an unexpected error. Errors here are only logged.
func (s *Service) markFailedBestEffort(ctx context.Context, orderID, customerID, productID string) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		s.log.Error("failed to open tx to mark order failed", "order_id", orderID, "error", err)
		return
	}
	defer tx.Rollback(ctx)

	order, err := s.store.GetOrderTx(ctx, tx, orderID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.log.Error("failed to read order while marking failed", "order_id", orderID, "error", err)
		return
	}
	if order != nil && order.Status.Resolved() {
		return
	}
	if order == nil {
		order = entities.NewOrder(orderID, customerID, productID)
		if err := s.store.CreateOrder(ctx, tx, order); err != nil {
			s.log.Error("failed to create order while marking failed", "order_id", orderID, "error", err)
			return
		}
	}
	if err := s.store.SetOrderStatus(ctx, tx, orderID, entities.OrderStatusFailed); err != nil {
		s.log.Error("failed to mark order failed", "order_id", orderID, "error", err)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		s.log.Error("failed to commit failure mark", "order_id", orderID, "error", err)
	}
}

func (s *Service) countFailure(ctx context.Context, reason string) {
	s.metrics.OrdersFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// resultFromOrder rebuilds the recorded outcome of a resolved order.
// The price is reported only for completed orders.
func resultFromOrder(order *entities.Order) Result {
	result := Result{
		OrderID: order.OrderID,
		Status:  order.Status,
	}
	if order.Status == entities.OrderStatusCompleted {
		result.PricePaid = order.PricePaid
	}
	return result
}
