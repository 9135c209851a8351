package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matheusmosca/order-fulfillment-service/internal/entities"
	"github.com/matheusmosca/order-fulfillment-service/internal/pricing"
	"github.com/matheusmosca/order-fulfillment-service/internal/queue"
	"github.com/matheusmosca/order-fulfillment-service/internal/repository"
)

// ErrInvalidPrice rejects product payloads whose base price does not
// parse to a positive decimal.
var ErrInvalidPrice = errors.New("base_price must be a positive decimal")

// JobPublisher enqueues fulfillment jobs.
type JobPublisher interface {
	PublishOrder(ctx context.Context, job queue.OrderJob) error
}

// ResultReader fetches terminal job outcomes from the result backend.
type ResultReader interface {
	Get(ctx context.Context, orderID string) (*queue.JobResult, error)
}

// OrderCanceller reverses a completed order.
type OrderCanceller interface {
	Cancel(ctx context.Context, orderID string) (bool, error)
}

// OrderReader reads order rows.
type OrderReader interface {
	GetOrder(ctx context.Context, orderID string) (*entities.Order, error)
}

// ProductRepo is the slice of the store the product use case needs.
type ProductRepo interface {
	GetProduct(ctx context.Context, productID string) (*entities.Product, error)
	CreateProduct(ctx context.Context, product *entities.Product) error
}

// CustomerRepo is the slice of the store the customer use case needs.
type CustomerRepo interface {
	GetCustomer(ctx context.Context, customerID string) (*entities.Customer, error)
	CreateCustomer(ctx context.Context, customer *entities.Customer) error
}

// PricedProductReader serves priced views, normally the price cache.
type PricedProductReader interface {
	GetProduct(ctx context.Context, productID string) (*entities.PricedProduct, error)
}

// OrderUseCase accepts orders onto the job channel and answers polls.
// Intake never touches the orders table: the worker owns the row, so a
// burst of requests costs one Kafka write each.
type OrderUseCase struct {
	publisher JobPublisher
	orders    OrderReader
	results   ResultReader
	canceller OrderCanceller
	log       *slog.Logger
}

// NewOrderUseCase wires the order intake and poll paths.
func NewOrderUseCase(publisher JobPublisher, orders OrderReader, results ResultReader, canceller OrderCanceller, log *slog.Logger) *OrderUseCase {
	return &OrderUseCase{
		publisher: publisher,
		orders:    orders,
		results:   results,
		canceller: canceller,
		log:       log,
	}
}

// PlaceOrder enqueues a fulfillment job and returns the PENDING ticket.
func (uc *OrderUseCase) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*OrderTicket, error) {
	orderID := req.OrderID
	if orderID == "" {
		orderID = uuid.NewString()
	}

	job := queue.OrderJob{
		OrderID:    orderID,
		ProductID:  req.ProductID,
		CustomerID: req.CustomerID,
	}
	if err := uc.publisher.PublishOrder(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to enqueue order: %w", err)
	}

	uc.log.Info("order queued", "order_id", orderID, "product_id", req.ProductID, "customer_id", req.CustomerID)
	return &OrderTicket{OrderID: orderID, Status: entities.OrderStatusPending}, nil
}

// GetOrder answers a poll. The orders table is the durable truth; a
// queued job with no row yet falls back to the result backend, and an
// order known to neither is not found.
func (uc *OrderUseCase) GetOrder(ctx context.Context, orderID string) (*OrderView, error) {
	order, err := uc.orders.GetOrder(ctx, orderID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up order: %w", err)
	}

	if order != nil {
		view := &OrderView{
			OrderID:    order.OrderID,
			ProductID:  order.ProductID,
			CustomerID: order.CustomerID,
			Status:     order.Status,
		}
		if order.Status == entities.OrderStatusCompleted && order.PricePaid.Valid {
			view.PricePaid = order.PricePaid.Decimal.String()
		}
		if order.Status == entities.OrderStatusFailed {
			view.Reason = uc.failureReason(ctx, orderID)
		}
		return view, nil
	}

	// No row yet: the job may still be in flight, or the outcome may
	// live only in the result backend.
	result, err := uc.results.Get(ctx, orderID)
	if err != nil {
		uc.log.Warn("result backend read failed", "order_id", orderID, "error", err)
	}
	if result == nil {
		return nil, repository.ErrNotFound
	}
	return &OrderView{
		OrderID:   result.OrderID,
		Status:    entities.OrderStatus(result.Status),
		PricePaid: result.PricePaid,
		Reason:    result.Reason,
	}, nil
}

func (uc *OrderUseCase) failureReason(ctx context.Context, orderID string) string {
	result, err := uc.results.Get(ctx, orderID)
	if err != nil || result == nil {
		return ""
	}
	return result.Reason
}

// CancelOrder reverses a COMPLETED order. Returns false without error
// when the order exists but is not cancellable.
func (uc *OrderUseCase) CancelOrder(ctx context.Context, orderID string) (bool, error) {
	if _, err := uc.orders.GetOrder(ctx, orderID); err != nil {
		return false, err
	}
	return uc.canceller.Cancel(ctx, orderID)
}

// ProductUseCase creates inventory and serves priced reads.
type ProductUseCase struct {
	repo  ProductRepo
	cache PricedProductReader
	log   *slog.Logger
}

// NewProductUseCase wires the product paths.
func NewProductUseCase(repo ProductRepo, cache PricedProductReader, log *slog.Logger) *ProductUseCase {
	return &ProductUseCase{repo: repo, cache: cache, log: log}
}

// CreateProduct registers a product. Stock at creation time is also the
// denominator every future price is computed against.
func (uc *ProductUseCase) CreateProduct(ctx context.Context, req CreateProductRequest) (*entities.Product, error) {
	basePrice, err := decimal.NewFromString(req.BasePrice)
	if err != nil || !basePrice.IsPositive() {
		return nil, ErrInvalidPrice
	}

	product := &entities.Product{
		ProductID:    uuid.NewString(),
		Name:         req.Name,
		Description:  req.Description,
		BasePrice:    basePrice,
		Stock:        req.Stock,
		InitialStock: req.Stock,
	}
	if err := uc.repo.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	uc.log.Info("product created", "product_id", product.ProductID, "stock", product.Stock)
	return product, nil
}

// GetProduct serves the priced view, through the cache unless the
// caller asks for a fresh read.
func (uc *ProductUseCase) GetProduct(ctx context.Context, productID string, bypassCache bool) (*entities.PricedProduct, error) {
	if !bypassCache {
		return uc.cache.GetProduct(ctx, productID)
	}

	product, err := uc.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	view := pricing.View(product)
	return &view, nil
}

// CustomerUseCase creates and reads customers.
type CustomerUseCase struct {
	repo CustomerRepo
	log  *slog.Logger
}

// NewCustomerUseCase wires the customer paths.
func NewCustomerUseCase(repo CustomerRepo, log *slog.Logger) *CustomerUseCase {
	return &CustomerUseCase{repo: repo, log: log}
}

// CreateCustomer registers a customer with the default wallet balance.
func (uc *CustomerUseCase) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*entities.Customer, error) {
	customer := entities.NewCustomer(uuid.NewString(), req.Username)
	if err := uc.repo.CreateCustomer(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	uc.log.Info("customer created", "customer_id", customer.CustomerID)
	return customer, nil
}

// GetCustomer reads one customer.
func (uc *CustomerUseCase) GetCustomer(ctx context.Context, customerID string) (*entities.Customer, error) {
	return uc.repo.GetCustomer(ctx, customerID)
}
