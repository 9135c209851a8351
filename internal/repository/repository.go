// Package repository implements the resource store behind small
// collaborator interfaces so the fulfillment worker can be tested
// against fakes.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/matheusmosca/order-fulfillment-service/internal/entities"
)

// ErrNotFound is returned when a product, customer or order row does
// not exist.
var ErrNotFound = errors.New("not found")

// Tx is a store transaction. Row locks acquired through the *ForUpdate
// methods are held until Commit or Rollback.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxBeginner starts transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (Tx, error)
}

// OrderStore persists orders.
type OrderStore interface {
	// GetOrder reads an order outside any transaction.
	GetOrder(ctx context.Context, orderID string) (*entities.Order, error)

	// GetOrderTx reads an order inside tx without locking it.
	GetOrderTx(ctx context.Context, tx Tx, orderID string) (*entities.Order, error)

	// GetOrderForUpdate reads an order inside tx holding an exclusive
	// row lock until the transaction ends.
	GetOrderForUpdate(ctx context.Context, tx Tx, orderID string) (*entities.Order, error)

	// CreateOrder inserts a new order row inside tx.
	CreateOrder(ctx context.Context, tx Tx, order *entities.Order) error

	// SetOrderStatus updates the status of an order inside tx.
	SetOrderStatus(ctx context.Context, tx Tx, orderID string, status entities.OrderStatus) error

	// CompleteOrder marks an order COMPLETED with the price actually
	// debited, inside tx.
	CompleteOrder(ctx context.Context, tx Tx, orderID string, pricePaid decimal.Decimal) error

	// FailStalePending fails every PENDING order last touched before
	// cutoff and returns how many rows changed.
	FailStalePending(ctx context.Context, cutoff time.Time) (int64, error)
}

// ProductStore persists products.
type ProductStore interface {
	GetProduct(ctx context.Context, productID string) (*entities.Product, error)

	// GetProductForUpdate acquires an exclusive row lock on the product
	// inside tx. This is the first lock of the fixed product-before-
	// customer ordering all writers must follow.
	GetProductForUpdate(ctx context.Context, tx Tx, productID string) (*entities.Product, error)

	// AdjustStock changes stock by delta (-1 debit, +1 restock) inside tx.
	AdjustStock(ctx context.Context, tx Tx, productID string, delta int) error

	CreateProduct(ctx context.Context, product *entities.Product) error
}

// CustomerStore persists customers and their wallets.
type CustomerStore interface {
	GetCustomer(ctx context.Context, customerID string) (*entities.Customer, error)

	// GetCustomerForUpdate acquires an exclusive row lock on the
	// customer inside tx. Must only be called after the product lock.
	GetCustomerForUpdate(ctx context.Context, tx Tx, customerID string) (*entities.Customer, error)

	// DebitWallet subtracts amount from the wallet inside tx.
	DebitWallet(ctx context.Context, tx Tx, customerID string, amount decimal.Decimal) error

	// CreditWallet adds amount to the wallet inside tx.
	CreditWallet(ctx context.Context, tx Tx, customerID string, amount decimal.Decimal) error

	CreateCustomer(ctx context.Context, customer *entities.Customer) error
}

// Store is the full resource store the worker is wired with.
type Store interface {
	TxBeginner
	OrderStore
	ProductStore
	CustomerStore
}
