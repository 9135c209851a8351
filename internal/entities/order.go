package entities

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the possible states of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusFailed    OrderStatus = "FAILED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Resolved reports whether the status is past PENDING. A resolved order
// must never be reprocessed by the fulfillment worker.
func (s OrderStatus) Resolved() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusFailed, OrderStatusCancelled:
		return true
	}
	return false
}

var (
	// ErrNotCancellable is returned when a cancel is attempted on an
	// order that never completed. FAILED and CANCELLED are immutable.
	ErrNotCancellable = errors.New("only completed orders can be cancelled")
)

// Order represents a purchase order. OrderID is caller-supplied and acts
// as the idempotency key for job redeliveries.
type Order struct {
	OrderID    string              `json:"order_id" db:"order_id"`
	CustomerID string              `json:"customer_id" db:"customer_id"`
	ProductID  string              `json:"product_id" db:"product_id"`
	PricePaid  decimal.NullDecimal `json:"price_paid" db:"price_paid"`
	Status     OrderStatus         `json:"status" db:"status"`
	CreatedAt  time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at" db:"updated_at"`
}

// NewOrder creates a new PENDING order.
func NewOrder(orderID, customerID, productID string) *Order {
	now := time.Now().UTC()
	return &Order{
		OrderID:    orderID,
		CustomerID: customerID,
		ProductID:  productID,
		Status:     OrderStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Cancel transitions a COMPLETED order to CANCELLED.
func (o *Order) Cancel() error {
	if o.Status != OrderStatusCompleted {
		return ErrNotCancellable
	}
	o.Status = OrderStatusCancelled
	o.UpdatedAt = time.Now().UTC()
	return nil
}
