package api

import "github.com/matheusmosca/order-fulfillment-service/internal/entities"

// PlaceOrderRequest is the intake payload. The caller may pin its own
// order_id to make the request an idempotent retry; otherwise one is
// generated.
type PlaceOrderRequest struct {
	OrderID    string `json:"order_id" binding:"omitempty,uuid4"`
	ProductID  string `json:"product_id" binding:"required"`
	CustomerID string `json:"customer_id" binding:"required"`
}

// OrderTicket is the acceptance receipt: the order is queued, not yet
// fulfilled.
type OrderTicket struct {
	OrderID string               `json:"order_id"`
	Status  entities.OrderStatus `json:"status"`
}

// OrderView is the poll response. Reason is only populated for FAILED
// orders whose outcome is still in the result backend.
type OrderView struct {
	OrderID    string               `json:"order_id"`
	ProductID  string               `json:"product_id,omitempty"`
	CustomerID string               `json:"customer_id,omitempty"`
	Status     entities.OrderStatus `json:"status"`
	PricePaid  string               `json:"price_paid,omitempty"`
	Reason     string               `json:"reason,omitempty"`
}

// CreateProductRequest creates inventory. The opening stock doubles as
// the pricing denominator.
type CreateProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	BasePrice   string `json:"base_price" binding:"required"`
	Stock       int    `json:"stock" binding:"required,gt=0"`
}

// CreateCustomerRequest creates a customer with the default wallet
// balance.
type CreateCustomerRequest struct {
	Username string `json:"username" binding:"required"`
}
