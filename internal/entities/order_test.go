package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder(t *testing.T) {
	order := NewOrder("order-1", "customer-1", "product-1")

	assert.Equal(t, "order-1", order.OrderID)
	assert.Equal(t, "customer-1", order.CustomerID)
	assert.Equal(t, "product-1", order.ProductID)
	assert.Equal(t, OrderStatusPending, order.Status)
	assert.False(t, order.PricePaid.Valid)
	assert.False(t, order.CreatedAt.IsZero())
	assert.False(t, order.UpdatedAt.IsZero())
}

func TestOrderStatusResolved(t *testing.T) {
	assert.False(t, OrderStatusPending.Resolved())
	assert.True(t, OrderStatusCompleted.Resolved())
	assert.True(t, OrderStatusFailed.Resolved())
	assert.True(t, OrderStatusCancelled.Resolved())
}

func TestOrderCancel(t *testing.T) {
	order := NewOrder("order-1", "customer-1", "product-1")
	order.Status = OrderStatusCompleted

	require.NoError(t, order.Cancel())
	assert.Equal(t, OrderStatusCancelled, order.Status)
}

func TestOrderCancelRejectsNonCompleted(t *testing.T) {
	for _, status := range []OrderStatus{OrderStatusPending, OrderStatusFailed, OrderStatusCancelled} {
		order := NewOrder("order-1", "customer-1", "product-1")
		order.Status = status

		err := order.Cancel()

		assert.ErrorIs(t, err, ErrNotCancellable)
		assert.Equal(t, status, order.Status)
	}
}
