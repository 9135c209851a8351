package api

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/order-fulfillment-service/internal/entities"
	"github.com/matheusmosca/order-fulfillment-service/internal/queue"
	"github.com/matheusmosca/order-fulfillment-service/internal/repository"
)

type fakePublisher struct {
	jobs []queue.OrderJob
	err  error
}

func (p *fakePublisher) PublishOrder(_ context.Context, job queue.OrderJob) error {
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, job)
	return nil
}

type fakeOrderReader struct {
	order *entities.Order
}

func (r *fakeOrderReader) GetOrder(context.Context, string) (*entities.Order, error) {
	if r.order == nil {
		return nil, repository.ErrNotFound
	}
	return r.order, nil
}

type fakeResults struct {
	result *queue.JobResult
	err    error
}

func (r *fakeResults) Get(context.Context, string) (*queue.JobResult, error) {
	return r.result, r.err
}

type fakeCanceller struct {
	cancelled bool
}

func (c *fakeCanceller) Cancel(context.Context, string) (bool, error) {
	return c.cancelled, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPlaceOrderGeneratesID(t *testing.T) {
	publisher := &fakePublisher{}
	uc := NewOrderUseCase(publisher, &fakeOrderReader{}, &fakeResults{}, &fakeCanceller{}, discardLogger())

	ticket, err := uc.PlaceOrder(context.Background(), PlaceOrderRequest{
		ProductID:  "p-1",
		CustomerID: "c-1",
	})
	require.NoError(t, err)

	_, parseErr := uuid.Parse(ticket.OrderID)
	assert.NoError(t, parseErr)
	assert.Equal(t, entities.OrderStatusPending, ticket.Status)
	require.Len(t, publisher.jobs, 1)
	assert.Equal(t, ticket.OrderID, publisher.jobs[0].OrderID)
}

func TestPlaceOrderKeepsCallerID(t *testing.T) {
	publisher := &fakePublisher{}
	uc := NewOrderUseCase(publisher, &fakeOrderReader{}, &fakeResults{}, &fakeCanceller{}, discardLogger())

	orderID := uuid.NewString()
	ticket, err := uc.PlaceOrder(context.Background(), PlaceOrderRequest{
		OrderID:    orderID,
		ProductID:  "p-1",
		CustomerID: "c-1",
	})
	require.NoError(t, err)
	assert.Equal(t, orderID, ticket.OrderID)
}

func TestGetOrderMergesFailureReason(t *testing.T) {
	order := entities.NewOrder("o-1", "c-1", "p-1")
	order.Status = entities.OrderStatusFailed
	uc := NewOrderUseCase(&fakePublisher{}, &fakeOrderReader{order: order},
		&fakeResults{result: &queue.JobResult{
			OrderID: "o-1",
			Status:  string(entities.OrderStatusFailed),
			Reason:  "insufficient_stock",
		}}, &fakeCanceller{}, discardLogger())

	view, err := uc.GetOrder(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, entities.OrderStatusFailed, view.Status)
	assert.Equal(t, "insufficient_stock", view.Reason)
}

func TestGetOrderFallsBackToResultBackend(t *testing.T) {
	uc := NewOrderUseCase(&fakePublisher{}, &fakeOrderReader{},
		&fakeResults{result: &queue.JobResult{
			OrderID:   "o-1",
			Status:    string(entities.OrderStatusCompleted),
			PricePaid: "120",
		}}, &fakeCanceller{}, discardLogger())

	view, err := uc.GetOrder(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, entities.OrderStatusCompleted, view.Status)
	assert.Equal(t, "120", view.PricePaid)
}

func TestGetOrderUnknownEverywhere(t *testing.T) {
	uc := NewOrderUseCase(&fakePublisher{}, &fakeOrderReader{}, &fakeResults{}, &fakeCanceller{}, discardLogger())

	_, err := uc.GetOrder(context.Background(), "o-missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCancelOrderUnknown(t *testing.T) {
	uc := NewOrderUseCase(&fakePublisher{}, &fakeOrderReader{}, &fakeResults{}, &fakeCanceller{cancelled: true}, discardLogger())

	_, err := uc.CancelOrder(context.Background(), "o-missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
