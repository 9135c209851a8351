package obs

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// WorkerMetrics counts fulfillment outcomes.
type WorkerMetrics struct {
	OrdersCompleted metric.Int64Counter
	OrdersFailed    metric.Int64Counter
	RetriesTotal    metric.Int64Counter
}

// NewWorkerMetrics registers the worker counters on the given meter.
func NewWorkerMetrics(meter metric.Meter) (*WorkerMetrics, error) {
	completed, err := meter.Int64Counter("orders_completed_total",
		metric.WithDescription("Orders that reached COMPLETED"))
	if err != nil {
		return nil, fmt.Errorf("failed to create orders_completed_total: %w", err)
	}

	failed, err := meter.Int64Counter("orders_failed_total",
		metric.WithDescription("Orders that reached FAILED, by reason"))
	if err != nil {
		return nil, fmt.Errorf("failed to create orders_failed_total: %w", err)
	}

	retries, err := meter.Int64Counter("order_retries_total",
		metric.WithDescription("Transient-error retries of fulfillment jobs"))
	if err != nil {
		return nil, fmt.Errorf("failed to create order_retries_total: %w", err)
	}

	return &WorkerMetrics{
		OrdersCompleted: completed,
		OrdersFailed:    failed,
		RetriesTotal:    retries,
	}, nil
}
