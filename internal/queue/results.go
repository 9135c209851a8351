package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// JobResult is the terminal outcome written to the result backend.
type JobResult struct {
	OrderID   string `json:"order_id"`
	Status    string `json:"status"`
	PricePaid string `json:"price_paid,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// ResultBackend stores terminal job outcomes for external pollers.
// Writes are best-effort; the durable truth is the orders table.
type ResultBackend struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResultBackend wraps an existing Redis client.
func NewResultBackend(client *redis.Client, ttl time.Duration) *ResultBackend {
	return &ResultBackend{client: client, ttl: ttl}
}

func resultKey(orderID string) string {
	return "fulfillment:result:" + orderID
}

// Publish records a job result with the configured TTL.
func (b *ResultBackend) Publish(ctx context.Context, result JobResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal job result: %w", err)
	}
	if err := b.client.Set(ctx, resultKey(result.OrderID), payload, b.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store job result: %w", err)
	}
	return nil
}

// Get fetches a previously published result, or nil when absent.
func (b *ResultBackend) Get(ctx context.Context, orderID string) (*JobResult, error) {
	payload, err := b.client.Get(ctx, resultKey(orderID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read job result: %w", err)
	}
	var result JobResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode job result: %w", err)
	}
	return &result, nil
}
