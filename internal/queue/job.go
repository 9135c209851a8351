// Package queue is the job channel between intake and the fulfillment
// workers: a Kafka topic with at-least-once delivery, a dead-letter
// topic for jobs that cannot be processed, and a Redis result backend.
package queue

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// OrderJob is the payload delivered to fulfillment workers. OrderID is
// generated at intake and is the idempotency key.
type OrderJob struct {
	OrderID    string `json:"order_id" validate:"required,uuid4"`
	ProductID  string `json:"product_id" validate:"required"`
	CustomerID string `json:"customer_id" validate:"required"`
}

var validate = validator.New()

// DecodeJob parses and validates a job payload. Jobs failing here are
// poison messages: they can never succeed and belong on the DLQ.
func DecodeJob(payload []byte) (OrderJob, error) {
	var job OrderJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return OrderJob{}, fmt.Errorf("invalid job payload: %w", err)
	}
	if err := validate.Struct(job); err != nil {
		return OrderJob{}, fmt.Errorf("invalid job fields: %w", err)
	}
	return job, nil
}
