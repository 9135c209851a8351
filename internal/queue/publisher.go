package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// Publisher writes order jobs to the fulfillment topic, keyed by
// order_id so redeliveries of the same order stay on one partition.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher builds a publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

// PublishOrder enqueues one fulfillment job.
func (p *Publisher) PublishOrder(ctx context.Context, job OrderJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(job.OrderID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
