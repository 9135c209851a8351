package queue

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// HandlerFunc processes one decoded job to a terminal outcome. A non-nil
// error means the job could not reach one even after bounded retries.
type HandlerFunc func(ctx context.Context, job OrderJob) error

// ConsumerConfig wires a Consumer.
type ConsumerConfig struct {
	Brokers  []string
	Topic    string
	DLQTopic string
	GroupID  string
}

// Consumer pulls jobs one at a time from the fulfillment topic.
// Delivery is at-least-once: the offset is committed only after the
// handler returns or the message has been diverted to the DLQ, so a
// crash mid-job redelivers it.
type Consumer struct {
	reader *kafka.Reader
	dlq    *kafka.Writer
	log    *slog.Logger
}

// NewConsumer builds a consumer in the given consumer group.
func NewConsumer(cfg ConsumerConfig, log *slog.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: cfg.Brokers,
			Topic:   cfg.Topic,
			GroupID: cfg.GroupID,
		}),
		dlq: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.DLQTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		log: log,
	}
}

// Run consumes until ctx is cancelled.
//
// Poison payloads (undecodable or invalid) and jobs whose handler still
// fails after its bounded retries are parked on the DLQ and committed:
// that is the infrastructure-level failure report, and no order row is
// forged for them here.
func (c *Consumer) Run(ctx context.Context, handler HandlerFunc) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("consumer shutting down")
				return nil
			}
			c.log.Error("failed to fetch message", "error", err)
			continue
		}

		job, err := DecodeJob(msg.Value)
		if err != nil {
			c.log.Error("poison job payload", "error", err, "offset", msg.Offset)
			c.park(ctx, msg)
			c.commit(ctx, msg)
			continue
		}

		if err := handler(ctx, job); err != nil {
			if ctx.Err() != nil {
				// Shutdown mid-job: leave the offset uncommitted so the
				// job is redelivered.
				return nil
			}
			c.log.Error("job exhausted retries", "order_id", job.OrderID, "error", err)
			c.park(ctx, msg)
		}
		c.commit(ctx, msg)
	}
}

func (c *Consumer) park(ctx context.Context, msg kafka.Message) {
	err := c.dlq.WriteMessages(ctx, kafka.Message{Key: msg.Key, Value: msg.Value})
	if err != nil {
		c.log.Error("failed to write to dlq", "error", err, "offset", msg.Offset)
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.log.Error("failed to commit offset", "error", err, "offset", msg.Offset)
	}
}

// Close releases the reader and DLQ writer.
func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return err
	}
	return c.dlq.Close()
}
