package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"tourbook/internal/logger"
	"tourbook/internal/models"
)

type Consumer struct {
	reader *kafka.Reader
	log    *logger.Logger
}

// NewConsumer creates a Kafka consumer for the given topic and group
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, log: log}
}

// Start consumes until ctx is canceled. Undecodable messages are logged and
// skipped.
func (c *Consumer) Start(ctx context.Context, handler func(models.OrderEvent)) {
	topic := c.reader.Config().Topic
	c.log.LogKafka("CONSUME", topic, "consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				c.log.LogKafka("CONSUME", topic, "consumer stopped")
				return
			}
			c.log.Error("KAFKA", fmt.Sprintf("Error reading message: %v", err))
			continue
		}

		event, err := DecodeOrderEvent(msg.Value)
		if err != nil {
			c.log.Warn("KAFKA", fmt.Sprintf("Failed to unmarshal message at offset %d: %v", msg.Offset, err))
			continue
		}
		handler(event)
	}
}

func DecodeOrderEvent(value []byte) (models.OrderEvent, error) {
	var event models.OrderEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return models.OrderEvent{}, err
	}
	if event.OrderID == "" || event.UserID == "" {
		return models.OrderEvent{}, errors.New("order event missing orderId or userId")
	}
	return event, nil
}

// Close gracefully shuts down the Kafka reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
