package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"tourbook/internal/logger"
	"tourbook/internal/models"
)

// Publisher is what the order and webhook paths publish through.
type Publisher interface {
	PublishOrderEvent(ctx context.Context, topic string, event models.OrderEvent) error
	Close() error
}

type Producer struct {
	Writer *kafka.Writer
	log    *logger.Logger
}

func NewProducer(brokers []string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Producer{Writer: writer, log: log}
}

// PublishOrderEvent streams the event keyed by order id, so every event of one
// order lands on the same partition.
func (p *Producer) PublishOrderEvent(ctx context.Context, topic string, event models.OrderEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	p.log.LogKafka("PUBLISH", topic, fmt.Sprintf("order=%s status=%s", event.OrderID, event.Status))

	return p.Writer.WriteMessages(ctx,
		kafka.Message{
			Topic: topic,
			Key:   []byte(event.OrderID),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// NopPublisher only logs. Used when KAFKA_ENABLED is false.
type NopPublisher struct {
	Log *logger.Logger
}

func (n NopPublisher) PublishOrderEvent(_ context.Context, topic string, event models.OrderEvent) error {
	if n.Log != nil {
		n.Log.Debug("KAFKA", fmt.Sprintf("Kafka disabled, dropping %s for order %s", topic, event.OrderID))
	}
	return nil
}

func (NopPublisher) Close() error { return nil }
