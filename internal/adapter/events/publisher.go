package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/usecase"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher streams order events to a Kafka topic keyed by order id.
type KafkaPublisher struct {
	writer messageWriter
	logger *slog.Logger
}

var _ usecase.EventPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

// Publish writes the event; events of one order land on one partition.
func (p *KafkaPublisher) Publish(ctx context.Context, event model.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(event.OrderID),
		Value:   payload,
		Headers: []kafka.Header{{Key: "type", Value: []byte(event.Type)}},
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", event.Type, err)
	}
	p.logger.Debug("order event published", slog.String("type", string(event.Type)), slog.String("order", event.OrderID))
	return nil
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher records events in the log when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event model.OrderEvent) error {
	p.logger.Info("order event",
		slog.String("type", string(event.Type)),
		slog.String("order", event.OrderID),
		slog.String("status", string(event.Status)),
		slog.String("payment_status", string(event.PaymentStatus)),
	)
	return nil
}
