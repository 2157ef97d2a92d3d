package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/example/ec-storefront/internal/events"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer publishes store change events to a Kafka topic
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	sugar := logger.Named("kafka").Sugar()

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // keep one aggregate on one partition
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			sugar.Errorf(msg, args...)
		}),
	}
	return &Producer{writer: writer}
}

// Message builds the Kafka message for an event
func Message(key string, event any) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if e, ok := event.(events.Event); ok {
		msg.Headers = []kafka.Header{
			{Key: "event_type", Value: []byte(e.EventType)},
			{Key: "aggregate_type", Value: []byte(e.AggregateType)},
		}
		msg.Time = e.Timestamp
	}
	return msg, nil
}

func (p *Producer) Publish(ctx context.Context, key string, event any) error {
	msg, err := Message(key, event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
