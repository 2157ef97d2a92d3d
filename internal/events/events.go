// Package events describes the change notifications the stores emit to the
// outside world.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is the envelope of a store change notification
type Event struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
}

// New wraps data in an envelope with a fresh id
func New(aggregateType, aggregateID, eventType string, data any) (Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
	}, nil
}

// Publisher delivers events to a broker
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Emitter publishes events on behalf of a store. Failures are logged and
// never reach the store's callers. A nil publisher disables publishing.
type Emitter struct {
	publisher Publisher
	logger    *zap.Logger
}

func NewEmitter(publisher Publisher, logger *zap.Logger) *Emitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{publisher: publisher, logger: logger}
}

// Emit publishes one event keyed by its aggregate id
func (e *Emitter) Emit(ctx context.Context, aggregateType, aggregateID, eventType string, data any) {
	if e == nil || e.publisher == nil {
		return
	}

	event, err := New(aggregateType, aggregateID, eventType, data)
	if err != nil {
		e.logger.Warn("failed to encode event",
			zap.String("event_type", eventType), zap.Error(err))
		return
	}

	if err := e.publisher.Publish(ctx, aggregateID, event); err != nil {
		e.logger.Warn("failed to publish event",
			zap.String("event_type", eventType),
			zap.String("aggregate_id", aggregateID),
			zap.Error(err))
	}
}
