package mocks

import (
	"context"
	"sync"

	"github.com/example/ec-storefront/internal/events"
)

// MockPublisher records published events for testing
type MockPublisher struct {
	mu sync.Mutex

	PublishCalls []PublishCall
	PublishErr   error
}

// PublishCall records parameters passed to Publish
type PublishCall struct {
	Key   string
	Event events.Event
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{PublishCalls: make([]PublishCall, 0)}
}

func (m *MockPublisher) Publish(_ context.Context, key string, event any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, _ := event.(events.Event)
	m.PublishCalls = append(m.PublishCalls, PublishCall{Key: key, Event: e})
	return m.PublishErr
}

// EventTypes returns the event types in publish order
func (m *MockPublisher) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	types := make([]string, 0, len(m.PublishCalls))
	for _, call := range m.PublishCalls {
		types = append(types, call.Event.EventType)
	}
	return types
}
