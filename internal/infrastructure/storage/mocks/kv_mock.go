package mocks

import (
	"context"
	"sync"
)

// MockKeyValue is a mock implementation of storage.KeyValue for testing
type MockKeyValue struct {
	mu   sync.RWMutex
	data map[string]string

	// For tracking calls in tests
	SetCalls    []SetCall
	RemoveCalls []string
	GetErr      error
	SetErr      error
	RemoveErr   error
}

// SetCall records parameters passed to Set
type SetCall struct {
	Key   string
	Value string
}

// NewMockKeyValue creates a new MockKeyValue
func NewMockKeyValue() *MockKeyValue {
	return &MockKeyValue{
		data:        make(map[string]string),
		SetCalls:    make([]SetCall, 0),
		RemoveCalls: make([]string, 0),
	}
}

// Get returns the stored value, or GetErr if set
func (m *MockKeyValue) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.GetErr != nil {
		return "", false, m.GetErr
	}
	value, ok := m.data[key]
	return value, ok, nil
}

// Set records the call and stores the value unless SetErr is set
func (m *MockKeyValue) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SetCalls = append(m.SetCalls, SetCall{Key: key, Value: value})
	if m.SetErr != nil {
		return m.SetErr
	}
	m.data[key] = value
	return nil
}

// Remove records the call and deletes the key unless RemoveErr is set
func (m *MockKeyValue) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RemoveCalls = append(m.RemoveCalls, key)
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	delete(m.data, key)
	return nil
}

// Seed sets a value directly for testing, bypassing call tracking
func (m *MockKeyValue) Seed(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

// Raw returns the stored value for assertions
func (m *MockKeyValue) Raw(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	return value, ok
}

// SetCallsFor returns the recorded Set calls for a key
func (m *MockKeyValue) SetCallsFor(key string) []SetCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var calls []SetCall
	for _, call := range m.SetCalls {
		if call.Key == key {
			calls = append(calls, call)
		}
	}
	return calls
}
