package storage

import (
	"context"
	"errors"
)

// Keys under which the stores persist their state.
const (
	KeyCurrentUser = "currentUser"
	KeyUsers       = "users"
	KeyOrders      = "orders"
)

var ErrEmptyKey = errors.New("storage key is required")

// KeyValue is the persisted local state: JSON strings under string keys.
// Values are always overwritten wholesale, never merged.
type KeyValue interface {
	// Get returns the value stored under key and whether it exists
	Get(ctx context.Context, key string) (string, bool, error)

	// Set overwrites the value stored under key
	Set(ctx context.Context, key, value string) error

	// Remove deletes key; removing a missing key is not an error
	Remove(ctx context.Context, key string) error
}
