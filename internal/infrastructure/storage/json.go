package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// LoadJSON decodes the value stored under key into a T.
// The boolean is false when the key does not exist.
func LoadJSON[T any](ctx context.Context, kv KeyValue, key string) (T, bool, error) {
	var zero T

	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return zero, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return zero, false, nil
	}

	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return zero, false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return value, true, nil
}

// SaveJSON encodes value and overwrites key with it
func SaveJSON(ctx context.Context, kv KeyValue, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
