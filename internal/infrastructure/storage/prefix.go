package storage

import "context"

// Namespaced prefixes every key before delegating to the wrapped store, so
// several owners can share one backend without colliding.
type Namespaced struct {
	prefix string
	kv     KeyValue
}

func NewNamespaced(kv KeyValue, prefix string) *Namespaced {
	return &Namespaced{prefix: prefix, kv: kv}
}

func (n *Namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	return n.kv.Get(ctx, n.prefix+key)
}

func (n *Namespaced) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return n.kv.Set(ctx, n.prefix+key, value)
}

func (n *Namespaced) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return n.kv.Remove(ctx, n.prefix+key)
}
