// Package observable provides continuous values: a subscriber receives the
// latest value immediately and then every later change.
package observable

import (
	"sync"
	"sync/atomic"
)

// Observable is a read-only continuous value.
type Observable[T any] interface {
	// Subscribe replays the latest value to fn and then delivers every change
	// until the returned func is called.
	Subscribe(fn func(T)) (unsubscribe func())
	// Value returns a snapshot of the latest value.
	Value() T
}

// Option configures a Subject.
type Option[T any] func(*Subject[T])

// WithClone sets a copy function applied to every value handed out, so that
// subscribers never alias the subject's own copy.
func WithClone[T any](clone func(T) T) Option[T] {
	return func(s *Subject[T]) {
		s.clone = clone
	}
}

type subscription[T any] struct {
	fn     func(T)
	active atomic.Bool
}

// Subject is a replay-latest publish/subscribe channel.
//
// Deliveries are serialized: subscribers observe values in publish order.
// A callback must not Publish, Update or Subscribe on the subject that is
// delivering to it; unsubscribing from inside a callback is allowed.
type Subject[T any] struct {
	emit sync.Mutex // serializes deliveries

	mu    sync.Mutex
	value T
	subs  []*subscription[T]
	clone func(T) T
}

// NewSubject creates a subject holding initial.
func NewSubject[T any](initial T, opts ...Option[T]) *Subject[T] {
	s := &Subject[T]{value: initial}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Subject[T]) copyOf(v T) T {
	if s.clone == nil {
		return v
	}
	return s.clone(v)
}

// Value returns a snapshot of the latest value.
func (s *Subject[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyOf(s.value)
}

// Subscribe registers fn and immediately replays the latest value to it.
func (s *Subject[T]) Subscribe(fn func(T)) func() {
	s.emit.Lock()
	defer s.emit.Unlock()

	sub := &subscription[T]{fn: fn}
	sub.active.Store(true)

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	current := s.copyOf(s.value)
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(sub) })
	}
}

func (s *Subject[T]) remove(sub *subscription[T]) {
	sub.active.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, candidate := range s.subs {
		if candidate == sub {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// Publish replaces the value and notifies every subscriber.
func (s *Subject[T]) Publish(v T) {
	s.Update(func(T) T { return v })
}

// Update computes the next value from the current one and notifies every
// subscriber. The computation and the delivery happen as one step with
// respect to other publishers.
func (s *Subject[T]) Update(fn func(current T) T) T {
	s.emit.Lock()
	defer s.emit.Unlock()

	s.mu.Lock()
	s.value = fn(s.value)
	next := s.value
	subs := make([]*subscription[T], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		if sub.active.Load() {
			sub.fn(s.copyOf(next))
		}
	}
	return s.copyOf(next)
}

// Subscribers reports how many subscriptions are active.
func (s *Subject[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

type mapped[S, T any] struct {
	src       Observable[S]
	transform func(S) T
}

// Map derives a continuous value recomputed on every change of src.
func Map[S, T any](src Observable[S], transform func(S) T) Observable[T] {
	return &mapped[S, T]{src: src, transform: transform}
}

func (m *mapped[S, T]) Subscribe(fn func(T)) func() {
	return m.src.Subscribe(func(v S) {
		fn(m.transform(v))
	})
}

func (m *mapped[S, T]) Value() T {
	return m.transform(m.src.Value())
}

// Collect subscribes to src and appends every delivered value to a slice,
// which is handy for callers that want a change log.
func Collect[T any](src Observable[T]) (values func() []T, unsubscribe func()) {
	var (
		mu  sync.Mutex
		got []T
	)
	unsubscribe = src.Subscribe(func(v T) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
	})
	values = func() []T {
		mu.Lock()
		defer mu.Unlock()
		out := make([]T, len(got))
		copy(out, got)
		return out
	}
	return values, unsubscribe
}
