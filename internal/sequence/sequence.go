// Package sequence issues monotonic integer identifiers. Orders and users
// both draw their ids from a Sequence seeded with the largest id already in
// use, so ids are never reused even when the list shrinks.
package sequence

import "sync"

type Sequence struct {
	mu   sync.Mutex
	last int64
}

// New returns a sequence whose first id is seed+1
func New(seed int64) *Sequence {
	if seed < 0 {
		seed = 0
	}
	return &Sequence{last: seed}
}

// Next reserves and returns the next id
func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	return s.last
}

// Observe moves the sequence past id if it was issued elsewhere
func (s *Sequence) Observe(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id > s.last {
		s.last = id
	}
}

// Last returns the most recently issued or observed id
func (s *Sequence) Last() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// MaxOf returns the largest id produced by idOf over items, or 0
func MaxOf[T any](items []T, idOf func(T) int64) int64 {
	var highest int64
	for _, item := range items {
		if id := idOf(item); id > highest {
			highest = id
		}
	}
	return highest
}
