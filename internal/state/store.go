package state

import (
	"sync"
	"sync/atomic"
)

// Store holds the current State. Reads are lock-free; updates are
// serialized so concurrent actions never lose each other's changes.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[State]
}

// NewStore creates a store holding the initial state.
func NewStore() *Store {
	s := &Store{}
	empty := Initial()
	s.current.Store(&empty)
	return s
}

// Get returns the current state. Callers must treat it as read-only.
func (s *Store) Get() State {
	return *s.current.Load()
}

// Update applies fn to the current state and stores the result, returning
// the previous and new states.
func (s *Store) Update(fn func(State) State) (prev, next State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev = *s.current.Load()
	next = fn(prev)
	s.current.Store(&next)
	return prev, next
}
