package state

import "sync"

// Store owns the current state and serializes dispatches. A read after
// Dispatch returns always observes that dispatch.
type Store struct {
	mu    sync.RWMutex
	state *ScrollState
}

// NewStore creates a store holding Initial()
func NewStore() *Store {
	initial := Initial()
	return &Store{state: &initial}
}

// Dispatch applies a to the current state and returns the resulting state
// and whether anything was replaced
func (st *Store) Dispatch(a Action) (ScrollState, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	next := Reduce(st.state, a)
	changed := next != st.state
	st.state = next
	return *next, changed
}

// State returns a copy of the current state
func (st *Store) State() ScrollState {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return *st.state
}
