package catalog

import "sync/atomic"

// Store holds the catalog snapshot currently being served. Readers take a
// snapshot with Current and use it for the whole request; a reload installs
// a new snapshot with Swap and never touches the old one.
type Store struct {
	current    atomic.Pointer[QueryService]
	generation atomic.Uint64
}

// NewStore creates a store serving qs.
func NewStore(qs *QueryService) *Store {
	s := &Store{}
	s.current.Store(qs)
	s.generation.Store(1)
	return s
}

// Current returns the snapshot in service.
func (s *Store) Current() *QueryService {
	return s.current.Load()
}

// Swap installs qs and returns the snapshot it replaced.
func (s *Store) Swap(qs *QueryService) *QueryService {
	prev := s.current.Swap(qs)
	s.generation.Add(1)
	return prev
}

// Generation counts installed snapshots, starting at 1.
func (s *Store) Generation() uint64 {
	return s.generation.Load()
}
