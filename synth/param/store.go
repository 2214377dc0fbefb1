package param

import (
	"maps"
	"sync"
)

// Store caches the last value written for every parameter and forwards
// writes to registered smoothers.
//
// Smoothers are registered while the engine is being set up, before any
// concurrent access; after that the registry is read-only.
type Store struct {
	mu     sync.Mutex
	values map[ID]float64

	smoothers map[ID]*Smoother
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		values:    make(map[ID]float64),
		smoothers: make(map[ID]*Smoother),
	}
}

// Register attaches a smoother to id. Subsequent Set calls retarget it.
func (s *Store) Register(id ID, sm *Smoother) {
	s.smoothers[id] = sm
}

// Smoother returns the smoother registered for id.
func (s *Store) Smoother(id ID) (*Smoother, bool) {
	sm, ok := s.smoothers[id]
	return sm, ok
}

// Set caches v for id and retargets its smoother, if any.
func (s *Store) Set(id ID, v float64) {
	s.mu.Lock()
	s.values[id] = v
	s.mu.Unlock()

	if sm, ok := s.smoothers[id]; ok {
		sm.SetTarget(v)
	}
}

// Get returns the cached value for id.
func (s *Store) Get(id ID) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[id]

	return v, ok
}

// Snapshot returns a copy of every cached value.
func (s *Store) Snapshot() map[ID]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return maps.Clone(s.values)
}

// Len returns the number of cached parameters.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.values)
}

// Clear drops every cached value. Registered smoothers are kept.
func (s *Store) Clear() {
	s.mu.Lock()
	clear(s.values)
	s.mu.Unlock()
}
