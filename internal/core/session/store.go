// Package session tracks per-chat interaction state in memory.
//
// Entries are short-lived: they exist between a user's menu selection and the
// message that completes it. There is no expiry and no size bound.
package session

import "sync"

// Store is a thread-safe in-memory map keyed by chat.
type Store[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
}

// NewStore creates an empty store.
func NewStore[K comparable, V any]() *Store[K, V] {
	return &Store[K, V]{
		entries: make(map[K]V),
	}
}

// Set records value for key, replacing any previous value.
func (s *Store[K, V]) Set(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = value
}

// Get returns the value for key and whether it exists.
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.entries[key]

	return value, ok
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *Store[K, V]) Delete(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
}

// Take removes key and returns the value it held.
func (s *Store[K, V]) Take(key K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
	}

	return value, ok
}

// Len returns the number of entries.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}
