package slotdb

import "slices"

// Entry is a key with its live value. Present is false when the key was
// deleted after the Result holding it was created.
type Entry[T any] struct {
	Key     string
	Value   T
	Present bool
}

// Get returns the cached value of key. The value is the very one passed to
// Set, not a copy.
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.table.lookup(key)
	if !ok {
		var zero T
		return zero, false
	}
	return e.value, true
}

func (s *Store[T]) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.table.lookup(key)
	return ok
}

// Size returns the number of present (non-deleted) keys.
func (s *Store[T]) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.live
}

// Keys returns present keys in the order they were added.
func (s *Store[T]) Keys() []string {
	return slices.Clone(s.RawKeys())
}

// RawKeys is Keys without the copy. The returned slice is shared and must not
// be modified.
func (s *Store[T]) RawKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.presentKeys()
}

func (s *Store[T]) Values() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.table.presentKeys()
	values := make([]T, len(keys))
	for i, k := range keys {
		values[i] = s.table.entries[k].value
	}
	return values
}

func (s *Store[T]) Entries() []Entry[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entriesLocked(s.table.presentKeys())
}

func (s *Store[T]) entriesLocked(keys []string) []Entry[T] {
	entries := make([]Entry[T], len(keys))
	for i, k := range keys {
		entries[i].Key = k
		if e, ok := s.table.lookup(k); ok {
			entries[i].Value = e.value
			entries[i].Present = true
		}
	}
	return entries
}
