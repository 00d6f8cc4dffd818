package slotdb

import (
	"context"
	"log/slog"
)

// BuildIndex indexes field across all present records. It does nothing if
// the index already exists. Find builds missing indexes on its own.
func (s *Store[T]) BuildIndex(field string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buildIndexLocked(field)
}

// RebuildIndex drops and rebuilds the index on field from scratch.
func (s *Store[T]) RebuildIndex(field string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index.drop(field)
	s.buildIndexLocked(field)
}

func (s *Store[T]) DropIndex(field string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index.drop(field)
}

// Indexes lists indexed fields in sorted order.
func (s *Store[T]) Indexes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.fields()
}

func (s *Store[T]) buildIndexLocked(field string) {
	if !s.index.create(field) {
		return
	}
	keys := s.table.presentKeys()
	for _, key := range keys {
		if v, ok := s.fields(s.table.entries[key].value, field); ok {
			s.index.set(key, field, v)
		}
	}
	if s.verbose {
		s.logger.LogAttrs(context.Background(), slog.LevelDebug, "slotdb: INDEX", slog.String("field", field), slog.Int("records", len(keys)), slog.Int("buckets", s.index.bucketCount(field)))
	}
}

// Find returns the keys whose field equals value, building the index on
// field first if needed. Numbers compare by value regardless of type.
func (s *Store[T]) Find(field string, value any) *Result[T] {
	return newResult(s, s.findKeys(field, value))
}

func (s *Store[T]) findKeys(field string, value any) []string {
	s.mu.RLock()
	if s.index.has(field) {
		keys := s.index.lookup(field, value)
		s.mu.RUnlock()
		return keys
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.buildIndexLocked(field)
	return s.index.lookup(field, value)
}

// Scan returns the keys of present records matching pred, in table order.
// pred runs without the store lock held and may call read methods.
func (s *Store[T]) Scan(pred func(T) bool) *Result[T] {
	s.mu.RLock()
	keys := s.table.presentKeys()
	values := make([]T, len(keys))
	for i, k := range keys {
		values[i] = s.table.entries[k].value
	}
	s.mu.RUnlock()

	var matched []string
	for i, v := range values {
		if pred(v) {
			matched = append(matched, keys[i])
		}
	}
	return newResult(s, matched)
}
