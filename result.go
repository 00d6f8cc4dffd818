package slotdb

import "slices"

// Result is an immutable list of keys produced by Find or Scan. Keys are
// fixed when the Result is created; values are looked up live, so they
// reflect writes made afterwards.
type Result[T any] struct {
	s    *Store[T]
	keys []string
}

func newResult[T any](s *Store[T], keys []string) *Result[T] {
	return &Result[T]{s, keys}
}

func (r *Result[T]) Size() int {
	return len(r.keys)
}

func (r *Result[T]) Keys() []string {
	return slices.Clone(r.keys)
}

// RawKeys returns the backing slice. It must not be modified.
func (r *Result[T]) RawKeys() []string {
	return r.keys
}

// Values returns the live value of each key, or the zero value for keys that
// have since been deleted.
func (r *Result[T]) Values() []T {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	values := make([]T, len(r.keys))
	for i, k := range r.keys {
		if e, ok := r.s.table.lookup(k); ok {
			values[i] = e.value
		}
	}
	return values
}

func (r *Result[T]) Entries() []Entry[T] {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.entriesLocked(r.keys)
}

// AndFind intersects r with Find(field, value). The shorter list is filtered
// against the longer one and keeps its order.
func (r *Result[T]) AndFind(field string, value any) *Result[T] {
	found := r.s.findKeys(field, value)
	short, long := r.keys, found
	if len(found) < len(r.keys) {
		short, long = found, r.keys
	}
	if len(short) == 0 {
		return newResult(r.s, nil)
	}
	members := make(map[string]struct{}, len(long))
	for _, k := range long {
		members[k] = struct{}{}
	}
	var keys []string
	for _, k := range short {
		if _, ok := members[k]; ok {
			keys = append(keys, k)
		}
	}
	return newResult(r.s, keys)
}

// AndScan keeps the keys whose live value is present and matches pred.
func (r *Result[T]) AndScan(pred func(T) bool) *Result[T] {
	r.s.mu.RLock()
	keys := make([]string, 0, len(r.keys))
	values := make([]T, 0, len(r.keys))
	for _, k := range r.keys {
		if e, ok := r.s.table.lookup(k); ok {
			keys = append(keys, k)
			values = append(values, e.value)
		}
	}
	r.s.mu.RUnlock()

	var matched []string
	for i, v := range values {
		if pred(v) {
			matched = append(matched, keys[i])
		}
	}
	return newResult(r.s, matched)
}
