package slotdb

import (
	"cmp"
	"slices"
	"sync/atomic"
)

type keyState uint8

const (
	// stateTombstoned keys were deleted but still own a slot until vacuum.
	stateTombstoned keyState = iota + 1
	statePresent
)

// entry is the in-memory view of one slot: [pos, pos+len) in the file.
type entry[T any] struct {
	pos    int64
	len    int64
	value  T
	state  keyState
	seq    uint64 // order in which the key last became present
	digest uint64 // xxhash of the last buffer issued to this slot
}

// recordTable is the single source of truth for what the file holds.
// A key without an entry is absent.
type recordTable[T any] struct {
	entries map[string]*entry[T]
	live    int
	nextSeq uint64

	// snapshot of present keys in seq order, nil when stale
	keys atomic.Pointer[[]string]
}

func newRecordTable[T any]() *recordTable[T] {
	return &recordTable[T]{entries: make(map[string]*entry[T])}
}

func (t *recordTable[T]) lookup(key string) (*entry[T], bool) {
	e := t.entries[key]
	return e, e != nil && e.state == statePresent
}

func (t *recordTable[T]) put(key string, e *entry[T], value T) {
	if e.state != statePresent {
		t.nextSeq++
		e.seq = t.nextSeq
		t.live++
	}
	e.state = statePresent
	e.value = value
	t.entries[key] = e
	t.keys.Store(nil)
}

func (t *recordTable[T]) tombstone(key string, e *entry[T]) {
	if e.state == statePresent {
		t.live--
	}
	var zero T
	e.state = stateTombstoned
	e.value = zero
	t.entries[key] = e
	t.keys.Store(nil)
}

// restore installs an entry read from the file. A key seen again keeps the
// seq of its first slot, so file order of first appearance is preserved.
func (t *recordTable[T]) restore(key string, e *entry[T], value T, present bool) {
	if old := t.entries[key]; old != nil {
		e.seq = old.seq
		if old.state == statePresent {
			t.live--
		}
	} else {
		t.nextSeq++
		e.seq = t.nextSeq
	}
	if present {
		e.state = statePresent
		e.value = value
		t.live++
	} else {
		e.state = stateTombstoned
	}
	t.entries[key] = e
	t.keys.Store(nil)
}

// presentKeys returns the shared key snapshot. Callers must not modify it.
func (t *recordTable[T]) presentKeys() []string {
	if p := t.keys.Load(); p != nil {
		return *p
	}
	keys := make([]string, 0, t.live)
	for k, e := range t.entries {
		if e.state == statePresent {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, func(a, b string) int {
		return cmp.Compare(t.entries[a].seq, t.entries[b].seq)
	})
	t.keys.CompareAndSwap(nil, &keys)
	return keys
}

// orderedKeys returns every key, tombstones included, in seq order, breaking
// ties by slot position.
func (t *recordTable[T]) orderedKeys() []string {
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		ea, eb := t.entries[a], t.entries[b]
		if c := cmp.Compare(ea.seq, eb.seq); c != 0 {
			return c
		}
		return cmp.Compare(ea.pos, eb.pos)
	})
	return keys
}
