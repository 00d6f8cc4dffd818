package slotdb

import (
	"slices"
	"sort"
)

// indexSet holds the secondary indexes of a store.
//
// fwd maps field -> value -> keys in insertion order. rev remembers, per key,
// the value each field was last indexed under, so that a changed record can
// be pulled out of its stale bucket. The two are always updated together.
type indexSet struct {
	fwd map[string]map[any][]string
	rev map[string]map[string]any
}

func newIndexSet() *indexSet {
	return &indexSet{
		fwd: make(map[string]map[any][]string),
		rev: make(map[string]map[string]any),
	}
}

func (ix *indexSet) has(field string) bool {
	_, ok := ix.fwd[field]
	return ok
}

func (ix *indexSet) fields() []string {
	fields := make([]string, 0, len(ix.fwd))
	for f := range ix.fwd {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// create registers an empty index for field and reports whether it is new.
func (ix *indexSet) create(field string) bool {
	if ix.has(field) {
		return false
	}
	ix.fwd[field] = make(map[any][]string)
	return true
}

func (ix *indexSet) drop(field string) {
	if !ix.has(field) {
		return
	}
	delete(ix.fwd, field)
	for key, fields := range ix.rev {
		delete(fields, field)
		if len(fields) == 0 {
			delete(ix.rev, key)
		}
	}
}

// set moves key into the bucket of value for field. Non-scalar values leave
// the index untouched; an absent value removes the key from the index.
func (ix *indexSet) set(key, field string, value any) {
	buckets, ok := ix.fwd[field]
	if !ok {
		return
	}
	nv, kind := normalizeScalar(value)
	if kind == scalarComplex {
		return
	}

	fields := ix.rev[key]
	old, hadOld := fields[field]
	if hadOld && kind == scalarValue && old == nv {
		return
	}
	if !hadOld && kind == scalarAbsent {
		return
	}

	if hadOld {
		bucket := buckets[old]
		if i := slices.Index(bucket, key); i >= 0 {
			bucket = slices.Delete(bucket, i, i+1)
		}
		if len(bucket) == 0 {
			delete(buckets, old)
		} else {
			buckets[old] = bucket
		}
	}

	if kind == scalarAbsent {
		delete(fields, field)
		if len(fields) == 0 {
			delete(ix.rev, key)
		}
		return
	}

	buckets[nv] = append(buckets[nv], key)
	if fields == nil {
		fields = make(map[string]any)
		ix.rev[key] = fields
	}
	fields[field] = nv
}

// lookup returns a copy of the bucket for value, or nil.
func (ix *indexSet) lookup(field string, value any) []string {
	nv, kind := normalizeScalar(value)
	if kind != scalarValue {
		return nil
	}
	return slices.Clone(ix.fwd[field][nv])
}

// indexed returns the value key is currently indexed under for field.
func (ix *indexSet) indexed(key, field string) (any, bool) {
	v, ok := ix.rev[key][field]
	return v, ok
}

func (ix *indexSet) bucketCount(field string) int {
	return len(ix.fwd[field])
}
