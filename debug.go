package slotdb

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
)

type DumpFlags uint64

const (
	DumpHeader = DumpFlags(1 << iota)
	DumpStats
	DumpRecords
	DumpTombstones
	DumpIndexes
	DumpIndexRows

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

var (
	dumpSep1 = strings.Repeat("=", 80)
	dumpSep2 = strings.Repeat("-", 60)
)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump writes a human-readable description of the store, for debugging.
func (s *Store[T]) Dump(w io.Writer, f DumpFlags) {
	st := s.Stats()

	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := "store"
	if f.Contains(DumpHeader) {
		fmt.Fprintln(w, dumpSep1)
		fmt.Fprintf(w, "%s %s (%d records, %d tombstones, codec %s, page %d)\n", prefix, s.path, st.Records, st.Tombstones, s.codec.Name(), s.pageSize)
	}
	if f.Contains(DumpStats) {
		fmt.Fprintf(w, "%s.stats: file_size = %d, dead = %d, tombstone_bytes = %d, pending = %d, writes = %d, skipped = %d, vacuums = %d\n", prefix, st.FileSize, st.DeadBytes, st.TombstoneBytes, st.PendingWrites, st.Writes, st.SkippedWrites, st.Vacuums)
	}

	if f.Contains(DumpRecords) {
		fmt.Fprintln(w, dumpSep2)
		keys := s.table.orderedKeys()
		slices.SortFunc(keys, func(a, b string) int {
			return cmp.Compare(s.table.entries[a].pos, s.table.entries[b].pos)
		})
		var rowPos int
		for _, key := range keys {
			e := s.table.entries[key]
			if e.state != statePresent && !f.Contains(DumpTombstones) {
				continue
			}
			rowPos++
			s.dumpRecord(w, prefix, rowPos, key, e)
		}
	}

	if f.Contains(DumpIndexes) {
		for _, field := range s.index.fields() {
			s.dumpIndex(w, prefix, f, field)
		}
	}
}

func (s *Store[T]) dumpRecord(w io.Writer, prefix string, rowPos int, key string, e *entry[T]) {
	if e.state != statePresent {
		fmt.Fprintf(w, "%s.%d %q @%d+%d = <tombstone>\n", prefix, rowPos, key, e.pos, e.len)
		return
	}
	raw, err := json.Marshal(e.value)
	if err != nil {
		fmt.Fprintf(w, "%s.%d %q @%d+%d = ** ERROR: %v\n", prefix, rowPos, key, e.pos, e.len, err)
		return
	}
	fmt.Fprintf(w, "%s.%d %q @%d+%d = %s\n", prefix, rowPos, key, e.pos, e.len, raw)
}

func (s *Store[T]) dumpIndex(w io.Writer, prefix string, f DumpFlags, field string) {
	fmt.Fprintln(w, dumpSep2)
	prefix = prefix + ".i." + field
	buckets := s.index.fwd[field]
	fmt.Fprintf(w, "%s (%d values)\n", prefix, len(buckets))

	if f.Contains(DumpIndexRows) {
		values := make([]any, 0, len(buckets))
		for v := range buckets {
			values = append(values, v)
		}
		slices.SortFunc(values, func(a, b any) int {
			return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
		})
		for i, v := range values {
			fmt.Fprintf(w, "%s.%d: %v => %s\n", prefix, i+1, v, strings.Join(buckets[v], ", "))
		}
	}
}
