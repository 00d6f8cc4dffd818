package slotdb

type Stats struct {
	Records    int
	Tombstones int
	Indexes    int

	FileSize       int64
	DeadBytes      int64
	TombstoneBytes int64

	PendingWrites int
	Writes        uint64
	SkippedWrites uint64
	Vacuums       int

	LoadedRecords  int
	CorruptRecords int
}

// Reclaimable is how many bytes a vacuum would free, padding aside.
func (st *Stats) Reclaimable() int64 {
	return st.DeadBytes + st.TombstoneBytes
}

func (s *Store[T]) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{
		Records:        s.table.live,
		Indexes:        len(s.index.fwd),
		FileSize:       s.endPos,
		DeadBytes:      int64(s.dead.GetCardinality()),
		PendingWrites:  len(s.inflight),
		Writes:         s.writes,
		SkippedWrites:  s.skippedWrites,
		Vacuums:        s.vacuums,
		LoadedRecords:  s.loaded,
		CorruptRecords: s.corrupt,
	}
	for _, e := range s.table.entries {
		if e.state == stateTombstoned {
			st.Tombstones++
			st.TombstoneBytes += e.len
		}
	}
	return st
}
