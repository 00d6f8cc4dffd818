package slotdb

import (
	"context"
	"log/slog"

	"github.com/cespare/xxhash/v2"
)

// Set stores value under key. The new value is visible to readers before the
// write reaches the file. Empty keys are ignored. A nil value (nil pointer,
// map or slice) deletes the key, since it would be stored as a tombstone.
func (s *Store[T]) Set(key string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rejectLocked("set", key) {
		return
	}
	s.set(key, value, !isNil(value))
}

// Put is an alias of Set.
func (s *Store[T]) Put(key string, value T) {
	s.Set(key, value)
}

// SetInit runs Options.OnLoad on value before storing it, the same way values
// are prepared when they are read from the file.
func (s *Store[T]) SetInit(key string, value T) {
	value = s.onLoad(value)
	s.Set(key, value)
}

// Save persists the current value of key again, for values mutated in place
// after Get. Unknown keys are ignored.
func (s *Store[T]) Save(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rejectLocked("save", key) {
		return
	}
	e := s.table.entries[key]
	if e == nil {
		return
	}
	s.set(key, e.value, e.state == statePresent)
}

// Del deletes key. The slot stays in the file as a tombstone until the next
// vacuum. Deleting an unknown key does nothing.
func (s *Store[T]) Del(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rejectLocked("del", key) {
		return
	}
	var zero T
	s.set(key, zero, false)
}

func (s *Store[T]) set(key string, value T, present bool) {
	if key == "" {
		return
	}
	e := s.table.entries[key]
	if e == nil {
		if !present {
			return
		}
		e = &entry[T]{pos: s.endPos}
	}

	var vp *T
	if present {
		vp = &value
	}
	buf := s.slotBytes(encodeRecord(s.codec, key, vp), e.len)
	if n := int64(len(buf)); n > e.len {
		if e.len > 0 {
			s.dead.AddRange(uint64(e.pos), uint64(e.pos+e.len))
		}
		e.pos, e.len, e.digest = s.endPos, n, 0
		s.endPos += n
	}

	if present {
		s.table.put(key, e, value)
	} else {
		s.table.tombstone(key, e)
	}
	s.reindex(key, value, present)

	digest := xxhash.Sum64(buf)
	if digest == e.digest {
		s.skippedWrites++
		if s.verbose {
			s.logger.LogAttrs(context.Background(), slog.LevelDebug, "slotdb: PUT.NOOP", slog.String("key", key), slog.Int64("pos", e.pos))
		}
		return
	}
	e.digest = digest
	s.issueWriteLocked(key, e.pos, buf)

	if s.verbose {
		op := "slotdb: PUT"
		if !present {
			op = "slotdb: DEL"
		}
		s.logger.LogAttrs(context.Background(), slog.LevelDebug, op, slog.String("key", key), slog.Int64("pos", e.pos), slog.Int64("len", e.len))
	}
	s.maybeAutoVacuumLocked()
}

// slotBytes pads raw with spaces to a whole number of pages (and at least
// minLen) and terminates it with the separator.
func (s *Store[T]) slotBytes(raw []byte, minLen int64) []byte {
	sepLen := int64(len(s.sep))
	n := ceilDiv(int64(len(raw)), s.pageSize)*s.pageSize + sepLen
	n = max(n, minLen)
	buf := make([]byte, n)
	copy(buf, raw)
	for i := int64(len(raw)); i < n-sepLen; i++ {
		buf[i] = ' '
	}
	copy(buf[n-sepLen:], s.sep)
	return buf
}

func (s *Store[T]) reindex(key string, value T, present bool) {
	for field := range s.index.fwd {
		var v any
		if present {
			if fv, ok := s.fields(value, field); ok {
				v = fv
			}
		}
		s.index.set(key, field, v)
	}
}

func (s *Store[T]) maybeAutoVacuumLocked() {
	if s.autoVacuum == 0 || s.vacuumPending || s.endPos < autoVacuumMinPages*s.pageSize {
		return
	}
	dead := s.dead.GetCardinality()
	if float64(dead) <= s.autoVacuum*float64(s.endPos) {
		return
	}
	s.vacuumPending = true
	s.logger.LogAttrs(context.Background(), slog.LevelInfo, "slotdb: auto vacuum requested", slog.String("path", s.path), slog.Uint64("dead", dead), slog.Int64("size", s.endPos))
}
