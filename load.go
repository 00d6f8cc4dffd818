package slotdb

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
)

var errRecordTooLarge = errors.New("no separator found")

// load reads the file from offset 0, rebuilding the record table. Slot
// boundaries are found by scanning for the separator. Unreadable chunks are
// logged, counted and skipped; only I/O errors abort the load.
func (s *Store[T]) load() error {
	sepLen := int64(len(s.sep))
	initial := s.pageSize + sepLen
	buf := make([]byte, initial)
	var pos int64

	for {
		n, err := s.file.ReadAt(buf, pos)
		if err != nil && err != io.EOF {
			return storeErr(s.path, "read", "", err)
		}
		if n == 0 {
			break
		}
		data := buf[:n]

		partLen := int64(bytes.Index(data, s.sep))
		slotLen := partLen + sepLen
		if partLen == 0 {
			s.dead.AddRange(uint64(pos), uint64(pos+sepLen))
			pos += sepLen
			continue
		}
		if partLen < 0 {
			if n < len(buf) {
				// unterminated tail
				partLen = int64(n)
				slotLen = partLen
			} else if int64(len(buf)) >= s.maxRecordSize {
				s.skipCorrupt(dataErrf(bytes.Clone(data), pos, errRecordTooLarge, "record exceeds %d bytes", s.maxRecordSize), pos, int64(n))
				pos += int64(n)
				buf = make([]byte, initial)
				continue
			} else {
				buf = make([]byte, int64(len(buf))+s.pageSize)
				continue
			}
		}

		chunk := data[:partLen]
		rec, err := decodeRecord[T](s.codec, bytes.TrimRight(chunk, " "), pos)
		if err == nil && rec.K == "" {
			err = dataErrf(chunk, pos, nil, "record has no key")
		}
		if err != nil {
			if de, ok := err.(*DataError); ok {
				de.Data = bytes.Clone(de.Data)
			}
			s.skipCorrupt(err, pos, slotLen)
		} else {
			s.loadRecord(rec, pos, slotLen)
		}
		pos += slotLen

		if int64(len(buf)) != initial {
			buf = make([]byte, initial)
		}
	}

	s.endPos = pos
	return nil
}

func (s *Store[T]) loadRecord(rec record[T], pos, slotLen int64) {
	if old := s.table.entries[rec.K]; old != nil {
		s.dead.AddRange(uint64(old.pos), uint64(old.pos+old.len))
	}
	e := &entry[T]{pos: pos, len: slotLen}
	if rec.V == nil {
		var zero T
		s.table.restore(rec.K, e, zero, false)
	} else {
		s.table.restore(rec.K, e, s.onLoad(*rec.V), true)
	}
	s.loaded++
}

func (s *Store[T]) skipCorrupt(err error, pos, n int64) {
	s.corrupt++
	s.dead.AddRange(uint64(pos), uint64(pos+n))
	s.logger.LogAttrs(context.Background(), slog.LevelWarn, "slotdb: skipping unreadable record", slog.String("path", s.path), slog.Int64("off", pos), slog.Int64("len", n), slog.Any("err", err))
}
