package slotdb

import (
	"context"
	"log/slog"
	"time"

	"github.com/andreyvit/slotdb/diskio"
)

// Vacuum rewrites the file with minimal slots and without tombstones. It
// runs once no writes are in flight: immediately if there are none, else when
// the last one completes. Writes made in the meantime are included because
// the rewrite reads the live table. Calls made while a vacuum is pending
// share it. onDone, if not nil, is called after the rewritten slots have
// reached the file.
func (s *Store[T]) Vacuum(onDone func(error)) {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		if onDone != nil {
			onDone(ErrClosed)
		}
		return
	}
	s.vacuumPending = true
	if onDone != nil {
		s.vacuumWaiters = append(s.vacuumWaiters, onDone)
	}
	var calls []func()
	if len(s.inflight) == 0 {
		calls = s.drainedLocked()
	}
	s.mu.Unlock()

	for _, f := range calls {
		f()
	}
}

// VacuumWait is Vacuum that blocks until the rewrite is done or ctx expires.
func (s *Store[T]) VacuumWait(ctx context.Context) error {
	done := make(chan error, 1)
	s.Vacuum(func(err error) {
		done <- err
	})
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store[T]) vacuumLocked() error {
	start := time.Now()
	before := s.endPos

	err := diskio.Backup(s.path, s.BackupPath(), s.backupComp)
	if err != nil {
		err = storeErr(s.path, "backup", "", err)
		s.logger.LogAttrs(context.Background(), slog.LevelError, "slotdb: vacuum aborted", slog.String("path", s.path), slog.Any("err", err))
		return err
	}
	err = s.rewriteLocked()
	if err != nil {
		s.logger.LogAttrs(context.Background(), slog.LevelError, "slotdb: vacuum failed", slog.String("path", s.path), slog.Any("err", err))
		return err
	}
	s.vacuums++
	s.logger.LogAttrs(context.Background(), slog.LevelInfo, "slotdb: vacuum", slog.String("path", s.path), slog.Int64("before", before), slog.Int64("after", s.endPos), slog.Int("records", s.table.live), slog.Duration("took", time.Since(start)))
	return nil
}

// rewriteLocked truncates the file and lays out every present record again
// through the normal set path. Must only run with nothing in flight.
func (s *Store[T]) rewriteLocked() error {
	if len(s.inflight) != 0 {
		panic("slotdb: rewrite with writes in flight")
	}
	err := s.file.Truncate(0)
	if err != nil {
		return storeErr(s.path, "truncate", "", err)
	}

	old := s.table
	s.table = newRecordTable[T]()
	s.endPos = 0
	s.dead.Clear()

	for _, key := range old.orderedKeys() {
		e := old.entries[key]
		if e.state != statePresent {
			continue
		}
		s.set(key, e.value, true)
	}
	return nil
}
