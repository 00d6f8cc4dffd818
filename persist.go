package slotdb

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// writeTask is one asynchronous slot write. Tasks targeting the same slot
// position are chained through prev and reach the file in issue order.
type writeTask struct {
	key  string
	pos  int64
	buf  []byte
	prev *writeTask
	done chan struct{}
	err  error
}

func (s *Store[T]) issueWriteLocked(key string, pos int64, buf []byte) {
	t := &writeTask{
		key:  key,
		pos:  pos,
		buf:  buf,
		prev: s.lastAt[pos],
		done: make(chan struct{}),
	}
	s.lastAt[pos] = t
	s.inflight[t] = struct{}{}
	s.writes++
	go s.runWrite(t)
}

func (s *Store[T]) runWrite(t *writeTask) {
	if t.prev != nil {
		<-t.prev.done
	}
	ctx := context.Background()
	err := s.sem.Acquire(ctx, 1)
	if err == nil {
		err = s.throttle(ctx, len(t.buf))
		if err == nil {
			_, err = s.file.WriteAt(t.buf, t.pos)
		}
		s.sem.Release(1)
	}
	s.completeWrite(t, err)
}

func (s *Store[T]) throttle(ctx context.Context, n int) error {
	if s.limiter == nil {
		return nil
	}
	burst := s.limiter.Burst()
	for n > 0 {
		c := min(n, burst)
		err := s.limiter.WaitN(ctx, c)
		if err != nil {
			return err
		}
		n -= c
	}
	return nil
}

func (s *Store[T]) completeWrite(t *writeTask, err error) {
	s.mu.Lock()
	delete(s.inflight, t)
	if s.lastAt[t.pos] == t {
		delete(s.lastAt, t.pos)
	}
	t.prev = nil
	if err != nil {
		t.err = storeErr(s.path, "write", t.key, err)
		if s.writeErr == nil {
			s.writeErr = t.err
		}
		if s.drainErr == nil && len(s.drainWaiters) > 0 {
			s.drainErr = t.err
		}
		s.logger.LogAttrs(context.Background(), slog.LevelError, "slotdb: write failed", slog.String("path", s.path), slog.String("key", t.key), slog.Int64("pos", t.pos), slog.Int("len", len(t.buf)), slog.Any("err", err))
	}
	close(t.done)

	var calls []func()
	if len(s.inflight) == 0 {
		calls = s.drainedLocked()
	}
	s.mu.Unlock()

	for _, f := range calls {
		f()
	}
}

// drainedLocked runs whatever was waiting for the in-flight set to empty:
// callbacks of a finished vacuum whose writes have now drained, then a
// pending vacuum. Returned callbacks must be invoked after releasing the lock.
func (s *Store[T]) drainedLocked() []func() {
	calls := bindErr(s.drainWaiters, s.drainErr)
	s.drainWaiters, s.drainErr = nil, nil
	if !s.vacuumPending {
		return calls
	}

	s.vacuumPending = false
	waiters := s.vacuumWaiters
	s.vacuumWaiters = nil
	err := s.vacuumLocked()
	if err != nil || len(s.inflight) == 0 {
		return append(calls, bindErr(waiters, err)...)
	}
	s.drainWaiters = waiters
	return calls
}

func bindErr(fs []func(error), err error) []func() {
	calls := make([]func(), 0, len(fs))
	for _, f := range fs {
		calls = append(calls, func() { f(err) })
	}
	return calls
}

// awaitAll blocks until every task completes or ctx is done.
func awaitAll(ctx context.Context, tasks []*writeTask) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		g.Go(func() error {
			select {
			case <-t.done:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	return g.Wait()
}
