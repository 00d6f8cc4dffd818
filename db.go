package slotdb

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/andreyvit/slotdb/diskio"
)

const (
	DefaultPageSize            = 1024
	DefaultMaxRecordSize       = 16 * 1024 * 1024
	DefaultMaxConcurrentWrites = 16

	autoVacuumMinPages = 64
)

// Store is a single-file key/value store. All reads are served from memory;
// writes update memory synchronously and reach the file asynchronously.
type Store[T any] struct {
	path          string
	file          *os.File
	codec         Codec
	sep           []byte
	pageSize      int64
	maxRecordSize int64
	onLoad        func(T) T
	fields        func(T, string) (any, bool)
	logger        *slog.Logger
	verbose       bool
	backupComp    diskio.Compression
	autoVacuum    float64

	sem     *semaphore.Weighted
	limiter *rate.Limiter

	mu      sync.RWMutex
	table   *recordTable[T]
	index   *indexSet
	endPos  int64
	dead    *roaring64.Bitmap
	closing bool
	closed  bool

	inflight      map[*writeTask]struct{}
	lastAt        map[int64]*writeTask
	writeErr      error
	vacuumPending bool
	vacuumWaiters []func(error)
	drainWaiters  []func(error)
	drainErr      error

	writes        uint64
	skippedWrites uint64
	vacuums       int
	loaded        int
	corrupt       int
}

type Options[T any] struct {
	// PageSize is the slot size granularity. Slots are a multiple of it plus
	// the separator.
	PageSize int

	// Codec encodes records. Defaults to Default (JSON).
	Codec Codec

	// OnLoad is applied to every value read from the file, and to values
	// passed to SetInit. It must be a pure transformation: its result is
	// cached in memory and persisted as is.
	OnLoad func(T) T

	// Fields extracts a named field for indexing. Defaults to FieldAccessor
	// or map[string]any lookup.
	Fields func(value T, field string) (any, bool)

	Logger  *slog.Logger
	Verbose bool

	// MaxRecordSize bounds how far the loader scans for a separator before
	// giving up on a record.
	MaxRecordSize int

	MaxConcurrentWrites int

	// WriteBytesPerSec throttles slot writes; 0 means unlimited.
	WriteBytesPerSec int

	BackupCompression diskio.Compression

	// KeepLayoutOnOpen skips the compaction normally done right after
	// loading, leaving existing slots where they are.
	KeepLayoutOnOpen bool

	// AutoVacuumRatio requests a vacuum once dead bytes exceed this fraction
	// of the file. 0 disables.
	AutoVacuumRatio float64
}

// Open loads the store at path, creating an empty one if the file does not
// exist. An existing file is copied to BackupPath first.
func Open[T any](path string, opt Options[T]) (*Store[T], error) {
	if opt.PageSize <= 0 {
		opt.PageSize = DefaultPageSize
	}
	if opt.Codec == nil {
		opt.Codec = Default
	}
	if opt.OnLoad == nil {
		opt.OnLoad = func(v T) T { return v }
	}
	if opt.Fields == nil {
		opt.Fields = defaultFields[T]
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.MaxRecordSize <= 0 {
		opt.MaxRecordSize = DefaultMaxRecordSize
	}
	if opt.MaxConcurrentWrites <= 0 {
		opt.MaxConcurrentWrites = DefaultMaxConcurrentWrites
	}
	if opt.AutoVacuumRatio < 0 {
		panic(fmt.Errorf("slotdb: invalid AutoVacuumRatio %v", opt.AutoVacuumRatio))
	}
	sep := opt.Codec.Separator()
	if len(sep) == 0 {
		panic(fmt.Errorf("slotdb: codec %s has an empty separator", opt.Codec.Name()))
	}

	s := &Store[T]{
		path:          path,
		codec:         opt.Codec,
		sep:           sep,
		pageSize:      int64(opt.PageSize),
		maxRecordSize: int64(opt.MaxRecordSize),
		onLoad:        opt.OnLoad,
		fields:        opt.Fields,
		logger:        opt.Logger,
		verbose:       opt.Verbose,
		backupComp:    opt.BackupCompression,
		autoVacuum:    opt.AutoVacuumRatio,
		sem:           semaphore.NewWeighted(int64(opt.MaxConcurrentWrites)),
		table:         newRecordTable[T](),
		index:         newIndexSet(),
		dead:          roaring64.New(),
		inflight:      make(map[*writeTask]struct{}),
		lastAt:        make(map[int64]*writeTask),
	}
	if opt.WriteBytesPerSec > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opt.WriteBytesPerSec), max(opt.WriteBytesPerSec, opt.PageSize+len(sep)))
	}

	_, err := os.Stat(path)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, storeErr(path, "stat", "", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, storeErr(path, "open", "", err)
	}
	err = diskio.Lock(f)
	if err != nil {
		f.Close()
		if errors.Is(err, diskio.ErrLocked) {
			return nil, ErrLocked
		}
		return nil, storeErr(path, "lock", "", err)
	}
	s.file = f

	var ok bool
	defer releaseUnlessOK(f, &ok)

	ctx := context.Background()
	if exists {
		err = diskio.Backup(path, s.BackupPath(), s.backupComp)
		if err != nil {
			return nil, storeErr(path, "backup", "", err)
		}
		err = s.load()
		if err != nil {
			return nil, err
		}
		s.logger.LogAttrs(ctx, slog.LevelInfo, "slotdb: loaded", slog.String("path", path), slog.Int("records", s.table.live), slog.Int("corrupt", s.corrupt), slog.Int64("size", s.endPos))
	} else {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "slotdb: file not found, creating new store", slog.String("path", path))
	}

	if !opt.KeepLayoutOnOpen {
		s.mu.Lock()
		err = s.rewriteLocked()
		s.mu.Unlock()
		if err != nil {
			return nil, err
		}
	}

	ok = true
	return s, nil
}

func releaseUnlessOK(f *os.File, ok *bool) {
	if *ok {
		return
	}
	diskio.Unlock(f)
	f.Close()
}

func (s *Store[T]) Path() string {
	return s.path
}

// BackupPath is where Open and Vacuum copy the file before touching it.
func (s *Store[T]) BackupPath() string {
	return diskio.BackupPath(s.path, s.backupComp)
}

func (s *Store[T]) Codec() Codec {
	return s.codec
}

// Flush waits until no writes are in flight and no vacuum is pending. It
// returns the first write error the store has seen, if any.
func (s *Store[T]) Flush(ctx context.Context) error {
	for {
		s.mu.RLock()
		tasks := make([]*writeTask, 0, len(s.inflight))
		for t := range s.inflight {
			tasks = append(tasks, t)
		}
		writeErr := s.writeErr
		s.mu.RUnlock()

		if len(tasks) == 0 {
			return writeErr
		}
		err := awaitAll(ctx, tasks)
		if err != nil {
			return err
		}
	}
}

// Sync flushes pending writes and forces them to stable storage.
func (s *Store[T]) Sync() error {
	err := s.Flush(context.Background())
	if err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return storeErr(s.path, "sync", "", diskio.Fdatasync(s.file))
}

// Close waits for outstanding writes (and a pending vacuum), syncs and
// releases the file. Mutations after Close are ignored.
func (s *Store[T]) Close() error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closing = true
	s.mu.Unlock()

	err := s.Flush(context.Background())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if serr := diskio.Fdatasync(s.file); err == nil {
		err = storeErr(s.path, "sync", "", serr)
	}
	diskio.Unlock(s.file)
	if cerr := s.file.Close(); err == nil {
		err = storeErr(s.path, "close", "", cerr)
	}
	return err
}

func (s *Store[T]) rejectLocked(op, key string) bool {
	if !s.closing {
		return false
	}
	s.logger.LogAttrs(context.Background(), slog.LevelWarn, "slotdb: ignoring mutation of closed store", slog.String("path", s.path), slog.String("op", op), slog.String("key", key))
	return true
}
