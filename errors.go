package slotdb

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLocked is returned by Open when another Store already holds the file.
	ErrLocked = errors.New("slotdb: store file is locked by another instance")

	// ErrClosed is returned by operations that need an open Store.
	ErrClosed = errors.New("slotdb: store is closed")
)

// DataError describes a slot whose bytes could not be turned into a record.
type DataError struct {
	Data []byte
	Off  int64
	Err  error
	Msg  string
}

func dataErrf(data []byte, off int64, err error, format string, args ...any) error {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s at %d: %v: (%d) %x", e.Msg, e.Off, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("%s at %d: (%d) %x", e.Msg, e.Off, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("%s at %d: %v: (%d) %x...%x", e.Msg, e.Off, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("%s at %d: (%d) %x...%x", e.Msg, e.Off, n, p, s)
		}
	}
}

// StoreError is an I/O failure tied to a store file and, optionally, a key.
type StoreError struct {
	Path string
	Op   string
	Key  string
	Err  error
}

func storeErr(path, op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{path, op, key, err}
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Error() string {
	var buf strings.Builder
	buf.WriteString("slotdb: ")
	buf.WriteString(e.Path)
	if e.Key != "" {
		buf.WriteByte('/')
		buf.WriteString(e.Key)
	}
	if e.Op != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Op)
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}
