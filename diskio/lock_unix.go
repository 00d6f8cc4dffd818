//go:build unix

package diskio

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// Lock places a non-blocking exclusive advisory lock on f. The lock is held
// until Unlock or until f is closed.
func Lock(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if errors.Is(err, unix.EWOULDBLOCK) {
		return ErrLocked
	}
	return err
}

func Unlock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
