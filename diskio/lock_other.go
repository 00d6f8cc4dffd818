//go:build !unix

package diskio

import "os"

// Lock is a no-op on platforms without flock.
func Lock(f *os.File) error {
	return nil
}

func Unlock(f *os.File) error {
	return nil
}
