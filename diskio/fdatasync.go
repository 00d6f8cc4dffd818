// Package diskio holds the file-level primitives of a slotdb store: durable
// syncing, exclusive locking and compressed backups.
package diskio

import "os"

// Fdatasync triggers the fastest fsync-like operation that ensures durability
// of the data written to the given file.
//
// Fdatasync might be faster than f.Sync() aka fsync thanks to not syncing
// metadata (last modification/access time) that isn't necessary to ensure
// durability of the data.
//
// WARNING: ERRORS RETURNED BY THIS FUNCTION ARE NOT RECOVERABLE. Many operating
// systems and file systems mark modified pages as clean in case of fsync
// failures, so the only sensible handling of an error is to stop writing and
// require manual inspection of the file.
func Fdatasync(f *os.File) error {
	return fdatasync(f)
}
