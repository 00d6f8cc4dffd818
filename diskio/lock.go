package diskio

import "errors"

// ErrLocked is returned by Lock when another open file description holds the
// lock.
var ErrLocked = errors.New("file is locked")
