package fatfs

import "errors"

// These errors may occur while working with a mounted volume.
// They are always returned decorated by a checkpoint, so use errors.Is to check for them.
var (
	ErrIO             = errors.New("sector i/o failed")
	ErrNotFound       = errors.New("not found")
	ErrNoSpace        = errors.New("no free cluster left")
	ErrNotEmpty       = errors.New("directory not empty")
	ErrFormat         = errors.New("invalid boot sector")
	ErrBrokenChain    = errors.New("broken cluster chain")
	ErrInvalidCluster = errors.New("cluster out of range")
	ErrExists         = errors.New("already exists")
	ErrInvalidName    = errors.New("invalid 8.3 name")
	ErrNotDirectory   = errors.New("not a directory")
	ErrIsDirectory    = errors.New("is a directory")
	ErrReadOnly       = errors.New("read-only")
	ErrUnsupported    = errors.New("unsupported filesystem")
	ErrBusy           = errors.New("directory in use")
)
