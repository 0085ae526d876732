package fatfs

import (
	"io/fs"
	"os"
)

type GoDirEntry struct {
	fs.FileInfo
}

func (g GoDirEntry) Type() fs.FileMode {
	return g.FileInfo.Mode().Type()
}

func (g GoDirEntry) Info() (fs.FileInfo, error) {
	return g.FileInfo, nil
}

type GoFile struct {
	*File
}

func (g GoFile) ReadDir(n int) ([]fs.DirEntry, error) {
	entries, err := g.File.Readdir(n)

	goEntries := make([]fs.DirEntry, len(entries))
	for i, e := range entries {
		goEntries[i] = GoDirEntry{e}
	}

	return goEntries, err
}

// GoFs makes any Filesystem variant usable as fs.FS, FAT12 volumes included.
type GoFs struct {
	fs Filesystem
}

// ensure GoFs implements fs.FS
var _ fs.FS = GoFs{}

// NewGoFS wraps filesystem as fs.FS. Names are resolved from the root.
func NewGoFS(filesystem Filesystem) GoFs {
	return GoFs{fs: filesystem}
}

func (g GoFs) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	file, err := g.fs.OpenFile("/"+name, os.O_RDONLY)
	if err != nil {
		return nil, pathError("open", name, err)
	}
	return GoFile{file}, nil
}
