package fatfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aligator/fatfs/checkpoint"
	"github.com/spf13/afero"
)

// Fs exposes a mounted FAT32 volume as afero.Fs.
// All names are taken as absolute paths, so it never depends on or moves the
// current directory of the Mount. Files are read-only, O_CREATE only creates empty files.
type Fs struct {
	m *Mount
}

// ensure Fs implements afero.Fs
var _ afero.Fs = (*Fs)(nil)

// NewAferoFs wraps m.
func NewAferoFs(m *Mount) *Fs {
	return &Fs{m: m}
}

// abs cleans name and roots it.
func abs(name string) string {
	return path.Clean("/" + name)
}

// pathError wraps err the way the os package does, keeping the
// fatfs sentinel and adding the matching io/fs one.
func pathError(op, name string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		err = fmt.Errorf("%w: %w", fs.ErrNotExist, err)
	case errors.Is(err, ErrExists):
		err = fmt.Errorf("%w: %w", fs.ErrExist, err)
	case errors.Is(err, ErrReadOnly), errors.Is(err, ErrUnsupported):
		err = fmt.Errorf("%w: %w", fs.ErrPermission, err)
	}
	return &os.PathError{Op: op, Path: name, Err: err}
}

func (a *Fs) Create(name string) (afero.File, error) {
	return a.OpenFile(name, os.O_CREATE|os.O_RDONLY, 0666)
}

func (a *Fs) Mkdir(name string, perm os.FileMode) error {
	if err := a.m.CreateDirectory(abs(name)); err != nil {
		return pathError("mkdir", name, err)
	}
	return nil
}

// MkdirAll creates every missing directory of p. Existing directories are fine.
func (a *Fs) MkdirAll(p string, perm os.FileMode) error {
	current := ""
	for _, segment := range strings.Split(abs(p), "/") {
		if segment == "" {
			continue
		}
		current += "/" + segment

		e, err := a.m.FindFile(current)
		if err == nil {
			if !e.IsDir() {
				return pathError("mkdir", current, checkpoint.Wrapf(ErrNotDirectory, ErrNotDirectory, "%q", current))
			}
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return pathError("mkdir", current, err)
		}
		if err := a.m.CreateDirectory(current); err != nil {
			return pathError("mkdir", current, err)
		}
	}
	return nil
}

func (a *Fs) Open(name string) (afero.File, error) {
	return a.OpenFile(name, os.O_RDONLY, 0)
}

// OpenFile opens name for reading. With O_CREATE a missing file is created
// empty first, O_EXCL makes an existing one an error.
// Any other write access is rejected.
func (a *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	p := abs(name)

	if flag&os.O_CREATE != 0 {
		_, err := a.m.FindFile(p)
		switch {
		case err == nil:
			if flag&os.O_EXCL != 0 {
				return nil, pathError("open", name, checkpoint.Wrapf(ErrExists, ErrExists, "%q", p))
			}
		case errors.Is(err, ErrNotFound):
			if err := a.m.CreateFile(p); err != nil {
				return nil, pathError("open", name, err)
			}
		default:
			return nil, pathError("open", name, err)
		}
		flag &^= os.O_CREATE | os.O_EXCL
	}

	f, err := a.m.OpenFile(p, flag)
	if err != nil {
		return nil, pathError("open", name, err)
	}
	return f, nil
}

func (a *Fs) Remove(name string) error {
	p := abs(name)
	e, err := a.m.FindFile(p)
	if err != nil {
		return pathError("remove", name, err)
	}

	if e.IsDir() {
		err = a.m.DeleteDirectory(p)
	} else {
		err = a.m.DeleteFile(p)
	}
	if err != nil {
		return pathError("remove", name, err)
	}
	return nil
}

// RemoveAll removes p and everything below it. A missing p is no error.
// For the root only its content is removed.
func (a *Fs) RemoveAll(p string) error {
	p = abs(p)
	if p != "/" {
		e, err := a.m.FindFile(p)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return pathError("removeall", p, err)
		}
		if !e.IsDir() {
			if err := a.m.DeleteFile(p); err != nil {
				return pathError("removeall", p, err)
			}
			return nil
		}
	}

	entries, err := a.m.ReadDirectory(p)
	if err != nil {
		return pathError("removeall", p, err)
	}
	for _, e := range entries {
		if e.isDotEntry() {
			continue
		}
		if err := a.RemoveAll(path.Join(p, e.Name())); err != nil {
			return err
		}
	}

	if p == "/" {
		return nil
	}
	if err := a.m.DeleteDirectory(p); err != nil {
		return pathError("removeall", p, err)
	}
	return nil
}

func (a *Fs) Rename(oldname, newname string) error {
	return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: checkpoint.From(ErrUnsupported)}
}

func (a *Fs) Stat(name string) (os.FileInfo, error) {
	p := abs(name)
	if p == "/" {
		return dirFileInfo{name: p}, nil
	}

	e, err := a.m.FindFile(p)
	if err != nil {
		return nil, pathError("stat", name, err)
	}
	return e.FileInfo(), nil
}

func (a *Fs) Name() string {
	return "fatfs"
}

func (a *Fs) Chmod(name string, mode os.FileMode) error {
	return pathError("chmod", name, checkpoint.From(ErrUnsupported))
}

func (a *Fs) Chown(name string, uid, gid int) error {
	return pathError("chown", name, checkpoint.From(ErrUnsupported))
}

func (a *Fs) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return pathError("chtimes", name, checkpoint.From(ErrUnsupported))
}
