package fatfs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/aligator/fatfs/checkpoint"
	"github.com/spf13/afero"
)

// These errors may occur while processing a file.
var (
	ErrReadFile = errors.New("could not read file completely")
	ErrSeekFile = errors.New("could not seek inside of the file")
	ErrReadDir  = errors.New("could not read the directory")
)

// clusterReader provides all methods needed from a mounted volume for File.
// It mainly exists to be able to mock the volume in tests.
// Generated mock using mockgen:
//
//	mockgen -source=file.go -destination=file_mock.go -package fatfs
type clusterReader interface {
	clusterBytes() int
	readCluster(c Cluster, p []byte) error
	nextCluster(c Cluster) (Cluster, bool, error)
	readDir(c Cluster) ([]DirEntry, error)
}

// ensure File implements afero.File
var _ afero.File = (*File)(nil)

// File is a read-only handle on a file or directory.
type File struct {
	fs   clusterReader
	path string

	isDirectory bool
	isReadOnly  bool
	isHidden    bool
	isSystem    bool

	firstCluster Cluster
	stat         os.FileInfo
	offset       int64

	buffer []byte
}

func newFile(fs clusterReader, path string, e DirEntry) *File {
	return &File{
		fs:           fs,
		path:         path,
		isDirectory:  e.IsDir(),
		isReadOnly:   e.Attribute&AttrReadOnly == AttrReadOnly,
		isHidden:     e.Attribute&AttrHidden == AttrHidden,
		isSystem:     e.Attribute&AttrSystem == AttrSystem,
		firstCluster: e.FirstCluster(),
		stat:         e.FileInfo(),
	}
}

func newDirFile(fs clusterReader, path string, c Cluster) *File {
	return &File{
		fs:           fs,
		path:         path,
		isDirectory:  true,
		firstCluster: c,
		stat:         dirFileInfo{name: path},
	}
}

func (f *File) Close() error {
	*f = File{}
	return nil
}

// readAt copies up to len(p) bytes starting at off, never reading past the file size.
// It walks the chain from the first cluster and copies cluster by cluster.
func (f *File) readAt(p []byte, off int64) (int, error) {
	size := f.stat.Size()
	if off >= size {
		return 0, io.EOF
	}

	want := int64(len(p))
	if rest := size - off; want > rest {
		want = rest
	}

	clusterSize := int64(f.fs.clusterBytes())
	if len(f.buffer) != int(clusterSize) {
		f.buffer = make([]byte, clusterSize)
	}

	c := f.firstCluster
	for skip := off / clusterSize; skip > 0; skip-- {
		next, ok, err := f.fs.nextCluster(c)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, checkpoint.Wrapf(ErrBrokenChain, ErrBrokenChain, "chain shorter than the file size")
		}
		c = next
	}

	n := int64(0)
	inCluster := off % clusterSize
	for n < want {
		if err := f.fs.readCluster(c, f.buffer); err != nil {
			return int(n), err
		}
		n += int64(copy(p[n:want], f.buffer[inCluster:]))
		inCluster = 0

		if n == want {
			break
		}
		next, ok, err := f.fs.nextCluster(c)
		if err != nil {
			return int(n), err
		}
		if !ok {
			return int(n), checkpoint.Wrapf(ErrBrokenChain, ErrBrokenChain, "chain shorter than the file size")
		}
		c = next
	}

	return int(n), nil
}

// Read reads from the current offset and moves it by the number of bytes read.
// The read is clamped to the bytes left in the file.
func (f *File) Read(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	if f.isDirectory {
		return 0, checkpoint.Wrap(syscall.EISDIR, ErrReadFile)
	}

	n, err = f.readAt(p, f.offset)
	f.offset += int64(n)
	if err == io.EOF {
		return n, io.EOF
	}
	return n, checkpoint.Wrap(err, ErrReadFile)
}

func (f *File) ReadAt(p []byte, off int64) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	if f.isDirectory {
		return 0, checkpoint.Wrap(syscall.EISDIR, ErrReadFile)
	}

	n, err = f.readAt(p, off)
	if err == io.EOF {
		return n, io.EOF
	}
	if err != nil {
		return n, checkpoint.Wrap(err, ErrReadFile)
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Seek jumps to a specific offset in the file. This affects all Read operation except ReadAt.
// May return a syscall.EINVAL error if the whence value is invalid.
// May return an afero.ErrOutOfRange error if the offset is out of range.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset = f.offset + offset
	case io.SeekEnd:
		offset = f.stat.Size() + offset
	default:
		return 0, checkpoint.Wrap(ErrSeekFile, fmt.Errorf("%w, offset: %v, whence: %v", syscall.EINVAL, offset, whence))
	}

	if offset < 0 || offset > f.stat.Size() {
		return 0, checkpoint.Wrap(afero.ErrOutOfRange, fmt.Errorf("%w, offset: %v, whence: %v", ErrSeekFile, offset, whence))
	}

	f.offset = offset
	return offset, nil
}

func (f *File) Write(p []byte) (n int, err error) {
	return 0, checkpoint.From(ErrReadOnly)
}

func (f *File) WriteAt(p []byte, off int64) (n int, err error) {
	return 0, checkpoint.From(ErrReadOnly)
}

func (f *File) WriteString(s string) (ret int, err error) {
	return f.Write([]byte(s))
}

func (f *File) Truncate(size int64) error {
	return checkpoint.From(ErrReadOnly)
}

// Sync has nothing to do, every change is written through right away.
func (f *File) Sync() error {
	return nil
}

func (f *File) Name() string {
	return f.stat.Name()
}

func (f *File) Stat() (os.FileInfo, error) {
	return f.stat, nil
}

// Readdir reads the contents of a directory, the . and .. entries are left out.
// May return syscall.ENOTDIR if the current File is no directory.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	if !f.isDirectory {
		return nil, checkpoint.Wrap(syscall.ENOTDIR, ErrReadDir)
	}

	entries, err := f.fs.readDir(f.firstCluster)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrReadDir)
	}

	content := make([]os.FileInfo, 0, len(entries))
	for _, e := range entries {
		if !e.isDotEntry() {
			content = append(content, e.FileInfo())
		}
	}

	start := int(f.offset)
	if start > len(content) {
		start = len(content)
	}

	if count <= 0 {
		f.offset = int64(len(content))
		return content[start:], nil
	}

	if start == len(content) {
		return nil, io.EOF
	}

	end := start + count
	if end > len(content) {
		end = len(content)
	}
	f.offset = int64(end)
	return content[start:end], nil
}

func (f *File) Readdirnames(count int) ([]string, error) {
	content, err := f.Readdir(count)
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, checkpoint.Wrap(err, ErrReadDir)
	}

	names := make([]string, len(content))
	for i, entry := range content {
		names[i] = entry.Name()
	}

	return names, nil
}

// OpenFile opens the file or directory at path for reading. A relative path starts at the current directory.
// Any flag asking for write access is rejected with ErrReadOnly.
func (m *Mount) OpenFile(path string, flag int) (*File, error) {
	if err := checkReadOnly(flag); err != nil {
		return nil, err
	}

	if _, name := splitPath(path); name == "" || name == "." || name == ".." {
		c, err := m.resolvePath(path, m.cwd)
		if err != nil {
			return nil, err
		}
		return newDirFile(m, path, c), nil
	}

	e, err := m.FindFile(path)
	if err != nil {
		return nil, err
	}
	return newFile(m, path, e), nil
}

func checkReadOnly(flag int) error {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_APPEND|os.O_CREATE|os.O_TRUNC) != 0 {
		return checkpoint.Wrapf(ErrReadOnly, ErrReadOnly, "flag %#x", flag)
	}
	return nil
}

func (m *Mount) clusterBytes() int {
	return int(m.geo.ClusterSize())
}
