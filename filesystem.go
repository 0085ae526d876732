package fatfs

import (
	"github.com/aligator/fatfs/checkpoint"
)

// A Filesystem provides read access to a tree of directories and files.
// Each FAT variant implements it, only the FAT32 one (*Mount) is writable.
type Filesystem interface {
	Type() FSType
	Label() string

	// ReadDirectory returns the entries of the directory at path.
	ReadDirectory(path string) ([]DirEntry, error)

	// OpenFile opens the file at path for reading.
	OpenFile(path string, flag int) (*File, error)
}

// Open mounts the volume on dev and returns the Filesystem matching its FAT variant.
// Variants without support are returned as *Unsupported, together with a nil error,
// so callers can still tell the user what they found.
func Open(dev SectorDevice, opts ...Option) (Filesystem, error) {
	o := newOptions(opts)
	bs, err := readBootSector(dev, o.skipChecks)
	if err != nil {
		return nil, err
	}

	switch bs.fsType {
	case FAT32:
		return newMount(dev, bs, o)
	case FAT12:
		return newFat12(dev, bs, o)
	default:
		return &Unsupported{boot: bs}, nil
	}
}

// Unsupported is a recognized FAT volume the engine cannot read.
type Unsupported struct {
	boot *bootSector
}

// ensure Unsupported implements Filesystem
var _ Filesystem = (*Unsupported)(nil)

func (u *Unsupported) Type() FSType {
	return u.boot.fsType
}

func (u *Unsupported) Label() string {
	return u.boot.label()
}

func (u *Unsupported) ReadDirectory(path string) ([]DirEntry, error) {
	return nil, checkpoint.Wrapf(ErrUnsupported, ErrUnsupported, "%v", u.boot.fsType)
}

func (u *Unsupported) OpenFile(path string, flag int) (*File, error) {
	return nil, checkpoint.Wrapf(ErrUnsupported, ErrUnsupported, "%v", u.boot.fsType)
}
