package fatfs

import (
	"fmt"
	"io"
	"os"

	"github.com/aligator/fatfs/checkpoint"
	"github.com/spf13/afero"
)

// FileDisk is a SectorDevice backed by an image file.
// Any afero file works, so images can live on the OS filesystem or in memory.
type FileDisk struct {
	file afero.File
}

// NewFileDisk uses the given file as disk. Close closes the file.
func NewFileDisk(file afero.File) *FileDisk {
	return &FileDisk{file: file}
}

// OpenFileDisk opens an existing image read-write.
func OpenFileDisk(fs afero.Fs, name string) (*FileDisk, error) {
	f, err := fs.OpenFile(name, os.O_RDWR, 0)
	if err != nil {
		return nil, checkpoint.From(err)
	}
	return NewFileDisk(f), nil
}

// CreateFileDisk creates (or truncates) an image of the given number of sectors.
func CreateFileDisk(fs afero.Fs, name string, sectors uint32) (*FileDisk, error) {
	f, err := fs.OpenFile(name, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		return nil, checkpoint.From(err)
	}
	if err := f.Truncate(int64(sectors) * SectorSize); err != nil {
		f.Close()
		return nil, checkpoint.From(err)
	}
	return NewFileDisk(f), nil
}

// Sectors returns the number of whole sectors in the image.
func (d *FileDisk) Sectors() (uint32, error) {
	info, err := d.file.Stat()
	if err != nil {
		return 0, checkpoint.From(err)
	}
	return uint32(info.Size() / SectorSize), nil
}

func (d *FileDisk) ReadSector(lba uint32, p []byte) error {
	if len(p) != SectorSize {
		return fmt.Errorf("read of %d bytes, want %d", len(p), SectorSize)
	}
	n, err := d.file.ReadAt(p, int64(lba)*SectorSize)
	if n == len(p) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("read sector %d: %w", lba, err)
}

func (d *FileDisk) WriteSector(lba uint32, p []byte) error {
	if len(p) != SectorSize {
		return fmt.Errorf("write of %d bytes, want %d", len(p), SectorSize)
	}
	// Writing past the end would silently grow the image.
	sectors, err := d.Sectors()
	if err != nil {
		return err
	}
	if lba >= sectors {
		return fmt.Errorf("write sector %d: image has %d sectors", lba, sectors)
	}
	n, err := d.file.WriteAt(p, int64(lba)*SectorSize)
	if err != nil {
		return fmt.Errorf("write sector %d: %w", lba, err)
	}
	if n != len(p) {
		return fmt.Errorf("write sector %d: %w", lba, io.ErrShortWrite)
	}
	return nil
}

// Sync flushes the image file.
func (d *FileDisk) Sync() error {
	return checkpoint.From(d.file.Sync())
}

// Close closes the image file.
func (d *FileDisk) Close() error {
	return checkpoint.From(d.file.Close())
}
