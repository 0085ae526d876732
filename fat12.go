package fatfs

import (
	"strings"

	"github.com/aligator/fatfs/checkpoint"
	"github.com/sirupsen/logrus"
)

const (
	fat12Mask   = 0x0FFF
	fat12Bad    = 0x0FF7
	fat12EOCMin = 0x0FF8
)

// Fat12 is a read-only FAT12 volume, as found on floppy images.
// Its root directory is a fixed region in front of the data clusters and
// paths are always resolved from there.
type Fat12 struct {
	dev   SectorDevice
	boot  *bootSector
	geo   Geometry
	total Cluster

	// sectors holds two sectors because a 12 bit entry may span a sector boundary.
	sectors []byte
	cluster []byte

	log logrus.FieldLogger
}

// ensure Fat12 implements Filesystem
var _ Filesystem = (*Fat12)(nil)

func newFat12(dev SectorDevice, bs *bootSector, o options) (*Fat12, error) {
	// Read-only, so every data cluster is addressable, numbering starts at 2.
	total := bs.geo.TotalClusters() + firstDataCluster
	if capacity := Cluster(bs.geo.SectorsPerFAT * bs.geo.BytesPerSector * 2 / 3); total > capacity {
		total = capacity
	}

	f := &Fat12{
		dev:     dev,
		boot:    bs,
		geo:     bs.geo,
		total:   total,
		sectors: make([]byte, 2*SectorSize),
		cluster: make([]byte, bs.geo.ClusterSize()),
		log:     o.log,
	}

	f.log.WithFields(logrus.Fields{
		"label":          bs.label(),
		"rootDirSectors": bs.geo.RootDirSectors,
		"totalClusters":  total,
	}).Debug("mounted FAT12 volume")

	return f, nil
}

func (f *Fat12) Type() FSType {
	return FAT12
}

func (f *Fat12) Label() string {
	return f.boot.label()
}

func (f *Fat12) clusterBytes() int {
	return int(f.geo.ClusterSize())
}

func (f *Fat12) validCluster(c Cluster) bool {
	return c >= firstDataCluster && c < f.total
}

func (f *Fat12) readCluster(c Cluster, p []byte) error {
	if !f.validCluster(c) {
		return checkpoint.Wrapf(ErrInvalidCluster, ErrInvalidCluster, "read cluster %d", c)
	}
	first := f.geo.ClusterToSector(c)
	for i := uint32(0); i < f.geo.SectorsPerCluster; i++ {
		if err := f.dev.ReadSector(first+i, p[i*SectorSize:(i+1)*SectorSize]); err != nil {
			return checkpoint.Wrapf(err, ErrIO, "read cluster %d", c)
		}
	}
	return nil
}

// readFATEntry returns the 12 bit entry of c. Entries are packed, two in three bytes.
func (f *Fat12) readFATEntry(c Cluster) (uint16, error) {
	if !f.validCluster(c) {
		return 0, checkpoint.Wrapf(ErrInvalidCluster, ErrInvalidCluster, "cluster %d", c)
	}

	offset := uint32(c) + uint32(c)/2
	lba := f.geo.FirstFATSector() + offset/SectorSize
	in := offset % SectorSize

	if err := f.dev.ReadSector(lba, f.sectors[:SectorSize]); err != nil {
		return 0, checkpoint.Wrapf(err, ErrIO, "read FAT sector %d", lba)
	}
	if in == SectorSize-1 {
		if err := f.dev.ReadSector(lba+1, f.sectors[SectorSize:]); err != nil {
			return 0, checkpoint.Wrapf(err, ErrIO, "read FAT sector %d", lba+1)
		}
	}

	v := uint16(f.sectors[in]) | uint16(f.sectors[in+1])<<8
	if c%2 == 1 {
		return v >> 4, nil
	}
	return v & fat12Mask, nil
}

func (f *Fat12) nextCluster(c Cluster) (Cluster, bool, error) {
	v, err := f.readFATEntry(c)
	if err != nil {
		return 0, false, err
	}
	if v >= fat12EOCMin {
		return 0, false, nil
	}
	next := Cluster(v)
	if v == fat12Bad || next < firstDataCluster || next >= f.total {
		return 0, false, checkpoint.Wrapf(ErrBrokenChain, ErrBrokenChain, "cluster %d has entry %#x", c, v)
	}
	return next, true, nil
}

// scanDir works like Mount.scanDir. Cluster 0 is the fixed root directory.
func (f *Fat12) scanDir(c Cluster, match func(e DirEntry) bool) (DirEntry, bool, error) {
	if c == 0 {
		root := make([]byte, f.geo.RootDirSectors*SectorSize)
		for i := uint32(0); i < f.geo.RootDirSectors; i++ {
			lba := f.geo.RootDirSector() + i
			if err := f.dev.ReadSector(lba, root[i*SectorSize:(i+1)*SectorSize]); err != nil {
				return DirEntry{}, false, checkpoint.Wrapf(err, ErrIO, "read root directory sector %d", lba)
			}
		}
		e, state := scanEntries(root, 0, match)
		return e, state == scanDone, nil
	}

	for steps := Cluster(0); steps < f.total; steps++ {
		if err := f.readCluster(c, f.cluster); err != nil {
			return DirEntry{}, false, err
		}
		e, state := scanEntries(f.cluster, c, match)
		if state != scanning {
			return e, state == scanDone, nil
		}

		next, ok, err := f.nextCluster(c)
		if err != nil {
			return DirEntry{}, false, err
		}
		if !ok {
			return DirEntry{}, false, nil
		}
		c = next
	}
	return DirEntry{}, false, checkpoint.Wrapf(ErrBrokenChain, ErrBrokenChain, "cycle in directory chain")
}

func (f *Fat12) readDir(c Cluster) ([]DirEntry, error) {
	var entries []DirEntry
	_, _, err := f.scanDir(c, func(e DirEntry) bool {
		if !e.isVolumeID() {
			entries = append(entries, e)
		}
		return false
	})
	return entries, err
}

func (f *Fat12) findEntry(dir Cluster, name string) (DirEntry, error) {
	e, ok, err := f.scanDir(dir, func(e DirEntry) bool {
		return !e.isVolumeID() && compareNames(e.EntryHeader.Name, name)
	})
	if err != nil {
		return DirEntry{}, err
	}
	if !ok {
		return DirEntry{}, checkpoint.Wrapf(ErrNotFound, ErrNotFound, "%q", name)
	}
	return e, nil
}

// resolve returns the cluster of the directory at path, 0 being the root.
func (f *Fat12) resolve(path string) (Cluster, error) {
	c := Cluster(0)
	for _, segment := range strings.Split(path, "/") {
		switch segment {
		case "", ".":
			continue
		case "..":
			if c == 0 {
				continue
			}
		}

		e, err := f.findEntry(c, segment)
		if err != nil {
			return 0, checkpoint.Wrapf(err, err, "segment %q of %q", segment, path)
		}
		if !e.IsDir() {
			return 0, checkpoint.Wrapf(ErrNotDirectory, ErrNotDirectory, "segment %q of %q", segment, path)
		}
		c = e.FirstCluster()
	}
	return c, nil
}

// ReadDirectory returns the entries of the directory at path, relative to the root.
func (f *Fat12) ReadDirectory(path string) ([]DirEntry, error) {
	c, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	return f.readDir(c)
}

// OpenFile opens the file at path, relative to the root, for reading.
func (f *Fat12) OpenFile(path string, flag int) (*File, error) {
	if err := checkReadOnly(flag); err != nil {
		return nil, err
	}

	dir, name := splitPath(path)
	if name == "" || name == "." || name == ".." {
		c, err := f.resolve(path)
		if err != nil {
			return nil, err
		}
		return newDirFile(f, path, c), nil
	}

	parent, err := f.resolve(dir)
	if err != nil {
		return nil, err
	}
	e, err := f.findEntry(parent, name)
	if err != nil {
		return nil, err
	}
	return newFile(f, path, e), nil
}
