package fatfs

import (
	"errors"

	"github.com/aligator/fatfs/checkpoint"
)

// CreateFile creates an empty file. A relative path starts at the current directory.
// The file gets a cluster of its own right away.
func (m *Mount) CreateFile(path string) error {
	return m.create(path, AttrArchive)
}

// CreateDirectory creates an empty directory containing only . and ..
func (m *Mount) CreateDirectory(path string) error {
	return m.create(path, AttrDirectory)
}

func (m *Mount) create(path string, attr byte) error {
	dir, name := splitPath(path)
	if !validShortName(name) {
		return checkpoint.Wrapf(ErrInvalidName, ErrInvalidName, "%q", name)
	}

	parent, err := m.resolvePath(dir, m.cwd)
	if err != nil {
		return err
	}

	_, err = m.findEntry(parent, name)
	if err == nil {
		return checkpoint.Wrapf(ErrExists, ErrExists, "%q", path)
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	var c Cluster
	op := m.newOperation("create", path).
		then("find free cluster", func() (err error) {
			c, err = m.findFreeCluster()
			return err
		}).
		then("mark end of chain", func() error {
			return m.writeFATEntry(c, fatEOCMax)
		})

	if attr&AttrDirectory == AttrDirectory {
		op.then("write dot entries", func() error {
			return m.writeDotEntries(c, parent)
		})
	}

	return op.then("add entry", func() error {
		return m.addEntry(parent, name, c, attr)
	}).run()
}

// writeDotEntries initializes the first cluster c of a new directory inside parent.
func (m *Mount) writeDotEntries(c, parent Cluster) error {
	// .. of a directory in the root stores 0.
	if parent == m.geo.RootCluster {
		parent = 0
	}

	stamp := m.clock()
	zero(m.cluster)
	encodeEntry(newEntry(".", c, AttrDirectory, stamp), m.cluster[0:EntrySize])
	encodeEntry(newEntry("..", parent, AttrDirectory, stamp), m.cluster[EntrySize:2*EntrySize])
	return m.writeCluster(c, m.cluster)
}

// addEntry writes a new entry for name into the first free slot of the directory at parent.
// If all clusters are full the directory is extended by one cluster.
func (m *Mount) addEntry(parent Cluster, name string, c Cluster, attr byte) error {
	entry := newEntry(name, c, attr, m.clock())

	written := false
	last := parent
	err := m.walkChain(parent, func(dc Cluster) (bool, error) {
		last = dc
		if err := m.readCluster(dc, m.cluster); err != nil {
			return false, err
		}
		for i := uint32(0); i < m.geo.EntriesPerCluster(); i++ {
			raw := m.cluster[i*EntrySize : (i+1)*EntrySize]
			if raw[0] != entryEnd && raw[0] != entryDeleted {
				continue
			}

			encodeEntry(entry, raw)
			s := i * EntrySize / SectorSize
			lba := m.geo.ClusterToSector(dc) + s
			if err := m.writeSector(lba, m.cluster[s*SectorSize:(s+1)*SectorSize]); err != nil {
				return false, err
			}
			written = true
			return false, nil
		}
		return true, nil
	})
	if err != nil || written {
		return err
	}

	// No free slot left, grow the directory.
	grown, err := m.allocateCluster()
	if err != nil {
		return err
	}
	if err := m.linkCluster(last, grown); err != nil {
		return err
	}
	zero(m.cluster)
	encodeEntry(entry, m.cluster[0:EntrySize])
	if err := m.writeCluster(grown, m.cluster); err != nil {
		return err
	}
	m.log.WithField("cluster", grown).Debugf("extended directory %d", parent)
	return nil
}

// DeleteFile frees the clusters of the file at path and removes its entry.
func (m *Mount) DeleteFile(path string) error {
	e, err := m.FindFile(path)
	if err != nil {
		return err
	}
	if e.IsDir() {
		return checkpoint.Wrapf(ErrIsDirectory, ErrIsDirectory, "%q", path)
	}
	return m.delete(path, e)
}

// DeleteDirectory removes the empty directory at path.
func (m *Mount) DeleteDirectory(path string) error {
	if _, name := splitPath(path); name == "." || name == ".." {
		return checkpoint.Wrapf(ErrInvalidName, ErrInvalidName, "cannot delete %q", path)
	}

	e, err := m.FindFile(path)
	if err != nil {
		return err
	}
	if !e.IsDir() {
		return checkpoint.Wrapf(ErrNotDirectory, ErrNotDirectory, "%q", path)
	}
	if e.FirstCluster() == 0 {
		return checkpoint.Wrapf(ErrBrokenChain, ErrBrokenChain, "directory %q has no cluster", path)
	}
	if m.dirCluster(e.FirstCluster()) == m.cwd {
		return checkpoint.Wrapf(ErrBusy, ErrBusy, "%q is the current directory", path)
	}

	empty, err := m.isDirectoryEmpty(e)
	if err != nil {
		return err
	}
	if !empty {
		return checkpoint.Wrapf(ErrNotEmpty, ErrNotEmpty, "%q", path)
	}
	return m.delete(path, e)
}

func (m *Mount) delete(path string, e DirEntry) error {
	op := m.newOperation("delete", path)
	// Entries created by other tools for empty files have no cluster.
	if e.FirstCluster() != 0 {
		op.then("free chain", func() error {
			return m.freeChain(e.FirstCluster())
		})
	}
	return op.then("remove entry", func() error {
		return m.removeEntry(e)
	}).run()
}

// removeEntry clears the record of e in place and marks it deleted.
// Deleted records are reused by addEntry but never compacted.
func (m *Mount) removeEntry(e DirEntry) error {
	offset := e.index * EntrySize
	lba := m.geo.ClusterToSector(e.dirCluster) + offset/SectorSize
	buf, err := m.fetch(lba)
	if err != nil {
		return err
	}
	record := buf[offset%SectorSize : offset%SectorSize+EntrySize]
	zero(record)
	record[0] = entryDeleted
	return m.store(lba)
}

func zero(p []byte) {
	for i := range p {
		p[i] = 0
	}
}
