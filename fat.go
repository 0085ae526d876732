package fatfs

import (
	"encoding/binary"

	"github.com/aligator/fatfs/checkpoint"
	"github.com/sirupsen/logrus"
)

// fatEntry is the value of a FAT32 table entry. Only the low 28 bits are meaningful.
type fatEntry uint32

const (
	fatMask         fatEntry = 0x0FFFFFFF
	fatReservedBits uint32   = 0xF0000000

	fatFree   fatEntry = 0x00000000
	fatBad    fatEntry = 0x0FFFFFF7
	fatEOCMin fatEntry = 0x0FFFFFF8
	fatEOCMax fatEntry = 0x0FFFFFFF
)

func (e fatEntry) Value() uint32 {
	return uint32(e & fatMask)
}

func (e fatEntry) IsFree() bool {
	return e&fatMask == fatFree
}

func (e fatEntry) IsBad() bool {
	return e&fatMask == fatBad
}

// IsNextCluster reports if the entry points to a following cluster.
// It does not know the volume size, so the pointer may still be out of range.
func (e fatEntry) IsNextCluster() bool {
	v := e & fatMask
	return v >= fatEntry(firstDataCluster) && v < fatBad
}

func (e fatEntry) IsEndOfChain() bool {
	v := e & fatMask
	return v >= fatEOCMin && v <= fatEOCMax
}

func (m *Mount) validCluster(c Cluster) bool {
	return c >= firstDataCluster && c < m.total
}

// readFATEntry returns the masked entry of c from the first FAT.
func (m *Mount) readFATEntry(c Cluster) (fatEntry, error) {
	if !m.validCluster(c) {
		return 0, checkpoint.Wrapf(ErrInvalidCluster, ErrInvalidCluster, "cluster %d", c)
	}
	lba, offset := m.geo.FATEntrySector(c)
	buf, err := m.fetch(lba)
	if err != nil {
		return 0, err
	}
	return fatEntry(binary.LittleEndian.Uint32(buf[offset:])) & fatMask, nil
}

// writeFATEntry sets the entry of c in the first FAT, keeping its reserved high 4 bits.
func (m *Mount) writeFATEntry(c Cluster, value fatEntry) error {
	if !m.validCluster(c) {
		return checkpoint.Wrapf(ErrInvalidCluster, ErrInvalidCluster, "cluster %d", c)
	}
	lba, offset := m.geo.FATEntrySector(c)
	buf, err := m.fetch(lba)
	if err != nil {
		return err
	}
	old := binary.LittleEndian.Uint32(buf[offset:])
	binary.LittleEndian.PutUint32(buf[offset:], old&fatReservedBits|uint32(value&fatMask))
	return m.store(lba)
}

// findFreeCluster returns the first free cluster, scanning the whole FAT from cluster 2.
func (m *Mount) findFreeCluster() (Cluster, error) {
	for c := firstDataCluster; c < m.total; c++ {
		e, err := m.readFATEntry(c)
		if err != nil {
			return 0, err
		}
		if e.IsFree() {
			return c, nil
		}
	}
	return 0, checkpoint.From(ErrNoSpace)
}

// allocateCluster claims a free cluster by marking it as end of chain.
// Nothing links to it yet, so a crash right after leaves it orphaned.
func (m *Mount) allocateCluster() (Cluster, error) {
	c, err := m.findFreeCluster()
	if err != nil {
		return 0, err
	}
	if err := m.writeFATEntry(c, fatEOCMax); err != nil {
		return 0, err
	}
	m.log.WithField("cluster", c).Debug("allocated cluster")
	return c, nil
}

// nextCluster returns the cluster following c. ok is false if c ends the chain.
func (m *Mount) nextCluster(c Cluster) (next Cluster, ok bool, err error) {
	e, err := m.readFATEntry(c)
	if err != nil {
		return 0, false, err
	}
	if e.IsEndOfChain() {
		return 0, false, nil
	}
	next = Cluster(e.Value())
	if !e.IsNextCluster() || !m.validCluster(next) {
		return 0, false, checkpoint.Wrapf(ErrBrokenChain, ErrBrokenChain, "cluster %d has entry %#x", c, e.Value())
	}
	return next, true, nil
}

// walkChain calls fn for every cluster of the chain starting at start.
// It stops early if fn returns false and fails on chains longer than the volume,
// which means the chain has a cycle.
func (m *Mount) walkChain(start Cluster, fn func(c Cluster) (bool, error)) error {
	c := start
	for steps := Cluster(0); ; steps++ {
		if steps >= m.total {
			return checkpoint.Wrapf(ErrBrokenChain, ErrBrokenChain, "cycle in chain starting at %d", start)
		}
		more, err := fn(c)
		if err != nil || !more {
			return err
		}
		next, ok, err := m.nextCluster(c)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		c = next
	}
}

// chain returns all clusters of the chain starting at start.
func (m *Mount) chain(start Cluster) ([]Cluster, error) {
	var clusters []Cluster
	err := m.walkChain(start, func(c Cluster) (bool, error) {
		clusters = append(clusters, c)
		return true, nil
	})
	return clusters, err
}

// lastCluster follows the chain to its end of chain cluster.
func (m *Mount) lastCluster(start Cluster) (Cluster, error) {
	last := start
	err := m.walkChain(start, func(c Cluster) (bool, error) {
		last = c
		return true, nil
	})
	return last, err
}

// linkCluster appends newCluster, which has to be marked end of chain already,
// to the chain containing parent.
func (m *Mount) linkCluster(parent, newCluster Cluster) error {
	last, err := m.lastCluster(parent)
	if err != nil {
		return err
	}
	if err := m.writeFATEntry(last, fatEntry(newCluster)); err != nil {
		return err
	}
	m.log.WithFields(logrus.Fields{"cluster": newCluster, "after": last}).Debug("linked cluster")
	return nil
}

// freeChain marks every cluster of the chain starting at start as free.
// The next pointer is read before the current entry gets cleared.
func (m *Mount) freeChain(start Cluster) error {
	c := start
	for steps := Cluster(0); ; steps++ {
		if steps >= m.total {
			return checkpoint.Wrapf(ErrBrokenChain, ErrBrokenChain, "cycle in chain starting at %d", start)
		}
		e, err := m.readFATEntry(c)
		if err != nil {
			return err
		}
		if err := m.writeFATEntry(c, fatFree); err != nil {
			return err
		}
		if e.IsEndOfChain() {
			break
		}
		next := Cluster(e.Value())
		if !e.IsNextCluster() || !m.validCluster(next) {
			return checkpoint.Wrapf(ErrBrokenChain, ErrBrokenChain, "cluster %d has entry %#x", c, e.Value())
		}
		c = next
	}
	m.log.WithField("cluster", start).Debug("freed chain")
	return nil
}
