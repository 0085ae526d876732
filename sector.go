package fatfs

import (
	"github.com/aligator/fatfs/checkpoint"
)

// noSector marks an empty sector window.
const noSector = 0xFFFFFFFF

// sectorWindow caches the sector used last by FAT and single entry accesses.
// FAT scans read the same sector for 128 consecutive clusters, so it pays off.
type sectorWindow struct {
	current uint32
	buffer  []byte
}

func newSectorWindow() sectorWindow {
	return sectorWindow{
		current: noSector,
		buffer:  make([]byte, SectorSize),
	}
}

// fetch loads a single sector into the window and returns the window buffer.
// The buffer is only valid until the next fetch.
func (m *Mount) fetch(lba uint32) ([]byte, error) {
	// Only load it once.
	if lba == m.window.current {
		return m.window.buffer, nil
	}

	m.window.current = noSector
	if err := m.dev.ReadSector(lba, m.window.buffer); err != nil {
		return nil, checkpoint.Wrapf(err, ErrIO, "read sector %d", lba)
	}
	m.window.current = lba
	return m.window.buffer, nil
}

// store writes the window buffer after it was modified in place for lba.
func (m *Mount) store(lba uint32) error {
	if err := m.dev.WriteSector(lba, m.window.buffer); err != nil {
		m.window.current = noSector
		return checkpoint.Wrapf(err, ErrIO, "write sector %d", lba)
	}
	m.window.current = lba
	return nil
}

// readCluster reads all sectors of c into p which has to be one cluster long.
func (m *Mount) readCluster(c Cluster, p []byte) error {
	if !m.validCluster(c) {
		return checkpoint.Wrapf(ErrInvalidCluster, ErrInvalidCluster, "read cluster %d", c)
	}
	first := m.geo.ClusterToSector(c)
	for i := uint32(0); i < m.geo.SectorsPerCluster; i++ {
		if err := m.dev.ReadSector(first+i, p[i*SectorSize:(i+1)*SectorSize]); err != nil {
			return checkpoint.Wrapf(err, ErrIO, "read cluster %d", c)
		}
	}
	return nil
}

// writeSector writes p, bypassing the window.
func (m *Mount) writeSector(lba uint32, p []byte) error {
	if lba == m.window.current {
		m.window.current = noSector
	}
	if err := m.dev.WriteSector(lba, p); err != nil {
		return checkpoint.Wrapf(err, ErrIO, "write sector %d", lba)
	}
	return nil
}

// writeCluster writes p, one cluster long, to all sectors of c.
func (m *Mount) writeCluster(c Cluster, p []byte) error {
	if !m.validCluster(c) {
		return checkpoint.Wrapf(ErrInvalidCluster, ErrInvalidCluster, "write cluster %d", c)
	}
	first := m.geo.ClusterToSector(c)
	for i := uint32(0); i < m.geo.SectorsPerCluster; i++ {
		if err := m.writeSector(first+i, p[i*SectorSize:(i+1)*SectorSize]); err != nil {
			return checkpoint.Wrapf(err, ErrIO, "write cluster %d", c)
		}
	}
	return nil
}
