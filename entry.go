package fatfs

import (
	"bytes"
	"encoding/binary"
	"time"
)

// DirEntry is a decoded directory entry together with the place it was read from.
// It is a copy, changing it does not change the volume.
type DirEntry struct {
	EntryHeader

	// dirCluster and index locate the record inside its directory.
	dirCluster Cluster
	index      uint32
}

func (e DirEntry) Name() string {
	return formatFilename(e.EntryHeader.Name)
}

func (e DirEntry) IsDir() bool {
	return e.Attribute&AttrDirectory == AttrDirectory
}

func (e DirEntry) FirstCluster() Cluster {
	return Cluster(uint32(e.FirstClusterHI)<<16 | uint32(e.FirstClusterLO))
}

func (e DirEntry) Size() int64 {
	return int64(e.FileSize)
}

// isDotEntry reports the . and .. entries of a subdirectory.
func (e DirEntry) isDotEntry() bool {
	return e.EntryHeader.Name == to83(".") || e.EntryHeader.Name == to83("..")
}

func (h *EntryHeader) isLongName() bool {
	return h.Attribute&AttrLongName == AttrLongName
}

func (h *EntryHeader) isVolumeID() bool {
	return h.Attribute&AttrVolumeID == AttrVolumeID && !h.isLongName()
}

func (h *EntryHeader) setCluster(c Cluster) {
	h.FirstClusterHI = uint16(uint32(c) >> 16)
	h.FirstClusterLO = uint16(uint32(c) & 0xFFFF)
}

// newEntry builds a zeroed record with the given name, first cluster and attributes.
func newEntry(name string, c Cluster, attr byte, stamp time.Time) EntryHeader {
	h := EntryHeader{
		Name:      to83(name),
		Attribute: attr,
	}
	h.setCluster(c)

	date, clock := EncodeDate(stamp), EncodeTime(stamp)
	h.CreateDate, h.CreateTime = date, clock
	h.WriteDate, h.WriteTime = date, clock
	h.LastAccessDate = date
	return h
}

func decodeEntry(p []byte) EntryHeader {
	var h EntryHeader
	// The reader holds exactly one record, so this cannot fail.
	_ = binary.Read(bytes.NewReader(p[:EntrySize]), binary.LittleEndian, &h)
	return h
}

func encodeEntry(h EntryHeader, p []byte) {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, &h)
	copy(p[:EntrySize], buf.Bytes())
}
