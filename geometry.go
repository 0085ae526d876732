package fatfs

// Cluster is the number of an allocation unit. 0 and 1 are reserved.
type Cluster uint32

// firstDataCluster is the lowest cluster number which maps into the data region.
const firstDataCluster Cluster = 2

// Geometry holds the fields of the BPB all sector and cluster arithmetic is derived from.
// It is built once at mount and never recomputed.
// None of its methods validate their input, callers have to check clusters against TotalClusters.
type Geometry struct {
	BytesPerSector    uint32
	SectorsPerCluster uint32
	ReservedSectors   uint32
	NumberOfFATs      uint32
	SectorsPerFAT     uint32
	TotalSectors      uint32
	RootCluster       Cluster

	// RootDirSectors is the size of the fixed FAT12/16 root directory, 0 for FAT32.
	RootDirSectors uint32
}

func (g Geometry) FirstFATSector() uint32 {
	return g.ReservedSectors
}

// RootDirSector is the first sector of the fixed root directory region of FAT12/16.
func (g Geometry) RootDirSector() uint32 {
	return g.ReservedSectors + g.NumberOfFATs*g.SectorsPerFAT
}

func (g Geometry) FirstDataSector() uint32 {
	return g.RootDirSector() + g.RootDirSectors
}

func (g Geometry) ClusterToSector(c Cluster) uint32 {
	return g.FirstDataSector() + (uint32(c)-2)*g.SectorsPerCluster
}

func (g Geometry) ClusterSize() uint32 {
	return g.BytesPerSector * g.SectorsPerCluster
}

func (g Geometry) EntriesPerCluster() uint32 {
	return g.ClusterSize() / EntrySize
}

func (g Geometry) EntriesPerSector() uint32 {
	return g.BytesPerSector / EntrySize
}

// TotalClusters is the exclusive upper bound of valid data clusters.
func (g Geometry) TotalClusters() Cluster {
	used := g.FirstDataSector()
	if g.SectorsPerCluster == 0 || g.TotalSectors < used {
		return 0
	}
	return Cluster((g.TotalSectors - used) / g.SectorsPerCluster)
}

// FATEntrySector returns the sector of the first FAT holding the 4 byte entry of c
// and the byte offset of the entry inside that sector.
func (g Geometry) FATEntrySector(c Cluster) (uint32, uint32) {
	offset := uint32(c) * 4
	return g.FirstFATSector() + offset/g.BytesPerSector, offset % g.BytesPerSector
}
