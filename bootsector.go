package fatfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/bits"
	"strings"

	"github.com/aligator/fatfs/checkpoint"
)

// FSType is the FAT variant of a volume.
type FSType int

const (
	FAT12 FSType = iota
	FAT16
	FAT32
)

func (t FSType) String() string {
	switch t {
	case FAT12:
		return "FAT12"
	case FAT16:
		return "FAT16"
	case FAT32:
		return "FAT32"
	}
	return fmt.Sprintf("FSType(%d)", int(t))
}

// Volumes with less clusters are FAT12, see the FAT specification.
const fat12MaxClusters = 4085

// bootSector is the decoded and validated sector 0 of a volume.
type bootSector struct {
	bpb    BPB
	fat16  FAT16SpecificData
	fat32  FAT32SpecificData
	fsType FSType
	geo    Geometry
}

func (b *bootSector) label() string {
	var label [11]byte
	if b.fsType == FAT32 {
		label = b.fat32.BSVolumeLabel
	} else {
		label = b.fat16.BSVolumeLabel
	}
	return strings.TrimRight(string(label[:]), " \x00")
}

// readBootSector reads sector 0, checks that it is a sane FAT boot sector and
// detects the FAT variant from the BPB layout and the cluster count.
func readBootSector(dev SectorDevice, skipChecks bool) (*bootSector, error) {
	buf := make([]byte, SectorSize)
	if err := dev.ReadSector(0, buf); err != nil {
		return nil, checkpoint.Wrapf(err, ErrIO, "boot sector")
	}

	bs := &bootSector{}
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &bs.bpb); err != nil {
		return nil, checkpoint.Wrap(err, ErrFormat)
	}
	bpb := &bs.bpb

	if !skipChecks {
		if binary.LittleEndian.Uint16(buf[510:]) != bootSignature {
			return nil, checkpoint.Wrapf(ErrFormat, ErrFormat, "missing boot signature")
		}
		// Check for valid jump instructions.
		if !(bpb.BSJumpBoot[0] == 0xEB && bpb.BSJumpBoot[2] == 0x90) && bpb.BSJumpBoot[0] != 0xE9 {
			return nil, checkpoint.Wrapf(ErrFormat, ErrFormat, "no valid jump instructions at the beginning")
		}
	}

	// The devices only transfer 512 byte sectors.
	if bpb.BytesPerSector != SectorSize {
		return nil, checkpoint.Wrapf(ErrFormat, ErrFormat, "unsupported sector size %d", bpb.BytesPerSector)
	}

	// Sectors per cluster has to be a power of two and the whole cluster may not exceed 32K.
	if bits.OnesCount8(bpb.SectorsPerCluster) != 1 || uint32(bpb.BytesPerSector)*uint32(bpb.SectorsPerCluster) > MaxClusterSize {
		return nil, checkpoint.Wrapf(ErrFormat, ErrFormat, "invalid sectors per cluster %d", bpb.SectorsPerCluster)
	}

	if bpb.ReservedSectorCount == 0 {
		return nil, checkpoint.Wrapf(ErrFormat, ErrFormat, "invalid reserved sector count")
	}

	if bpb.NumFATs == 0 {
		return nil, checkpoint.Wrapf(ErrFormat, ErrFormat, "no FAT")
	}

	total := uint32(bpb.TotalSectors16)
	if total == 0 {
		total = bpb.TotalSectors32
	}
	if total == 0 {
		return nil, checkpoint.Wrapf(ErrFormat, ErrFormat, "no sectors")
	}

	bs.geo = Geometry{
		BytesPerSector:    uint32(bpb.BytesPerSector),
		SectorsPerCluster: uint32(bpb.SectorsPerCluster),
		ReservedSectors:   uint32(bpb.ReservedSectorCount),
		NumberOfFATs:      uint32(bpb.NumFATs),
		TotalSectors:      total,
	}

	specific := bytes.NewReader(bpb.FATSpecificData[:])
	if bpb.FATSize16 == 0 && bpb.RootEntryCount == 0 {
		if err := binary.Read(specific, binary.LittleEndian, &bs.fat32); err != nil {
			return nil, checkpoint.Wrap(err, ErrFormat)
		}
		if bs.fat32.FATSize == 0 {
			return nil, checkpoint.Wrapf(ErrFormat, ErrFormat, "FAT32 without FAT size")
		}
		bs.fsType = FAT32
		bs.geo.SectorsPerFAT = bs.fat32.FATSize
		bs.geo.RootCluster = Cluster(bs.fat32.RootCluster & uint32(fatMask))
	} else {
		if err := binary.Read(specific, binary.LittleEndian, &bs.fat16); err != nil {
			return nil, checkpoint.Wrap(err, ErrFormat)
		}
		bs.geo.SectorsPerFAT = uint32(bpb.FATSize16)
		bs.geo.RootDirSectors = (uint32(bpb.RootEntryCount)*EntrySize + SectorSize - 1) / SectorSize
		bs.fsType = FAT16
		if bs.geo.TotalClusters() < fat12MaxClusters {
			bs.fsType = FAT12
		}
	}

	if bs.geo.FirstDataSector() >= total {
		return nil, checkpoint.Wrapf(ErrFormat, ErrFormat, "no data region")
	}

	return bs, nil
}
