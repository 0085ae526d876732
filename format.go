package fatfs

import (
	"bytes"
	"encoding/binary"
	"math/bits"
	"strings"

	"github.com/aligator/fatfs/checkpoint"
)

// Signatures of the FAT32 FSInfo sector.
const (
	fsInfoLeadSignature   = 0x41615252
	fsInfoStructSignature = 0x61417272
	fsInfoTrailSignature  = 0xAA550000
)

const (
	fat32ReservedSectors = 32
	fat32FSInfoSector    = 1
	fat32BackupBoot      = 6
	fat12RootEntries     = 224
	formatNumFATs        = 2
	noLabel              = "NO NAME"
)

// FormatConfig describes the volume Format creates.
type FormatConfig struct {
	Type              FSType
	TotalSectors      uint32
	SectorsPerCluster uint8
	Label             string
	OEMName           string
	VolumeID          uint32
}

// DefaultFAT32Config returns the parameters for a FAT32 volume of totalSectors sectors.
// The cluster size grows with the volume like most formatters do it.
func DefaultFAT32Config(totalSectors uint32) FormatConfig {
	spc := uint8(1)
	switch {
	case totalSectors > 16*1024*1024:
		spc = 32
	case totalSectors > 512*1024:
		spc = 8
	case totalSectors > 64*1024:
		spc = 4
	}
	return FormatConfig{
		Type:              FAT32,
		TotalSectors:      totalSectors,
		SectorsPerCluster: spc,
		OEMName:           "FATFS",
		VolumeID:          0x12345678,
	}
}

// DefaultFAT12Config returns the parameters of a 1.44 MB floppy.
func DefaultFAT12Config() FormatConfig {
	return FormatConfig{
		Type:              FAT12,
		TotalSectors:      2880,
		SectorsPerCluster: 1,
		OEMName:           "FATFS",
		VolumeID:          0x12345678,
	}
}

// layout is the position of every region of a volume about to be formatted.
type layout struct {
	reserved       uint32
	sectorsPerFAT  uint32
	rootDirSectors uint32
	clusters       uint32
}

// Format writes an empty FAT32 or FAT12 volume to dev.
// Everything in front of the data region is overwritten, the data region
// itself is left as it is except for the FAT32 root cluster.
func Format(dev SectorDevice, cfg FormatConfig) error {
	if bits.OnesCount8(cfg.SectorsPerCluster) != 1 || uint32(cfg.SectorsPerCluster)*SectorSize > MaxClusterSize {
		return checkpoint.Wrapf(ErrFormat, ErrFormat, "invalid sectors per cluster %d", cfg.SectorsPerCluster)
	}

	var l layout
	var err error
	switch cfg.Type {
	case FAT32:
		l, err = fat32Layout(cfg)
	case FAT12:
		l, err = fat12Layout(cfg)
	default:
		return checkpoint.Wrapf(ErrUnsupported, ErrUnsupported, "cannot format %v", cfg.Type)
	}
	if err != nil {
		return err
	}

	boot, err := encodeBootSector(cfg, l)
	if err != nil {
		return err
	}

	zero := make([]byte, SectorSize)
	for lba := uint32(0); lba < l.reserved; lba++ {
		if err := writeFormatSector(dev, lba, zero); err != nil {
			return err
		}
	}
	if err := writeFormatSector(dev, 0, boot); err != nil {
		return err
	}

	if cfg.Type == FAT32 {
		info, err := encodeFSInfo(l)
		if err != nil {
			return err
		}
		for _, lba := range []uint32{fat32FSInfoSector, fat32BackupBoot + fat32FSInfoSector} {
			if err := writeFormatSector(dev, lba, info); err != nil {
				return err
			}
		}
		if err := writeFormatSector(dev, fat32BackupBoot, boot); err != nil {
			return err
		}
	}

	first := make([]byte, SectorSize)
	if cfg.Type == FAT32 {
		binary.LittleEndian.PutUint32(first[0:], 0x0FFFFF00|uint32(mediaByte(cfg.Type)))
		binary.LittleEndian.PutUint32(first[4:], uint32(fatEOCMax))
		// The root directory is cluster 2 and only one cluster long.
		binary.LittleEndian.PutUint32(first[8:], uint32(fatEOCMax))
	} else {
		// Entries 0 and 1 packed into three bytes: 0xFF0 | 0xFFF.
		first[0] = mediaByte(cfg.Type)
		first[1] = 0xFF
		first[2] = 0xFF
	}

	for n := uint32(0); n < formatNumFATs; n++ {
		start := l.reserved + n*l.sectorsPerFAT
		for i := uint32(0); i < l.sectorsPerFAT; i++ {
			p := zero
			if i == 0 {
				p = first
			}
			if err := writeFormatSector(dev, start+i, p); err != nil {
				return err
			}
		}
	}

	// The root directory, the fixed region on FAT12 and cluster 2 on FAT32.
	rootStart := l.reserved + formatNumFATs*l.sectorsPerFAT
	rootSectors := l.rootDirSectors
	if cfg.Type == FAT32 {
		rootSectors = uint32(cfg.SectorsPerCluster)
	}
	for i := uint32(0); i < rootSectors; i++ {
		if err := writeFormatSector(dev, rootStart+i, zero); err != nil {
			return err
		}
	}

	if cfg.Label != "" {
		label := make([]byte, SectorSize)
		h := EntryHeader{Attribute: AttrVolumeID, WriteDate: EncodeDate(placeholderTime)}
		copy(h.Name[:], padRight(strings.ToUpper(cfg.Label), 11))
		encodeEntry(h, label[:EntrySize])
		if err := writeFormatSector(dev, rootStart, label); err != nil {
			return err
		}
	}

	return nil
}

// fat32Layout sizes the FAT with the formula of the FAT specification.
func fat32Layout(cfg FormatConfig) (layout, error) {
	spc := uint32(cfg.SectorsPerCluster)
	if cfg.TotalSectors <= fat32ReservedSectors+formatNumFATs+spc {
		return layout{}, checkpoint.Wrapf(ErrFormat, ErrFormat, "%d sectors are too few for FAT32", cfg.TotalSectors)
	}

	div := (256*spc + formatNumFATs) / 2
	fatSize := (cfg.TotalSectors - fat32ReservedSectors + div - 1) / div

	l := layout{
		reserved:      fat32ReservedSectors,
		sectorsPerFAT: fatSize,
	}
	dataStart := l.reserved + formatNumFATs*fatSize
	if dataStart >= cfg.TotalSectors {
		return layout{}, checkpoint.Wrapf(ErrFormat, ErrFormat, "no data region")
	}
	l.clusters = (cfg.TotalSectors - dataStart) / spc
	// Cluster 2 is the root directory, usable clusters end in front of the count.
	if l.clusters <= uint32(firstDataCluster)+1 {
		return layout{}, checkpoint.Wrapf(ErrFormat, ErrFormat, "%d clusters are too few", l.clusters)
	}
	return l, nil
}

// fat12Layout grows the FAT until it covers every cluster.
func fat12Layout(cfg FormatConfig) (layout, error) {
	spc := uint32(cfg.SectorsPerCluster)
	l := layout{
		reserved:       1,
		sectorsPerFAT:  1,
		rootDirSectors: (fat12RootEntries*EntrySize + SectorSize - 1) / SectorSize,
	}

	for {
		used := l.reserved + formatNumFATs*l.sectorsPerFAT + l.rootDirSectors
		if used >= cfg.TotalSectors {
			return layout{}, checkpoint.Wrapf(ErrFormat, ErrFormat, "%d sectors are too few for FAT12", cfg.TotalSectors)
		}
		l.clusters = (cfg.TotalSectors - used) / spc
		need := ((l.clusters+uint32(firstDataCluster))*3/2 + 1 + SectorSize - 1) / SectorSize
		if need <= l.sectorsPerFAT {
			break
		}
		l.sectorsPerFAT = need
	}

	if l.clusters >= fat12MaxClusters {
		return layout{}, checkpoint.Wrapf(ErrFormat, ErrFormat, "%d clusters are too many for FAT12, use bigger clusters", l.clusters)
	}
	if l.sectorsPerFAT > 0xFFFF {
		return layout{}, checkpoint.Wrapf(ErrFormat, ErrFormat, "FAT too big")
	}
	return l, nil
}

func mediaByte(t FSType) byte {
	if t == FAT12 {
		return 0xF0
	}
	return 0xF8
}

func encodeBootSector(cfg FormatConfig, l layout) ([]byte, error) {
	oem := cfg.OEMName
	if oem == "" {
		oem = "FATFS"
	}
	label := strings.ToUpper(cfg.Label)
	if label == "" {
		label = noLabel
	}

	bpb := BPB{
		BSJumpBoot:          [3]byte{0xEB, 0x58, 0x90},
		BytesPerSector:      SectorSize,
		SectorsPerCluster:   cfg.SectorsPerCluster,
		ReservedSectorCount: uint16(l.reserved),
		NumFATs:             formatNumFATs,
		Media:               mediaByte(cfg.Type),
		SectorsPerTrack:     32,
		NumberOfHeads:       64,
	}
	copy(bpb.BSOEMName[:], padRight(oem, 8))

	specific := &bytes.Buffer{}
	if cfg.Type == FAT32 {
		bpb.TotalSectors32 = cfg.TotalSectors

		ext := FAT32SpecificData{
			FATSize:         l.sectorsPerFAT,
			RootCluster:     uint32(firstDataCluster),
			FSInfo:          fat32FSInfoSector,
			BkBootSector:    fat32BackupBoot,
			BSDriveNumber:   0x80,
			BSBootSignature: 0x29,
			BSVolumeID:      cfg.VolumeID,
		}
		copy(ext.BSVolumeLabel[:], padRight(label, 11))
		copy(ext.BSFileSystemType[:], "FAT32   ")
		if err := binary.Write(specific, binary.LittleEndian, ext); err != nil {
			return nil, checkpoint.Wrap(err, ErrFormat)
		}
	} else {
		bpb.SectorsPerTrack = 18
		bpb.NumberOfHeads = 2
		bpb.RootEntryCount = fat12RootEntries
		bpb.FATSize16 = uint16(l.sectorsPerFAT)
		if cfg.TotalSectors < 0x10000 {
			bpb.TotalSectors16 = uint16(cfg.TotalSectors)
		} else {
			bpb.TotalSectors32 = cfg.TotalSectors
		}

		ext := FAT16SpecificData{
			BSBootSignature: 0x29,
			BSVolumeID:      cfg.VolumeID,
		}
		copy(ext.BSVolumeLabel[:], padRight(label, 11))
		copy(ext.BSFileSystemType[:], "FAT12   ")
		if err := binary.Write(specific, binary.LittleEndian, ext); err != nil {
			return nil, checkpoint.Wrap(err, ErrFormat)
		}
	}
	copy(bpb.FATSpecificData[:], specific.Bytes())

	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, bpb); err != nil {
		return nil, checkpoint.Wrap(err, ErrFormat)
	}

	sector := make([]byte, SectorSize)
	copy(sector, buf.Bytes())
	binary.LittleEndian.PutUint16(sector[510:], bootSignature)
	return sector, nil
}

func encodeFSInfo(l layout) ([]byte, error) {
	info := FSInfo{
		LeadSignature:   fsInfoLeadSignature,
		StructSignature: fsInfoStructSignature,
		// The root directory uses the first cluster.
		FreeCount:      l.clusters - 1,
		NextFree:       uint32(firstDataCluster) + 1,
		TrailSignature: fsInfoTrailSignature,
	}

	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, info); err != nil {
		return nil, checkpoint.Wrap(err, ErrFormat)
	}
	return buf.Bytes(), nil
}

func writeFormatSector(dev SectorDevice, lba uint32, p []byte) error {
	if err := dev.WriteSector(lba, p); err != nil {
		return checkpoint.Wrapf(err, ErrIO, "format sector %d", lba)
	}
	return nil
}

// padRight pads s with spaces to n bytes, longer strings are cut.
func padRight(s string, n int) []byte {
	b := []byte(strings.Repeat(" ", n))
	copy(b, s)
	return b
}
