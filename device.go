package fatfs

// SectorDevice is the raw block device the filesystem lives on.
// Both calls transfer exactly one SectorSize sector and block until done.
// Generated mock using mockgen:
//
//	mockgen -source=device.go -destination=device_mock.go -package fatfs
type SectorDevice interface {
	ReadSector(lba uint32, p []byte) error
	WriteSector(lba uint32, p []byte) error
}
