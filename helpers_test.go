package fatfs

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// testSectors is the size of the default test image: 2 MiB with 512 byte clusters,
// so a directory cluster holds 16 entries.
const testSectors = 4096

func testFAT32Config() FormatConfig {
	cfg := DefaultFAT32Config(testSectors)
	cfg.SectorsPerCluster = 1
	return cfg
}

// newTestDisk formats an in-memory image with cfg.
func newTestDisk(t *testing.T, cfg FormatConfig) *FileDisk {
	t.Helper()
	disk, err := CreateFileDisk(afero.NewMemMapFs(), "disk.img", cfg.TotalSectors)
	require.NoError(t, err)
	t.Cleanup(func() { disk.Close() })

	require.NoError(t, Format(disk, cfg))
	return disk
}

// newTestMount mounts a freshly formatted FAT32 test image.
// The returned hook records everything the mount logs.
func newTestMount(t *testing.T) (*Mount, *test.Hook) {
	t.Helper()
	return mountTestDisk(t, newTestDisk(t, testFAT32Config()))
}

func mountTestDisk(t *testing.T, dev SectorDevice) (*Mount, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	m, err := MountFAT32(dev, WithLogger(log))
	require.NoError(t, err)
	return m, hook
}

// putContent fills the existing file at path with data, the way a writing tool would.
func putContent(t *testing.T, m *Mount, path string, data []byte) {
	t.Helper()
	e, err := m.FindFile(path)
	require.NoError(t, err)

	c := e.FirstCluster()
	buf := make([]byte, m.geo.ClusterSize())
	for off := 0; ; {
		zero(buf)
		copy(buf, data[off:])
		require.NoError(t, m.writeCluster(c, buf))

		off += len(buf)
		if off >= len(data) {
			break
		}
		next, err := m.allocateCluster()
		require.NoError(t, err)
		require.NoError(t, m.linkCluster(c, next))
		c = next
	}

	patchEntry(t, m, path, func(h *EntryHeader) { h.FileSize = uint32(len(data)) })
}

// patchEntry rewrites the stored record of the entry at path.
func patchEntry(t *testing.T, m *Mount, path string, patch func(h *EntryHeader)) {
	t.Helper()
	e, err := m.FindFile(path)
	require.NoError(t, err)

	offset := e.index * EntrySize
	lba := m.geo.ClusterToSector(e.dirCluster) + offset/SectorSize
	sector, err := m.fetch(lba)
	require.NoError(t, err)
	patch(&e.EntryHeader)
	encodeEntry(e.EntryHeader, sector[offset%SectorSize:])
	require.NoError(t, m.store(lba))
}

// reachable returns every cluster used by a chain below the directory at c, c included.
func reachable(t *testing.T, m *Mount, c Cluster) map[Cluster]bool {
	t.Helper()
	used := map[Cluster]bool{}

	var walk func(c Cluster)
	walk = func(c Cluster) {
		clusters, err := m.chain(c)
		require.NoError(t, err)
		for _, cc := range clusters {
			require.False(t, used[cc], "cluster %d used twice", cc)
			used[cc] = true
		}

		entries, err := m.readDir(c)
		require.NoError(t, err)
		for _, e := range entries {
			if e.isDotEntry() || e.FirstCluster() == 0 {
				continue
			}
			if e.IsDir() {
				walk(e.FirstCluster())
				continue
			}
			clusters, err := m.chain(e.FirstCluster())
			require.NoError(t, err)
			for _, cc := range clusters {
				require.False(t, used[cc], "cluster %d used twice", cc)
				used[cc] = true
			}
		}
	}
	walk(c)
	return used
}
