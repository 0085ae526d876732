package fatfs

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_fatEntry_Value(t *testing.T) {
	tests := []struct {
		name string
		e    fatEntry
		want uint32
	}{
		{name: "plain", e: 0x00000123, want: 0x123},
		{name: "reserved bits are masked", e: 0xF0000123, want: 0x123},
		{name: "end of chain", e: 0xFFFFFFFF, want: 0x0FFFFFFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.Value(); got != tt.want {
				t.Errorf("fatEntry.Value() = %#x, want %#x", got, tt.want)
			}
		})
	}
}

func Test_fatEntry_classes(t *testing.T) {
	tests := []struct {
		name    string
		e       fatEntry
		free    bool
		bad     bool
		next    bool
		lastOne bool
	}{
		{name: "free", e: 0, free: true},
		{name: "free with reserved bits", e: 0xF0000000, free: true},
		{name: "reserved cluster 1", e: 1},
		{name: "next", e: 2, next: true},
		{name: "highest next", e: 0x0FFFFFF6, next: true},
		{name: "bad", e: 0x0FFFFFF7, bad: true},
		{name: "lowest end of chain", e: 0x0FFFFFF8, lastOne: true},
		{name: "end of chain", e: 0x0FFFFFFF, lastOne: true},
		{name: "end of chain with reserved bits", e: 0xFFFFFFFF, lastOne: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.free, tt.e.IsFree(), "IsFree")
			assert.Equal(t, tt.bad, tt.e.IsBad(), "IsBad")
			assert.Equal(t, tt.next, tt.e.IsNextCluster(), "IsNextCluster")
			assert.Equal(t, tt.lastOne, tt.e.IsEndOfChain(), "IsEndOfChain")
		})
	}
}

func TestMount_validCluster(t *testing.T) {
	m, _ := newTestMount(t)
	total := m.TotalClusters()
	assert.Equal(t, Cluster(4000), total)

	for c, want := range map[Cluster]bool{0: false, 1: false, 2: true, total - 1: true, total: false, 0x0FFFFFFF: false} {
		assert.Equal(t, want, m.validCluster(c), "cluster %d", c)
	}

	_, err := m.readFATEntry(total)
	assert.ErrorIs(t, err, ErrInvalidCluster)
	assert.ErrorIs(t, m.writeFATEntry(1, fatEOCMax), ErrInvalidCluster)
}

// rawFATEntry reads the unmasked entry of c.
func rawFATEntry(t *testing.T, m *Mount, c Cluster) uint32 {
	t.Helper()
	lba, offset := m.geo.FATEntrySector(c)
	buf, err := m.fetch(lba)
	require.NoError(t, err)
	return binary.LittleEndian.Uint32(buf[offset:])
}

func setRawFATEntry(t *testing.T, m *Mount, c Cluster, v uint32) {
	t.Helper()
	lba, offset := m.geo.FATEntrySector(c)
	buf, err := m.fetch(lba)
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(buf[offset:], v)
	require.NoError(t, m.store(lba))
}

func TestMount_writeFATEntry_keepsReservedBits(t *testing.T) {
	m, _ := newTestMount(t)
	setRawFATEntry(t, m, 10, 0xA0000000)

	require.NoError(t, m.writeFATEntry(10, 11))
	assert.Equal(t, uint32(0xA000000B), rawFATEntry(t, m, 10))

	e, err := m.readFATEntry(10)
	require.NoError(t, err)
	assert.Equal(t, fatEntry(11), e)

	require.NoError(t, m.writeFATEntry(10, fatFree))
	assert.Equal(t, uint32(0xA0000000), rawFATEntry(t, m, 10))
	e, err = m.readFATEntry(10)
	require.NoError(t, err)
	assert.True(t, e.IsFree())
}

func TestMount_formattedFAT(t *testing.T) {
	m, _ := newTestMount(t)
	assert.Equal(t, uint32(0x0FFFFFF8), rawFATEntry(t, m, 0))
	assert.Equal(t, uint32(0x0FFFFFFF), rawFATEntry(t, m, 1))

	e, err := m.readFATEntry(m.RootCluster())
	require.NoError(t, err)
	assert.True(t, e.IsEndOfChain())

	c, err := m.findFreeCluster()
	require.NoError(t, err)
	assert.Equal(t, Cluster(3), c)
}

func TestMount_allocateCluster(t *testing.T) {
	m, hook := newTestMount(t)

	first, err := m.allocateCluster()
	require.NoError(t, err)
	second, err := m.allocateCluster()
	require.NoError(t, err)
	assert.Equal(t, Cluster(3), first)
	assert.Equal(t, Cluster(4), second)

	e, err := m.readFATEntry(first)
	require.NoError(t, err)
	assert.True(t, e.IsEndOfChain())
	assert.Equal(t, "allocated cluster", hook.LastEntry().Message)

	// The first free cluster is reused.
	require.NoError(t, m.freeChain(first))
	again, err := m.allocateCluster()
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestMount_allocateCluster_noSpace(t *testing.T) {
	m, _ := newTestMount(t)
	for c := Cluster(3); c < m.TotalClusters(); c++ {
		require.NoError(t, m.writeFATEntry(c, fatEOCMax))
	}

	_, err := m.allocateCluster()
	assert.ErrorIs(t, err, ErrNoSpace)
	assert.ErrorIs(t, m.CreateFile("FULL.TXT"), ErrNoSpace)
}

func TestMount_chain(t *testing.T) {
	m, _ := newTestMount(t)
	start, err := m.allocateCluster()
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		next, err := m.allocateCluster()
		require.NoError(t, err)
		require.NoError(t, m.linkCluster(start, next))
	}

	clusters, err := m.chain(start)
	require.NoError(t, err)
	assert.Equal(t, []Cluster{3, 4, 5, 6}, clusters)

	last, err := m.lastCluster(start)
	require.NoError(t, err)
	assert.Equal(t, Cluster(6), last)

	// Linking from the middle still appends at the end.
	next, err := m.allocateCluster()
	require.NoError(t, err)
	require.NoError(t, m.linkCluster(4, next))
	clusters, err = m.chain(start)
	require.NoError(t, err)
	assert.Equal(t, []Cluster{3, 4, 5, 6, 7}, clusters)

	// Stopping early.
	var visited []Cluster
	require.NoError(t, m.walkChain(start, func(c Cluster) (bool, error) {
		visited = append(visited, c)
		return len(visited) < 2, nil
	}))
	assert.Equal(t, []Cluster{3, 4}, visited)

	require.NoError(t, m.freeChain(start))
	for _, c := range clusters {
		e, err := m.readFATEntry(c)
		require.NoError(t, err)
		assert.True(t, e.IsFree(), "cluster %d", c)
	}
}

func TestMount_brokenChains(t *testing.T) {
	tests := []struct {
		name  string
		setup map[Cluster]uint32
	}{
		{name: "cycle", setup: map[Cluster]uint32{3: 4, 4: 5, 5: 3}},
		{name: "self reference", setup: map[Cluster]uint32{3: 3}},
		{name: "free cluster inside", setup: map[Cluster]uint32{3: 4, 4: 0}},
		{name: "bad cluster inside", setup: map[Cluster]uint32{3: 0x0FFFFFF7}},
		{name: "pointer behind the volume", setup: map[Cluster]uint32{3: 0x0FFFFFF0}},
		{name: "pointer to cluster 1", setup: map[Cluster]uint32{3: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestMount(t)
			for c, v := range tt.setup {
				setRawFATEntry(t, m, c, v)
			}

			_, err := m.chain(3)
			assert.ErrorIs(t, err, ErrBrokenChain)
			_, err = m.lastCluster(3)
			assert.ErrorIs(t, err, ErrBrokenChain)
			assert.ErrorIs(t, m.freeChain(3), ErrBrokenChain)
		})
	}
}
