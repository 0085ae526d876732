package fatfs

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTreeMount returns a mount holding
//
//	/README.TXT
//	/DOCS/
//	/DOCS/A.TXT
//	/DOCS/SUB/
func newTreeMount(t *testing.T) *Mount {
	t.Helper()
	m, _ := newTestMount(t)
	require.NoError(t, m.CreateFile("README.TXT"))
	require.NoError(t, m.CreateDirectory("DOCS"))
	require.NoError(t, m.CreateFile("DOCS/A.TXT"))
	require.NoError(t, m.CreateDirectory("DOCS/SUB"))
	return m
}

func names(entries []DirEntry) []string {
	result := make([]string, len(entries))
	for i, e := range entries {
		result[i] = e.Name()
	}
	return result
}

func TestMount_ReadDirectory(t *testing.T) {
	tests := []struct {
		name    string
		cwd     string
		path    string
		want    []string
		wantErr error
	}{
		{name: "current directory", path: "", want: []string{"README.TXT", "DOCS"}},
		{name: "root", path: "/", want: []string{"README.TXT", "DOCS"}},
		{name: "absolute", path: "/DOCS", want: []string{".", "..", "A.TXT", "SUB"}},
		{name: "relative paths start at the root", cwd: "DOCS", path: "DOCS", want: []string{".", "..", "A.TXT", "SUB"}},
		{name: "empty path is the current directory", cwd: "DOCS", path: "", want: []string{".", "..", "A.TXT", "SUB"}},
		{name: "lower case", path: "docs/sub", want: []string{".", ".."}},
		{name: "dot segments", path: "/DOCS/./SUB/../../DOCS", want: []string{".", "..", "A.TXT", "SUB"}},
		{name: ".. of the root is the root", path: "/../..", want: []string{"README.TXT", "DOCS"}},
		{name: "missing", path: "/NOPE", wantErr: ErrNotFound},
		{name: "file", path: "/README.TXT", wantErr: ErrNotDirectory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTreeMount(t)
			if tt.cwd != "" {
				require.NoError(t, m.ChangeDirectory(tt.cwd))
			}

			entries, err := m.ReadDirectory(tt.path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(entries))
		})
	}
}

func TestMount_ChangeDirectory(t *testing.T) {
	m := newTreeMount(t)
	root := m.CurrentCluster()

	require.NoError(t, m.ChangeDirectory("DOCS"))
	docs := m.CurrentCluster()
	assert.NotEqual(t, root, docs)

	// Relative to the current directory.
	require.NoError(t, m.ChangeDirectory("SUB"))
	sub := m.CurrentCluster()
	_, err := m.FindFile("../A.TXT")
	assert.NoError(t, err)

	// Failures keep the current directory.
	assert.ErrorIs(t, m.ChangeDirectory("NOPE"), ErrNotFound)
	assert.ErrorIs(t, m.ChangeDirectory("/README.TXT"), ErrNotDirectory)
	assert.Equal(t, sub, m.CurrentCluster())

	require.NoError(t, m.ChangeDirectory(".."))
	assert.Equal(t, docs, m.CurrentCluster())
	require.NoError(t, m.ChangeDirectory(".."))
	assert.Equal(t, root, m.CurrentCluster())
	require.NoError(t, m.ChangeDirectory(".."))
	assert.Equal(t, root, m.CurrentCluster())

	require.NoError(t, m.ChangeDirectory("/DOCS/SUB"))
	assert.Equal(t, sub, m.CurrentCluster())
	require.NoError(t, m.ChangeDirectory("/"))
	assert.Equal(t, root, m.CurrentCluster())
}

func TestMount_mutationsUseCurrentDirectory(t *testing.T) {
	m := newTreeMount(t)
	require.NoError(t, m.ChangeDirectory("DOCS"))

	require.NoError(t, m.CreateFile("B.TXT"))
	_, err := m.FindFile("/DOCS/B.TXT")
	assert.NoError(t, err)

	require.NoError(t, m.CreateFile("/ROOT.TXT"))
	_, err = m.FindFile("/ROOT.TXT")
	assert.NoError(t, err)

	require.NoError(t, m.DeleteFile("A.TXT"))
	_, err = m.FindFile("/DOCS/A.TXT")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMount_ListDirectory(t *testing.T) {
	m := newTreeMount(t)

	var out bytes.Buffer
	require.NoError(t, m.ListDirectory(&out))
	assert.Equal(t, "README.TXT\n[DIR] DOCS\n", out.String())

	out.Reset()
	require.NoError(t, m.ChangeDirectory("DOCS"))
	require.NoError(t, m.ListDirectory(&out))
	assert.Equal(t, "[DIR] .\n[DIR] ..\nA.TXT\n[DIR] SUB\n", out.String())
}

func TestMount_ReadDirectoryToBuffer(t *testing.T) {
	listing := "README.TXT\n[DIR] DOCS\n"
	tests := []struct {
		name    string
		size    int
		want    string
		wantErr error
	}{
		{name: "everything fits", size: 100, want: listing},
		{name: "exact fit", size: len(listing), want: listing},
		{name: "partial line is left out", size: len(listing) - 1, want: "README.TXT\n"},
		{name: "nothing fits", size: 3, want: ""},
		{name: "empty buffer", size: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTreeMount(t)
			buf := make([]byte, tt.size)
			n, err := m.ReadDirectoryToBuffer("/", buf)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(buf[:n]))
		})
	}

	m := newTreeMount(t)
	_, err := m.ReadDirectoryToBuffer("/NOPE", make([]byte, 10))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMount_OpenFile(t *testing.T) {
	m := newTreeMount(t)
	content := strings.Repeat("0123456789", 200)
	putContent(t, m, "/DOCS/A.TXT", []byte(content))

	f, err := m.OpenFile("/DOCS/A.TXT", os.O_RDONLY)
	require.NoError(t, err)
	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), info.Size())
	assert.Equal(t, "A.TXT", info.Name())

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))

	part := make([]byte, 20)
	n, err := f.ReadAt(part, 1010)
	require.NoError(t, err)
	assert.Equal(t, content[1010:1030], string(part[:n]))
	require.NoError(t, f.Close())

	// Directories, by entry and by path only.
	d, err := m.OpenFile("DOCS", os.O_RDONLY)
	require.NoError(t, err)
	dirNames, err := d.Readdirnames(-1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A.TXT", "SUB"}, dirNames)

	root, err := m.OpenFile("/", os.O_RDONLY)
	require.NoError(t, err)
	rootNames, err := root.Readdirnames(-1)
	require.NoError(t, err)
	assert.Equal(t, []string{"README.TXT", "DOCS"}, rootNames)

	up, err := m.OpenFile("DOCS/SUB/..", os.O_RDONLY)
	require.NoError(t, err)
	upNames, err := up.Readdirnames(-1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A.TXT", "SUB"}, upNames)

	_, err = m.OpenFile("/NOPE.TXT", os.O_RDONLY)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.OpenFile("/README.TXT", os.O_RDWR)
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestMount_OpenFile_invalidFirstCluster(t *testing.T) {
	tests := []struct {
		name    string
		cluster func(m *Mount) Cluster
	}{
		{name: "zero", cluster: func(m *Mount) Cluster { return 0 }},
		{name: "reserved", cluster: func(m *Mount) Cluster { return 1 }},
		{name: "past the end", cluster: func(m *Mount) Cluster { return m.TotalClusters() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTreeMount(t)
			putContent(t, m, "/README.TXT", []byte("0123456789abcdef"))
			patchEntry(t, m, "/README.TXT", func(h *EntryHeader) { h.setCluster(tt.cluster(m)) })

			f, err := m.OpenFile("/README.TXT", os.O_RDONLY)
			require.NoError(t, err)
			n, err := f.Read(make([]byte, 16))
			assert.Equal(t, 0, n)
			assert.ErrorIs(t, err, ErrInvalidCluster)
		})
	}
}
