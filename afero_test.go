package fatfs

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAferoFs(t *testing.T) (*Fs, *Mount) {
	t.Helper()
	m := newTreeMount(t)
	return NewAferoFs(m), m
}

func TestFs_Create(t *testing.T) {
	a, m := newTestAferoFs(t)

	f, err := a.Create("/DOCS/NEW.TXT")
	require.NoError(t, err)
	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, "NEW.TXT", info.Name())
	assert.Equal(t, int64(0), info.Size())

	_, err = m.FindFile("/DOCS/NEW.TXT")
	assert.NoError(t, err)

	// An existing file is opened again.
	_, err = a.Create("/DOCS/NEW.TXT")
	assert.NoError(t, err)

	_, err = a.OpenFile("/DOCS/NEW.TXT", os.O_CREATE|os.O_EXCL, 0666)
	assert.ErrorIs(t, err, fs.ErrExist)
	assert.ErrorIs(t, err, ErrExists)

	_, err = a.Create("/NOPE/NEW.TXT")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = a.Create("/DOCS/TOO-LONG-NAME.TXT")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestFs_Mkdir(t *testing.T) {
	a, m := newTestAferoFs(t)

	require.NoError(t, a.Mkdir("DOCS/NEW", 0777))
	e, err := m.FindFile("/DOCS/NEW")
	require.NoError(t, err)
	assert.True(t, e.IsDir())

	err = a.Mkdir("DOCS/NEW", 0777)
	assert.ErrorIs(t, err, fs.ErrExist)
	var pathErr *os.PathError
	require.True(t, errors.As(err, &pathErr))
	assert.Equal(t, "mkdir", pathErr.Op)
	assert.Equal(t, "DOCS/NEW", pathErr.Path)
}

func TestFs_MkdirAll(t *testing.T) {
	a, m := newTestAferoFs(t)
	require.NoError(t, m.ChangeDirectory("DOCS"))

	require.NoError(t, a.MkdirAll("/A/B/C", 0777))
	require.NoError(t, a.MkdirAll("/A/B/C", 0777))
	require.NoError(t, a.MkdirAll("DOCS/SUB/D", 0777))

	for _, p := range []string{"/A", "/A/B", "/A/B/C", "/DOCS/SUB/D"} {
		e, err := m.FindFile(p)
		require.NoError(t, err, p)
		assert.True(t, e.IsDir(), p)
	}

	// Absolute paths never move the current directory.
	_, err := m.FindFile("A.TXT")
	assert.NoError(t, err)

	err = a.MkdirAll("/README.TXT/X", 0777)
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestFs_Open(t *testing.T) {
	a, m := newTestAferoFs(t)
	putContent(t, m, "/README.TXT", []byte("read me"))

	f, err := a.Open("README.TXT")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "read me", string(data))

	data, err = afero.ReadFile(a, "/readme.txt")
	require.NoError(t, err)
	assert.Equal(t, "read me", string(data))

	_, err = a.Open("/NOPE.TXT")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = a.OpenFile("/README.TXT", os.O_RDWR, 0)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.ErrorIs(t, err, ErrReadOnly)

	dirs, err := afero.ReadDir(a, "/DOCS")
	require.NoError(t, err)
	var dirNames []string
	for _, d := range dirs {
		dirNames = append(dirNames, d.Name())
	}
	assert.Equal(t, []string{"A.TXT", "SUB"}, dirNames)
}

func TestFs_Remove(t *testing.T) {
	a, m := newTestAferoFs(t)

	assert.ErrorIs(t, a.Remove("/DOCS"), ErrNotEmpty)
	require.NoError(t, a.Remove("/DOCS/SUB"))
	require.NoError(t, a.Remove("/DOCS/A.TXT"))
	require.NoError(t, a.Remove("/DOCS"))
	assert.ErrorIs(t, a.Remove("/DOCS"), fs.ErrNotExist)

	entries, err := m.ReadDirectory("/")
	require.NoError(t, err)
	assert.Equal(t, []string{"README.TXT"}, names(entries))
}

func TestFs_RemoveAll(t *testing.T) {
	a, m := newTestAferoFs(t)
	require.NoError(t, a.MkdirAll("/DOCS/SUB/DEEP", 0777))
	_, err := a.Create("/DOCS/SUB/DEEP/X.TXT")
	require.NoError(t, err)

	require.NoError(t, a.RemoveAll("/DOCS"))
	require.NoError(t, a.RemoveAll("/DOCS"))
	_, err = m.FindFile("/DOCS")
	assert.ErrorIs(t, err, ErrNotFound)

	// Only the root and README.TXT are left.
	assert.Equal(t, map[Cluster]bool{2: true, 3: true}, reachable(t, m, m.RootCluster()))
	free, err := m.findFreeCluster()
	require.NoError(t, err)
	assert.Equal(t, Cluster(4), free)

	require.NoError(t, a.RemoveAll("/README.TXT"))
	require.NoError(t, a.RemoveAll("/"))
	entries, err := m.ReadDirectory("/")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFs_Stat(t *testing.T) {
	a, _ := newTestAferoFs(t)

	info, err := a.Stat("/")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, "/", info.Name())

	info, err = a.Stat("DOCS/SUB")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, "SUB", info.Name())

	info, err = a.Stat("/README.TXT")
	require.NoError(t, err)
	assert.False(t, info.IsDir())

	_, err = a.Stat("/NOPE")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	exists, err := afero.Exists(a, "/DOCS/A.TXT")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFs_unsupported(t *testing.T) {
	a, _ := newTestAferoFs(t)
	assert.Equal(t, "fatfs", a.Name())

	err := a.Rename("/README.TXT", "/OTHER.TXT")
	assert.ErrorIs(t, err, ErrUnsupported)
	var linkErr *os.LinkError
	assert.True(t, errors.As(err, &linkErr))

	assert.ErrorIs(t, a.Chmod("/README.TXT", 0444), fs.ErrPermission)
	assert.ErrorIs(t, a.Chown("/README.TXT", 0, 0), ErrUnsupported)
	assert.ErrorIs(t, a.Chtimes("/README.TXT", time.Now(), time.Now()), ErrUnsupported)
}

func TestFs_Walk(t *testing.T) {
	a, _ := newTestAferoFs(t)

	var visited []string
	require.NoError(t, afero.Walk(a, "/", func(p string, info os.FileInfo, err error) error {
		require.NoError(t, err)
		visited = append(visited, p)
		return nil
	}))
	sort.Strings(visited)
	assert.Equal(t, []string{"/", "/DOCS", "/DOCS/A.TXT", "/DOCS/SUB", "/README.TXT"}, visited)
}
