package fatfs

import (
	"bytes"
	"fmt"
	"io"

	"github.com/aligator/fatfs/checkpoint"
)

// scanState is the state of a directory scan.
// A scan starts SCANNING at the first cluster and either ends DONE on a match
// or NOT_FOUND at the end marker or at the end of the chain.
type scanState int

const (
	scanning scanState = iota
	scanDone
	scanNotFound
)

// scanEntries calls match for every entry in use in buf, which holds records read from cluster c.
// It returns scanNotFound at the end marker and scanning if buf got exhausted.
func scanEntries(buf []byte, c Cluster, match func(e DirEntry) bool) (DirEntry, scanState) {
	for i := uint32(0); i < uint32(len(buf))/EntrySize; i++ {
		raw := buf[i*EntrySize : (i+1)*EntrySize]
		switch raw[0] {
		case entryEnd:
			return DirEntry{}, scanNotFound
		case entryDeleted:
			continue
		}

		h := decodeEntry(raw)
		if h.isLongName() {
			continue
		}

		e := DirEntry{EntryHeader: h, dirCluster: c, index: i}
		if match(e) {
			return e, scanDone
		}
	}
	return DirEntry{}, scanning
}

// scanDir calls match for every entry in use in the directory starting at start,
// skipping deleted and long name entries, until match returns true.
// match must not touch m.cluster.
func (m *Mount) scanDir(start Cluster, match func(e DirEntry) bool) (DirEntry, bool, error) {
	state := scanning
	var found DirEntry

	err := m.walkChain(start, func(c Cluster) (bool, error) {
		if err := m.readCluster(c, m.cluster); err != nil {
			return false, err
		}
		found, state = scanEntries(m.cluster, c, match)
		// Go on with the next cluster only if this one got exhausted.
		return state == scanning, nil
	})
	if err != nil {
		return DirEntry{}, false, err
	}
	return found, state == scanDone, nil
}

// dirCluster maps the cluster stored in a directory entry to the cluster to read.
// A .. entry pointing to the root directory stores 0.
func (m *Mount) dirCluster(c Cluster) Cluster {
	if c == 0 {
		return m.geo.RootCluster
	}
	return c
}

// findSubdirectory returns the first cluster of the directory name inside the directory at start.
func (m *Mount) findSubdirectory(start Cluster, name string) (Cluster, error) {
	e, ok, err := m.scanDir(start, func(e DirEntry) bool {
		return e.IsDir() && compareNames(e.EntryHeader.Name, name)
	})
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, checkpoint.Wrapf(ErrNotFound, ErrNotFound, "directory %q", name)
	}
	return m.dirCluster(e.FirstCluster()), nil
}

// findEntry returns the entry name, file or directory, inside the directory at dir.
func (m *Mount) findEntry(dir Cluster, name string) (DirEntry, error) {
	e, ok, err := m.scanDir(dir, func(e DirEntry) bool {
		return !e.isVolumeID() && compareNames(e.EntryHeader.Name, name)
	})
	if err != nil {
		return DirEntry{}, err
	}
	if !ok {
		return DirEntry{}, checkpoint.Wrapf(ErrNotFound, ErrNotFound, "%q", name)
	}
	return e, nil
}

// FindFile looks up the entry at path, relative paths start at the current directory.
func (m *Mount) FindFile(path string) (DirEntry, error) {
	dir, name := splitPath(path)
	if name == "" {
		return DirEntry{}, checkpoint.Wrapf(ErrNotFound, ErrNotFound, "no entry for %q", path)
	}
	parent, err := m.resolvePath(dir, m.cwd)
	if err != nil {
		return DirEntry{}, err
	}
	return m.findEntry(parent, name)
}

// readDir returns all entries of the directory at c except the volume label.
func (m *Mount) readDir(c Cluster) ([]DirEntry, error) {
	var entries []DirEntry
	_, _, err := m.scanDir(m.dirCluster(c), func(e DirEntry) bool {
		if !e.isVolumeID() {
			entries = append(entries, e)
		}
		return false
	})
	return entries, err
}

// isDirectoryEmpty reports if the directory e has no entries besides . and ..
// All clusters of the directory are checked.
// Only a .. entry may point to the root through cluster 0.
func (m *Mount) isDirectoryEmpty(e DirEntry) (bool, error) {
	if e.FirstCluster() == 0 && !e.isDotEntry() {
		return false, checkpoint.Wrapf(ErrBrokenChain, ErrBrokenChain, "directory %q has no cluster", e.Name())
	}
	_, found, err := m.scanDir(m.dirCluster(e.FirstCluster()), func(child DirEntry) bool {
		return !child.isDotEntry() && !child.isVolumeID()
	})
	if err != nil {
		return false, err
	}
	return !found, nil
}

// ReadDirectory returns the entries of the directory at path.
// An empty path is the current directory, other relative paths start at the root.
func (m *Mount) ReadDirectory(path string) ([]DirEntry, error) {
	c, err := m.resolveListing(path)
	if err != nil {
		return nil, err
	}
	return m.readDir(c)
}

// ListDirectory writes one line per entry of the current directory to w.
func (m *Mount) ListDirectory(w io.Writer) error {
	entries, err := m.readDir(m.cwd)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintln(w, listingLine(e)); err != nil {
			return checkpoint.From(err)
		}
	}
	return nil
}

// ReadDirectoryToBuffer writes the listing of the directory at path into buf.
// Lines which do not fit completely are left out. It returns the number of bytes written.
func (m *Mount) ReadDirectoryToBuffer(path string, buf []byte) (int, error) {
	entries, err := m.ReadDirectory(path)
	if err != nil {
		return 0, err
	}

	var out bytes.Buffer
	for _, e := range entries {
		line := listingLine(e) + "\n"
		if out.Len()+len(line) > len(buf) {
			break
		}
		out.WriteString(line)
	}
	return copy(buf, out.Bytes()), nil
}

func listingLine(e DirEntry) string {
	if e.IsDir() {
		return "[DIR] " + e.Name()
	}
	return e.Name()
}
