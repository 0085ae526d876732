package fatfs

import (
	"errors"
	"strings"

	"github.com/aligator/fatfs/checkpoint"
)

// splitPath splits path into the directory part, including its trailing slash, and the last element.
func splitPath(path string) (dir, name string) {
	for len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}
	i := strings.LastIndexByte(path, '/')
	return path[:i+1], path[i+1:]
}

// resolvePath walks path segment by segment and returns the cluster of the directory it names.
// A leading slash starts at the root, anything else at base. It never changes the current directory.
func (m *Mount) resolvePath(path string, base Cluster) (Cluster, error) {
	c := base
	if strings.HasPrefix(path, "/") {
		c = m.geo.RootCluster
	}

	for _, segment := range strings.Split(path, "/") {
		switch segment {
		case "", ".":
			continue
		case "..":
			// The root has no .. entry.
			if c == m.geo.RootCluster {
				continue
			}
		}

		next, err := m.findSubdirectory(c, segment)
		if errors.Is(err, ErrNotFound) {
			if _, fileErr := m.findEntry(c, segment); fileErr == nil {
				return 0, checkpoint.Wrapf(ErrNotDirectory, ErrNotDirectory, "segment %q of %q", segment, path)
			}
		}
		if err != nil {
			// Anything but a missing segment, like a failed read, is passed on as is.
			return 0, checkpoint.Wrapf(err, err, "segment %q of %q", segment, path)
		}
		c = next
	}
	return c, nil
}

// resolveListing resolves the path of a read only listing.
// An empty path is the current directory, relative paths start at the root.
func (m *Mount) resolveListing(path string) (Cluster, error) {
	if path == "" {
		return m.cwd, nil
	}
	return m.resolvePath(path, m.geo.RootCluster)
}

// tryDirectoryPath resolves path from the current directory and makes the result
// the new current directory. On failure the current directory is left untouched.
func (m *Mount) tryDirectoryPath(path string) error {
	c, err := m.resolvePath(path, m.cwd)
	if err != nil {
		return err
	}
	m.cwd = c
	return nil
}

// ChangeDirectory changes the current directory to path.
func (m *Mount) ChangeDirectory(path string) error {
	if err := m.tryDirectoryPath(path); err != nil {
		return err
	}
	m.log.WithField("cluster", m.cwd).Debugf("changed directory to %q", path)
	return nil
}
