package fatfs

import (
	"os"
	"path"
	"time"
)

func (e DirEntry) FileInfo() os.FileInfo {
	return entryFileInfo{e}
}

type entryFileInfo struct {
	entry DirEntry
}

func (e entryFileInfo) Name() string {
	return e.entry.Name()
}

func (e entryFileInfo) Size() int64 {
	return e.entry.Size()
}

func (e entryFileInfo) Mode() os.FileMode {
	mode := os.FileMode(0666)
	if e.entry.Attribute&AttrReadOnly == AttrReadOnly {
		mode = 0444
	}
	if e.IsDir() {
		return os.ModeDir | mode | 0111
	}
	return mode
}

func (e entryFileInfo) ModTime() time.Time {
	writeDate := ParseDate(e.entry.WriteDate)
	writeTime := ParseTime(e.entry.WriteTime)

	// If the date IsZero() it contained any invalid value in which case we return time.Time{}.
	// For writeTime we cannot do that because writeTime.IsZero() is perfectly valid.
	if writeDate.IsZero() {
		return time.Time{}
	}

	return time.Date(writeDate.Year(), writeDate.Month(), writeDate.Day(), writeTime.Hour(), writeTime.Minute(), writeTime.Second(), 0, time.UTC)
}

func (e entryFileInfo) IsDir() bool {
	return e.entry.IsDir()
}

func (e entryFileInfo) Sys() interface{} {
	return e.entry
}

// dirFileInfo describes directories opened by path only, like the root, which have no entry.
type dirFileInfo struct {
	name string
}

func (d dirFileInfo) Name() string {
	name := path.Base(d.name)
	if name == "." || name == "" {
		return "/"
	}
	return name
}

func (d dirFileInfo) Size() int64        { return 0 }
func (d dirFileInfo) Mode() os.FileMode  { return os.ModeDir | 0777 }
func (d dirFileInfo) ModTime() time.Time { return time.Time{} }
func (d dirFileInfo) IsDir() bool        { return true }
func (d dirFileInfo) Sys() interface{}   { return nil }
