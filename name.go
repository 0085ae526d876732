package fatfs

import (
	"strings"
)

const (
	shortNameLen = 8
	shortExtLen  = 3
)

// formatFilename turns the raw 8.3 name into NAME.EXT, without the padding
// and without the dot if there is no extension.
func formatFilename(raw [11]byte) string {
	if raw[0] == entryKanji {
		raw[0] = entryDeleted
	}

	name := strings.TrimRight(string(raw[:shortNameLen]), " ")
	ext := strings.TrimRight(string(raw[shortNameLen:]), " ")

	if ext != "" {
		name += "."
	}

	return name + ext
}

// compareNames reports if the raw 8.3 name matches the user supplied name, ignoring case.
// The end of the user name (or its dot) requires the rest of the raw part to be padding.
func compareNames(raw [11]byte, name string) bool {
	if name == "." || name == ".." {
		return raw == to83(name)
	}

	i := 0
	for n := 0; n < shortNameLen; n++ {
		if i >= len(name) || name[i] == '.' {
			if raw[n] != ' ' {
				return false
			}
			continue
		}
		if upper(name[i]) != raw[n] {
			return false
		}
		i++
	}

	if i < len(name) {
		if name[i] != '.' {
			return false
		}
		i++
	}

	for n := shortNameLen; n < shortNameLen+shortExtLen; n++ {
		if i >= len(name) {
			if raw[n] != ' ' {
				return false
			}
			continue
		}
		if upper(name[i]) != raw[n] {
			return false
		}
		i++
	}

	return i == len(name)
}

// to83 converts a user name into the raw, space padded 8.3 form.
// It copies at most 8 valid characters before the first dot and 3 after it.
func to83(name string) [11]byte {
	var raw [11]byte
	for i := range raw {
		raw[i] = ' '
	}

	switch name {
	case ".":
		raw[0] = '.'
		return raw
	case "..":
		raw[0] = '.'
		raw[1] = '.'
		return raw
	}

	base, ext := name, ""
	if dot := strings.IndexByte(name, '.'); dot >= 0 {
		base, ext = name[:dot], name[dot+1:]
	}

	copyShort(raw[:shortNameLen], base)
	copyShort(raw[shortNameLen:], ext)
	return raw
}

func copyShort(dst []byte, src string) {
	n := 0
	for i := 0; i < len(src) && n < len(dst); i++ {
		if !validShortChar(src[i]) {
			continue
		}
		dst[n] = upper(src[i])
		n++
	}
}

// validShortName reports if name is stored by to83 without losing anything.
func validShortName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}

	base, ext := name, ""
	if dot := strings.IndexByte(name, '.'); dot >= 0 {
		base, ext = name[:dot], name[dot+1:]
		if ext == "" {
			return false
		}
	}
	if base == "" || len(base) > shortNameLen || len(ext) > shortExtLen {
		return false
	}

	for i := 0; i < len(base); i++ {
		if !validShortChar(base[i]) {
			return false
		}
	}
	for i := 0; i < len(ext); i++ {
		if !validShortChar(ext[i]) {
			return false
		}
	}
	return true
}

// validShortChar reports the characters allowed in short names besides letters and digits.
func validShortChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("$%'-_@~`!(){}^#&", c) >= 0
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}
