package fsutil

import (
	"regexp"
	"strings"
)

const maxFilenameBytes = 255

var safeFilenamePattern = regexp.MustCompile(`^[\w%+,./=_-]+$`)

// IsFilenameSafe reports whether path consists only of a conservative
// character class that is safe to pass between processes unquoted.
func IsFilenameSafe(path string) bool {
	return safeFilenamePattern.MatchString(path)
}

// IsValidExtFilename reports whether name survives SanitizeExtFilename
// unchanged.
func IsValidExtFilename(name string) bool {
	return name != "" && name == SanitizeExtFilename(name)
}

// SanitizeExtFilename returns name with every character ext filesystems
// reject replaced by '_'. Empty, "." and ".." collapse to "(invalid)" and
// the result is trimmed to 255 UTF-8 bytes.
func SanitizeExtFilename(name string) string {
	return sanitizeFilename(name, validExtRune)
}

func validExtRune(r rune) bool {
	switch r {
	case 0, '/':
		return false
	}
	return true
}

// IsValidFatFilename reports whether name survives SanitizeFatFilename
// unchanged.
func IsValidFatFilename(name string) bool {
	return name != "" && name == SanitizeFatFilename(name)
}

// SanitizeFatFilename is SanitizeExtFilename for FAT filesystems, which
// additionally reject control characters, DEL and the usual punctuation
// set.
func SanitizeFatFilename(name string) string {
	return sanitizeFilename(name, validFatRune)
}

func validFatRune(r rune) bool {
	if r <= 0x1f || r == 0x7f {
		return false
	}
	switch r {
	case '"', '*', '/', ':', '<', '>', '?', '\\', '|':
		return false
	}
	return true
}

func sanitizeFilename(name string, valid func(rune) bool) string {
	if name == "" || name == "." || name == ".." {
		return "(invalid)"
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if valid(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return TrimFilename(b.String(), maxFilenameBytes)
}

// TrimFilename caps name at maxBytes UTF-8 bytes by dropping runes from
// the middle and marking the cut with "...". Names already within the cap
// come back untouched.
func TrimFilename(name string, maxBytes int) string {
	if len(name) <= maxBytes {
		return name
	}
	runes := []rune(name)
	budget := maxBytes - 3
	for len(runes) > 0 && len(string(runes)) > budget {
		mid := len(runes) / 2
		runes = append(runes[:mid], runes[mid+1:]...)
	}
	mid := len(runes) / 2
	return string(runes[:mid]) + "..." + string(runes[mid:])
}
