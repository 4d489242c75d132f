package fsutil

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// ErrUniqueFileExhausted is returned when no unique name could be found
// within the retry budget.
var ErrUniqueFileExhausted = errors.New("no unique filename available")

const (
	uniqueRetryLimit = 32

	defaultMIMEType   = "application/octet-stream"
	directoryMIMEType = "inode/directory"
)

// UniqueFile returns a path under parent for displayName that does not yet
// exist, appending " (n)" before the extension on conflict. After 32
// attempts it gives up with ErrUniqueFileExhausted.
func UniqueFile(parent, displayName string) (string, error) {
	name, ext := splitExt(displayName)
	return uniqueFile(parent, name, ext)
}

// UniqueFileForType is UniqueFile with MIME-aware extension handling: the
// display name's extension is kept when it agrees with mimeType and
// replaced by the type's canonical extension when it does not.
func UniqueFileForType(parent, mimeType, displayName string) (string, error) {
	name, ext := SplitFileName(mimeType, displayName)
	return uniqueFile(parent, name, ext)
}

// SplitFileName reconciles a display name with a MIME type, returning the
// base name and the extension (without the dot) to use. Directories never
// get an extension.
func SplitFileName(mimeType, displayName string) (name, ext string) {
	if mimeType == directoryMIMEType {
		return displayName, ""
	}

	name, ext = splitExt(displayName)

	mimeFromExt := ""
	if ext != "" {
		if t := mime.TypeByExtension("." + strings.ToLower(ext)); t != "" {
			mimeFromExt = baseMIMEType(t)
		}
	}
	if mimeFromExt == "" {
		mimeFromExt = defaultMIMEType
	}

	extFromMIME := ""
	if mimeType != "" && mimeType != defaultMIMEType {
		if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
			extFromMIME = strings.TrimPrefix(exts[0], ".")
		}
	}

	if strings.EqualFold(mimeType, mimeFromExt) || strings.EqualFold(ext, extFromMIME) {
		// The requested extension maps back to the requested type; keep it.
		return name, ext
	}

	// No match; the created file must reflect the requested type.
	return displayName, extFromMIME
}

func splitExt(displayName string) (name, ext string) {
	if i := strings.LastIndexByte(displayName, '.'); i >= 0 {
		return displayName[:i], displayName[i+1:]
	}
	return displayName, ""
}

func baseMIMEType(t string) string {
	if base, _, ok := strings.Cut(t, ";"); ok {
		return strings.TrimSpace(base)
	}
	return t
}

func uniqueFile(parent, name, ext string) (string, error) {
	path := buildPath(parent, name, ext)
	n := 0
	for {
		if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
			return path, nil
		}
		n++
		if n > uniqueRetryLimit {
			return "", ErrUniqueFileExhausted
		}
		path = buildPath(parent, fmt.Sprintf("%s (%d)", name, n), ext)
	}
}

func buildPath(parent, name, ext string) string {
	if ext == "" {
		return filepath.Join(parent, name)
	}
	return filepath.Join(parent, name+"."+ext)
}
