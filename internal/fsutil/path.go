package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Contains reports whether dir contains path, judged purely lexically:
// no symlink resolution or path cleaning happens. A path equal to dir
// counts as contained.
func Contains(dir, path string) bool {
	if dir == "" || path == "" {
		return false
	}
	if dir == path {
		return true
	}
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	return strings.HasPrefix(path, dir)
}

// ContainsAny reports whether any of dirs contains path.
func ContainsAny(dirs []string, path string) bool {
	for _, dir := range dirs {
		if Contains(dir, path) {
			return true
		}
	}
	return false
}

// RewriteAfterRename translates path from beforeDir into afterDir after a
// directory rename. The second return is false when path was not under
// beforeDir to begin with.
func RewriteAfterRename(beforeDir, afterDir, path string) (string, bool) {
	if beforeDir == "" || afterDir == "" || !Contains(beforeDir, path) {
		return "", false
	}
	return filepath.Join(afterDir, strings.TrimPrefix(path, beforeDir)), true
}

// RoundStorageSize rounds a byte count up to the nearest value a disk
// would be marketed as: 1, 2, 4 ... 512 times a power of 1000.
func RoundStorageSize(size int64) int64 {
	val := int64(1)
	pow := int64(1)
	for val*pow < size {
		val <<= 1
		if val > 512 {
			val = 1
			pow *= 1000
		}
	}
	return val * pow
}

// CreateDir creates dir, tolerating a directory that already exists. An
// existing non-directory at the path is an error.
func CreateDir(dir string) error {
	err := os.Mkdir(dir, 0755)
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrExist) {
		info, statErr := os.Stat(dir)
		if statErr == nil && info.IsDir() {
			return nil
		}
		return fmt.Errorf("create dir %s: exists and is not a directory", dir)
	}
	return fmt.Errorf("create dir %s: %w", dir, err)
}
