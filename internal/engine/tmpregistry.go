package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// tmpSuffix marks in-progress destination files so interrupted runs can be
// recognized and removed.
const tmpSuffix = ".ferry-tmp"

// tmpPathFor returns a hidden sibling path used to write dstPath before the
// final rename. The uuid fragment keeps concurrent runs from colliding.
func tmpPathFor(dstPath string) string {
	dir := filepath.Dir(dstPath)
	base := filepath.Base(dstPath)
	return filepath.Join(dir, fmt.Sprintf(".%s.%s%s", base, uuid.New().String()[:8], tmpSuffix))
}

// tmpFiles tracks in-progress temporary files so an aborted run can remove
// them on the way out.
var tmpFiles = &tmpRegistry{}

type tmpRegistry struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

func (r *tmpRegistry) add(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.paths == nil {
		r.paths = make(map[string]struct{})
	}
	r.paths[path] = struct{}{}
}

func (r *tmpRegistry) remove(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.paths, path)
}

// CleanupTmpFiles removes every registered temporary file and reports how
// many were removed. Workers deregister their own files on completion, so
// anything still registered belongs to an interrupted copy.
func CleanupTmpFiles() int {
	tmpFiles.mu.Lock()
	paths := make([]string, 0, len(tmpFiles.paths))
	for p := range tmpFiles.paths {
		paths = append(paths, p)
	}
	tmpFiles.paths = nil
	tmpFiles.mu.Unlock()

	removed := 0
	for _, p := range paths {
		if err := os.Remove(p); err == nil {
			removed++
		}
	}
	return removed
}
