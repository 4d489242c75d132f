package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// DeleteOlderFiles deletes entries in dir that are beyond the newest
// minCount and older than minAge, reporting whether anything was deleted.
// Deletion is best effort; a directory that cannot be removed is skipped.
// Negative constraints are an error.
func DeleteOlderFiles(dir string, minCount int, minAge time.Duration) (bool, error) {
	if minCount < 0 || minAge < 0 {
		return false, fmt.Errorf("constraints must be zero or positive")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read dir %s: %w", dir, err)
	}

	type candidate struct {
		path string
		mod  time.Time
	}
	files := make([]candidate, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, candidate{
			path: filepath.Join(dir, e.Name()),
			mod:  info.ModTime(),
		})
	}

	// Newest first; the first minCount entries are always kept.
	sort.Slice(files, func(i, j int) bool { return files[i].mod.After(files[j].mod) })

	now := time.Now()
	deleted := false
	for _, f := range files[min(minCount, len(files)):] {
		if now.Sub(f.mod) > minAge {
			if err := os.Remove(f.path); err == nil {
				deleted = true
			}
		}
	}
	return deleted, nil
}

// DeleteContents removes everything inside dir but not dir itself. It
// keeps going past individual failures and returns the first one.
func DeleteContents(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", dir, err)
	}

	var firstErr error
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		var err error
		if e.IsDir() {
			err = os.RemoveAll(path)
		} else {
			err = os.Remove(path)
		}
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("delete %s: %w", path, err)
		}
	}
	return firstErr
}

// DeleteContentsAndDir removes everything inside dir and then dir itself.
func DeleteContentsAndDir(dir string) error {
	if err := DeleteContents(dir); err != nil {
		return err
	}
	if err := os.Remove(dir); err != nil {
		return fmt.Errorf("delete %s: %w", dir, err)
	}
	return nil
}
