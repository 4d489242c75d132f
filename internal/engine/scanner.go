package engine

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkarhu/ferry/internal/event"
)

// scanResult is the flattened work list for one invocation. Directory
// tasks are ordered parents before children.
type scanResult struct {
	dirs  []FileTask
	files []FileTask // Regular and Symlink tasks
	bytes int64      // total regular-file bytes
}

// scan expands the configured sources into tasks. A missing or malformed
// source argument aborts the scan; entries that fail during a recursive
// walk are reported as failures and skipped instead.
func (e *engine) scan(ctx context.Context) (scanResult, error) {
	var res scanResult
	multi := len(e.cfg.Sources) > 1

	for _, src := range e.cfg.Sources {
		info, err := os.Stat(src)
		if err != nil {
			return res, fmt.Errorf("source: %w", err)
		}

		if info.IsDir() {
			if !e.cfg.Recursive {
				return res, fmt.Errorf("source %s is a directory (use -r)", src)
			}
			dstRoot := e.cfg.Dst
			if multi {
				dstRoot = filepath.Join(e.cfg.Dst, filepath.Base(src))
			}
			if err := e.walkTree(ctx, src, dstRoot, &res); err != nil {
				return res, err
			}
			continue
		}

		// Explicit non-directory sources are copied by content, so fifos
		// and character devices work as stream-like inputs.
		dstPath := e.cfg.Dst
		if e.dstIsDir {
			dstPath = filepath.Join(e.cfg.Dst, filepath.Base(src))
		}
		task, err := taskFromInfo(src, dstPath, info)
		if err != nil {
			return res, err
		}
		res.files = append(res.files, task)
		if info.Mode().IsRegular() {
			res.bytes += task.Size
		}
	}

	return res, nil
}

// walkTree walks srcRoot and appends one task per entry, mapping each to
// the same relative position under dstRoot. The walk includes srcRoot
// itself, so the first directory task creates dstRoot.
func (e *engine) walkTree(ctx context.Context, srcRoot, dstRoot string, res *scanResult) error {
	return filepath.WalkDir(srcRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(srcRoot, path)
		if err != nil {
			return err
		}
		dstPath := filepath.Join(dstRoot, rel)

		if e.rules != nil && rel != "." && d != nil && !e.rules.Match(rel, d.IsDir()) {
			slog.Debug("filtered", "path", path)
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if walkErr != nil {
			e.scanFailed(dstPath, walkErr)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		switch {
		case d.IsDir():
			task, err := dirEntryTask(path, dstPath, d)
			if err != nil {
				e.scanFailed(dstPath, err)
				return fs.SkipDir
			}
			task.Type = Dir
			res.dirs = append(res.dirs, task)

		case d.Type()&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				e.scanFailed(dstPath, err)
				return nil
			}
			res.files = append(res.files, FileTask{
				SrcPath:    path,
				DstPath:    dstPath,
				Type:       Symlink,
				LinkTarget: target,
			})

		case d.Type().IsRegular():
			task, err := dirEntryTask(path, dstPath, d)
			if err != nil {
				e.scanFailed(dstPath, err)
				return nil
			}
			res.files = append(res.files, task)
			res.bytes += task.Size

		default:
			// Sockets, fifos and devices inside a tree are skipped;
			// reading them could block forever.
			e.stats.AddFilesSkipped(1)
			e.emit(event.Event{Type: event.FileSkipped, Path: dstPath})
		}
		return nil
	})
}

func dirEntryTask(path, dstPath string, d fs.DirEntry) (FileTask, error) {
	info, err := d.Info()
	if err != nil {
		return FileTask{}, err
	}
	return taskFromInfo(path, dstPath, info)
}

// scanFailed records an entry that could not be scanned.
func (e *engine) scanFailed(dstPath string, err error) {
	e.stats.AddFilesFailed(1)
	e.emit(event.Event{Type: event.FileFailed, Path: dstPath, Error: err})
}
