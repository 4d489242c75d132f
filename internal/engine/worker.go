package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/pkarhu/ferry/internal/event"
	"github.com/pkarhu/ferry/internal/fsutil"
	"github.com/pkarhu/ferry/internal/xfer"
)

// makeDirs creates every directory task up front, parents before children,
// so file workers never race against directory creation.
func (e *engine) makeDirs(dirs []FileTask) {
	for _, task := range dirs {
		if err := os.MkdirAll(task.DstPath, os.FileMode(task.Mode&0o777)); err != nil {
			_ = e.fileFailed(task, fmt.Errorf("mkdir %s: %w", task.DstPath, err))
			continue
		}
		if e.cfg.Preserve {
			if err := fsutil.SetPermissions(task.DstPath, task.Mode, -1, -1); err != nil {
				slog.Warn("preserve dir mode", "path", task.DstPath, "err", err)
			}
			// Ownership is best-effort; changing it needs CAP_CHOWN.
			_ = unix.Chown(task.DstPath, int(task.UID), int(task.GID))
		}
		e.stats.AddDirsCreated(1)
		e.emit(event.Event{Type: event.DirCreated, Path: task.DstPath})
	}
}

// restoreDirTimes reapplies directory modification times after all
// children are in place, since writing entries bumps the parent's mtime.
func (e *engine) restoreDirTimes(dirs []FileTask) {
	for _, task := range dirs {
		if err := os.Chtimes(task.DstPath, task.ModTime, task.ModTime); err != nil {
			slog.Warn("preserve dir times", "path", task.DstPath, "err", err)
		}
	}
}

// runCopy fans file tasks out to a bounded worker group. Per-file failures
// are recorded and tolerated; only cancellation aborts the group.
func (e *engine) runCopy(ctx context.Context, files []FileTask) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Jobs)

	for _, task := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if task.Type == Symlink {
				return e.createSymlink(task)
			}
			return e.copyFile(gctx, task)
		})
	}
	return g.Wait()
}

func (e *engine) copyFile(ctx context.Context, task FileTask) error {
	e.stats.AddFilesScanned(1)
	e.emit(event.Event{Type: event.FileStarted, Path: task.DstPath, Size: task.Size})

	src, err := os.Open(task.SrcPath)
	if err != nil {
		return e.fileFailed(task, fmt.Errorf("open %s: %w", task.SrcPath, err))
	}
	defer src.Close()

	if dstInfo, statErr := os.Stat(task.DstPath); statErr == nil {
		if srcInfo, fdErr := src.Stat(); fdErr == nil && os.SameFile(srcInfo, dstInfo) {
			return e.fileFailed(task,
				fmt.Errorf("%s and %s are the same file", task.SrcPath, task.DstPath))
		}
	}

	// Parent may be missing when a directory task failed earlier.
	if err := os.MkdirAll(filepath.Dir(task.DstPath), 0o755); err != nil {
		return e.fileFailed(task, fmt.Errorf("create parent dir: %w", err))
	}

	tmpPath := tmpPathFor(task.DstPath)
	tmpFiles.add(tmpPath)
	defer func() {
		tmpFiles.remove(tmpPath)
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, os.FileMode(task.Mode&0o777))
	if err != nil {
		return e.fileFailed(task, fmt.Errorf("create tmp %s: %w", tmpPath, err))
	}

	written, method, err := e.copyData(ctx, tmp, src, task.DstPath)
	if err != nil {
		tmp.Close()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return e.fileFailed(task, fmt.Errorf("copy %s: %w", task.SrcPath, err))
	}

	if e.cfg.Preserve {
		if err := applyMetadata(tmp, tmpPath, task); err != nil {
			tmp.Close()
			return e.fileFailed(task, err)
		}
	}

	if e.cfg.Fsync {
		if err := tmp.Sync(); err != nil {
			tmp.Close()
			return e.fileFailed(task, fmt.Errorf("fsync %s: %w", tmpPath, err))
		}
	}

	if err := tmp.Close(); err != nil {
		return e.fileFailed(task, fmt.Errorf("close tmp %s: %w", tmpPath, err))
	}

	if err := os.Rename(tmpPath, task.DstPath); err != nil {
		return e.fileFailed(task, fmt.Errorf("rename %s -> %s: %w", tmpPath, task.DstPath, err))
	}

	e.stats.AddFilesCopied(1)
	e.emit(event.Event{
		Type:   event.FileCompleted,
		Path:   task.DstPath,
		Size:   written,
		Method: method.String(),
	})
	return nil
}

func (e *engine) createSymlink(task FileTask) error {
	e.stats.AddFilesScanned(1)
	if err := os.MkdirAll(filepath.Dir(task.DstPath), 0o755); err != nil {
		return e.fileFailed(task, fmt.Errorf("create parent dir: %w", err))
	}
	_ = os.Remove(task.DstPath)

	if err := os.Symlink(task.LinkTarget, task.DstPath); err != nil {
		return e.fileFailed(task, fmt.Errorf("symlink %s -> %s: %w", task.DstPath, task.LinkTarget, err))
	}

	e.stats.AddFilesCopied(1)
	e.emit(event.Event{Type: event.FileCompleted, Path: task.DstPath, Method: "symlink"})
	return nil
}

// copyData moves bytes through the transfer engine, streaming progress
// into the stats collector and the event channel.
func (e *engine) copyData(ctx context.Context, dst io.Writer, src io.Reader, label string) (int64, xfer.Method, error) {
	in := src
	if e.limiter != nil {
		in = newRateLimitedReader(ctx, src, e.limiter)
	}
	method := xfer.DetectMethod(dst, in)
	slog.Debug("copy", "path", label, "method", method.String())

	// Callbacks for one copy run in order on the shared executor, so prev
	// is never touched concurrently.
	var prev int64
	progress := func(copied int64) {
		e.stats.AddBytesCopied(copied - prev)
		prev = copied
		e.emit(event.Event{Type: event.FileProgress, Path: label, Size: copied})
	}

	opts := []xfer.Option{xfer.WithProgress(e.executor, progress)}
	if e.cfg.Limit > 0 {
		opts = append(opts, xfer.WithLimit(e.cfg.Limit))
	}
	n, err := xfer.Copy(ctx, dst, in, opts...)
	return n, method, err
}

// applyMetadata clones source mode, ownership and mtime onto the open temp
// file before it is renamed into place.
func applyMetadata(f *os.File, path string, task FileTask) error {
	if err := fsutil.SetPermissionsFile(f, task.Mode, -1, -1); err != nil {
		return err
	}

	rawFd := int(f.Fd())
	// Ownership is best-effort; changing it needs CAP_CHOWN.
	_ = unix.Fchown(rawFd, int(task.UID), int(task.GID))

	return setFileTimes(rawFd, path, task.ModTime)
}

// fileFailed records a per-file failure without aborting the run. It
// returns nil so callers can surface it as a tolerated error.
func (e *engine) fileFailed(task FileTask, err error) error {
	e.stats.AddFilesFailed(1)
	e.emit(event.Event{Type: event.FileFailed, Path: task.DstPath, Size: task.Size, Error: err})
	return nil
}
