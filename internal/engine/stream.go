package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkarhu/ferry/internal/event"
)

// streamMode reports whether the invocation reads stdin or writes stdout.
func (e *engine) streamMode() bool {
	if e.cfg.Dst == "-" {
		return true
	}
	for _, src := range e.cfg.Sources {
		if src == "-" {
			return true
		}
	}
	return false
}

// runStream copies a single stream: stdin to a file, a file to stdout, or
// stdin straight through to stdout. Piped standard streams are fifos, so
// these copies ride the splice path when fast paths are on.
func (e *engine) runStream(ctx context.Context) error {
	if len(e.cfg.Sources) != 1 {
		return errors.New("streaming copies take exactly one source")
	}
	srcArg := e.cfg.Sources[0]

	src := e.stdin
	var size int64
	if srcArg != "-" {
		f, err := os.Open(srcArg)
		if err != nil {
			return fmt.Errorf("source: %w", err)
		}
		defer f.Close()
		if info, statErr := f.Stat(); statErr == nil && info.Mode().IsRegular() {
			size = info.Size()
		}
		src = f
	}

	e.stats.SetTotals(1, size)
	e.emit(event.Event{Type: event.ScanComplete, Total: 1, TotalSize: size})
	e.stats.AddFilesScanned(1)

	if e.cfg.Dst == "-" {
		return e.streamToStdout(ctx, src)
	}
	return e.streamToFile(ctx, src)
}

func (e *engine) streamToStdout(ctx context.Context, src *os.File) error {
	e.emit(event.Event{Type: event.FileStarted, Path: "-"})

	n, method, err := e.copyData(ctx, e.stdout, src, "-")
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		e.stats.AddFilesFailed(1)
		e.emit(event.Event{Type: event.FileFailed, Path: "-", Error: err})
		return fmt.Errorf("copy to stdout: %w", err)
	}

	e.stats.AddFilesCopied(1)
	e.emit(event.Event{Type: event.FileCompleted, Path: "-", Size: n, Method: method.String()})
	return nil
}

func (e *engine) streamToFile(ctx context.Context, src *os.File) error {
	dstPath := e.cfg.Dst
	if info, err := os.Stat(dstPath); err == nil && info.IsDir() {
		return fmt.Errorf("destination %s is a directory", dstPath)
	}
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	e.emit(event.Event{Type: event.FileStarted, Path: dstPath})

	tmpPath := tmpPathFor(dstPath)
	tmpFiles.add(tmpPath)
	defer func() {
		tmpFiles.remove(tmpPath)
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create tmp %s: %w", tmpPath, err)
	}

	n, method, err := e.copyData(ctx, tmp, src, dstPath)
	if err != nil {
		tmp.Close()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		e.stats.AddFilesFailed(1)
		e.emit(event.Event{Type: event.FileFailed, Path: dstPath, Error: err})
		return fmt.Errorf("copy to %s: %w", dstPath, err)
	}

	if e.cfg.Fsync {
		if err := tmp.Sync(); err != nil {
			tmp.Close()
			return fmt.Errorf("fsync %s: %w", tmpPath, err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close tmp %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, dstPath); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", tmpPath, dstPath, err)
	}

	e.stats.AddFilesCopied(1)
	e.emit(event.Event{Type: event.FileCompleted, Path: dstPath, Size: n, Method: method.String()})
	return nil
}
