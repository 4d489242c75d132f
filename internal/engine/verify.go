package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/pkarhu/ferry/internal/event"
	"github.com/pkarhu/ferry/internal/fsutil"
)

// runVerify re-reads every regular file from the task list and compares
// BLAKE3 checksums between source and destination. Mismatches, including a
// destination that went missing, are recorded as verify failures.
func (e *engine) runVerify(ctx context.Context, files []FileTask) error {
	e.emit(event.Event{Type: event.VerifyStarted})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Jobs)

	for _, task := range files {
		if task.Type != Regular {
			continue
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e.verifyFile(task)
			return nil
		})
	}
	return g.Wait()
}

func (e *engine) verifyFile(task FileTask) {
	srcSum, err := fsutil.ChecksumBLAKE3(task.SrcPath)
	if err != nil {
		e.verifyFailed(task, err)
		return
	}
	dstSum, err := fsutil.ChecksumBLAKE3(task.DstPath)
	if err != nil {
		e.verifyFailed(task, err)
		return
	}

	if srcSum != dstSum {
		e.verifyFailed(task, fmt.Errorf("checksum mismatch: src %s dst %s", srcSum[:12], dstSum[:12]))
		return
	}

	e.stats.AddFilesVerified(1)
	e.emit(event.Event{Type: event.VerifyOK, Path: task.DstPath})
}

func (e *engine) verifyFailed(task FileTask, err error) {
	e.stats.AddFilesVerifyFailed(1)
	e.emit(event.Event{Type: event.VerifyFailed, Path: task.DstPath, Error: err})
}
