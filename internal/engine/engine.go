package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"golang.org/x/time/rate"

	"github.com/pkarhu/ferry/internal/event"
	"github.com/pkarhu/ferry/internal/filter"
	"github.com/pkarhu/ferry/internal/stats"
	"github.com/pkarhu/ferry/internal/xfer"
)

// Config describes one copy invocation.
type Config struct {
	// Sources are the paths to copy. "-" reads standard input.
	Sources []string
	// Dst receives the copies. "-" writes standard output.
	Dst string

	Jobs      int   // concurrent copy workers; defaults to NumCPU capped at 8
	Limit     int64 // per-source byte cap, 0 means unbounded
	BWLimit   int64 // aggregate read throttle in bytes/sec, 0 means unlimited
	Recursive bool
	Preserve  bool // clone mode, ownership and mtime
	Fsync     bool // flush file data before the final rename
	Verify    bool // re-read and compare checksums after copying

	// Excludes and Includes are rsync-style patterns applied to entries
	// found during recursive walks. Explicitly named sources always copy.
	Excludes []string
	Includes []string

	// Events receives progress events; nil disables them. Sends never
	// block: events are dropped when the channel is full.
	Events chan<- event.Event
	// Stats receives counter updates; a private collector is used if nil.
	Stats *stats.Collector

	// Stdin and Stdout back the "-" endpoints. They default to the
	// process streams and exist so tests can substitute pipes.
	Stdin  *os.File
	Stdout *os.File
}

// Result is the outcome of a copy invocation. Err reports failures that
// aborted the run; tolerated per-file failures only show up in Stats.
type Result struct {
	Stats stats.Snapshot
	Err   error
}

type engine struct {
	cfg      Config
	stats    *stats.Collector
	executor *xfer.SerialExecutor
	limiter  *rate.Limiter
	rules    *filter.Rules
	stdin    *os.File
	stdout   *os.File
	dstIsDir bool
}

// Run executes a copy invocation, blocking until it completes.
func Run(ctx context.Context, cfg Config) Result {
	if cfg.Jobs < 1 {
		cfg.Jobs = min(runtime.NumCPU(), 8)
	}

	e := &engine{
		cfg:      cfg,
		stats:    cfg.Stats,
		executor: xfer.NewSerialExecutor(),
		stdin:    cfg.Stdin,
		stdout:   cfg.Stdout,
	}
	if e.stats == nil {
		e.stats = stats.NewCollector()
	}
	if e.stdin == nil {
		e.stdin = os.Stdin
	}
	if e.stdout == nil {
		e.stdout = os.Stdout
	}
	if cfg.BWLimit > 0 {
		e.limiter = NewBWLimiter(cfg.BWLimit)
	}

	err := e.run(ctx)

	// Drain pending progress callbacks before the final snapshot.
	e.executor.Close()
	if n := CleanupTmpFiles(); n > 0 {
		slog.Warn("removed leftover temp files", "count", n)
	}

	return Result{Stats: e.stats.Snapshot(), Err: err}
}

func (e *engine) run(ctx context.Context) error {
	if len(e.cfg.Sources) == 0 {
		return errors.New("no sources given")
	}
	if e.cfg.Dst == "" {
		return errors.New("no destination given")
	}

	if len(e.cfg.Excludes) > 0 || len(e.cfg.Includes) > 0 {
		rules, err := filter.New(e.cfg.Excludes, e.cfg.Includes)
		if err != nil {
			return err
		}
		e.rules = rules
	}

	if e.streamMode() {
		return e.runStream(ctx)
	}

	// Settle the destination's shape before scanning: multiple sources
	// always land inside a directory.
	multi := len(e.cfg.Sources) > 1
	if info, err := os.Stat(e.cfg.Dst); err == nil {
		e.dstIsDir = info.IsDir()
		if multi && !e.dstIsDir {
			return fmt.Errorf("target %s is not a directory", e.cfg.Dst)
		}
	} else if multi {
		if err := os.MkdirAll(e.cfg.Dst, 0o755); err != nil {
			return fmt.Errorf("create destination: %w", err)
		}
		e.dstIsDir = true
	}

	e.emit(event.Event{Type: event.ScanStarted})
	res, err := e.scan(ctx)
	if err != nil {
		return err
	}
	e.stats.SetTotals(int64(len(res.files)), res.bytes)
	e.emit(event.Event{
		Type:      event.ScanComplete,
		Total:     int64(len(res.files)),
		TotalSize: res.bytes,
	})

	e.makeDirs(res.dirs)
	if err := e.runCopy(ctx, res.files); err != nil {
		return err
	}
	if e.cfg.Preserve {
		e.restoreDirTimes(res.dirs)
	}
	if e.cfg.Verify {
		return e.runVerify(ctx, res.files)
	}
	return nil
}

// emit sends an event without blocking; events are dropped when the
// channel is full rather than stalling a copy.
func (e *engine) emit(ev event.Event) {
	if e.cfg.Events == nil {
		return
	}
	ev.Timestamp = time.Now()
	select {
	case e.cfg.Events <- ev:
	default:
	}
}
