package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/pkarhu/ferry/internal/stats"
)

const plainProgressInterval = 5 * time.Second

// plainPresenter emits one line per finished file plus a periodic progress
// line on stderr. The default whenever stderr is not a terminal.
type plainPresenter struct {
	w         io.Writer
	errW      io.Writer
	collector *stats.Collector
	root      string
	verbose   bool
}

func (p *plainPresenter) Run(events <-chan Event) error {
	tick := time.NewTicker(plainProgressInterval)
	defer tick.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.printEvent(ev)
		case <-tick.C:
			p.progressLine()
		}
	}
}

func (p *plainPresenter) printEvent(ev Event) {
	path := StripRoot(p.root, ev.Path)
	switch ev.Type {
	case FileCompleted:
		if p.verbose && ev.Method != "" {
			fmt.Fprintf(p.w, "%s  %s  %s\n", path, FormatBytes(ev.Size), ev.Method)
		} else {
			fmt.Fprintf(p.w, "%s  %s\n", path, FormatBytes(ev.Size))
		}
	case FileFailed:
		msg := "error"
		if ev.Error != nil {
			msg = ev.Error.Error()
		}
		fmt.Fprintf(p.w, "%s  %s  %s\n", path, FormatBytes(ev.Size), msg)
	case FileSkipped:
		fmt.Fprintf(p.w, "%s  skipped\n", path)
	case VerifyStarted:
		fmt.Fprintln(p.w, "verifying...")
	case VerifyFailed:
		fmt.Fprintf(p.w, "MISMATCH: %s\n", path)
	}
}

func (p *plainPresenter) progressLine() {
	snap := p.collector.Snapshot()
	avg := 0.0
	if sec := snap.Elapsed.Seconds(); sec > 0 {
		avg = float64(snap.BytesCopied) / sec
	}

	if snap.BytesTotal <= 0 {
		fmt.Fprintf(p.errW, "progress: %s copied  %s files\n",
			FormatBytes(snap.BytesCopied), FormatCount(snap.FilesCopied))
		return
	}
	pct := float64(snap.BytesCopied) / float64(snap.BytesTotal) * 100
	fmt.Fprintf(p.errW, "progress: %.0f%%  %s / %s  %s / %s files  %s\n",
		pct,
		FormatBytes(snap.BytesCopied), FormatBytes(snap.BytesTotal),
		FormatCount(snap.FilesCopied), FormatCount(snap.FilesTotal),
		FormatRate(avg),
	)
}

func (p *plainPresenter) Summary() string {
	return CompletionSummary(p.collector.Snapshot())
}
