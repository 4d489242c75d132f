package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fatih/color"

	"github.com/pkarhu/ferry/internal/stats"
)

const (
	progressBarWidth = 20
	defaultTermWidth = 80
	redrawInterval   = 100 * time.Millisecond
	drawMinInterval  = 50 * time.Millisecond // don't redraw faster than this
)

var (
	styleDim  = color.New(color.Faint)
	styleOK   = color.New(color.FgGreen)
	styleFail = color.New(color.FgRed)
)

// progressPresenter provides a TTY display with a scrolling feed of
// completed files and a 2-line progress block that redraws in place.
type progressPresenter struct {
	w         io.Writer
	collector *stats.Collector
	root      string
	width     int
	verbose   bool

	drawn     bool
	lineCount int
	lastDraw  time.Time
}

func (p *progressPresenter) Run(events <-chan Event) error {
	if p.width <= 0 {
		p.width = defaultTermWidth
	}

	// Fire the first tick quickly to seed the ring buffer with speed data,
	// then switch to a 1s interval.
	secTicker := time.NewTicker(250 * time.Millisecond)
	defer secTicker.Stop()
	firstTickDone := false

	// Redraw ticker for when no events are flowing (e.g. a large file copy).
	redrawTicker := time.NewTicker(redrawInterval)
	defer redrawTicker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				p.clear()
				return nil
			}
			p.handleEvent(ev)
			p.maybeDraw()

		case <-redrawTicker.C:
			p.draw()

		case <-secTicker.C:
			p.collector.Tick()
			if !firstTickDone {
				firstTickDone = true
				secTicker.Reset(time.Second)
			}
		}
	}
}

func (p *progressPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case FileCompleted:
		p.clear()
		p.printCompleted(ev)
		p.draw()

	case FileFailed:
		p.clear()
		p.printFailed(ev)
		p.draw()

	case FileSkipped:
		p.clear()
		fmt.Fprintf(p.w, "–  %s  %10s  %s\n",
			p.styledPath(ev.Path), FormatBytes(ev.Size), styleDim.Sprint("skipped"))
		p.draw()

	case VerifyStarted:
		p.clear()
		fmt.Fprintln(p.w, styleDim.Sprint("verifying checksums..."))

	case VerifyOK:
		if p.verbose {
			p.clear()
			fmt.Fprintf(p.w, "%s  %s  %s\n",
				styleOK.Sprint("✓"), p.styledPath(ev.Path), styleDim.Sprint("checksum ok"))
			p.draw()
		}

	case VerifyFailed:
		p.clear()
		fmt.Fprintf(p.w, "%s  %s  CHECKSUM MISMATCH\n",
			styleFail.Sprint("✗"), p.styledPath(ev.Path))
		p.draw()
	}
}

func (p *progressPresenter) printCompleted(ev Event) {
	line := fmt.Sprintf("%s  %s  %10s",
		styleOK.Sprint("✓"), p.styledPath(ev.Path), FormatBytes(ev.Size))
	if speed := p.collector.RollingSpeed(5); speed > 0 {
		line += "  " + FormatRate(speed)
	}
	if p.verbose && ev.Method != "" {
		line += "  " + styleDim.Sprint(ev.Method)
	}
	fmt.Fprintln(p.w, line)
}

func (p *progressPresenter) printFailed(ev Event) {
	errMsg := "error"
	if ev.Error != nil {
		errMsg = ev.Error.Error()
	}
	fmt.Fprintf(p.w, "%s  %s  %10s  %s\n",
		styleFail.Sprint("✗"), p.styledPath(ev.Path), FormatBytes(ev.Size), errMsg)
}

// maybeDraw redraws the block if enough time has passed since the last draw.
func (p *progressPresenter) maybeDraw() {
	if time.Since(p.lastDraw) < drawMinInterval {
		return
	}
	p.draw()
}

func (p *progressPresenter) draw() {
	snap := p.collector.Snapshot()
	p.clear()

	speed := p.collector.RollingSpeed(10)

	if snap.BytesTotal > 0 {
		pct := float64(snap.BytesCopied) / float64(snap.BytesTotal)
		fmt.Fprintf(p.w, " %3.0f%%  %s  %s / %s  %s\n",
			pct*100, ProgressBar(pct, progressBarWidth),
			FormatBytes(snap.BytesCopied), FormatBytes(snap.BytesTotal),
			FormatRate(speed))
		fmt.Fprintf(p.w, "       %s / %s files   eta %s\n",
			FormatCount(snap.FilesCopied), FormatCount(snap.FilesTotal),
			FormatETA(p.collector.ETA()))
	} else {
		// Totals unknown (scan still running or reading a stream).
		fmt.Fprintf(p.w, " %s copied   %s\n",
			FormatBytes(snap.BytesCopied), FormatRate(speed))
		fmt.Fprintf(p.w, " %s files   elapsed %s\n",
			FormatCount(snap.FilesCopied), FormatDuration(snap.Elapsed))
	}

	p.drawn = true
	p.lineCount = 2
	p.lastDraw = time.Now()
}

func (p *progressPresenter) clear() {
	if !p.drawn {
		return
	}
	// Move the cursor up and clear to end of screen.
	fmt.Fprintf(p.w, "\033[%dA\033[J", p.lineCount)
	p.drawn = false
}

func (p *progressPresenter) Summary() string {
	return CompletionSummary(p.collector.Snapshot())
}

// styledPath strips the destination root, trims the path to fit the
// terminal, and dims the directory portion so the filename stands out.
func (p *progressPresenter) styledPath(path string) string {
	width := p.width
	if width <= 0 {
		width = defaultTermWidth
	}
	path = truncPath(StripRoot(p.root, path), width-32)
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if dir == "." || dir == "" {
		return base
	}
	return styleDim.Sprint(dir+"/") + base
}
