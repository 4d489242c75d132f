package ui

import (
	"fmt"
	"strings"

	"github.com/pkarhu/ferry/internal/stats"
)

// CompletionSummary builds the end-of-run line from a snapshot, e.g.
// done ✓  files 48,917  size 2.1 GiB  avg 641 MB/s  time 3m 17s  errors 0
func CompletionSummary(snap stats.Snapshot) string {
	avg := 0.0
	if sec := snap.Elapsed.Seconds(); sec > 0 {
		avg = float64(snap.BytesCopied) / sec
	}
	errs := snap.FilesFailed + snap.FilesVerifyFailed

	icon := "✓"
	if errs > 0 {
		icon = "✗"
	}

	parts := []string{
		"done " + icon,
		"files " + FormatCount(snap.FilesCopied),
		"size " + FormatBytes(snap.BytesCopied),
		"avg " + FormatRate(avg),
		"time " + FormatDuration(snap.Elapsed),
	}
	if snap.FilesVerified > 0 || snap.FilesVerifyFailed > 0 {
		parts = append(parts, "verified "+FormatCount(snap.FilesVerified))
	}
	parts = append(parts, fmt.Sprintf("errors %d", errs))

	return strings.Join(parts, "  ")
}
