package ui

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkarhu/ferry/internal/stats"
)

var rateUnits = [...]string{"B/s", "KB/s", "MB/s", "GB/s", "TB/s"}

// FormatRate renders a bytes-per-second rate, scaling precision so the
// number stays around three significant digits.
func FormatRate(bytesPerSec float64) string {
	if bytesPerSec <= 0 {
		return "0 B/s"
	}
	val := bytesPerSec
	idx := 0
	for val >= 1024 && idx < len(rateUnits) {
		val /= 1024
		idx++
	}
	if idx == len(rateUnits) {
		return fmt.Sprintf("%.1f PB/s", val)
	}
	switch {
	case val < 10:
		return fmt.Sprintf("%.2f %s", val, rateUnits[idx])
	case val < 100:
		return fmt.Sprintf("%.1f %s", val, rateUnits[idx])
	default:
		return fmt.Sprintf("%.0f %s", val, rateUnits[idx])
	}
}

// FormatETA renders a remaining-time estimate; nonpositive means unknown.
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return "--"
	}
	return FormatDuration(d)
}

// FormatDuration renders d as h/m/s parts, dropping leading zero units.
func FormatDuration(d time.Duration) string {
	s := int(d.Round(time.Second).Seconds())
	h, m := s/3600, s/60%60
	s %= 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// FormatCount groups digits with commas.
func FormatCount(n int64) string {
	if n < 0 {
		return "-" + FormatCount(-n)
	}
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	groups := (len(s) + 2) / 3
	var b strings.Builder
	b.Grow(len(s) + groups - 1)
	lead := len(s) - (groups-1)*3
	b.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// ProgressBar renders pct (0..1) as width cells of ▪ and □.
func ProgressBar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	pct = min(max(pct, 0), 1)
	filled := min(int(pct*float64(width)), width)
	return strings.Repeat("▪", filled) + strings.Repeat("□", width-filled)
}

// FormatBytes re-exports stats.FormatBytes so presenters need one import.
func FormatBytes(b int64) string {
	return stats.FormatBytes(b)
}

// StripRoot removes a root prefix from a path, returning a clean relative path.
func StripRoot(root, path string) string {
	if root == "" {
		return path
	}
	if !strings.HasSuffix(root, string(filepath.Separator)) {
		root += string(filepath.Separator)
	}
	if strings.HasPrefix(path, root) {
		return path[len(root):]
	}
	return path
}

// truncPath shortens a path to fit within maxLen characters, keeping the tail.
func truncPath(path string, maxLen int) string {
	if maxLen <= 0 || len(path) <= maxLen {
		return path
	}
	if maxLen <= 3 {
		return path[:maxLen]
	}
	return "..." + path[len(path)-maxLen+3:]
}
