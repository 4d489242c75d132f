//go:build darwin

package engine

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// setFileTimes stamps the modification time by path. Darwin has neither
// UTIME_OMIT nor AT_EMPTY_PATH, so the access time is set to the
// modification time and the descriptor goes unused.
func setFileTimes(_ int, fdPath string, modTime time.Time) error {
	ts := unix.NsecToTimespec(modTime.UnixNano())
	if err := unix.UtimesNanoAt(unix.AT_FDCWD, fdPath, []unix.Timespec{ts, ts}, 0); err != nil {
		return fmt.Errorf("utimensat %s: %w", fdPath, err)
	}
	return nil
}
