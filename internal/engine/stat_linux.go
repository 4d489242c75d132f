//go:build linux

package engine

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// setFileTimes stamps the modification time on an open descriptor and
// leaves the access time alone.
func setFileTimes(rawFd int, fdPath string, modTime time.Time) error {
	mts := unix.NsecToTimespec(modTime.UnixNano())
	times := []unix.Timespec{{Nsec: unix.UTIME_OMIT}, mts}

	err := unix.UtimesNanoAt(rawFd, "", times, unix.AT_EMPTY_PATH)
	if err == nil {
		return nil
	}
	// Some filesystems reject AT_EMPTY_PATH; retry by path.
	if unix.UtimesNanoAt(unix.AT_FDCWD, fdPath, times, 0) != nil {
		return fmt.Errorf("utimensat %s: %w", fdPath, err)
	}
	return nil
}
