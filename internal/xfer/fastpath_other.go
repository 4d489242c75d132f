//go:build !linux

package xfer

import (
	"errors"
	"os"
)

// Kernel fast paths are Linux-only; everywhere else every copy classifies
// to the userspace loop.
func classify(_, _ *os.File) (Method, error) {
	return Userspace, nil
}

var errNoFastPath = errors.New("fast path unavailable")

func copySendfile(_, _ *os.File, _ int64, _ *checkpoint) (int64, error) {
	return 0, errNoFastPath
}

func copySplice(_, _ *os.File, _ int64, _ *checkpoint) (int64, error) {
	return 0, errNoFastPath
}
