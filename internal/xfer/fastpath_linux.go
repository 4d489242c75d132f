//go:build linux

package xfer

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// classify picks the transfer strategy from the endpoint file types: a
// regular file on both sides takes sendfile, a fifo on either side takes
// splice, anything else runs in userspace. A failed fstat is fatal.
func classify(src, dst *os.File) (Method, error) {
	var srcStat, dstStat unix.Stat_t
	if err := unix.Fstat(int(src.Fd()), &srcStat); err != nil {
		return Userspace, fmt.Errorf("stat source: %w", err)
	}
	if err := unix.Fstat(int(dst.Fd()), &dstStat); err != nil {
		return Userspace, fmt.Errorf("stat destination: %w", err)
	}

	srcType := srcStat.Mode & unix.S_IFMT
	dstType := dstStat.Mode & unix.S_IFMT
	switch {
	case srcType == unix.S_IFREG && dstType == unix.S_IFREG:
		return Sendfile, nil
	case srcType == unix.S_IFIFO || dstType == unix.S_IFIFO:
		return Splice, nil
	}
	return Userspace, nil
}

// copySendfile moves bytes between two regular files with sendfile(2),
// reading and writing at the current file offsets. Chunks are capped at
// CheckpointBytes so cancellation and progress stay responsive.
func copySendfile(dst, src *os.File, limit int64, cp *checkpoint) (int64, error) {
	dstFd := int(dst.Fd())
	srcFd := int(src.Fd())

	var total int64
	remaining := limit
	for remaining > 0 {
		chunk := min(remaining, CheckpointBytes)
		n, err := unix.Sendfile(dstFd, srcFd, nil, int(chunk))
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return total, fmt.Errorf("sendfile: %w", err)
		}
		if n == 0 {
			break
		}
		total += int64(n)
		remaining -= int64(n)
		if err := cp.advance(int64(n)); err != nil {
			return total, err
		}
	}

	cp.finish()
	return total, nil
}

// copySplice moves bytes through a pipe endpoint with splice(2). The move
// and more hints let the kernel steal pages and batch work when it can.
func copySplice(dst, src *os.File, limit int64, cp *checkpoint) (int64, error) {
	dstFd := int(dst.Fd())
	srcFd := int(src.Fd())

	var total int64
	remaining := limit
	for remaining > 0 {
		chunk := min(remaining, CheckpointBytes)
		n, err := unix.Splice(srcFd, nil, dstFd, nil, int(chunk), unix.SPLICE_F_MOVE|unix.SPLICE_F_MORE)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return total, fmt.Errorf("splice: %w", err)
		}
		if n == 0 {
			break
		}
		total += n
		remaining -= n
		if err := cp.advance(n); err != nil {
			return total, err
		}
	}

	cp.finish()
	return total, nil
}
