package engine

import (
	"fmt"
	"os"
	"syscall"
	"time"
)

// FileType identifies the kind of filesystem entry a task copies.
type FileType int

const (
	Regular FileType = iota
	Dir
	Symlink
)

// FileTask describes a single copy operation produced by the scanner.
type FileTask struct {
	SrcPath    string
	DstPath    string
	LinkTarget string // symlink target, empty otherwise
	ModTime    time.Time
	Size       int64
	Mode       uint32 // unix mode bits: permissions plus suid/sgid/sticky
	UID        uint32
	GID        uint32
	Type       FileType
}

// taskFromInfo builds a Regular task from a stat result. Callers override
// Type for directories.
func taskFromInfo(srcPath, dstPath string, info os.FileInfo) (FileTask, error) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return FileTask{}, fmt.Errorf("unsupported stat type for %s", srcPath)
	}

	return FileTask{
		SrcPath: srcPath,
		DstPath: dstPath,
		Type:    Regular,
		Size:    info.Size(),
		Mode:    uint32(stat.Mode),
		UID:     stat.Uid,
		GID:     stat.Gid,
		ModTime: info.ModTime(),
	}, nil
}
