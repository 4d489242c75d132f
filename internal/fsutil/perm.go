package fsutil

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// SetPermissions applies mode and ownership to the file at path. A uid or
// gid of -1 leaves that half of the ownership unchanged; ownership is only
// touched when at least one of them is set.
func SetPermissions(path string, mode uint32, uid, gid int) error {
	if err := unix.Chmod(path, mode&0o7777); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if uid >= 0 || gid >= 0 {
		if err := unix.Chown(path, uid, gid); err != nil {
			return fmt.Errorf("chown %s: %w", path, err)
		}
	}
	return nil
}

// SetPermissionsFile is SetPermissions for an open descriptor.
func SetPermissionsFile(f *os.File, mode uint32, uid, gid int) error {
	fd := int(f.Fd())
	if err := unix.Fchmod(fd, mode&0o7777); err != nil {
		return fmt.Errorf("fchmod %s: %w", f.Name(), err)
	}
	if uid >= 0 || gid >= 0 {
		if err := unix.Fchown(fd, uid, gid); err != nil {
			return fmt.Errorf("fchown %s: %w", f.Name(), err)
		}
	}
	return nil
}

// CopyPermissions clones mode and ownership from one path onto another.
func CopyPermissions(from, to string) error {
	var st unix.Stat_t
	if err := unix.Stat(from, &st); err != nil {
		return fmt.Errorf("stat %s: %w", from, err)
	}
	if err := unix.Chmod(to, st.Mode&0o7777); err != nil {
		return fmt.Errorf("chmod %s: %w", to, err)
	}
	if err := unix.Chown(to, int(st.Uid), int(st.Gid)); err != nil {
		return fmt.Errorf("chown %s: %w", to, err)
	}
	return nil
}
